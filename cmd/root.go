package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loomcli/loom/pkg/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Terminal client for a stateful agent server",
	Long:  `loom streams conversations with a remote agent into your terminal, weaving reasoning, tool calls and replies into one transcript.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := viper.GetString("prompt")
		return RunApplication(prompt)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", ".loom/settings.yaml", "config file")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("server", "", "agent server URL")
	viper.BindPFlag("server.url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.PersistentFlags().StringP("agent", "a", "", "agent id to converse with")
	viper.BindPFlag("agent.id", rootCmd.PersistentFlags().Lookup("agent"))

	rootCmd.Flags().StringP("prompt", "p", "", "send one prompt and print the reply without entering the TUI")
	viper.BindPFlag("prompt", rootCmd.Flags().Lookup("prompt"))

	config.SetDefaults()
}

func initConfig() {
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("LOOM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing settings file is fine; defaults and flags cover it.
		if _, ok := err.(*os.PathError); !ok {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				fmt.Fprintf(os.Stderr, "Warning: could not read config: %v\n", err)
			}
		}
	}
}
