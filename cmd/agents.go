package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loomcli/loom/pkg/client"
	"github.com/loomcli/loom/pkg/config"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage agents on the server",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		agents, err := c.ListAgents(ctx)
		if err != nil {
			return err
		}
		if len(agents) == 0 {
			fmt.Println("no agents")
			return nil
		}
		for _, agent := range agents {
			fmt.Printf("%s\t%s\t%s\n", agent.ID, agent.Name, agent.Model)
		}
		return nil
	},
}

var agentsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		model, _ := cmd.Flags().GetString("model")
		description, _ := cmd.Flags().GetString("description")
		agent, err := c.CreateAgent(ctx, client.CreateAgentRequest{
			Name:        args[0],
			Description: description,
			Model:       model,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created %s\t%s\n", agent.ID, agent.Name)
		return nil
	},
}

var agentsDeleteCmd = &cobra.Command{
	Use:   "delete <agent-id>",
	Short: "Delete an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		if err := c.DeleteAgent(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var agentsMemoryCmd = &cobra.Command{
	Use:   "memory <agent-id>",
	Short: "Show an agent's core memory blocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		blocks, err := c.ListMemoryBlocks(ctx, args[0])
		if err != nil {
			return err
		}
		for _, block := range blocks {
			fmt.Printf("[%s]\n%s\n\n", block.Label, block.Value)
		}
		return nil
	},
}

var agentsMemorySetCmd = &cobra.Command{
	Use:   "set <agent-id> <label> <value>",
	Short: "Replace the value of one core memory block",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		if err := c.UpdateMemoryBlock(ctx, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("updated %s\n", args[1])
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models the server can run agents on",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		models, err := c.ListModels(ctx)
		if err != nil {
			return err
		}
		for _, model := range models {
			fmt.Println(model)
		}
		return nil
	},
}

func init() {
	agentsCreateCmd.Flags().String("model", "", "model handle for the new agent")
	agentsCreateCmd.Flags().String("description", "", "agent description")

	agentsMemoryCmd.AddCommand(agentsMemorySetCmd)
	agentsCmd.AddCommand(agentsListCmd, agentsCreateCmd, agentsDeleteCmd, agentsMemoryCmd)
	rootCmd.AddCommand(agentsCmd, modelsCmd)
}

func newClient() (*client.AgentClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Server.URL == "" {
		return nil, fmt.Errorf("no server URL configured")
	}
	return client.NewWithTimeout(cfg.Server.URL, cfg.Server.APIKey, cfg.Server.Timeout), nil
}

func commandContext() (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("server.timeout")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
