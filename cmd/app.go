package cmd

import (
	"fmt"
	"os"

	"github.com/loomcli/loom/pkg/chat"
	"github.com/loomcli/loom/pkg/client"
	"github.com/loomcli/loom/pkg/config"
	"github.com/loomcli/loom/pkg/controllers"
	"github.com/loomcli/loom/pkg/logger"
	"github.com/loomcli/loom/pkg/tui"
)

// RunApplication wires config, transport and controllers together and
// hands off to either the TUI or the one-shot prompt runner.
func RunApplication(prompt string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, cfg.Logging.Preserve); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging unavailable: %v\n", err)
	}

	if cfg.Agent.ID == "" {
		return fmt.Errorf("no agent selected: pass --agent or set agent.id in the settings file")
	}

	agentClient := client.NewWithTimeout(cfg.Server.URL, cfg.Server.APIKey, cfg.Server.Timeout)

	store := controllers.NewTranscriptStore()
	session := controllers.NewSessionController(agentClient, store, cfg.Agent.ID, revealTuning(cfg))
	history := controllers.NewHistoryController(agentClient, store, cfg.Agent.ID, cfg.History.PageSize)

	logger.Infof("loom starting, agent=%s", cfg.Agent.ID)

	if prompt != "" {
		return runPrompt(session, prompt)
	}
	return tui.StartApp(session, history)
}

// runPrompt sends a single message and prints the assistant's reply to
// stdout, for scripting and quick checks without the full screen UI.
func runPrompt(session *controllers.SessionController, prompt string) error {
	if err := session.Submit(prompt, nil); err != nil {
		return err
	}

	for update := range session.Updates() {
		switch update.Type {
		case controllers.TurnCompleted:
			for _, msg := range latestAssistant(session) {
				fmt.Println(msg)
			}
			return nil
		case controllers.TurnAborted:
			if update.Error != nil {
				return update.Error
			}
			return fmt.Errorf("turn aborted")
		}
	}
	return nil
}

// latestAssistant pulls the assistant and tool lines of the finished
// turn from the snapshot, oldest first.
func latestAssistant(session *controllers.SessionController) []string {
	messages := session.SnapshotMessages()

	// Walk back to the most recent user message, then print what follows.
	start := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsUser() {
			start = i + 1
			break
		}
	}

	var lines []string
	for _, msg := range messages[start:] {
		if msg.IsSuppressed() {
			continue
		}
		lines = append(lines, msg.DisplayContent())
	}
	return lines
}

func revealTuning(cfg *config.Config) chat.RevealTuning {
	tuning := chat.DefaultRevealTuning()
	if cfg.Reveal.Interval > 0 {
		tuning.Interval = cfg.Reveal.Interval
	}
	if cfg.Reveal.BaseQuantum > 0 {
		tuning.BaseQuantum = cfg.Reveal.BaseQuantum
	}
	if cfg.Reveal.BurstThreshold > 0 {
		tuning.BurstThreshold = cfg.Reveal.BurstThreshold
	}
	if cfg.Reveal.BurstMultiplier > 0 {
		tuning.BurstMultiplier = cfg.Reveal.BurstMultiplier
	}
	if cfg.Reveal.FloodThreshold > 0 {
		tuning.FloodThreshold = cfg.Reveal.FloodThreshold
	}
	if cfg.Reveal.FloodMultiplier > 0 {
		tuning.FloodMultiplier = cfg.Reveal.FloodMultiplier
	}
	return tuning
}
