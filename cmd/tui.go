package cmd

import (
	"fmt"

	"github.com/theirongolddev/thriftify/internal/client"
	"github.com/theirongolddev/thriftify/internal/config"
	"github.com/theirongolddev/thriftify/internal/logger"
	"github.com/theirongolddev/thriftify/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(c *cobra.Command, _ []string) error {
	// The alt screen owns the terminal; log to a file instead.
	logPath := cfg.Log.LogFile()
	f, err := logger.OpenFile(logPath)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", logPath, err)
	}
	defer f.Close()
	logger.Init(cfg.Log.Level, f)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	timeout := cfg.Client.Timeout()
	app, err := tui.NewApp(tui.Options{
		Config:    cfg,
		BudgetID:  flagBudget,
		NeedSetup: !config.Exists() && flagServer == "",
		Context:   commandContext(c),
		Connect: func(serverURL string) (tui.Backend, error) {
			api, err := client.New(serverURL, timeout)
			if err != nil {
				return nil, err
			}
			return api, nil
		},
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
