// Package cmd implements the thriftify CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/thriftify/internal/buildinfo"
	"github.com/theirongolddev/thriftify/internal/cli"
	"github.com/theirongolddev/thriftify/internal/client"
	"github.com/theirongolddev/thriftify/internal/config"
	"github.com/theirongolddev/thriftify/internal/dashboard"
	"github.com/theirongolddev/thriftify/internal/logger"
	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagBudget    string
	flagQuiet     bool
	flagConfigDir string
)

// cfg is loaded once per invocation by the root pre-run hook.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:               "thriftify",
	Short:             "Budget tracking dashboard",
	Long:              "Plan a budget over a number of days, log what you spend, and watch actual spending against the planned pace.",
	Version:           fmt.Sprintf("%s (commit %s, built %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "Budget server URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagBudget, "budget", "b", "", "Budget id (default: latest)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress notifications and progress output")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "Config directory (default $XDG_CONFIG_HOME/thriftify)")
}

// loadConfig reads the config file, applies flag overrides and starts the
// stderr logger. The TUI swaps the logger for a file one.
func loadConfig(c *cobra.Command, _ []string) error {
	if flagConfigDir != "" {
		if err := os.Setenv(config.EnvConfigDir, flagConfigDir); err != nil {
			return fmt.Errorf("setting config dir: %w", err)
		}
	}

	var err error
	cfg, err = config.Load()
	if err != nil && !flagQuiet {
		fmt.Fprintf(c.ErrOrStderr(), "  Config error, using defaults: %v\n", err)
	}
	if flagServer != "" {
		cfg.Client.ServerURL = flagServer
	}
	theme.SetActive(cfg.Appearance.Theme)

	logger.Init(cfg.Log.Level, c.ErrOrStderr())
	return nil
}

// newClient connects to the configured budget server.
func newClient() (*client.Client, error) {
	return client.New(cfg.Client.ServerURL, cfg.Client.Timeout())
}

// newController wires a dashboard controller for one-shot CLI commands.
// Notifications go to w unless --quiet is set.
func newController(chart dashboard.Chart, sel dashboard.Selector, w io.Writer) (*dashboard.Controller, error) {
	api, err := newClient()
	if err != nil {
		return nil, err
	}
	return dashboard.New(api, chart, sel, printNotifier(w)), nil
}

func printNotifier(w io.Writer) dashboard.Notifier {
	return dashboard.NotifierFunc(func(level dashboard.Level, msg string) {
		if flagQuiet {
			return
		}
		style := lipgloss.NewStyle().Foreground(cli.ColorTextMuted)
		switch level {
		case dashboard.LevelSuccess:
			style = cli.OKStyle
		case dashboard.LevelError:
			style = lipgloss.NewStyle().Foreground(cli.ColorRed)
		}
		fmt.Fprintf(w, "  %s\n", style.Render(msg))
	})
}

// commandContext returns the command's context carrying the logger.
func commandContext(c *cobra.Command) context.Context {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.ToContext(ctx, logger.L)
}

// discardSelector satisfies dashboard.Selector for commands that don't
// list budgets.
type discardSelector struct{}

func (discardSelector) Has(string) bool      { return true }
func (discardSelector) Append(string, string) {}
