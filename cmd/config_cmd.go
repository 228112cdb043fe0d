package cmd

import (
	"fmt"

	"github.com/theirongolddev/thriftify/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(c *cobra.Command, _ []string) error {
	out := c.OutOrStdout()

	fmt.Fprintf(out, "  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Fprintln(out, "  Status: loaded")
	} else {
		fmt.Fprintln(out, "  Status: using defaults (no config file)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Client]")
	fmt.Fprintf(out, "    Server URL:   %s\n", cfg.Client.ServerURL)
	fmt.Fprintf(out, "    Timeout:      %s\n", cfg.Client.Timeout())
	if iv := cfg.Client.RefreshInterval(); iv > 0 {
		fmt.Fprintf(out, "    Auto-refresh: every %s\n", iv)
	} else {
		fmt.Fprintln(out, "    Auto-refresh: off")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Appearance]")
	fmt.Fprintf(out, "    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Log]")
	fmt.Fprintf(out, "    Level:    %s\n", cfg.Log.Level)
	fmt.Fprintf(out, "    TUI file: %s\n", cfg.Log.LogFile())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Server]")
	fmt.Fprintf(out, "    Listen:     %s\n", cfg.Server.Addr)
	fmt.Fprintf(out, "    Database:   %s\n", cfg.Server.Database())
	if cfg.Server.RedisURL != "" {
		fmt.Fprintf(out, "    Cache:      redis %s (ttl %s)\n", cfg.Server.RedisURL, cfg.Server.CacheTTL())
	} else {
		fmt.Fprintf(out, "    Cache:      memory (ttl %s)\n", cfg.Server.CacheTTL())
	}
	fmt.Fprintf(out, "    Rate limit: %.1f/s, burst %d\n", cfg.Server.RatePerSec, cfg.Server.Burst)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Run `thriftify setup` to reconfigure.")
	return nil
}
