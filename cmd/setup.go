package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/theirongolddev/thriftify/internal/config"
	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(c *cobra.Command, _ []string) error {
	serverURL := cfg.Client.ServerURL
	themeName := cfg.Appearance.Theme
	refresh := strconv.Itoa(cfg.Client.RefreshSec)

	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to thriftify!").
				Description("Saved to "+config.Path()),
			huh.NewInput().
				Title("Budget server URL").
				Value(&serverURL).
				Validate(func(s string) error {
					u, err := url.Parse(strings.TrimSpace(s))
					if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
						return errors.New("enter an http(s) URL")
					}
					return nil
				}),
			huh.NewInput().
				Title("Auto-refresh (seconds, 0 = off)").
				Value(&refresh).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 0 {
						return errors.New("enter a whole number of seconds")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&themeName),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	cfg.Client.ServerURL = strings.TrimSpace(serverURL)
	cfg.Client.RefreshSec, _ = strconv.Atoi(strings.TrimSpace(refresh))
	cfg.Appearance.Theme = themeName

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out := c.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Saved to %s\n", config.Path())
	fmt.Fprintln(out, "  Run `thriftify setup` anytime to reconfigure.")
	fmt.Fprintln(out)
	return nil
}
