package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/thriftify/internal/logger"
	"github.com/theirongolddev/thriftify/internal/server"
	"github.com/theirongolddev/thriftify/internal/store"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	flagServeAddr         string
	flagServeDB           string
	flagServeRedis        string
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the budget backend (SQLite storage, HTTP/SSE endpoints)",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running backend",
	RunE:  runServeStatus,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().StringVar(&flagServeDB, "db", "", "SQLite database path (default in the config dir)")
	serveCmd.Flags().StringVar(&flagServeRedis, "redis", "", "Redis URL for the response cache (default: in-memory)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory write events retained")

	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(c *cobra.Command, _ []string) error {
	sc := cfg.Server
	if flagServeAddr != "" {
		sc.Addr = flagServeAddr
	}
	if flagServeDB != "" {
		sc.DBPath = flagServeDB
	}
	if flagServeRedis != "" {
		sc.RedisURL = flagServeRedis
	}

	ctx, cancel := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(sc.Database())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var cache server.Cache = server.NewMemoryCache(sc.CacheTTL())
	if sc.RedisURL != "" {
		rc, err := server.NewRedisCache(ctx, sc.RedisURL, sc.CacheTTL())
		if err != nil {
			logger.L.Warn("redis unavailable, using in-memory cache", "error", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	svc := server.New(server.Config{
		Addr:         sc.Addr,
		RatePerSec:   sc.RatePerSec,
		Burst:        sc.Burst,
		EventsBuffer: flagServeEventsBuffer,
	}, st, cache)

	if !flagQuiet {
		out := c.OutOrStdout()
		fmt.Fprintf(out, "  thriftify backend listening on http://%s\n", sc.Addr)
		fmt.Fprintf(out, "  Database: %s\n", sc.Database())
		fmt.Fprintf(out, "  Cache: %s\n", cache.Name())
	}

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(c *cobra.Command, _ []string) error {
	base := cfg.Client.ServerURL
	if flagServeAddr != "" {
		base = "http://" + flagServeAddr
	}
	out := c.OutOrStdout()
	fmt.Fprintf(out, "  Address: %s\n", base)

	ctx, cancel := context.WithTimeout(commandContext(c), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/status", nil)
	if err != nil {
		return fmt.Errorf("building status request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(out, "  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(out, "  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st server.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Fprintf(out, "  API status: malformed response (%v)\n", err)
		return nil
	}

	fmt.Fprintf(out, "  Up since: %s (%s)\n", st.StartedAt.Local().Format(time.RFC3339), humanize.Time(st.StartedAt))
	fmt.Fprintf(out, "  Requests: %s\n", humanize.Comma(st.Requests))
	fmt.Fprintf(out, "  Writes: %s\n", humanize.Comma(st.Writes))
	fmt.Fprintf(out, "  Budgets: %d\n", st.Budgets)
	if st.LastWriteAt.IsZero() {
		fmt.Fprintf(out, "  Last write: none\n")
	} else {
		fmt.Fprintf(out, "  Last write: %s\n", humanize.Time(st.LastWriteAt))
	}
	fmt.Fprintf(out, "  Cache: %s (%s hits)\n", st.Cache, humanize.Comma(st.CacheHits))
	fmt.Fprintf(out, "  Stream subscribers: %d\n", st.SubscriberCount)
	return nil
}
