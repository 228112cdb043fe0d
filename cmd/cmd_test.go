package cmd

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/thriftify/internal/dashboard"
	"github.com/theirongolddev/thriftify/internal/server"
	"github.com/theirongolddev/thriftify/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "thriftify.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := server.New(server.Config{RatePerSec: 1000, Burst: 1000}, st, server.NewMemoryCache(time.Minute))
	ts := httptest.NewServer(svc.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// resetFlags restores every flag to its default so commands can run again
// in the same process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI and returns stdout, stderr and the command error.
func run(t *testing.T, serverURL string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", t.TempDir(), "--server", serverURL}, args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLI_BudgetLifecycle(t *testing.T) {
	ts := newBackend(t)

	_, _, err := run(t, ts.URL, "chart")
	require.Error(t, err, "chart without budgets should fail")

	_, stderr, err := run(t, ts.URL, "create", "--start", "2024-01-01", "--days", "30", "--amount", "300")
	require.NoError(t, err)
	assert.Contains(t, stderr, dashboard.MsgBudgetCreated)

	_, stderr, err = run(t, ts.URL, "spend", "--date", "2024-01-11", "--amount", "50", "--purpose", "groceries")
	require.NoError(t, err)
	assert.Contains(t, stderr, dashboard.MsgSpendingLogged)

	out, _, err := run(t, ts.URL, "chart")
	require.NoError(t, err)
	assert.Contains(t, out, "Day 10")
	assert.Contains(t, out, "$100.00")
	assert.Contains(t, out, "$50")
	assert.Contains(t, out, "groceries")
	assert.NotContains(t, out, "Day 11", "days without spending are hidden by default")

	out, _, err = run(t, ts.URL, "chart", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Day 30")

	out, _, err = run(t, ts.URL, "budgets")
	require.NoError(t, err)
	assert.Contains(t, out, "Budgets (1)")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "$300.00")

	out, _, err = run(t, ts.URL, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "groceries")
	assert.Contains(t, out, "$50.00")
	assert.Contains(t, out, "100.0%")
}

func TestCLI_InvalidInput(t *testing.T) {
	ts := newBackend(t)

	_, stderr, err := run(t, ts.URL, "create", "--days=-1", "--amount", "5")
	require.Error(t, err)
	assert.Contains(t, stderr, dashboard.MsgInvalidInput)

	_, stderr, err = run(t, ts.URL, "create", "--start", "03/01/2024", "--days", "5", "--amount", "5")
	require.Error(t, err)
	assert.Contains(t, stderr, dashboard.MsgBudgetFailed)

	_, stderr, err = run(t, ts.URL, "--quiet", "spend", "--amount", "abc")
	require.Error(t, err)
	assert.NotContains(t, stderr, dashboard.MsgInvalidInput)
}

func TestCLI_UnreachableServer(t *testing.T) {
	ts := newBackend(t)
	url := ts.URL
	ts.Close()

	_, stderr, err := run(t, url, "spend", "--amount", "5")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error: ")
}

func TestCLI_ConfigAndServeStatus(t *testing.T) {
	ts := newBackend(t)

	out, _, err := run(t, ts.URL, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "[Server]")
	assert.Contains(t, out, ts.URL)

	out, _, err = run(t, ts.URL, "serve", "status", "--addr", strings.TrimPrefix(ts.URL, "http://"))
	require.NoError(t, err)
	assert.Contains(t, out, "Requests:")
	assert.Contains(t, out, "Budgets: 0")
	assert.Contains(t, out, "Cache: memory")
}

func TestTextChartDetail(t *testing.T) {
	chart := &textChart{}
	assert.Nil(t, chart.detail(0))

	chart.SetTooltip(func(raw float64, i int) []string { return []string{"Amount: $5"} })
	chart.SetData([]string{"Day 0"}, []float64{0}, []float64{5})
	chart.Update()
	assert.Equal(t, []string{"Amount: $5"}, chart.detail(0))
	assert.Nil(t, chart.detail(3))
	assert.Equal(t, 1, chart.updates)
}
