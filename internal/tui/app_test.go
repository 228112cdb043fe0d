package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/thriftify/internal/config"
	"github.com/theirongolddev/thriftify/internal/dashboard"
	"github.com/theirongolddev/thriftify/internal/model"
	"github.com/theirongolddev/thriftify/internal/series"
	"github.com/theirongolddev/thriftify/internal/tui/components"
	"github.com/theirongolddev/thriftify/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu        sync.Mutex
	budgets   []model.Budget
	spending  map[string][]model.SpendingEvent
	requested []string
	err       error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		budgets: []model.Budget{
			{ID: "b1", StartDate: "2024-01-01", Duration: 30, Amount: decimal.NewFromInt(300)},
			{ID: "b2", StartDate: "2024-02-01", Duration: 7, Amount: decimal.NewFromInt(70)},
		},
		spending: map[string][]model.SpendingEvent{
			"b1": {{Day: 10, Amount: decimal.NewFromInt(50), Purpose: "groceries"}},
		},
	}
}

func (f *fakeBackend) find(id string) model.Budget {
	if id == "" {
		return f.budgets[0]
	}
	for _, b := range f.budgets {
		if b.ID == id {
			return b
		}
	}
	return model.Budget{}
}

func (f *fakeBackend) Dashboard(_ context.Context, id string) (*model.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, id)
	if f.err != nil {
		return nil, f.err
	}
	b := f.find(id)
	return &model.Dashboard{Budget: b, Spending: f.spending[b.ID], AllBudgets: f.budgets}, nil
}

func (f *fakeBackend) Stats(_ context.Context, id string) (*model.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.find(id)
	totals, total := series.Totals(f.spending[b.ID])
	return &model.Stats{Budget: b, ByPurpose: totals, Total: total}, nil
}

func (f *fakeBackend) CreateBudget(context.Context, model.NewBudget) error { return nil }

func (f *fakeBackend) LogSpending(context.Context, model.NewSpending) error { return nil }

func (f *fakeBackend) lastRequested() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requested[len(f.requested)-1]
}

func newTestApp(t *testing.T, api *fakeBackend) App {
	t.Helper()
	a, err := NewApp(Options{
		Config:  config.DefaultConfig(),
		Connect: func(string) (Backend, error) { return api, nil },
	})
	require.NoError(t, err)
	return a
}

// step applies msg and returns the new model.
func step(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns an app that has completed its first refresh and stats load.
func loaded(t *testing.T, api *fakeBackend) App {
	t.Helper()
	a := newTestApp(t, api)
	a, _ = step(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})

	a, cmd := step(t, a, a.refresh("")())
	require.NotNil(t, cmd, "successful refresh should fetch stats")
	a, _ = step(t, a, cmd())
	return a
}

func TestNewApp_RequiresConnector(t *testing.T) {
	_, err := NewApp(Options{Config: config.DefaultConfig()})
	require.Error(t, err)
}

func TestNewApp_ConnectError(t *testing.T) {
	_, err := NewApp(Options{
		Config:  config.DefaultConfig(),
		Connect: func(string) (Backend, error) { return nil, errors.New("bad url") },
	})
	require.ErrorContains(t, err, "bad url")
}

func TestApp_LoadsDashboardAndStats(t *testing.T) {
	api := newFakeBackend()
	a := loaded(t, api)

	assert.True(t, a.loaded)
	assert.Equal(t, 2, a.list.Len())
	assert.Equal(t, "b1", a.list.Highlighted())
	assert.Equal(t, 31, a.chart.Len())
	require.NotNil(t, a.stats)
	assert.True(t, a.stats.Total.Equal(decimal.NewFromInt(50)))

	view := a.View()
	assert.Contains(t, view, "Plan to date")
	assert.Contains(t, view, "$300.00")
}

func TestApp_OpensRequestedBudget(t *testing.T) {
	api := newFakeBackend()
	a, err := NewApp(Options{
		Config:   config.DefaultConfig(),
		BudgetID: "b2",
		Connect:  func(string) (Backend, error) { return api, nil },
	})
	require.NoError(t, err)

	a, _ = step(t, a, a.pageLoaded()())
	assert.Equal(t, "b2", api.lastRequested())
	assert.Equal(t, "b2", a.ctrl.State().Active.ID)
	assert.Equal(t, 8, a.chart.Len())
}

func TestApp_Tabs(t *testing.T) {
	a := loaded(t, newFakeBackend())

	a, _ = step(t, a, key("p"))
	assert.Equal(t, components.TabPurposes, a.activeTab)
	assert.Contains(t, a.View(), "groceries")

	a, _ = step(t, a, key("b"))
	assert.Equal(t, components.TabBudgets, a.activeTab)
	assert.Contains(t, a.View(), "Budgets (2)")

	a, _ = step(t, a, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, components.TabChart, a.activeTab)
}

func TestApp_ChartCursorAndTooltip(t *testing.T) {
	a := loaded(t, newFakeBackend())

	for range 10 {
		a, _ = step(t, a, tea.KeyMsg{Type: tea.KeyRight})
	}
	assert.Equal(t, 10, a.chart.Cursor())
	assert.Equal(t, []string{"Day 10", "Planned: $100", "Amount: $50", "Purpose: groceries"}, a.chart.Tooltip())
	assert.Contains(t, a.View(), "Purpose: groceries")
}

func TestApp_SwitchBudgetWithBrackets(t *testing.T) {
	api := newFakeBackend()
	a := loaded(t, api)

	a, cmd := step(t, a, key("]"))
	require.NotNil(t, cmd)
	assert.True(t, a.refreshing)

	a, _ = step(t, a, cmd())
	assert.Equal(t, "b2", api.lastRequested())
	assert.Equal(t, "b2", a.ctrl.State().Active.ID)
	assert.Equal(t, 8, a.chart.Len())
	assert.False(t, a.refreshing)
}

func TestApp_BudgetListEnter(t *testing.T) {
	api := newFakeBackend()
	a := loaded(t, api)
	a, _ = step(t, a, key("b"))

	a, _ = step(t, a, key("j"))
	a, cmd := step(t, a, key("enter"))
	require.NotNil(t, cmd)
	a, _ = step(t, a, cmd())
	assert.Equal(t, "b2", a.ctrl.State().Active.ID)

	// Enter on the active budget does nothing.
	_, cmd = step(t, a, key("enter"))
	assert.Nil(t, cmd)
}

func TestApp_FormOpenAndCancel(t *testing.T) {
	a := loaded(t, newFakeBackend())

	a, _ = step(t, a, key("n"))
	require.NotNil(t, a.form)
	assert.Equal(t, formBudget, a.formKind)
	assert.Equal(t, time.Now().Format(model.DateLayout), a.budget.StartDate)

	a, _ = step(t, a, key("esc"))
	assert.Nil(t, a.form)
	assert.Equal(t, formNone, a.formKind)

	a, _ = step(t, a, key("l"))
	assert.Equal(t, formSpending, a.formKind)
	assert.Contains(t, a.View(), "Purpose")
}

func TestApp_SubmitBudgetForm(t *testing.T) {
	api := newFakeBackend()
	a := loaded(t, api)

	a.openBudgetForm()
	a.budget.Duration = "10"
	a.budget.Amount = "100"

	m, cmd := a.submitForm()
	a = m.(App)
	require.NotNil(t, cmd)
	assert.Nil(t, a.form)
	assert.True(t, a.refreshing)

	msg := cmd().(refreshedMsg)
	require.NoError(t, msg.err)
	assert.Equal(t, dashboard.BudgetSubmitted, msg.kind)

	flash := waitForFlash(a.notes)().(flashMsg)
	assert.Equal(t, dashboard.MsgBudgetCreated, flash.Text)
	assert.Equal(t, dashboard.LevelSuccess, flash.Level)
}

func TestApp_FlashShownThenExpires(t *testing.T) {
	api := newFakeBackend()
	a := loaded(t, api)

	api.err = errors.New("connection refused")
	a, _ = step(t, a, a.refresh("b1")())

	msg := waitForFlash(a.notes)()
	a, cmd := step(t, a, msg)
	assert.NotNil(t, cmd, "flash handling should re-arm the listener")
	assert.Equal(t, dashboard.LevelError, a.flash.Level)
	assert.Equal(t, "Error: connection refused", a.flash.Text)
	assert.Contains(t, a.View(), "Error: connection refused")

	a, _ = step(t, a, tickMsg(time.Now().Add(flashDuration+time.Second)))
	assert.Empty(t, a.flash.Text)
}

func TestApp_AutoRefreshDue(t *testing.T) {
	a := loaded(t, newFakeBackend())
	now := a.lastRefresh

	assert.False(t, a.dueForRefresh(now.Add(time.Second)))
	assert.True(t, a.dueForRefresh(now.Add(31*time.Second)))

	a.cfg.Client.RefreshSec = 0
	assert.False(t, a.dueForRefresh(now.Add(time.Hour)))
}

func TestApp_HelpToggle(t *testing.T) {
	a := loaded(t, newFakeBackend())

	a, _ = step(t, a, key("?"))
	assert.Contains(t, a.View(), "Keyboard Shortcuts")

	// Any key closes help without acting.
	a, cmd := step(t, a, key("q"))
	assert.False(t, a.showHelp)
	assert.Nil(t, cmd)
}

func TestApp_LoadingAndNarrowViews(t *testing.T) {
	a := newTestApp(t, newFakeBackend())
	assert.Empty(t, a.View())

	a, _ = step(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Contains(t, a.View(), "Loading budget")

	a, _ = step(t, a, tea.WindowSizeMsg{Width: 40, Height: 30})
	assert.Contains(t, a.View(), "too narrow")
}

func TestApp_SetupWizardSavesConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)
	t.Cleanup(func() { theme.SetActive(theme.FlexokiDark.Name) })

	api := newFakeBackend()
	var connected string
	a, err := NewApp(Options{
		Config:    config.DefaultConfig(),
		NeedSetup: true,
		Connect: func(url string) (Backend, error) {
			connected = url
			return api, nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, formSetup, a.formKind)
	assert.Nil(t, a.ctrl)

	a.setup.ServerURL = "http://budget.local:8080"
	a.setup.Theme = theme.TokyoNight.Name

	m, cmd := a.submitForm()
	a = m.(App)
	require.NotNil(t, cmd)
	assert.Equal(t, "http://budget.local:8080", connected)
	assert.Equal(t, theme.TokyoNight.Name, theme.Active.Name)

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	saved, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://budget.local:8080", saved.Client.ServerURL)

	a, _ = step(t, a, cmd())
	assert.True(t, a.loaded)
}

func TestSummarize(t *testing.T) {
	b := model.Budget{ID: "b1", StartDate: "2024-01-01", Duration: 30, Amount: decimal.NewFromInt(300)}
	s, err := series.Build(30, b.Amount, []model.SpendingEvent{
		{Day: 1, Amount: decimal.NewFromInt(20)},
		{Day: 4, Amount: decimal.RequireFromString("12.50")},
	})
	require.NoError(t, err)

	sum := summarize(b, s, time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, 10, sum.Elapsed)
	assert.True(t, sum.Spent.Equal(decimal.RequireFromString("32.5")))
	assert.True(t, sum.Remaining.Equal(decimal.RequireFromString("267.5")))
	assert.True(t, sum.PlannedToDate.Equal(decimal.NewFromInt(100)))
	assert.InDelta(t, 10.0/30, sum.Pace, 1e-9)

	// Far past the end clamps to the last day.
	sum = summarize(b, s, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 30, sum.Elapsed)
	assert.InDelta(t, 1.0, sum.Pace, 1e-9)

	zero := model.Budget{StartDate: "2024-01-01", Amount: decimal.Zero}
	zs, err := series.Build(0, decimal.Zero, nil)
	require.NoError(t, err)
	sum = summarize(zero, zs, time.Now())
	assert.Equal(t, 1.0, sum.Pace)
	assert.Zero(t, sum.Used)
}

func TestValidateServerURL(t *testing.T) {
	assert.NoError(t, validateServerURL("http://127.0.0.1:5000"))
	assert.NoError(t, validateServerURL(" https://budget.example.com "))
	assert.Error(t, validateServerURL("127.0.0.1:5000"))
	assert.Error(t, validateServerURL("ftp://host"))
	assert.Error(t, validateServerURL(""))
}
