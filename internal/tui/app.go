// Package tui provides the interactive Bubble Tea budget dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/thriftify/internal/config"
	"github.com/theirongolddev/thriftify/internal/dashboard"
	"github.com/theirongolddev/thriftify/internal/logger"
	"github.com/theirongolddev/thriftify/internal/model"
	"github.com/theirongolddev/thriftify/internal/tui/components"
	"github.com/theirongolddev/thriftify/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Backend is everything the TUI needs from the budget server.
type Backend interface {
	dashboard.API
	Stats(ctx context.Context, budgetID string) (*model.Stats, error)
}

// ConnectFunc builds a backend for a server URL.
type ConnectFunc func(serverURL string) (Backend, error)

// Options configures NewApp.
type Options struct {
	Config    config.Config
	BudgetID  string // initial budget; "" for the latest
	NeedSetup bool   // show the first-run wizard before loading
	Connect   ConnectFunc
	Context   context.Context
}

// refreshedMsg is sent when a controller operation that ends in a refresh
// completes.
type refreshedMsg struct {
	kind dashboard.EventKind
	err  error
}

// statsMsg carries the per-purpose totals for the active budget.
type statsMsg struct {
	budgetID string
	stats    *model.Stats
	err      error
}

// flashMsg is a notification raised by the controller.
type flashMsg components.Flash

type tickMsg time.Time

type formKind int

const (
	formNone formKind = iota
	formBudget
	formSpending
	formSetup
)

const (
	minTerminalWidth = 60
	maxContentWidth  = 160
	flashDuration    = 4 * time.Second
	minContentHeight = 8
)

// App is the root Bubble Tea model.
type App struct {
	ctx     context.Context
	cfg     config.Config
	connect ConnectFunc

	api   Backend
	ctrl  *dashboard.Controller
	chart *components.LineChart
	list  *components.BudgetList
	notes chan components.Flash

	// Data
	initialID   string
	loaded      bool
	refreshing  bool
	lastRefresh time.Time
	stats       *model.Stats

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model

	flash      components.Flash
	flashUntil time.Time

	// Forms (huh binds to pointers, which survive model copies)
	form     *huh.Form
	formKind formKind
	budget   *dashboard.BudgetForm
	spending *dashboard.SpendingForm
	setup    *setupValues
}

// NewApp creates the TUI model. The backend is connected immediately unless
// the first-run wizard is pending.
func NewApp(opts Options) (App, error) {
	if opts.Connect == nil {
		return App{}, errors.New("tui: no backend connector")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	a := App{
		ctx:       ctx,
		cfg:       opts.Config,
		connect:   opts.Connect,
		chart:     components.NewLineChart(),
		list:      components.NewBudgetList(),
		notes:     make(chan components.Flash, 8),
		initialID: opts.BudgetID,
		spinner:   sp,
	}

	if opts.NeedSetup {
		a.openSetupForm()
		return a, nil
	}
	if err := a.attach(opts.Config.Client.ServerURL); err != nil {
		return App{}, err
	}
	return a, nil
}

// attach connects to serverURL and wires a fresh controller to the widgets.
func (a *App) attach(serverURL string) error {
	api, err := a.connect(serverURL)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", serverURL, err)
	}
	notes := a.notes
	notify := dashboard.NotifierFunc(func(level dashboard.Level, msg string) {
		select {
		case notes <- components.Flash{Level: level, Text: msg}:
		default:
		}
	})
	a.api = api
	a.cfg.Client.ServerURL = serverURL
	a.ctrl = dashboard.New(api, a.chart, a.list, notify)
	return nil
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.spinner.Tick,
		tickCmd(),
		waitForFlash(a.notes),
	}
	if a.form != nil {
		cmds = append(cmds, a.form.Init())
	} else {
		cmds = append(cmds, a.pageLoaded())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(min(msg.Width, 70))
		}
		return a, nil

	case refreshedMsg:
		a.refreshing = false
		a.loaded = true
		a.lastRefresh = time.Now()
		if msg.err != nil {
			logger.FromContext(a.ctx).Debug("dashboard action failed", "event", msg.kind.String(), "error", msg.err)
		}
		st := a.ctrl.State()
		if st.Active.ID != "" {
			a.list.SetActive(st.Active.ID)
		}
		if !st.Loaded {
			return a, nil
		}
		return a, a.fetchStats(st.Active.ID)

	case statsMsg:
		if msg.err != nil {
			logger.FromContext(a.ctx).Warn("loading stats failed", "budget", msg.budgetID, "error", msg.err)
			return a, nil
		}
		if active := a.ctrl.State().Active.ID; active == "" || msg.budgetID == active {
			a.stats = msg.stats
		}
		return a, nil

	case flashMsg:
		a.flash = components.Flash(msg)
		a.flashUntil = time.Now().Add(flashDuration)
		return a, waitForFlash(a.notes)

	case tickMsg:
		now := time.Time(msg)
		if a.flash.Text != "" && now.After(a.flashUntil) {
			a.flash = components.Flash{}
		}
		var cmd tea.Cmd
		if a.dueForRefresh(now) {
			cmd = a.refresh(a.ctrl.Selected())
			a.refreshing = true
		}
		return a, tea.Batch(tickCmd(), cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.form != nil {
			return a.updateForm(msg)
		}
		return a.updateKeys(msg)
	}

	// Forward cursor blinks and friends to an open form.
	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		a.refreshing = true
		return a, a.refresh(a.ctrl.Selected())
	case "n":
		a.openBudgetForm()
		return a, a.form.Init()
	case "l":
		a.openSpendingForm()
		return a, a.form.Init()
	case "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "shift+tab":
		a.activeTab = (a.activeTab + len(components.Tabs) - 1) % len(components.Tabs)
		return a, nil
	case "[", "]":
		delta := 1
		if key == "[" {
			delta = -1
		}
		a.list.Move(delta)
		return a, a.selectHighlighted()
	}

	if a.activeTab == components.TabBudgets {
		switch key {
		case "j", "down":
			a.list.Move(1)
			return a, nil
		case "k", "up":
			a.list.Move(-1)
			return a, nil
		case "enter":
			return a, a.selectHighlighted()
		}
	}

	if a.activeTab == components.TabChart {
		switch key {
		case "left", "h":
			a.chart.MoveCursor(-1)
			return a, nil
		case "right":
			a.chart.MoveCursor(1)
			return a, nil
		case "home", "g":
			a.chart.MoveCursor(-a.chart.Len())
			return a, nil
		case "end", "G":
			a.chart.MoveCursor(a.chart.Len())
			return a, nil
		}
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// selectHighlighted switches the dashboard to the highlighted budget.
func (a *App) selectHighlighted() tea.Cmd {
	id := a.list.Highlighted()
	if id == "" || id == a.ctrl.State().Active.ID {
		return nil
	}
	a.refreshing = true
	return a.dispatch(dashboard.Event{Kind: dashboard.BudgetSelected, BudgetID: id})
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" && a.formKind != formSetup {
		a.closeForm()
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		return a.submitForm()
	case huh.StateAborted:
		kind := a.formKind
		a.closeForm()
		if kind == formSetup {
			return a.finishSetup(false)
		}
		return a, nil
	}
	return a, cmd
}

// submitForm hands the completed form to the controller.
func (a App) submitForm() (tea.Model, tea.Cmd) {
	kind := a.formKind
	a.closeForm()

	switch kind {
	case formBudget:
		a.refreshing = true
		return a, a.dispatch(dashboard.Event{Kind: dashboard.BudgetSubmitted, Budget: *a.budget})
	case formSpending:
		a.refreshing = true
		return a, a.dispatch(dashboard.Event{Kind: dashboard.SpendingSubmitted, Spending: *a.spending})
	case formSetup:
		return a.finishSetup(true)
	}
	return a, nil
}

// finishSetup persists the wizard answers (when saved) and starts loading.
func (a App) finishSetup(save bool) (tea.Model, tea.Cmd) {
	log := logger.FromContext(a.ctx)
	url := a.cfg.Client.ServerURL
	if save {
		a.cfg.Client.ServerURL = a.setup.ServerURL
		a.cfg.Appearance.Theme = a.setup.Theme
		theme.SetActive(a.setup.Theme)
		url = a.setup.ServerURL
		if err := config.Save(a.cfg); err != nil {
			log.Error("saving config", "error", err)
			a.flash = components.Flash{Level: dashboard.LevelError, Text: "Could not save config: " + err.Error()}
			a.flashUntil = time.Now().Add(flashDuration)
		}
	}

	if err := a.attach(url); err != nil {
		log.Error("connect failed", "url", url, "error", err)
		return a, tea.Quit
	}
	a.refreshing = true
	return a, a.pageLoaded()
}

func (a *App) closeForm() {
	a.form = nil
	a.formKind = formNone
}

func (a App) dueForRefresh(now time.Time) bool {
	interval := a.cfg.Client.RefreshInterval()
	if interval == 0 || a.ctrl == nil || !a.loaded || a.refreshing || a.form != nil {
		return false
	}
	return now.Sub(a.lastRefresh) >= interval
}

// ─── Commands ───────────────────────────────────────────────────

// dispatch runs a controller event in the background.
func (a App) dispatch(ev dashboard.Event) tea.Cmd {
	ctrl, ctx := a.ctrl, a.ctx
	return func() tea.Msg {
		return refreshedMsg{kind: ev.Kind, err: ctrl.Dispatch(ctx, ev)}
	}
}

// pageLoaded loads the budget requested with --budget, or the latest one.
func (a App) pageLoaded() tea.Cmd {
	return a.dispatch(dashboard.Event{Kind: dashboard.PageLoaded, BudgetID: a.initialID})
}

func (a App) refresh(budgetID string) tea.Cmd {
	return a.dispatch(dashboard.Event{Kind: dashboard.BudgetSelected, BudgetID: budgetID})
}

func (a App) fetchStats(budgetID string) tea.Cmd {
	api, ctx := a.api, a.ctx
	return func() tea.Msg {
		st, err := api.Stats(ctx, budgetID)
		return statsMsg{budgetID: budgetID, stats: st, err: err}
	}
}

// waitForFlash blocks until the controller raises the next notification.
func waitForFlash(notes chan components.Flash) tea.Cmd {
	return func() tea.Msg {
		return flashMsg(<-notes)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
