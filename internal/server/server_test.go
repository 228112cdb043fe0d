package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/thriftify/internal/model"
	"github.com/theirongolddev/thriftify/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, cfg Config) (*Service, *httptest.Server) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "srv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := New(cfg, st, NewMemoryCache(time.Minute))
	ts := httptest.NewServer(svc.Handler())
	t.Cleanup(ts.Close)
	return svc, ts
}

func post(t *testing.T, url, body string) (int, map[string]string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var m map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return resp.StatusCode, m
}

func getDashboard(t *testing.T, url string) (int, model.Dashboard) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var d model.Dashboard
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	}
	return resp.StatusCode, d
}

func TestDashboard_NoBudgets(t *testing.T) {
	_, ts := newTestService(t, Config{})

	resp, err := http.Get(ts.URL + "/dashboardData")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateAndSpend_Flow(t *testing.T) {
	_, ts := newTestService(t, Config{})

	code, msg := post(t, ts.URL+"/createBudget", `{"startDate":"2024-03-01","duration":"30","budget":300}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, MsgBudgetCreated, msg["message"])

	// Prime the cache, then check that a write invalidates it.
	code, d := getDashboard(t, ts.URL+"/dashboardData")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, d.Spending)

	code, msg = post(t, ts.URL+"/spendingBudget", `{"date":"2024-03-11","spent":"50","purpose":"<b>groceries</b> & more"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, MsgSpendingAdded, msg["message"])

	// Outside the window.
	code, _ = post(t, ts.URL+"/spendingBudget", `{"date":"2024-04-01","spent":1,"purpose":"later"}`)
	require.Equal(t, http.StatusOK, code)

	code, d = getDashboard(t, ts.URL+"/dashboardData")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 30, d.Budget.Duration)
	assert.Equal(t, "2024-03-01", d.Budget.StartDate)
	require.Len(t, d.Spending, 1)
	assert.Equal(t, 10, d.Spending[0].Day)
	assert.Equal(t, "groceries & more", d.Spending[0].Purpose)
	assert.Equal(t, "50", d.Spending[0].Amount.String())
	require.Len(t, d.AllBudgets, 1)

	code, byID := getDashboard(t, ts.URL+"/dashboardData?budget_id="+d.Budget.ID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, d, byID)
}

func TestDashboard_UnknownID(t *testing.T) {
	_, ts := newTestService(t, Config{})
	code, _ := getDashboard(t, ts.URL+"/dashboardData?budget_id=missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateBudget_Invalid(t *testing.T) {
	_, ts := newTestService(t, Config{})

	for _, body := range []string{
		`{}`,
		`{"startDate":"2024-03-01","budget":100}`,
		`{"startDate":"2024-03-01","duration":null,"budget":100}`,
		`{"startDate":"03/01/2024","duration":10,"budget":100}`,
		`{"startDate":"2024-03-01","duration":-1,"budget":100}`,
		`{"startDate":"2024-03-01","duration":1.5,"budget":100}`,
		`{"startDate":"2024-03-01","duration":10,"budget":-5}`,
		`{"startDate":"2024-03-01","duration":"ten","budget":100}`,
		`not json`,
	} {
		code, msg := post(t, ts.URL+"/createBudget", body)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, MsgInvalidData, msg["error"], body)
	}
}

func TestLogSpending_Invalid(t *testing.T) {
	_, ts := newTestService(t, Config{})

	for _, body := range []string{
		`{"date":"2024-03-01","spent":5}`,
		`{"date":"","spent":5,"purpose":"x"}`,
		`{"date":"2024-03-01","spent":-5,"purpose":"x"}`,
	} {
		code, msg := post(t, ts.URL+"/spendingBudget", body)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, MsgInvalidData, msg["error"], body)
	}

	code, _ := post(t, ts.URL+"/spendingBudget", `{"date":"2024-03-01","spent":5,"purpose":""}`)
	assert.Equal(t, http.StatusOK, code, "empty purpose is allowed")
}

func TestStats(t *testing.T) {
	_, ts := newTestService(t, Config{})

	post(t, ts.URL+"/createBudget", `{"startDate":"2024-03-01","duration":7,"budget":70}`)
	post(t, ts.URL+"/spendingBudget", `{"date":"2024-03-02","spent":"10.50","purpose":"food"}`)
	post(t, ts.URL+"/spendingBudget", `{"date":"2024-03-03","spent":4,"purpose":"bus"}`)
	post(t, ts.URL+"/spendingBudget", `{"date":"2024-03-04","spent":2,"purpose":"food"}`)

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var s model.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	require.Len(t, s.ByPurpose, 2)
	assert.Equal(t, "food", s.ByPurpose[0].Purpose)
	assert.Equal(t, "12.5", s.ByPurpose[0].Spent.String())
	assert.Equal(t, "16.5", s.Total.String())
}

func TestStatusAndEvents(t *testing.T) {
	svc, ts := newTestService(t, Config{EventsBuffer: 2})

	post(t, ts.URL+"/createBudget", `{"startDate":"2024-03-01","duration":7,"budget":70}`)
	post(t, ts.URL+"/spendingBudget", `{"date":"2024-03-02","spent":1,"purpose":"a"}`)
	post(t, ts.URL+"/spendingBudget", `{"date":"2024-03-02","spent":2,"purpose":"b"}`)
	getDashboard(t, ts.URL+"/dashboardData")
	getDashboard(t, ts.URL+"/dashboardData")

	st := svc.snapshotStatus()
	assert.Equal(t, int64(3), st.Writes)
	assert.Equal(t, int64(1), st.CacheHits)
	assert.Equal(t, "memory", st.Cache)
	assert.Equal(t, 2, st.EventCount)

	resp, err := http.Get(ts.URL + "/v1/status")
	require.NoError(t, err)
	var served Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&served))
	_ = resp.Body.Close()
	assert.Equal(t, 1, served.Budgets)

	resp, err = http.Get(ts.URL + "/v1/events")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var events []Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, "spending_logged", events[1].Type)
}

func TestStream_DeliversWrites(t *testing.T) {
	_, ts := newTestService(t, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	sc := bufio.NewScanner(resp.Body)
	require.True(t, sc.Scan())
	assert.Equal(t, "event: hello", sc.Text())

	post(t, ts.URL+"/createBudget", `{"startDate":"2024-03-01","duration":7,"budget":70}`)

	var seen bool
	for sc.Scan() {
		if sc.Text() == "event: budget_created" {
			seen = true
			break
		}
	}
	assert.True(t, seen)
}

func TestRateLimit(t *testing.T) {
	_, ts := newTestService(t, Config{RatePerSec: 0.001, Burst: 1})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "run.db"))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	svc := New(Config{Addr: "127.0.0.1:0"}, st, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSanitizePurpose(t *testing.T) {
	assert.Equal(t, "coffee", sanitizePurpose(" <script>x</script>coffee "))
	assert.Equal(t, "R&D", sanitizePurpose("R&D"))
}

// gatedStore blocks the next SpendingBetween call until release is closed.
type gatedStore struct {
	*store.Store

	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) hold() (entered, release chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entered, g.release = make(chan struct{}), make(chan struct{})
	return g.entered, g.release
}

func (g *gatedStore) SpendingBetween(ctx context.Context, from, to time.Time) ([]store.Spending, error) {
	g.mu.Lock()
	entered, release := g.entered, g.release
	g.entered, g.release = nil, nil
	g.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}
	return g.Store.SpendingBetween(ctx, from, to)
}

func TestCache_WriteDuringReadIsNotHidden(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "srv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	gs := &gatedStore{Store: st}
	ts := httptest.NewServer(New(Config{}, gs, NewMemoryCache(time.Minute)).Handler())
	t.Cleanup(ts.Close)

	code, _ := post(t, ts.URL+"/createBudget", `{"startDate":"2024-03-01","duration":30,"budget":300}`)
	require.Equal(t, http.StatusOK, code)

	entered, release := gs.hold()
	done := make(chan model.Dashboard)
	go func() {
		resp, err := http.Get(ts.URL + "/dashboardData")
		if err != nil {
			done <- model.Dashboard{}
			return
		}
		defer func() { _ = resp.Body.Close() }()
		var d model.Dashboard
		_ = json.NewDecoder(resp.Body).Decode(&d)
		done <- d
	}()

	<-entered
	code, _ = post(t, ts.URL+"/spendingBudget", `{"date":"2024-03-11","spent":50,"purpose":"groceries"}`)
	require.Equal(t, http.StatusOK, code)
	close(release)

	inflight := <-done
	assert.Empty(t, inflight.Spending, "in-flight read was computed before the write")

	code, d := getDashboard(t, ts.URL+"/dashboardData")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, d.Spending, 1)
}
