// Package server provides the development budgeting backend served by
// "thriftify serve".
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/thriftify/internal/logger"
	"github.com/theirongolddev/thriftify/internal/model"
	"github.com/theirongolddev/thriftify/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// Store is the persistence the server needs.
type Store interface {
	CreateBudget(ctx context.Context, b model.NewBudget) (model.Budget, error)
	GetBudget(ctx context.Context, id string) (model.Budget, error)
	LatestBudget(ctx context.Context) (model.Budget, error)
	ListBudgets(ctx context.Context) ([]model.Budget, error)
	AddSpending(ctx context.Context, s model.NewSpending) (string, error)
	SpendingBetween(ctx context.Context, from, to time.Time) ([]store.Spending, error)
	BudgetCount(ctx context.Context) (int, error)
}

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	RatePerSec   float64
	Burst        int
	EventsBuffer int
}

// Event is recorded whenever a budget or spending entry is written.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"` // budget_created | spending_logged
	Timestamp time.Time `json:"timestamp"`
	RecordID  string    `json:"record_id"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Requests        int64     `json:"requests"`
	Writes          int64     `json:"writes"`
	Budgets         int       `json:"budgets"`
	LastWriteAt     time.Time `json:"last_write_at,omitzero"`
	Cache           string    `json:"cache"`
	CacheHits       int64     `json:"cache_hits"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service is the HTTP backend.
type Service struct {
	cfg     Config
	store   Store
	cache   Cache
	limiter *rate.Limiter

	mu          sync.RWMutex
	startedAt   time.Time
	requests    int64
	writes      int64
	cacheHits   int64
	lastWriteAt time.Time
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service over st. A nil cache disables response caching.
func New(cfg Config, st Store, cache Cache) *Service {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:5000"
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 10
	}
	if cfg.Burst < 1 {
		cfg.Burst = 30
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cache == nil {
		cache = noCache{}
	}

	return &Service{
		cfg:       cfg,
		store:     st,
		cache:     cache,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the routed HTTP handler.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.rateLimit)

	r.Get("/healthz", s.handleHealth)
	r.Get("/dashboardData", s.handleDashboard)
	r.Get("/stats", s.handleStats)
	r.Post("/createBudget", s.handleCreateBudget)
	r.Post("/spendingBudget", s.handleLogSpending)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.L.Info("server listening", "addr", s.cfg.Addr, "cache", s.cache.Name())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.L.Info("server shutting down")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Service) recordWrite(ctx context.Context, typ, recordID string) {
	now := time.Now()
	s.mu.Lock()
	s.writes++
	s.lastWriteAt = now
	s.nextEventID++
	ev := Event{ID: s.nextEventID, Type: typ, Timestamp: now, RecordID: recordID}
	s.mu.Unlock()

	s.cache.Flush(ctx)

	s.publishEvent(ev)
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		Requests:        s.requests,
		Writes:          s.writes,
		LastWriteAt:     s.lastWriteAt,
		Cache:           s.cache.Name(),
		CacheHits:       s.cacheHits,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

type noCache struct{}

func (noCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (noCache) Set(context.Context, string, []byte)        {}
func (noCache) Flush(context.Context)                      {}
func (noCache) Name() string                               { return "none" }
