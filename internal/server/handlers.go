package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/theirongolddev/thriftify/internal/logger"
	"github.com/theirongolddev/thriftify/internal/model"
	"github.com/theirongolddev/thriftify/internal/series"
	"github.com/theirongolddev/thriftify/internal/store"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

// Response messages shared with the dashboard client.
const (
	MsgBudgetCreated = "Budget Created Successfully!"
	MsgSpendingAdded = "Spending Logged Successfully!"
	MsgInvalidData   = "Invalid Data."
	MsgNoBudgets     = "No budgets yet."
	MsgNoSuchBudget  = "Budget not found."
)

const maxRequestBody = 64 << 10

var purposePolicy = bluemonday.StrictPolicy()

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("budget_id")
	s.serveCached(w, r, "dashboard:"+cacheID(id), func(ctx context.Context) (any, int, error) {
		b, status, err := s.resolveBudget(ctx, id)
		if err != nil {
			return nil, status, err
		}
		spending, err := s.spendingFor(ctx, b)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		all, err := s.store.ListBudgets(ctx)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return model.Dashboard{Budget: b, Spending: spending, AllBudgets: all}, http.StatusOK, nil
	})
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("budget_id")
	s.serveCached(w, r, "stats:"+cacheID(id), func(ctx context.Context) (any, int, error) {
		b, status, err := s.resolveBudget(ctx, id)
		if err != nil {
			return nil, status, err
		}
		spending, err := s.spendingFor(ctx, b)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		byPurpose, total := series.Totals(spending)
		return model.Stats{Budget: b, ByPurpose: byPurpose, Total: total}, http.StatusOK, nil
	})
}

type createBudgetRequest struct {
	StartDate *string          `json:"startDate"`
	Duration  *decimal.Decimal `json:"duration"`
	Budget    *decimal.Decimal `json:"budget"`
}

func (s *Service) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req createBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		log.Debug("createBudget: bad body", "error", err)
		writeError(w, http.StatusBadRequest, MsgInvalidData)
		return
	}
	nb, err := req.validate()
	if err != nil {
		log.Debug("createBudget: invalid", "error", err)
		writeError(w, http.StatusBadRequest, MsgInvalidData)
		return
	}

	b, err := s.store.CreateBudget(r.Context(), nb)
	if err != nil {
		log.Error("createBudget: store", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not save budget.")
		return
	}
	s.recordWrite(r.Context(), "budget_created", b.ID)
	log.Info("budget created", "id", b.ID, "start", b.StartDate, "duration", b.Duration)
	writeJSON(w, http.StatusOK, map[string]string{"message": MsgBudgetCreated})
}

func (req createBudgetRequest) validate() (model.NewBudget, error) {
	if req.StartDate == nil || req.Duration == nil || req.Budget == nil {
		return model.NewBudget{}, errors.New("missing field")
	}
	start, err := time.Parse(model.DateLayout, strings.TrimSpace(*req.StartDate))
	if err != nil {
		return model.NewBudget{}, fmt.Errorf("startDate: %w", err)
	}
	d := *req.Duration
	if !d.IsInteger() || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(model.MaxDuration)) {
		return model.NewBudget{}, fmt.Errorf("duration %s out of range", d)
	}
	if req.Budget.IsNegative() {
		return model.NewBudget{}, fmt.Errorf("budget %s is negative", req.Budget)
	}
	return model.NewBudget{
		StartDate: start.Format(model.DateLayout),
		Duration:  int(d.IntPart()),
		Amount:    *req.Budget,
	}, nil
}

type logSpendingRequest struct {
	Date    *string          `json:"date"`
	Spent   *decimal.Decimal `json:"spent"`
	Purpose *string          `json:"purpose"`
}

func (s *Service) handleLogSpending(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req logSpendingRequest
	if err := decodeBody(r, &req); err != nil {
		log.Debug("spendingBudget: bad body", "error", err)
		writeError(w, http.StatusBadRequest, MsgInvalidData)
		return
	}
	ns, err := req.validate()
	if err != nil {
		log.Debug("spendingBudget: invalid", "error", err)
		writeError(w, http.StatusBadRequest, MsgInvalidData)
		return
	}

	id, err := s.store.AddSpending(r.Context(), ns)
	if err != nil {
		log.Error("spendingBudget: store", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not save spending.")
		return
	}
	s.recordWrite(r.Context(), "spending_logged", id)
	log.Info("spending logged", "id", id, "date", ns.Date)
	writeJSON(w, http.StatusOK, map[string]string{"message": MsgSpendingAdded})
}

func (req logSpendingRequest) validate() (model.NewSpending, error) {
	if req.Date == nil || req.Spent == nil || req.Purpose == nil {
		return model.NewSpending{}, errors.New("missing field")
	}
	date, err := time.Parse(model.DateLayout, strings.TrimSpace(*req.Date))
	if err != nil {
		return model.NewSpending{}, fmt.Errorf("date: %w", err)
	}
	if req.Spent.IsNegative() {
		return model.NewSpending{}, fmt.Errorf("spent %s is negative", req.Spent)
	}
	return model.NewSpending{
		Date:    date.Format(model.DateLayout),
		Spent:   *req.Spent,
		Purpose: sanitizePurpose(*req.Purpose),
	}, nil
}

// sanitizePurpose strips markup but keeps plain characters such as '&' literal.
func sanitizePurpose(p string) string {
	return strings.TrimSpace(html.UnescapeString(purposePolicy.Sanitize(p)))
}

func (s *Service) resolveBudget(ctx context.Context, id string) (model.Budget, int, error) {
	var (
		b   model.Budget
		err error
	)
	if id != "" {
		b, err = s.store.GetBudget(ctx, id)
	} else {
		b, err = s.store.LatestBudget(ctx)
	}
	switch {
	case errors.Is(err, store.ErrNotFound) && id != "":
		return b, http.StatusNotFound, errors.New(MsgNoSuchBudget)
	case errors.Is(err, store.ErrNotFound):
		return b, http.StatusNotFound, errors.New(MsgNoBudgets)
	case err != nil:
		return b, http.StatusInternalServerError, err
	}
	return b, http.StatusOK, nil
}

// spendingFor returns the budget's spending as day offsets from its start.
func (s *Service) spendingFor(ctx context.Context, b model.Budget) ([]model.SpendingEvent, error) {
	start, ok := b.Start()
	if !ok {
		return nil, fmt.Errorf("budget %s: bad start date %q", b.ID, b.StartDate)
	}
	end := start.AddDate(0, 0, b.Duration)

	rows, err := s.store.SpendingBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	events := make([]model.SpendingEvent, 0, len(rows))
	for _, row := range rows {
		date, ok := model.ParseDate(row.Date)
		if !ok {
			continue
		}
		events = append(events, model.SpendingEvent{
			Day:     int(date.Sub(start).Hours() / 24),
			Amount:  row.Spent,
			Purpose: row.Purpose,
		})
	}
	return events, nil
}

// serveCached writes a cached JSON body for key, or computes, caches and writes it.
func (s *Service) serveCached(w http.ResponseWriter, r *http.Request, key string, compute func(context.Context) (any, int, error)) {
	ctx := r.Context()
	if data, ok := s.cache.Get(ctx, key); ok {
		s.mu.Lock()
		s.cacheHits++
		s.mu.Unlock()
		writeRaw(w, http.StatusOK, data)
		return
	}

	s.mu.RLock()
	gen := s.writes
	s.mu.RUnlock()

	v, status, err := compute(ctx)
	if err != nil {
		if status >= http.StatusInternalServerError {
			logger.FromContext(ctx).Error("request failed", "path", r.URL.Path, "error", err)
			writeError(w, status, "Internal error.")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}
	// data may predate a write that landed during compute. recordWrite bumps
	// writes before it flushes, so a changed counter here means our entry
	// could have survived that flush.
	s.cache.Set(ctx, key, data)
	s.mu.RLock()
	stale := s.writes != gen
	s.mu.RUnlock()
	if stale {
		s.cache.Flush(ctx)
	}
	writeRaw(w, http.StatusOK, data)
}

func cacheID(id string) string {
	if id == "" {
		return "latest"
	}
	return id
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
