package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/theirongolddev/thriftify/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", time.Second)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "ftp://example.com", "http://"} {
		_, err := New(u, 0)
		assert.Error(t, err, u)
	}
}

func TestDashboard_WithBudgetID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dashboardData", r.URL.Path)
		assert.Equal(t, "b2", r.URL.Query().Get("budget_id"))
		_, _ = w.Write([]byte(`{
			"budget": {"_id":"b2","start_date":"2024-03-01","duration":"30","budget":"300"},
			"spending": [{"day":10,"amount":"50","purpose":"groceries"}],
			"allBudgets": [{"_id":"b1","start_date":"2024-02-01","duration":7,"budget":70},
			               {"_id":"b2","start_date":"2024-03-01","duration":30,"budget":300}]
		}`))
	})

	d, err := c.Dashboard(context.Background(), "b2")
	require.NoError(t, err)

	assert.Equal(t, 30, d.Budget.Duration)
	assert.True(t, d.Budget.Amount.Equal(decimal.NewFromInt(300)))
	require.Len(t, d.Spending, 1)
	assert.Equal(t, "groceries", d.Spending[0].Purpose)
	assert.True(t, d.Spending[0].Amount.Equal(decimal.NewFromInt(50)))
	assert.Len(t, d.AllBudgets, 2)
}

func TestDashboard_DefaultOmitsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"budget":{"_id":"b1","duration":1,"budget":1},"spending":[],"allBudgets":[]}`))
	})

	_, err := c.Dashboard(context.Background(), "")
	require.NoError(t, err)
}

func TestDashboard_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>login</html>`))
	})

	_, err := c.Dashboard(context.Background(), "")
	assert.ErrorContains(t, err, "parsing dashboard")
}

func TestCreateBudget_SendsJSON(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/createBudget", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":"Budget Created Successfully!"}`))
	})

	err := c.CreateBudget(context.Background(), model.NewBudget{
		StartDate: "2024-03-01",
		Duration:  30,
		Amount:    decimal.RequireFromString("300.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"startDate": "2024-03-01", "duration": float64(30), "budget": 300.5}, got)
}

func TestLogSpending_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid Data."}`))
	})

	err := c.LogSpending(context.Background(), model.NewSpending{Date: "2024-03-02", Spent: decimal.NewFromInt(5)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "Invalid Data.", se.Message)
}

func TestDashboard_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"budget not found"}`, http.StatusNotFound)
	})

	_, err := c.Dashboard(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDashboard_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, 50*time.Millisecond)
	require.NoError(t, err)

	_, err = c.Dashboard(context.Background(), "")
	assert.ErrorContains(t, err, "request failed")
}

func TestStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats", r.URL.Path)
		_, _ = w.Write([]byte(`{"budget":{"_id":"b1","duration":7,"budget":70},
			"byPurpose":[{"purpose":"food","spent":25}],"total":25}`))
	})

	s, err := c.Stats(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, s.ByPurpose, 1)
	assert.True(t, s.Total.Equal(decimal.NewFromInt(25)))
}
