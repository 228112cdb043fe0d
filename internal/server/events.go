package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/theirongolddev/thriftify/internal/logger"
)

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.snapshotStatus()
	n, err := s.store.BudgetCount(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warn("counting budgets", "error", err)
	}
	st.Budgets = n
	writeJSON(w, http.StatusOK, st)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

// handleStream pushes write events as server-sent events until the client leaves.
func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	writeSSE(w, Event{Type: "hello", Timestamp: time.Now()})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
