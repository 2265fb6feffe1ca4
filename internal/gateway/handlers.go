package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"arxplain/internal/agent"
	"arxplain/internal/history"
)

type explainRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "text is required"})
		return
	}

	// Missing credentials are a plain status failure; once streaming starts
	// the status is committed and errors can only travel as frames.
	if !s.modelReady {
		slog.Error("anthropic api key is not configured")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Anthropic API key is not configured."})
		return
	}

	slog.Info("explain request", "term_length", len(req.Text))

	sse := NewSSEWriter(w)

	if !s.tools.Ready() {
		sse.Send(agent.ErrorEvent{Content: "tool provider session not initialized"})
		return
	}

	tools, err := s.tools.ListTools(r.Context())
	if err != nil {
		slog.Error("listing tools failed", "error", err)
		sse.Send(agent.ErrorEvent{Content: "Error processing request: " + err.Error()})
		return
	}

	runID := s.startRun(r.Context(), req.Text)

	messages := []agent.Message{{
		Role:    agent.RoleUser,
		Content: []agent.ContentBlock{agent.TextBlock{Text: BuildPrompt(req.Text)}},
	}}

	var explanation strings.Builder
	eventCount := 0
	var lastErr string

	runErr := agent.NewLoop(s.model, s.tools).Run(r.Context(), messages, tools, func(ev agent.Event) {
		eventCount++
		switch e := ev.(type) {
		case agent.TextEvent:
			explanation.WriteString(e.Content)
		case agent.ErrorEvent:
			lastErr = e.Content
		}
		if err := sse.Send(ev); err != nil {
			slog.Debug("dropping frame, client gone", "error", err)
		}
	})

	s.recordRun(runID, runErr, lastErr, explanation.String(), eventCount)
}

// startRun opens a history record; persistence trouble never blocks a run.
func (s *Server) startRun(ctx context.Context, term string) string {
	if s.store == nil {
		return ""
	}
	id, err := s.store.StartRun(ctx, term)
	if err != nil {
		slog.Warn("failed to record run start", "error", err)
		return ""
	}
	return id
}

func (s *Server) recordRun(runID string, runErr error, errText, explanation string, eventCount int) {
	if s.store == nil || runID == "" {
		return
	}
	// The request context is likely gone by now.
	ctx := context.Background()
	if runErr != nil {
		if errText == "" {
			errText = runErr.Error()
		}
		if err := s.store.FailRun(ctx, runID, errText, eventCount); err != nil {
			slog.Warn("failed to record run failure", "run_id", runID, "error", err)
		}
		return
	}
	if err := s.store.FinishRun(ctx, runID, explanation, eventCount); err != nil {
		slog.Warn("failed to record run completion", "run_id", runID, "error", err)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"message":              "arXiv Research Term Explainer API is running.",
		"anthropic_configured": s.modelReady,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "run history disabled"})
		return
	}
	runs, err := s.store.ListRuns(r.Context(), 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "run history disabled"})
		return
	}
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "run not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
