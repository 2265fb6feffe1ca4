package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxplain/internal/agent"
	"arxplain/internal/db"
	"arxplain/internal/history"
)

type fakeSession struct {
	ready      bool
	tools      []agent.ToolSpec
	callResult string
	calls      []string
}

func (f *fakeSession) Ready() bool { return f.ready }

func (f *fakeSession) ListTools(ctx context.Context) ([]agent.ToolSpec, error) {
	return f.tools, nil
}

func (f *fakeSession) CallTool(ctx context.Context, name string, input map[string]any) (string, error) {
	f.calls = append(f.calls, name)
	return f.callResult, nil
}

type scriptedModel struct {
	replies [][]agent.ContentBlock
	calls   int
}

func (m *scriptedModel) Complete(ctx context.Context, messages []agent.Message, tools []agent.ToolSpec) ([]agent.ContentBlock, error) {
	var reply []agent.ContentBlock
	if m.calls < len(m.replies) {
		reply = m.replies[m.calls]
	}
	m.calls++
	return reply, nil
}

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "gw.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return history.NewStore(database)
}

// frames decodes the SSE body into one JSON object per frame.
func frames(t *testing.T, body string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		require.True(t, strings.HasPrefix(chunk, "data: "), "frame %q", chunk)
		var obj map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &obj))
		out = append(out, obj)
	}
	return out
}

func postExplain(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/explain-research-term", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestExplainStreamsFullScenario(t *testing.T) {
	session := &fakeSession{
		ready: true,
		tools: []agent.ToolSpec{{
			Name:        "search_papers",
			Description: "Search arXiv papers",
			InputSchema: json.RawMessage(`{"type":"object"}`),
		}},
		callResult: "Found 2 papers:\n\n1. Attention Is All You Need\n2. BERT",
	}
	model := &scriptedModel{replies: [][]agent.ContentBlock{
		{agent.ToolUseBlock{ID: "tu_1", Name: "search_papers", Input: map[string]any{"keyword": "transformer"}}},
		{agent.TextBlock{Text: "The transformer is an attention-based architecture.\n"}},
	}}
	store := newTestStore(t)
	s := NewServer(model, session, store)

	rec := postExplain(t, s, `{"text":"transformer"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	got := frames(t, rec.Body.String())
	require.Len(t, got, 4)

	assert.Equal(t, "tool_use", got[0]["type"])
	assert.Equal(t, "search_papers", got[0]["tool_name"])
	assert.Equal(t, map[string]any{"keyword": "transformer"}, got[0]["tool_input"])

	assert.Equal(t, "tool_result", got[1]["type"])
	assert.Contains(t, got[1]["content"], "Attention Is All You Need")
	assert.Contains(t, got[1]["content"], "BERT")

	assert.Equal(t, "text", got[2]["type"])
	assert.Contains(t, got[2]["content"], "transformer is an attention-based")

	assert.Equal(t, map[string]any{"type": "done"}, got[3])

	assert.Equal(t, []string{"search_papers"}, session.calls)

	// The run was persisted with the final explanation.
	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "transformer", runs[0].Term)
	assert.Equal(t, history.StatusDone, runs[0].Status)
	assert.Equal(t, 4, runs[0].EventCount)
}

func TestExplainSessionNotReady(t *testing.T) {
	s := NewServer(&scriptedModel{}, &fakeSession{ready: false}, nil)

	rec := postExplain(t, s, `{"text":"transformer"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := frames(t, rec.Body.String())
	require.Len(t, got, 1, "exactly one error frame, nothing else")
	assert.Equal(t, "error", got[0]["type"])
}

func TestExplainMissingAPIKey(t *testing.T) {
	s := NewServer(&scriptedModel{}, &fakeSession{ready: true}, nil, WithModelReady(false))

	rec := postExplain(t, s, `{"text":"transformer"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "API key")
}

func TestExplainRejectsBadRequests(t *testing.T) {
	s := NewServer(&scriptedModel{}, &fakeSession{ready: true}, nil)

	rec := postExplain(t, s, `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postExplain(t, s, `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExplainEmptyToolResultFrame(t *testing.T) {
	session := &fakeSession{
		ready:      true,
		tools:      []agent.ToolSpec{{Name: "search_papers", InputSchema: json.RawMessage(`{"type":"object"}`)}},
		callResult: "",
	}
	model := &scriptedModel{replies: [][]agent.ContentBlock{
		{agent.ToolUseBlock{ID: "tu_1", Name: "search_papers", Input: map[string]any{}}},
		{agent.TextBlock{Text: "nothing found"}},
	}}
	s := NewServer(model, session, nil)

	rec := postExplain(t, s, `{"text":"qzx"}`)
	got := frames(t, rec.Body.String())
	require.Len(t, got, 4)

	assert.Equal(t, "tool_result", got[1]["type"])
	content, present := got[1]["content"]
	assert.True(t, present, `tool_result frame must carry "content" even when empty`)
	assert.Equal(t, "", content)
	assert.Equal(t, map[string]any{"type": "done"}, got[3])
}

func TestRootReportsStatus(t *testing.T) {
	s := NewServer(&scriptedModel{}, &fakeSession{ready: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["anthropic_configured"])
}

func TestGetRunEndpoints(t *testing.T) {
	store := newTestStore(t)
	id, err := store.StartRun(context.Background(), "bert")
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(context.Background(), id, "BERT is...", 3))

	s := NewServer(&scriptedModel{}, &fakeSession{ready: true}, store)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var run history.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "BERT is...", run.Explanation)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	s := NewServer(&scriptedModel{}, &fakeSession{ready: true}, nil,
		WithAllowedOrigins([]string{"http://localhost:3000"}))

	req := httptest.NewRequest(http.MethodOptions, "/explain-research-term", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	// Unlisted origins get no CORS headers.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
