package mcpserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxplain/internal/arxiv"
)

type fakeSearcher struct {
	papers     []arxiv.Paper
	err        error
	lastQuery  string
	lastMaxRes int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]arxiv.Paper, error) {
	f.lastQuery = query
	f.lastMaxRes = maxResults
	return f.papers, f.err
}

func twoPapers() []arxiv.Paper {
	return []arxiv.Paper{
		{
			Title:     "Attention Is All You Need",
			Authors:   []string{"Ashish Vaswani"},
			Summary:   "The Transformer architecture.",
			Published: time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
			PDFURL:    "http://arxiv.org/pdf/1706.03762v7",
		},
		{
			Title:     "BERT",
			Authors:   []string{"Jacob Devlin"},
			Summary:   "Bidirectional transformers.",
			Published: time.Date(2018, 10, 11, 0, 0, 0, 0, time.UTC),
			PDFURL:    "http://arxiv.org/pdf/1810.04805v2",
		},
	}
}

func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := srv.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := tool.Handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content should be text")
	return tc.Text
}

func TestSearchPapers(t *testing.T) {
	searcher := &fakeSearcher{papers: twoPapers()}
	srv := New(searcher)

	result := callTool(t, srv, "search_papers", map[string]any{
		"keyword":     "transformer",
		"max_results": float64(5),
	})
	require.False(t, result.IsError)

	text := textOf(t, result)
	assert.Contains(t, text, "Found 2 papers:")
	assert.Contains(t, text, "Attention Is All You Need")
	assert.Contains(t, text, "BERT")
	assert.Equal(t, `all:"transformer"`, searcher.lastQuery)
	assert.Equal(t, 5, searcher.lastMaxRes)
}

func TestSearchPapersBuildsFieldQuery(t *testing.T) {
	searcher := &fakeSearcher{papers: twoPapers()}
	srv := New(searcher)

	callTool(t, srv, "search_papers", map[string]any{
		"title":      "Attention Is All You Need",
		"categories": []any{"cs.CL", "cs.LG"},
	})
	assert.Equal(t, `ti:"Attention Is All You Need" AND (cat:cs.CL OR cat:cs.LG)`, searcher.lastQuery)
	assert.Equal(t, 10, searcher.lastMaxRes, "default max_results")
}

func TestSearchPapersRequiresParameter(t *testing.T) {
	srv := New(&fakeSearcher{})
	result := callTool(t, srv, "search_papers", map[string]any{})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "At least one search parameter is required")
}

func TestSearchPapersNoResults(t *testing.T) {
	srv := New(&fakeSearcher{})
	result := callTool(t, srv, "search_papers", map[string]any{"keyword": "qzx"})
	assert.False(t, result.IsError)
	assert.Contains(t, textOf(t, result), "No papers found for query:")
}

func TestSearchPapersUpstreamError(t *testing.T) {
	srv := New(&fakeSearcher{err: errors.New("connection refused")})
	result := callTool(t, srv, "search_papers", map[string]any{"keyword": "x"})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "search failed")
}

func TestMultiKeyword(t *testing.T) {
	searcher := &fakeSearcher{papers: twoPapers()}
	srv := New(searcher)

	result := callTool(t, srv, "search_with_multiple_keywords", map[string]any{
		"keywords":   []any{"transformer", "attention"},
		"categories": []any{"cs.CL"},
	})
	require.False(t, result.IsError)
	assert.Equal(t, `all:"transformer" AND all:"attention" AND (cat:cs.CL)`, searcher.lastQuery)

	text := textOf(t, result)
	assert.Contains(t, text, "Found 2 papers containing all keywords (transformer, attention):")
	assert.NotContains(t, text, "Categories:")
}

func TestMultiKeywordRequiresKeywords(t *testing.T) {
	srv := New(&fakeSearcher{})
	result := callTool(t, srv, "search_with_multiple_keywords", map[string]any{})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "At least one keyword is required")
}

func TestMultiKeywordNoResults(t *testing.T) {
	srv := New(&fakeSearcher{})
	result := callTool(t, srv, "search_with_multiple_keywords", map[string]any{
		"keywords": []any{"a", "b"},
	})
	assert.False(t, result.IsError)
	assert.Contains(t, textOf(t, result), "No papers found containing all keywords: a, b")
}
