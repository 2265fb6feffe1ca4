// Package mcpserver exposes the arXiv paper search as an MCP server. The
// gateway launches it over stdio as its tool provider.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"arxplain/internal/arxiv"
)

// Searcher is the slice of arxiv.Client the tool handlers need.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]arxiv.Paper, error)
}

type papersServer struct {
	searcher Searcher
}

// New creates the MCP server with the paper search tools registered.
func New(searcher Searcher) *server.MCPServer {
	ps := &papersServer{searcher: searcher}

	s := server.NewMCPServer(
		"arxiv-paper-search",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	searchTool := mcp.NewTool("search_papers",
		mcp.WithDescription("Search arXiv papers by keyword, title, author, abstract, or categories. Returns a list of papers with basic information."),
		mcp.WithString("keyword",
			mcp.Description("General keyword to search across all fields"),
		),
		mcp.WithString("title",
			mcp.Description("Keyword to search in paper titles"),
		),
		mcp.WithString("author",
			mcp.Description("Author name to search for"),
		),
		mcp.WithString("abstract",
			mcp.Description("Keyword to search in paper abstracts"),
		),
		mcp.WithArray("categories",
			mcp.Description("arXiv categories to filter by. Examples: cs.AI (Artificial Intelligence), cs.LG (Machine Learning), cs.CL (Computational Linguistics), cs.CV (Computer Vision), stat.ML (Statistics - Machine Learning)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of papers to return"),
			mcp.DefaultNumber(10),
		),
	)
	s.AddTool(searchTool, ps.handleSearchPapers)

	multiTool := mcp.NewTool("search_with_multiple_keywords",
		mcp.WithDescription("Search for papers that contain ALL of the specified keywords. Useful for finding papers on specific topics."),
		mcp.WithArray("keywords",
			mcp.Required(),
			mcp.Description("List of keywords that must all be present in the paper"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("categories",
			mcp.Description("arXiv categories to filter by (optional)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of papers to return"),
			mcp.DefaultNumber(10),
		),
	)
	s.AddTool(multiTool, ps.handleMultiKeyword)

	return s
}

func (ps *papersServer) handleSearchPapers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query := arxiv.Query{
		Keyword:    stringArg(args, "keyword"),
		Title:      stringArg(args, "title"),
		Author:     stringArg(args, "author"),
		Abstract:   stringArg(args, "abstract"),
		Categories: stringSliceArg(args, "categories"),
	}
	if query.IsEmpty() {
		return mcp.NewToolResultError("Error: At least one search parameter is required."), nil
	}

	expr := query.String()
	slog.Info("searching papers", "query", expr)

	papers, err := ps.searcher.Search(ctx, expr, intArg(args, "max_results", 10))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(papers) == 0 {
		return mcp.NewToolResultText("No papers found for query: " + expr), nil
	}
	return mcp.NewToolResultText(arxiv.FormatPapers(papers)), nil
}

func (ps *papersServer) handleMultiKeyword(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	keywords := stringSliceArg(args, "keywords")
	if len(keywords) == 0 {
		return mcp.NewToolResultError("Error: At least one keyword is required."), nil
	}

	expr := arxiv.MultiKeywordQuery(keywords, stringSliceArg(args, "categories"))
	slog.Info("searching papers by keywords", "query", expr)

	papers, err := ps.searcher.Search(ctx, expr, intArg(args, "max_results", 10))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(papers) == 0 {
		return mcp.NewToolResultText("No papers found containing all keywords: " + strings.Join(keywords, ", ")), nil
	}
	return mcp.NewToolResultText(arxiv.FormatPapersByKeywords(papers, keywords)), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
