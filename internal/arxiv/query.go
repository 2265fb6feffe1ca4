package arxiv

import (
	"fmt"
	"strings"
)

// Query describes a field-scoped paper search. Zero-valued fields are
// omitted from the expression.
type Query struct {
	Keyword    string
	Title      string
	Author     string
	Abstract   string
	Categories []string
}

// String renders the arXiv search_query expression: field clauses joined
// with AND, category alternatives joined with OR.
func (q Query) String() string {
	var parts []string
	if q.Title != "" {
		parts = append(parts, fmt.Sprintf("ti:%q", q.Title))
	}
	if q.Author != "" {
		parts = append(parts, fmt.Sprintf("au:%q", q.Author))
	}
	if q.Abstract != "" {
		parts = append(parts, fmt.Sprintf("abs:%q", q.Abstract))
	}
	if len(q.Categories) > 0 {
		parts = append(parts, "("+categoryClause(q.Categories)+")")
	}
	if q.Keyword != "" {
		parts = append(parts, fmt.Sprintf("all:%q", q.Keyword))
	}
	return strings.Join(parts, " AND ")
}

// IsEmpty reports whether the query has no search clauses at all.
func (q Query) IsEmpty() bool {
	return q.Keyword == "" && q.Title == "" && q.Author == "" && q.Abstract == "" && len(q.Categories) == 0
}

// MultiKeywordQuery renders an expression matching papers that contain all
// of the given keywords, optionally restricted to categories.
func MultiKeywordQuery(keywords, categories []string) string {
	parts := make([]string, 0, len(keywords)+1)
	for _, kw := range keywords {
		parts = append(parts, fmt.Sprintf("all:%q", kw))
	}
	if len(categories) > 0 {
		parts = append(parts, "("+categoryClause(categories)+")")
	}
	return strings.Join(parts, " AND ")
}

func categoryClause(categories []string) string {
	clauses := make([]string, 0, len(categories))
	for _, cat := range categories {
		clauses = append(clauses, "cat:"+cat)
	}
	return strings.Join(clauses, " OR ")
}
