// Package arxiv is a minimal client for the arXiv Atom query API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://export.arxiv.org/api/query"
	maxBodyBytes   = 4 * 1024 * 1024
)

// Paper is one search hit with the fields the explainer cares about.
type Paper struct {
	Title           string
	Authors         []string
	Summary         string
	Published       time.Time
	PDFURL          string
	EntryID         string
	Categories      []string
	PrimaryCategory string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different endpoint. Used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a raw search_query expression, sorted by relevance.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Paper, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("max_results", fmt.Sprint(maxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "arxplain/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying arxiv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return parseFeed(body)
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Rel   string `xml:"rel,attr"`
		Title string `xml:"title,attr"`
	} `xml:"link"`
	Categories []struct {
		Term string `xml:"term,attr"`
	} `xml:"category"`
	PrimaryCategory struct {
		Term string `xml:"term,attr"`
	} `xml:"primary_category"`
}

func parseFeed(body []byte) ([]Paper, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		p := Paper{
			Title:           collapse(e.Title),
			Summary:         collapse(e.Summary),
			EntryID:         e.ID,
			PrimaryCategory: e.PrimaryCategory.Term,
		}
		if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
			p.Published = t
		}
		for _, a := range e.Authors {
			p.Authors = append(p.Authors, a.Name)
		}
		for _, c := range e.Categories {
			p.Categories = append(p.Categories, c.Term)
		}
		for _, l := range e.Links {
			if l.Title == "pdf" {
				p.PDFURL = l.Href
			}
		}
		if p.PDFURL == "" && strings.Contains(e.ID, "/abs/") {
			p.PDFURL = strings.Replace(e.ID, "/abs/", "/pdf/", 1)
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// collapse squeezes runs of whitespace; Atom fields arrive wrapped and
// indented.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
