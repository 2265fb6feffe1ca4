package arxiv

import (
	"fmt"
	"strings"
)

const summaryLimit = 300

// FormatPapers renders search hits as the plain-text listing handed back to
// the model: numbered entries with authors, date, categories, PDF link and a
// truncated summary.
func FormatPapers(papers []Paper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d papers:\n\n", len(papers))
	for i, p := range papers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Title)
		b.WriteString("   Authors: " + authorLine(p.Authors))
		fmt.Fprintf(&b, "\n   Published: %s\n", p.Published.Format("2006-01-02"))
		if len(p.Categories) > 0 {
			fmt.Fprintf(&b, "   Categories: %s\n", strings.Join(p.Categories, ", "))
		}
		fmt.Fprintf(&b, "   PDF: %s\n", p.PDFURL)
		fmt.Fprintf(&b, "   Summary: %s\n\n", truncateSummary(p.Summary))
	}
	return b.String()
}

// FormatPapersByKeywords is the multi-keyword variant of the listing: the
// header names the keywords, the author line drops the total count and the
// Categories line is omitted.
func FormatPapersByKeywords(papers []Paper, keywords []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d papers containing all keywords (%s):\n\n", len(papers), strings.Join(keywords, ", "))
	for i, p := range papers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Title)
		b.WriteString("   Authors: " + strings.Join(p.Authors[:min(len(p.Authors), 3)], ", "))
		if len(p.Authors) > 3 {
			b.WriteString(" et al.")
		}
		fmt.Fprintf(&b, "\n   Published: %s\n", p.Published.Format("2006-01-02"))
		fmt.Fprintf(&b, "   PDF: %s\n", p.PDFURL)
		fmt.Fprintf(&b, "   Summary: %s\n\n", truncateSummary(p.Summary))
	}
	return b.String()
}

func authorLine(authors []string) string {
	if len(authors) <= 3 {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s et al. (%d total)", strings.Join(authors[:3], ", "), len(authors))
}

func truncateSummary(s string) string {
	if len(s) > summaryLimit {
		return s[:summaryLimit] + "..."
	}
	return s
}
