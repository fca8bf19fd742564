package tool

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"scout/internal/domain"
)

const (
	// maxFormattedResults caps the entries FormatResults renders.
	maxFormattedResults = 6

	noResultsText = "No results found."
	resultsHeader = "Latest web results:\n"
)

// FormatResults renders raw "[title]url[snippet]" lines as a numbered list.
//
// Blank lines are skipped before the cap is applied, so numbering is
// contiguous and at most six entries are emitted. A line that does not split
// into three parts is emitted verbatim after its ordinal.
func FormatResults(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return noResultsText
	}

	parts := []string{resultsHeader}
	n := 0
	for line := range strings.SplitSeq(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n++
		parts = append(parts, formatEntry(n, line))
		if n == maxFormattedResults {
			break
		}
	}
	return strings.Join(parts, "\n")
}

func formatEntry(n int, line string) string {
	ord := strconv.Itoa(n) + ". "
	fields := strings.SplitN(line, "]", 3)
	if len(fields) < 3 {
		return ord + line + "\n"
	}
	title := fields[0]
	if len(title) > 0 {
		_, n := utf8.DecodeRuneInString(title)
		title = title[n:]
	}
	return ord + title + "\n   Link: " + fields[1] + "\n   " + strings.TrimSpace(fields[2]) + "\n"
}

// encodeReplacer keeps each encoded field on one line and free of the
// field delimiter.
var encodeReplacer = strings.NewReplacer("]", ")", "\r\n", " ", "\n", " ", "\r", " ")

// EncodeResults renders backend results into the raw line format consumed by
// FormatResults, one "[title]url]snippet" line per result. FormatResults
// splits on "]", so this layout yields exactly title, link and snippet.
func EncodeResults(results []domain.SearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteByte('[')
		sb.WriteString(encodeReplacer.Replace(r.Title))
		sb.WriteByte(']')
		sb.WriteString(encodeReplacer.Replace(r.URL))
		sb.WriteByte(']')
		sb.WriteString(encodeReplacer.Replace(r.Snippet))
	}
	return sb.String()
}
