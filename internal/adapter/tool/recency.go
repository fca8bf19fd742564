package tool

import (
	"strings"
	"time"
)

// recencyWindow is how far back a time-sensitive query is biased.
const recencyWindow = 7 * 24 * time.Hour

// recencyKeywords mark a query as time-sensitive. Matching is by substring,
// so "updates" and "nowhere" also match.
var recencyKeywords = []string{
	"today", "now", "latest", "recent", "current", "news", "update",
	"happened", "happening", "score", "price", "weather", "stock",
}

// EnhanceQuery biases time-sensitive queries toward results from the last
// seven days. See EnhanceQueryAt.
func EnhanceQuery(query string) string {
	return EnhanceQueryAt(query, time.Now())
}

// EnhanceQueryAt appends " after:YYYY-MM-DD" (now minus seven days) when the
// lower-cased query contains a recency keyword, and otherwise returns query
// unchanged. The original casing is preserved.
func EnhanceQueryAt(query string, now time.Time) string {
	if !isTimeSensitive(query) {
		return query
	}
	return query + " after:" + now.Add(-recencyWindow).Format(time.DateOnly)
}

func isTimeSensitive(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range recencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
