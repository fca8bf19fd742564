package tool

import (
	"strings"
	"testing"
	"unicode/utf8"

	"scout/internal/domain"
)

func TestFormatResultsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\t"} {
		if got := FormatResults(in); got != "No results found." {
			t.Errorf("FormatResults(%q) = %q", in, got)
		}
	}
}

func TestFormatResultsTwoEntries(t *testing.T) {
	got := FormatResults("[Title]http://x[snippet]\n[Title2]http://y[snippet2]")

	if !strings.HasPrefix(got, "Latest web results:\n") {
		t.Fatalf("missing header: %q", got)
	}
	for _, want := range []string{"1. Title\n", "2. Title2\n", "Link: http://x", "Link: http://y"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatResultsExactLayout(t *testing.T) {
	got := FormatResults("[Go 1.22]https://go.dev]  Release notes  ")
	want := "Latest web results:\n\n1. Go 1.22\n   Link: https://go.dev\n   Release notes\n"
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestFormatResultsMalformedVerbatim(t *testing.T) {
	got := FormatResults("[Good]http://a]fine\njust some text\n[only]one")
	if !strings.Contains(got, "2. just some text\n") {
		t.Errorf("malformed line not verbatim:\n%s", got)
	}
	if !strings.Contains(got, "3. [only]one\n") {
		t.Errorf("two-part line not verbatim:\n%s", got)
	}
}

func TestFormatResultsCapAfterSkippingBlanks(t *testing.T) {
	var lines []string
	for i := range 9 {
		lines = append(lines, "[T"+string(rune('a'+i))+"]http://x]s", "   ")
	}
	got := FormatResults(strings.Join(lines, "\n"))

	for n := 1; n <= 6; n++ {
		if !strings.Contains(got, "\n"+string(rune('0'+n))+". ") {
			t.Errorf("missing item %d:\n%s", n, got)
		}
	}
	if strings.Contains(got, "7. ") {
		t.Errorf("more than 6 items:\n%s", got)
	}
	if strings.Count(got, "Link: ") != 6 {
		t.Errorf("got %d entries, want 6", strings.Count(got, "Link: "))
	}
}

func TestFormatResultsEmptyTitle(t *testing.T) {
	got := FormatResults("]http://x]snip")
	if !strings.Contains(got, "1. \n   Link: http://x\n   snip\n") {
		t.Errorf("got %q", got)
	}
}

func TestFormatResultsMultiByteOpener(t *testing.T) {
	got := FormatResults("«Titre»]http://x]snip")
	want := "Latest web results:\n\n1. Titre»\n   Link: http://x\n   snip\n"
	if !utf8.ValidString(got) {
		t.Fatalf("invalid UTF-8: %q", got)
	}
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestEncodeResultsRoundTrip(t *testing.T) {
	results := []domain.SearchResult{
		{Title: "Go [beta] release", URL: "https://go.dev/doc", Snippet: "line one\nline two"},
		{Title: "Second", URL: "https://example.com", Snippet: "tail]bracket"},
	}
	raw := EncodeResults(results)

	lines := strings.Split(raw, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), raw)
	}
	for _, l := range lines {
		if n := len(strings.SplitN(l, "]", 3)); n != 3 {
			t.Errorf("line %q splits into %d parts", l, n)
		}
	}

	got := FormatResults(raw)
	for _, want := range []string{
		"1. Go [beta) release\n   Link: https://go.dev/doc\n   line one line two\n",
		"2. Second\n   Link: https://example.com\n   tail)bracket\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestEncodeResultsEmpty(t *testing.T) {
	if got := EncodeResults(nil); got != "" {
		t.Errorf("EncodeResults(nil) = %q", got)
	}
	if got := FormatResults(EncodeResults(nil)); got != "No results found." {
		t.Errorf("got %q", got)
	}
}
