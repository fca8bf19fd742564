// Package theme holds the look of the terminal chat. Colors adapt to light
// and dark backgrounds; lipgloss drops them entirely under NO_COLOR.
package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	red    = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	blue   = lipgloss.AdaptiveColor{Light: "#0277bd", Dark: "#4fc3f7"}
	purple = lipgloss.AdaptiveColor{Light: "#6a1b9a", Dark: "#ce93d8"}
	grey   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
	line   = lipgloss.AdaptiveColor{Light: "#bdbdbd", Dark: "#616161"}
	panel  = lipgloss.AdaptiveColor{Light: "#f5f5f5", Dark: "#2d2d2d"}
)

// Spinner colors the "thinking" indicator.
var Spinner = blue

var (
	Dim        = lipgloss.NewStyle().Faint(true)
	TextMuted  = lipgloss.NewStyle().Foreground(grey)
	UserLabel  = lipgloss.NewStyle().Foreground(blue).Bold(true)
	BotLabel   = lipgloss.NewStyle().Foreground(purple).Bold(true)
	ErrorLabel = lipgloss.NewStyle().Foreground(red).Bold(true)

	Header      = lipgloss.NewStyle().Foreground(purple).Bold(true).Padding(0, 1)
	StatusBar   = lipgloss.NewStyle().Foreground(grey).Background(panel).Padding(0, 1)
	InputBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(line).Padding(0, 1)
)

// MaxContentWidth caps the transcript column on wide terminals.
const MaxContentWidth = 100

// SymbolSet is the glyphs used in the transcript.
type SymbolSet struct {
	Error  string
	Bullet string
	User   string
	Bot    string
}

var (
	unicodeSymbols = SymbolSet{Error: "✗", Bullet: "•", User: "You", Bot: "Scout"}
	asciiSymbols   = SymbolSet{Error: "[ERR]", Bullet: "*", User: "You", Bot: "Scout"}
)

// Symbols is chosen once at startup; SCOUT_ASCII_SYMBOLS=1 or a non-UTF-8
// locale selects the ASCII set.
var Symbols = DetectSymbols()

// DetectSymbols inspects the environment for a UTF-8 capable terminal. An
// unset locale is assumed to be UTF-8.
func DetectSymbols() SymbolSet {
	if v := os.Getenv("SCOUT_ASCII_SYMBOLS"); v == "1" || strings.EqualFold(v, "true") {
		return asciiSymbols
	}
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v := strings.ToLower(os.Getenv(key))
		if v == "" || v == "c" || v == "posix" {
			continue
		}
		if strings.Contains(v, "utf-8") || strings.Contains(v, "utf8") {
			return unicodeSymbols
		}
		return asciiSymbols
	}
	return unicodeSymbols
}
