package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSymbols(t *testing.T) {
	tests := []struct {
		name  string
		ascii string
		lang  string
		want  SymbolSet
	}{
		{"utf8 locale", "", "en_US.UTF-8", unicodeSymbols},
		{"unset locale", "", "", unicodeSymbols},
		{"latin1 locale", "", "de_DE.ISO-8859-1", asciiSymbols},
		{"forced ascii", "1", "en_US.UTF-8", asciiSymbols},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCOUT_ASCII_SYMBOLS", tt.ascii)
			t.Setenv("LC_ALL", "")
			t.Setenv("LC_CTYPE", "")
			t.Setenv("LANG", tt.lang)
			assert.Equal(t, tt.want, DetectSymbols())
		})
	}
}
