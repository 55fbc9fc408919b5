package numeral

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Token is an OCR word prepared for number matching.
type Token struct {
	Raw      string // Word text as recognized
	Core     string // Folded text with surrounding quotes, brackets and punctuation removed
	Digits   string // NFKC text with quotes and brackets removed, inner separators kept
	Trailing string // Punctuation removed from the end of the word
	Break    bool   // The word ends a clause, a number cannot continue past it
}

// newFolder returns a transformer that strips diacritics and applies
// compatibility decomposition, so OCR output like "ﬁve" or full-width
// digits compare as plain ASCII. Transformers and casers keep state and
// are built per call.
func newFolder() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// dashes maps the typographic dashes OCR engines emit to a hyphen.
var dashes = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"­", "-", // soft hyphen
)

const (
	wrappers         = "\"'`([{<‘’“”«»"
	closers          = "\"'`)]}>‘’“”«»"
	clausePunct      = ",.;:!?"
	trailingTrimmers = clausePunct + closers
)

// Tokenize normalizes one OCR word.
func Tokenize(word string) Token {
	tok := Token{Raw: word}

	folded, _, err := transform.String(newFolder(), word)
	if err != nil {
		folded = norm.NFKC.String(word)
	}
	folded = dashes.Replace(strings.TrimSpace(folded))

	tok.Digits = strings.Trim(folded, wrappers+closers)

	core := strings.TrimLeft(folded, wrappers)
	trimmed := strings.TrimRight(core, trailingTrimmers)
	tok.Trailing = core[len(trimmed):]
	tok.Break = strings.ContainsAny(tok.Trailing, clausePunct)
	tok.Core = cases.Lower(language.English).String(strings.Trim(trimmed, "-"))

	return tok
}

// TrimTrailing removes clause punctuation and closing quotes or brackets
// from the end of s.
func TrimTrailing(s string) string {
	return strings.TrimRight(s, trailingTrimmers)
}

// IsNumeric reports whether s is made of ASCII digits only.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
