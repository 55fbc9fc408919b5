package model

import "strings"

// MaxValue is the largest number the corpus index tracks.
const MaxValue = 50000

// Form describes how a number was written on the page.
type Form int

const (
	// FormDigit is a number written with digits, e.g. "1234".
	FormDigit Form = iota
	// FormWord is a number spelled out in English, e.g. "twelve hundred".
	FormWord
)

// String returns a string representation of the form
func (f Form) String() string {
	switch f {
	case FormDigit:
		return "digit"
	case FormWord:
		return "word"
	default:
		return "unknown"
	}
}

// ParseForm is the inverse of Form.String.
func ParseForm(s string) (Form, bool) {
	switch s {
	case "digit":
		return FormDigit, true
	case "word":
		return FormWord, true
	default:
		return FormDigit, false
	}
}

// NumberSpan is a contiguous run of words on one line that together
// denote an integer in [0, MaxValue].
type NumberSpan struct {
	Value int
	Form  Form
	Words []Word // In page order
	BBox  BBox   // Union of the word boxes
}

// NewNumberSpan builds a span and computes its bounding box.
func NewNumberSpan(value int, form Form, words []Word) NumberSpan {
	span := NumberSpan{Value: value, Form: form, Words: words}
	for i, w := range words {
		if i == 0 {
			span.BBox = w.BBox
			continue
		}
		span.BBox = span.BBox.Union(w.BBox)
	}
	return span
}

// Text returns the span's words joined by single spaces.
func (s NumberSpan) Text() string {
	parts := make([]string, len(s.Words))
	for i, w := range s.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Start returns the reading-order index of the first word.
func (s NumberSpan) Start() int {
	if len(s.Words) == 0 {
		return -1
	}
	return s.Words[0].Index
}

// End returns one past the reading-order index of the last word.
func (s NumberSpan) End() int {
	if len(s.Words) == 0 {
		return -1
	}
	return s.Words[len(s.Words)-1].Index + 1
}

// MinConfidence returns the lowest known word confidence in the span,
// or -1 if no word carried one.
func (s NumberSpan) MinConfidence() float64 {
	min := -1.0
	for _, w := range s.Words {
		if !w.HasConfidence() {
			continue
		}
		if min < 0 || w.Confidence < min {
			min = w.Confidence
		}
	}
	return min
}
