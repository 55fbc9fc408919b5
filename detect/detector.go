package detect

import (
	"strings"

	"github.com/tsawler/piscan/model"
	"github.com/tsawler/piscan/numeral"
)

// Config holds detector configuration
type Config struct {
	// A word with a known OCR confidence (0-100) must score above this to
	// start or join a span. Words without a confidence are accepted.
	MinConfidence float64

	// Whether to detect numbers written with digits
	DigitForm bool

	// Whether to detect numbers spelled out in English
	WordForm bool

	// Maximum words in a word-form span
	MaxWords int

	// Maximum words joined into one digit-form span ("12," "345")
	MaxDigitWords int

	// Maximum horizontal gap between words of a word-form span, as a
	// multiple of the line height
	MaxWordGap float64

	// Maximum horizontal gap between the pieces of a split digit-form
	// number, as a multiple of the line height. Typeset "12, 345" leaves
	// about a third of a line height, so keep this well below that.
	MaxDigitGap float64
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MinConfidence: 90,
		DigitForm:     true,
		WordForm:      true,
		MaxWords:      10,
		MaxDigitWords: 3,
		MaxWordGap:    2.5,
		MaxDigitGap:   0.1,
	}
}

// Detector finds number spans on normalized pages.
// A Detector holds no mutable state and is safe for concurrent use.
type Detector struct {
	config Config
}

// NewDetector creates a detector with default configuration
func NewDetector() *Detector {
	return NewDetectorWithConfig(DefaultConfig())
}

// NewDetectorWithConfig creates a detector with custom configuration
func NewDetectorWithConfig(config Config) *Detector {
	if config.MaxWords <= 0 {
		config.MaxWords = DefaultConfig().MaxWords
	}
	if config.MaxDigitWords <= 0 {
		config.MaxDigitWords = 1
	}
	return &Detector{config: config}
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.config
}

// candidate is a match starting at one word.
type candidate struct {
	value int
	words int
	ok    bool
}

// Detect returns the number spans on the page in reading order.
//
// At each word the detector tries a digit-form and a word-form match,
// keeps the longer one (digit form on a tie), and resumes after it.
// Spans never cross lines and never overlap. A page without numbers
// yields an empty result.
func (d *Detector) Detect(page *model.Page) []model.NumberSpan {
	if page == nil || len(page.Words) == 0 {
		return nil
	}

	words := page.Words
	tokens := make([]numeral.Token, len(words))
	for i, w := range words {
		tokens[i] = numeral.Tokenize(w.Text)
	}

	var spans []model.NumberSpan
	for i := 0; i < len(words); {
		var digit, word candidate
		if d.config.DigitForm {
			digit = d.matchDigits(words, tokens, i)
		}
		if d.config.WordForm {
			word = d.matchWords(words, tokens, i)
		}

		var best candidate
		form := model.FormDigit
		switch {
		case digit.ok && (!word.ok || digit.words >= word.words):
			best = digit
		case word.ok:
			best = word
			form = model.FormWord
		}

		if !best.ok {
			i++
			continue
		}

		spanWords := make([]model.Word, best.words)
		copy(spanWords, words[i:i+best.words])
		spans = append(spans, model.NewNumberSpan(best.value, form, spanWords))
		i += best.words
	}

	return spans
}

// matchDigits finds the longest digit-form number starting at words[start].
// Pieces of a number split by OCR are joined only when a thousands
// separator sits between them and the gap is small.
func (d *Detector) matchDigits(words []model.Word, tokens []numeral.Token, start int) candidate {
	if !d.confident(words[start]) || !startsWithDigit(tokens[start].Digits) {
		return candidate{}
	}

	var best candidate
	var joined strings.Builder
	for j := start; j < len(words) && j-start < d.config.MaxDigitWords; j++ {
		if j > start {
			prev := tokens[j-1].Digits
			cur := tokens[j].Digits
			if !d.adjacent(words[j-1], words[j], d.config.MaxDigitGap) || !d.confident(words[j]) {
				break
			}
			if !endsWithSeparator(prev) && !startsWithSeparator(cur) {
				break
			}
			if strings.ContainsAny(tokens[j-1].Trailing, ";:!?") {
				break
			}
		}
		joined.WriteString(tokens[j].Digits)

		text := numeral.TrimTrailing(joined.String())
		if v, ok := numeral.ParseDigits(text); ok {
			best = candidate{value: v, words: j - start + 1, ok: true}
		}
	}
	return best
}

// matchWords finds the longest word-form number starting at words[start].
func (d *Detector) matchWords(words []model.Word, tokens []numeral.Token, start int) candidate {
	if !d.confident(words[start]) {
		return candidate{}
	}

	end := start + 1
	for end < len(words) && end-start < d.config.MaxWords {
		if !d.adjacent(words[end-1], words[end], d.config.MaxWordGap) || !d.confident(words[end]) {
			break
		}
		end++
	}

	m, ok := numeral.MatchWords(tokens[start:end])
	if !ok {
		return candidate{}
	}
	return candidate{value: m.Value, words: m.Consumed, ok: true}
}

func (d *Detector) confident(w model.Word) bool {
	return !w.HasConfidence() || w.Confidence > d.config.MinConfidence
}

// adjacent reports whether b directly follows a on the same line within
// the allowed gap, measured in line heights.
func (d *Detector) adjacent(a, b model.Word, maxGap float64) bool {
	if a.Line != b.Line {
		return false
	}
	if maxGap <= 0 {
		return true
	}
	height := a.BBox.Height
	if b.BBox.Height > height {
		height = b.BBox.Height
	}
	gap := b.BBox.Left() - a.BBox.Right()
	return gap <= maxGap*height
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func endsWithSeparator(s string) bool {
	return strings.HasSuffix(s, ",") || strings.HasSuffix(s, ".")
}

func startsWithSeparator(s string) bool {
	return strings.HasPrefix(s, ",") || strings.HasPrefix(s, ".")
}
