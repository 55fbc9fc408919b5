package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/tsawler/piscan/model"
	"github.com/tsawler/piscan/numeral"
)

// Recognizer reads the text in an encoded image.
type Recognizer interface {
	RecognizeImage(imageData []byte) (string, error)
}

// Verifier checks that a crop still reads as the number it was cut for.
// Calls are serialized because a Tesseract client holds one image at a time.
type Verifier struct {
	mu         sync.Mutex
	recognizer Recognizer
}

// NewVerifier creates a verifier over a recognizer, usually a *Client set
// to PSM_SINGLE_LINE.
func NewVerifier(r Recognizer) *Verifier {
	return &Verifier{recognizer: r}
}

// Verify re-reads crop and reports whether its text contains span.Value.
func (v *Verifier) Verify(ctx context.Context, crop image.Image, span model.NumberSpan) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return false, fmt.Errorf("ocr: encode crop: %w", err)
	}

	v.mu.Lock()
	text, err := v.recognizer.RecognizeImage(buf.Bytes())
	v.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("ocr: recognize crop: %w", err)
	}

	return Matches(text, span.Value), nil
}

// Matches reports whether text contains value written either with digits
// or in words.
func Matches(text string, value int) bool {
	fields := strings.Fields(text)
	tokens := make([]numeral.Token, len(fields))
	for i, f := range fields {
		tokens[i] = numeral.Tokenize(f)
	}

	for i, tok := range tokens {
		if v, ok := numeral.ParseDigits(numeral.TrimTrailing(tok.Digits)); ok && v == value {
			return true
		}
		if m, ok := numeral.MatchWords(tokens[i:]); ok && m.Value == value {
			return true
		}
	}
	return false
}
