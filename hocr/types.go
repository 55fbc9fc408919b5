package hocr

import (
	"errors"
	"fmt"

	"github.com/tsawler/piscan/model"
)

var (
	// ErrNoPages is returned when a document contains no ocr_page element.
	ErrNoPages = errors.New("hocr: no ocr_page elements found")

	// ErrMalformedGeometry marks a word whose box cannot be placed on the page.
	// Such words are dropped; the rest of the page is still usable.
	ErrMalformedGeometry = errors.New("hocr: malformed geometry")

	// ErrNoPageSize is returned when neither the caller nor the hOCR page
	// declares the page dimensions.
	ErrNoPageSize = errors.New("hocr: page dimensions unknown")
)

// Document is the parsed, not yet normalized, content of an hOCR file.
type Document struct {
	Pages []RawPage
}

// RawPage is one ocr_page with coordinates as declared in the source.
type RawPage struct {
	ID      string     // Element id, e.g. "page_3"
	Image   string     // Base name of the page image from the image property
	BBox    model.BBox // Declared page box
	HasBBox bool
	PageNo  int        // ppageno property, -1 if absent
	ScanRes [2]float64 // scan_res property (dpi x, dpi y), zero if absent
	Lines   []RawLine
}

// WordCount returns the number of words on the page.
func (p RawPage) WordCount() int {
	n := 0
	for _, l := range p.Lines {
		n += len(l.Words)
	}
	return n
}

// RawLine is one text line (ocr_line, ocr_header, ocr_caption, ...).
type RawLine struct {
	ID      string
	Region  int // Index of the enclosing region on the page, -1 if none
	BBox    model.BBox
	HasBBox bool
	Words   []RawWord
}

// RawWord is one ocrx_word with its declared box.
type RawWord struct {
	ID         string
	Text       string
	BBox       model.BBox // Built from the declared corners, may be degenerate
	HasBBox    bool
	Confidence float64 // x_wconf, -1 if absent
}

// Dims are the pixel dimensions of the page image that the words are
// normalized into.
type Dims struct {
	Width  int
	Height int
}

// GeometryError describes a word that was dropped during normalization.
type GeometryError struct {
	Page   string
	Word   string // Word element id, if any
	Text   string
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("hocr: page %s word %q (%s): %s", e.Page, e.Text, e.Word, e.Reason)
}

// Unwrap allows errors.Is(err, ErrMalformedGeometry).
func (e *GeometryError) Unwrap() error {
	return ErrMalformedGeometry
}
