package model

import "strings"

// Book identifies one scanned source book in the corpus.
type Book struct {
	ID        string // Stable identifier, used for diversity tracking
	Title     string // Human-readable title, for attribution
	ArchiveID string // Identifier of the book in the remote archive
}

// Word is a single OCR word with its box in page pixel space.
// Words are immutable once a page has been normalized.
type Word struct {
	Text       string
	BBox       BBox
	Confidence float64 // 0-100, or -1 when the OCR output carried none
	Line       int     // 0-based line index on the page
	Region     int     // 0-based region (block) index on the page, -1 if none
	Index      int     // 0-based position in page reading order
}

// HasConfidence reports whether the OCR engine supplied a confidence.
func (w Word) HasConfidence() bool {
	return w.Confidence >= 0
}

// Page is the normalized OCR content of one scanned page.
type Page struct {
	BookID    string // Owning book
	ID        string // Page identifier, unique within the book
	Number    int    // 1-indexed physical page number, 0 if unknown
	ImageName string // Base name of the page image file
	Width     int    // Page image width in pixels
	Height    int    // Page image height in pixels
	Words     []Word // Ordered by line, then position within line
}

// NewPage creates an empty page with given pixel dimensions
func NewPage(bookID, id string, width, height int) *Page {
	return &Page{
		BookID: bookID,
		ID:     id,
		Width:  width,
		Height: height,
		Words:  make([]Word, 0),
	}
}

// AddWord appends a word, assigning its reading-order index.
func (p *Page) AddWord(w Word) {
	w.Index = len(p.Words)
	p.Words = append(p.Words, w)
}

// Bounds returns the page rectangle.
func (p *Page) Bounds() BBox {
	return NewBBox(0, 0, float64(p.Width), float64(p.Height))
}

// LineCount returns the number of distinct lines on the page.
func (p *Page) LineCount() int {
	count := 0
	last := -1
	for _, w := range p.Words {
		if w.Line != last {
			count++
			last = w.Line
		}
	}
	return count
}

// ExtractText joins the words of the page, one line per row.
func (p *Page) ExtractText() string {
	var sb strings.Builder
	for i, w := range p.Words {
		if i > 0 {
			if w.Line != p.Words[i-1].Line {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(w.Text)
	}
	return sb.String()
}

// GetWordsInRegion returns the words whose boxes intersect bbox
func (p *Page) GetWordsInRegion(bbox BBox) []Word {
	var words []Word
	for _, w := range p.Words {
		if bbox.Intersects(w.BBox) {
			words = append(words, w)
		}
	}
	return words
}
