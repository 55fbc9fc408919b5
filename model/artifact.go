package model

import (
	"fmt"
	"image"

	"github.com/google/uuid"
)

// artifactNamespace scopes the name-based UUIDs of token artifacts.
var artifactNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/tsawler/piscan/artifact"))

// TokenArtifact is one persisted crop of a number as it appears on a page.
// Artifacts are created once by extraction and never mutated.
type TokenArtifact struct {
	ID         uuid.UUID       // Derived from the dedupe key
	Value      int             // Number shown in the crop
	BookID     string          // Source book
	PageID     string          // Source page within the book
	Source     image.Rectangle // Union of the OCR word boxes, page pixels
	Crop       image.Rectangle // Cropped region (Source plus margin), within page bounds
	Form       Form            // Digit or word form
	Path       string          // Crop image file
	Width      int             // Crop image width in pixels
	Height     int             // Crop image height in pixels
	Confidence float64         // Lowest OCR word confidence, -1 if unknown
}

// DedupeKey identifies an occurrence independently of how it was cropped.
type DedupeKey struct {
	BookID string
	PageID string
	Source image.Rectangle
}

// String returns a canonical representation of the key.
func (k DedupeKey) String() string {
	return fmt.Sprintf("%s/%s/%d,%d,%d,%d", k.BookID, k.PageID,
		k.Source.Min.X, k.Source.Min.Y, k.Source.Max.X, k.Source.Max.Y)
}

// ID returns the name-based UUID for the key.
func (k DedupeKey) ID() uuid.UUID {
	return uuid.NewSHA1(artifactNamespace, []byte(k.String()))
}

// Key returns the artifact's dedupe key.
func (a TokenArtifact) Key() DedupeKey {
	return DedupeKey{BookID: a.BookID, PageID: a.PageID, Source: a.Source}
}

// Less orders artifacts by book, page and position. Catalog snapshots
// use this order so that selection is reproducible.
func (a TokenArtifact) Less(other TokenArtifact) bool {
	if a.BookID != other.BookID {
		return a.BookID < other.BookID
	}
	if a.PageID != other.PageID {
		return a.PageID < other.PageID
	}
	if a.Source.Min.Y != other.Source.Min.Y {
		return a.Source.Min.Y < other.Source.Min.Y
	}
	if a.Source.Min.X != other.Source.Min.X {
		return a.Source.Min.X < other.Source.Min.X
	}
	if a.Source.Max.Y != other.Source.Max.Y {
		return a.Source.Max.Y < other.Source.Max.Y
	}
	return a.Source.Max.X < other.Source.Max.X
}

// Placement is one unit of the assembled π sequence: a run of digits and
// the artifact chosen to draw it, or nil for a plain-glyph fallback.
type Placement struct {
	Position     int            // 0-based offset into the digit stream
	Digits       string         // Covered digits, exactly as in the stream
	Artifact     *TokenArtifact // nil means render as a plain glyph
	IntegerPart  bool           // Covers the integer part of π
	LeadingZeros int            // Zeros in Digits that the artifact does not show
}

// IsFallback reports whether the placement has no artifact.
func (p Placement) IsFallback() bool {
	return p.Artifact == nil
}

// End returns one past the last covered position.
func (p Placement) End() int {
	return p.Position + len(p.Digits)
}
