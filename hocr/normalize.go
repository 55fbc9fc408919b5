package hocr

import (
	"path"
	"strconv"
	"strings"

	"github.com/tsawler/piscan/model"
)

// PageID returns a stable identifier for the page within its book: the
// image base name without extension, else the physical page number, else
// the element id, else the page's position in the document.
func (p RawPage) PageID(index int) string {
	if p.Image != "" {
		return strings.TrimSuffix(p.Image, path.Ext(p.Image))
	}
	if p.PageNo >= 0 {
		return "p" + strconv.Itoa(p.PageNo)
	}
	if p.ID != "" {
		return p.ID
	}
	return "page_" + strconv.Itoa(index+1)
}

// Normalize converts a raw page into words in the page image's pixel space.
//
// If dims is zero the declared page box is used as the pixel size. When
// both are known and differ, coordinates are scaled per axis by
// pixel/declared. Words with a missing, non-finite or non-positive box, or
// a box entirely outside the page, are dropped and reported as
// *GeometryError values; boxes partly outside the page are clipped.
func Normalize(bookID, pageID string, raw RawPage, dims Dims) (*model.Page, []error) {
	width, height := dims.Width, dims.Height
	sx, sy := 1.0, 1.0
	var offX, offY float64

	pageBoxOK := raw.HasBBox && raw.BBox.IsFinite() && raw.BBox.IsValid()
	if pageBoxOK {
		offX, offY = raw.BBox.X, raw.BBox.Y
	}

	switch {
	case width > 0 && height > 0:
		if pageBoxOK {
			sx = float64(width) / raw.BBox.Width
			sy = float64(height) / raw.BBox.Height
		}
	case pageBoxOK:
		width = int(raw.BBox.Width + 0.5)
		height = int(raw.BBox.Height + 0.5)
	default:
		return nil, []error{ErrNoPageSize}
	}

	page := model.NewPage(bookID, pageID, width, height)
	page.ImageName = raw.Image
	if raw.PageNo >= 0 {
		page.Number = raw.PageNo + 1
	}
	bounds := page.Bounds()

	var errs []error
	for lineIdx, line := range raw.Lines {
		for _, w := range line.Words {
			reject := func(reason string) {
				errs = append(errs, &GeometryError{Page: pageID, Word: w.ID, Text: w.Text, Reason: reason})
			}

			if !w.HasBBox {
				reject("missing bbox")
				continue
			}
			if !w.BBox.IsFinite() {
				reject("non-finite bbox")
				continue
			}
			if !w.BBox.IsValid() {
				reject("zero or negative extent")
				continue
			}

			box := model.NewBBox(w.BBox.X-offX, w.BBox.Y-offY, w.BBox.Width, w.BBox.Height).Scale(sx, sy)
			clipped := box.Intersection(bounds)
			if !clipped.IsValid() {
				reject("outside page")
				continue
			}

			page.AddWord(model.Word{
				Text:       w.Text,
				BBox:       clipped,
				Confidence: w.Confidence,
				Line:       lineIdx,
				Region:     line.Region,
			})
		}
	}

	return page, errs
}
