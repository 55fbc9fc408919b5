// Package hocr reads hOCR documents, the HTML-based OCR output format, and
// normalizes their word geometry into page pixel space.
//
// Parsing keeps the source hierarchy of pages, regions, lines and words:
//
//	doc, err := hocr.ParseFile("book_hocr.html")
//	for i, raw := range doc.Pages {
//	    page, dropped := hocr.Normalize("book", raw.PageID(i), raw, hocr.Dims{Width: w, Height: h})
//	    ...
//	}
//
// Normalize never fails a whole page because of one bad word. Words with
// unusable boxes are returned as errors matching [ErrMalformedGeometry].
package hocr
