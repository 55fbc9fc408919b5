// Package piscan builds the digits of π out of numbers photographed in
// scanned books.
//
// Extraction reads each book's hOCR, finds numbers written with digits or
// in words, and crops them from the page images into a catalog:
//
//	report, warnings, err := piscan.Corpus("data/raw").
//	    Output("data/numbers").
//	    Catalog("piscan.db").
//	    Extract(ctx)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", piscan.FormatWarnings(warnings))
//	}
//
// Assembly then covers the digits of π with crops from the catalog:
//
//	result, _, err := piscan.Catalog("piscan.db").
//	    Digits(1000).
//	    DiversityWindow(5).
//	    Assemble(ctx)
//
// The lower-level packages (hocr, detect, tokens, catalog, assemble) can
// be used directly for finer control.
package piscan

// Corpus returns a Pipeline over the book directories under root.
//
// Example:
//
//	report, warnings, err := piscan.Corpus("data/raw").Workers(4).Extract(ctx)
func Corpus(root string) *Pipeline {
	return &Pipeline{
		root:    root,
		options: defaultOptions(),
	}
}

// Catalog returns an Assembly over the catalog database at path.
//
// Example:
//
//	result, warnings, err := piscan.Catalog("piscan.db").Digits(100).Assemble(ctx)
func Catalog(path string) *Assembly {
	return &Assembly{
		path:    path,
		options: defaultAssembleOptions(),
	}
}

// Must is a helper that wraps a call returning (T, []Warning, error) and
// panics if the error is non-nil. It discards warnings and returns just
// the value. It is intended for use in scripts or tests where error
// handling would be cumbersome.
//
// Example:
//
//	report := piscan.Must(piscan.Corpus("data/raw").Extract(ctx))
func Must[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
