package piscan

import (
	"fmt"
	"strings"
)

// WarningKind classifies a non-fatal problem.
type WarningKind int

const (
	// WarningBook means a whole book was skipped.
	WarningBook WarningKind = iota
	// WarningPage means one page failed and was skipped.
	WarningPage
	// WarningGeometry means OCR words were dropped for bad boxes.
	WarningGeometry
	// WarningCrop means crops were rejected by validation.
	WarningCrop
	// WarningCatalog means the catalog cannot fully serve assembly.
	WarningCatalog
)

// String returns a string representation of the kind
func (k WarningKind) String() string {
	switch k {
	case WarningBook:
		return "book"
	case WarningPage:
		return "page"
	case WarningGeometry:
		return "geometry"
	case WarningCrop:
		return "crop"
	case WarningCatalog:
		return "catalog"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal issue met while processing. Terminal operations
// return warnings next to their result.
type Warning struct {
	Kind    WarningKind
	BookID  string
	PageID  string
	Message string
	Err     error
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(w.Kind.String())
	if w.BookID != "" {
		b.WriteString(" ")
		b.WriteString(w.BookID)
		if w.PageID != "" {
			b.WriteString("/")
			b.WriteString(w.PageID)
		}
	}
	b.WriteString(": ")
	b.WriteString(w.Message)
	if w.Err != nil {
		b.WriteString(": ")
		b.WriteString(w.Err.Error())
	}
	return b.String()
}

// FormatWarnings joins warnings one per line.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// PageFailure is the error recorded for a page that could not be
// extracted. The rest of the corpus continues.
type PageFailure struct {
	BookID string
	PageID string
	Err    error
}

func (e *PageFailure) Error() string {
	return fmt.Sprintf("page %s/%s: %v", e.BookID, e.PageID, e.Err)
}

// Unwrap returns the underlying error.
func (e *PageFailure) Unwrap() error {
	return e.Err
}
