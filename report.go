package piscan

import "time"

// Report summarizes an extraction run.
type Report struct {
	Books        int // Books processed
	BooksFailed  int // Books skipped entirely
	Pages        int // Pages committed to the catalog
	PagesFailed  int // Pages that failed and were skipped
	PagesSkipped int // Pages not started because the run was cancelled
	Spans        int // Number spans detected
	Artifacts    int // New artifacts written and cataloged
	Duplicates   int // Spans already in the catalog
	Rejected     int // Crops that failed validation
	DroppedWords int // OCR words dropped for malformed geometry
	Elapsed      time.Duration
}
