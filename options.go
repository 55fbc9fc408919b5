package piscan

import (
	"log/slog"

	"github.com/tsawler/piscan/tokens"
)

// ExtractOptions holds configuration for corpus extraction.
type ExtractOptions struct {
	// Where crops and the catalog go
	outputDir   string
	catalogPath string

	// Book selection by id; nil means all books
	books []string

	// Processing options
	workers       int // 0 means runtime.NumCPU()
	margin        int
	minConfidence float64
	targetHeight  int
	wordForm      bool
	verifier      tokens.Verifier

	logger *slog.Logger
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		outputDir:     "numbers",
		catalogPath:   "piscan.db",
		books:         nil, // nil means all books
		workers:       0,
		margin:        tokens.DefaultConfig().Margin,
		minConfidence: 90,
		targetHeight:  0,
		wordForm:      true,
		verifier:      nil,
		logger:        nil,
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := o

	// Deep copy books slice
	if o.books != nil {
		newOpts.books = make([]string, len(o.books))
		copy(newOpts.books, o.books)
	}

	return newOpts
}

// AssembleOptions holds configuration for π assembly.
type AssembleOptions struct {
	digits             int
	maxSpanLength      int
	allowRepeats       bool
	diversityWindow    int
	isolateIntegerPart bool
	rejectLeadingZeros bool
	onePerBook         bool

	logger *slog.Logger
}

// defaultAssembleOptions returns the default assembly options.
func defaultAssembleOptions() AssembleOptions {
	return AssembleOptions{
		digits:        50000,
		maxSpanLength: 5,
		allowRepeats:  true,
	}
}
