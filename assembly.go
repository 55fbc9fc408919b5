package piscan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tsawler/piscan/assemble"
	"github.com/tsawler/piscan/catalog"
	"github.com/tsawler/piscan/model"
	"github.com/tsawler/piscan/pidigits"
)

// Assembly provides a fluent interface for laying out the digits of π
// from a catalog. Each configuration method returns a new Assembly.
type Assembly struct {
	path    string
	options AssembleOptions
}

func (a *Assembly) clone() *Assembly {
	cp := *a
	return &cp
}

// Digits sets how many digits of π to assemble, counting the leading 3.
func (a *Assembly) Digits(n int) *Assembly {
	newA := a.clone()
	newA.options.digits = n
	return newA
}

// MaxSpanLength sets the longest digit run one crop may cover (1-5).
func (a *Assembly) MaxSpanLength(n int) *Assembly {
	newA := a.clone()
	newA.options.maxSpanLength = n
	return newA
}

// NoRepeats uses every crop at most once.
func (a *Assembly) NoRepeats() *Assembly {
	newA := a.clone()
	newA.options.allowRepeats = false
	return newA
}

// DiversityWindow prefers crops from books not used by the previous k
// placements.
func (a *Assembly) DiversityWindow(k int) *Assembly {
	newA := a.clone()
	newA.options.diversityWindow = k
	return newA
}

// IsolateIntegerPart places the leading 3 on its own and the 14 after it,
// so the text opens with 3.14.
func (a *Assembly) IsolateIntegerPart() *Assembly {
	newA := a.clone()
	newA.options.isolateIntegerPart = true
	return newA
}

// RejectLeadingZeros never lets a crop stand for a run such as "07".
func (a *Assembly) RejectLeadingZeros() *Assembly {
	newA := a.clone()
	newA.options.rejectLeadingZeros = true
	return newA
}

// OnePerBook uses at most one crop per value from each book.
func (a *Assembly) OnePerBook() *Assembly {
	newA := a.clone()
	newA.options.onePerBook = true
	return newA
}

// Logger sets the logger; slog.Default() is used otherwise.
func (a *Assembly) Logger(l *slog.Logger) *Assembly {
	newA := a.clone()
	newA.options.logger = l
	return newA
}

// Policy returns the assembly policy the options describe.
func (a *Assembly) Policy() assemble.Policy {
	return assemble.Policy{
		MaxSpanLength:        a.options.maxSpanLength,
		AllowRepeatArtifacts: a.options.allowRepeats,
		DiversityWindow:      a.options.diversityWindow,
		IsolateIntegerPart:   a.options.isolateIntegerPart,
		RejectLeadingZeros:   a.options.rejectLeadingZeros,
		OnePerBook:           a.options.onePerBook,
	}
}

// Assemble loads the catalog and covers the first n digits of π with its
// crops. Digits no crop can show become fallback placements. A missing
// or unreadable catalog is an error; an empty one is only a warning.
func (a *Assembly) Assemble(ctx context.Context) (*assemble.Result, []Warning, error) {
	logger := a.options.logger
	if logger == nil {
		logger = slog.Default()
	}

	digits, err := pidigits.Digits(a.options.digits)
	if err != nil {
		return nil, nil, err
	}

	store, err := catalog.OpenExisting(ctx, a.path, logger)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	index, err := store.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	snapshot := index.Snapshot()

	var warnings []Warning
	if snapshot.Len() == 0 {
		warnings = append(warnings, Warning{Kind: WarningCatalog, Message: "catalog is empty; every digit falls back to a plain glyph"})
	}

	result, err := assemble.New(snapshot, a.Policy()).WithLogger(logger).Assemble(ctx, digits)
	if err != nil {
		return nil, warnings, err
	}

	if f := result.Stats.Fallbacks; f > 0 && snapshot.Len() > 0 {
		warnings = append(warnings, Warning{
			Kind:    WarningCatalog,
			Message: fmt.Sprintf("%d of %d placements have no crop", f, result.Stats.Placements),
		})
	}
	return &result, warnings, nil
}

// Books returns the books recorded in the catalog, for attribution.
func (a *Assembly) Books(ctx context.Context) ([]model.Book, error) {
	logger := a.options.logger
	if logger == nil {
		logger = slog.Default()
	}
	store, err := catalog.OpenExisting(ctx, a.path, logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Books(ctx)
}
