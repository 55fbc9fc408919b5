package assemble

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tsawler/piscan/model"
	"github.com/tsawler/piscan/numeral"
)

// ErrInvalidDigits is returned when the digit stream holds a non-digit.
var ErrInvalidDigits = errors.New("assemble: digit stream must contain only 0-9")

// Pool supplies the artifacts that show a value, in a stable order.
// catalog.Snapshot implements it.
type Pool interface {
	Artifacts(value int) []model.TokenArtifact
}

// Stats summarizes an assembly.
type Stats struct {
	Digits        int     // Digits covered
	Placements    int     // Placements emitted
	Fallbacks     int     // Placements without an artifact
	DistinctBooks int     // Books contributing at least one artifact
	Relaxed       int     // Placements that ignored the diversity window
	AvgSpanLength float64 // Digits per placement
}

// Result is an assembled digit stream.
type Result struct {
	Placements []model.Placement
	Stats      Stats
}

// Assembler covers a digit stream with artifacts.
type Assembler struct {
	pool   Pool
	policy Policy
	logger *slog.Logger
}

// New creates an assembler over pool.
func New(pool Pool, policy Policy) *Assembler {
	return &Assembler{pool: pool, policy: policy.normalized(), logger: slog.Default()}
}

// WithLogger returns a copy of the assembler that logs to l.
func (a *Assembler) WithLogger(l *slog.Logger) *Assembler {
	cp := *a
	cp.logger = l
	return &cp
}

// Policy returns the effective policy.
func (a *Assembler) Policy() Policy {
	return a.policy
}

// usage tracks how often and how recently an artifact was placed.
type usage struct {
	count int
	last  int // Placement index of the latest use
}

// run is the state of one Assemble call.
type run struct {
	*Assembler
	used   map[uuid.UUID]usage
	recent []string // Books of the latest artifact placements, newest last
	books  map[string]struct{}
	result Result
}

// Assemble covers digits left to right. At each position it tries the
// longest run first and places the best eligible artifact showing that
// run's value; when no run of any length has one, the single digit is
// emitted as a fallback. Every position is covered exactly once, in
// order. For the same pool and policy the result is always the same.
func (a *Assembler) Assemble(ctx context.Context, digits string) (Result, error) {
	if !validDigits(digits) {
		return Result{}, ErrInvalidDigits
	}

	r := &run{
		Assembler: a,
		used:      make(map[uuid.UUID]usage),
		books:     make(map[string]struct{}),
	}

	p := 0
	if a.policy.IsolateIntegerPart && len(digits) > 0 {
		// "3" then at most "14", so the first line reads 3.14
		r.place(digits, 0, 1, true)
		p = 1
		if p < len(digits) {
			p += r.place(digits, p, min(2, len(digits)-p), false)
		}
	}

	for p < len(digits) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		p += r.place(digits, p, min(a.policy.MaxSpanLength, len(digits)-p), false)
	}

	r.finish(len(digits))
	a.logger.Debug("assemble.done",
		"digits", r.result.Stats.Digits,
		"placements", r.result.Stats.Placements,
		"fallbacks", r.result.Stats.Fallbacks,
		"books", r.result.Stats.DistinctBooks,
	)
	return r.result, nil
}

// place emits one placement at p covering at most maxLen digits and
// returns how many digits it covered.
func (r *run) place(digits string, p, maxLen int, integerPart bool) int {
	passes := []bool{false}
	if r.policy.DiversityWindow > 0 {
		passes = []bool{true, false}
	}

	for _, strict := range passes {
		for l := maxLen; l >= 1; l-- {
			chunk := digits[p : p+l]
			value, zeros, _ := numeral.ValueOf(chunk)
			if zeros > 0 && r.policy.RejectLeadingZeros {
				continue
			}
			if value > model.MaxValue {
				continue
			}
			artifact, ok := r.pick(value, strict)
			if !ok {
				continue
			}
			if !strict && r.policy.DiversityWindow > 0 {
				r.result.Stats.Relaxed++
			}
			r.emit(model.Placement{
				Position:     p,
				Digits:       chunk,
				Artifact:     &artifact,
				IntegerPart:  integerPart,
				LeadingZeros: zeros,
			})
			return l
		}
	}

	r.emit(model.Placement{Position: p, Digits: digits[p : p+1], IntegerPart: integerPart})
	return 1
}

// pick chooses among the eligible artifacts for value: fewest uses first,
// then least recently used, then catalog order.
func (r *run) pick(value int, strict bool) (model.TokenArtifact, bool) {
	var (
		best      model.TokenArtifact
		bestUsage usage
		found     bool
	)
	var firstOfBook map[string]struct{}
	if r.policy.OnePerBook {
		firstOfBook = make(map[string]struct{})
	}

	for _, cand := range r.pool.Artifacts(value) {
		if firstOfBook != nil {
			if _, dup := firstOfBook[cand.BookID]; dup {
				continue
			}
			firstOfBook[cand.BookID] = struct{}{}
		}

		u, used := r.used[cand.ID]
		if !used {
			u = usage{last: -1}
		}
		if used && !r.policy.AllowRepeatArtifacts {
			continue
		}
		if strict && r.inWindow(cand.BookID) {
			continue
		}

		if !found || u.count < bestUsage.count || (u.count == bestUsage.count && u.last < bestUsage.last) {
			best, bestUsage, found = cand, u, true
		}
	}
	return best, found
}

// inWindow reports whether book was used by one of the last K artifact
// placements.
func (r *run) inWindow(book string) bool {
	k := r.policy.DiversityWindow
	start := max(0, len(r.recent)-k)
	for _, b := range r.recent[start:] {
		if b == book {
			return true
		}
	}
	return false
}

func (r *run) emit(pl model.Placement) {
	index := len(r.result.Placements)
	r.result.Placements = append(r.result.Placements, pl)

	if pl.Artifact == nil {
		r.result.Stats.Fallbacks++
		return
	}
	u := r.used[pl.Artifact.ID]
	r.used[pl.Artifact.ID] = usage{count: u.count + 1, last: index}
	if k := r.policy.DiversityWindow; k > 0 {
		r.recent = append(r.recent, pl.Artifact.BookID)
		if len(r.recent) > k {
			r.recent = r.recent[len(r.recent)-k:]
		}
	}
	r.books[pl.Artifact.BookID] = struct{}{}
}

func (r *run) finish(n int) {
	s := &r.result.Stats
	s.Digits = n
	s.Placements = len(r.result.Placements)
	s.DistinctBooks = len(r.books)
	if s.Placements > 0 {
		s.AvgSpanLength = float64(n) / float64(s.Placements)
	}
}

func validDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
