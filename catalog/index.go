package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/tsawler/piscan/model"
)

// ErrValueOutOfRange is returned for artifacts outside [0, model.MaxValue].
var ErrValueOutOfRange = errors.New("catalog: value out of range")

// Index maps each value to the artifacts that show it.
// It is safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	values [model.MaxValue + 1][]model.TokenArtifact
	seen   map[model.DedupeKey]struct{}
	count  int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{seen: make(map[model.DedupeKey]struct{})}
}

// Add inserts an artifact. It returns false without error when an
// artifact with the same dedupe key is already present.
func (x *Index) Add(a model.TokenArtifact) (bool, error) {
	if a.Value < 0 || a.Value > model.MaxValue {
		return false, fmt.Errorf("%w: %d", ErrValueOutOfRange, a.Value)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	key := a.Key()
	if _, ok := x.seen[key]; ok {
		return false, nil
	}
	x.seen[key] = struct{}{}
	x.values[a.Value] = append(x.values[a.Value], a)
	x.count++
	return true, nil
}

// Has reports whether an artifact with the key is present.
func (x *Index) Has(key model.DedupeKey) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.seen[key]
	return ok
}

// Len returns the number of artifacts.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.count
}

// Artifacts returns the artifacts for value in catalog order.
func (x *Index) Artifacts(value int) []model.TokenArtifact {
	if value < 0 || value > model.MaxValue {
		return nil
	}
	x.mu.RLock()
	list := slices.Clone(x.values[value])
	x.mu.RUnlock()

	sortArtifacts(list)
	return list
}

// Snapshot returns a sorted copy of the index that later Adds do not change.
func (x *Index) Snapshot() *Snapshot {
	x.mu.RLock()
	defer x.mu.RUnlock()

	s := &Snapshot{lists: make(map[int][]model.TokenArtifact)}
	books := make(map[string]struct{})
	for v, list := range x.values {
		if len(list) == 0 {
			continue
		}
		cp := slices.Clone(list)
		sortArtifacts(cp)
		s.lists[v] = cp
		s.count += len(cp)
		for _, a := range cp {
			books[a.BookID] = struct{}{}
		}
	}
	s.books = len(books)
	return s
}

func sortArtifacts(list []model.TokenArtifact) {
	slices.SortFunc(list, func(a, b model.TokenArtifact) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
}

// Snapshot is a read-only view of an Index.
type Snapshot struct {
	lists map[int][]model.TokenArtifact
	count int
	books int
}

// Artifacts returns the artifacts for value, sorted by book, page and
// position. The slice must not be modified.
func (s *Snapshot) Artifacts(value int) []model.TokenArtifact {
	return s.lists[value]
}

// Len returns the number of artifacts.
func (s *Snapshot) Len() int {
	return s.count
}

// Books returns the number of distinct source books.
func (s *Snapshot) Books() int {
	return s.books
}

// Values returns the values that have at least one artifact, ascending.
func (s *Snapshot) Values() []int {
	values := make([]int, 0, len(s.lists))
	for v := range s.lists {
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}
