package assemble

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/tsawler/piscan/catalog"
	"github.com/tsawler/piscan/model"
	"github.com/tsawler/piscan/pidigits"
)

type entry struct {
	value int
	book  string
}

// newPool builds a snapshot; entries of the same book and value get
// distinct positions in input order.
func newPool(t *testing.T, entries ...entry) *catalog.Snapshot {
	t.Helper()
	index := catalog.NewIndex()
	for i, e := range entries {
		a := model.TokenArtifact{
			Value:  e.value,
			BookID: e.book,
			PageID: "p1",
			Source: image.Rect(0, i*30, 40, i*30+20),
		}
		a.ID = a.Key().ID()
		if _, err := index.Add(a); err != nil {
			t.Fatal(err)
		}
	}
	return index.Snapshot()
}

func chunks(res Result) []string {
	out := make([]string, len(res.Placements))
	for i, p := range res.Placements {
		out[i] = p.Digits
	}
	return out
}

// checkCoverage asserts the placements tile the digit stream with no gap
// or overlap.
func checkCoverage(t *testing.T, digits string, res Result) {
	t.Helper()
	var b strings.Builder
	pos := 0
	for i, p := range res.Placements {
		if p.Position != pos {
			t.Fatalf("placement %d at %d, want %d", i, p.Position, pos)
		}
		if p.Digits == "" {
			t.Fatalf("placement %d is empty", i)
		}
		if p.Artifact == nil && len(p.Digits) != 1 {
			t.Fatalf("fallback placement %d covers %q", i, p.Digits)
		}
		if p.Artifact != nil {
			if p.Artifact.Value < 0 || p.Artifact.Value > model.MaxValue {
				t.Fatalf("placement %d artifact value %d out of range", i, p.Artifact.Value)
			}
		}
		b.WriteString(p.Digits)
		pos = p.End()
	}
	if b.String() != digits {
		t.Fatalf("placements spell %q, want %q", b.String(), digits)
	}
}

// ============================================================================
// Greedy matching
// ============================================================================

func TestAssembleScenario(t *testing.T) {
	pool := newPool(t,
		entry{1, "a"}, entry{4, "a"}, entry{1, "b"}, entry{5, "a"},
		entry{9, "a"}, entry{14, "a"}, entry{141, "a"},
	)
	res, err := New(pool, DefaultPolicy()).Assemble(context.Background(), "14159")
	if err != nil {
		t.Fatal(err)
	}
	if got := chunks(res); !reflect.DeepEqual(got, []string{"141", "5", "9"}) {
		t.Errorf("chunks = %v, want [141 5 9]", got)
	}
	if res.Stats.Fallbacks != 0 {
		t.Errorf("Fallbacks = %d, want 0", res.Stats.Fallbacks)
	}
	checkCoverage(t, "14159", res)
}

func TestAssembleEmptyPool(t *testing.T) {
	digits, _ := pidigits.Digits(50)
	res, err := New(newPool(t), DefaultPolicy()).Assemble(context.Background(), digits)
	if err != nil {
		t.Fatal(err)
	}
	checkCoverage(t, digits, res)
	if res.Stats.Fallbacks != 50 || len(res.Placements) != 50 {
		t.Errorf("Fallbacks=%d placements=%d, want 50 and 50", res.Stats.Fallbacks, len(res.Placements))
	}
	if res.Stats.DistinctBooks != 0 {
		t.Errorf("DistinctBooks = %d, want 0", res.Stats.DistinctBooks)
	}
}

func TestAssembleEmptyStream(t *testing.T) {
	res, err := New(newPool(t, entry{3, "a"}), DefaultPolicy()).Assemble(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Placements) != 0 || res.Stats.AvgSpanLength != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestAssembleMaxSpanLength(t *testing.T) {
	pool := newPool(t, entry{1, "a"}, entry{4, "a"}, entry{14, "a"}, entry{141, "a"})
	policy := DefaultPolicy()
	policy.MaxSpanLength = 2
	res, err := New(pool, policy).Assemble(context.Background(), "141")
	if err != nil {
		t.Fatal(err)
	}
	if got := chunks(res); !reflect.DeepEqual(got, []string{"14", "1"}) {
		t.Errorf("chunks = %v, want [14 1]", got)
	}
}

func TestAssembleOutOfRangeRun(t *testing.T) {
	// 99999 exceeds the index range and must not be looked up as a value.
	pool := newPool(t, entry{9999, "a"}, entry{9, "a"})
	res, err := New(pool, DefaultPolicy()).Assemble(context.Background(), "99999")
	if err != nil {
		t.Fatal(err)
	}
	if got := chunks(res); !reflect.DeepEqual(got, []string{"9999", "9"}) {
		t.Errorf("chunks = %v, want [9999 9]", got)
	}
}

func TestAssembleInvalidDigits(t *testing.T) {
	if _, err := New(newPool(t), DefaultPolicy()).Assemble(context.Background(), "3.14"); !errors.Is(err, ErrInvalidDigits) {
		t.Errorf("expected ErrInvalidDigits, got %v", err)
	}
}

func TestAssembleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(newPool(t), DefaultPolicy()).Assemble(ctx, "314"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// ============================================================================
// Selection
// ============================================================================

func TestAssembleTieBreak(t *testing.T) {
	pool := newPool(t, entry{1, "a"}, entry{1, "b"})
	policy := DefaultPolicy()
	policy.MaxSpanLength = 1

	res, err := New(pool, policy).Assemble(context.Background(), "1111")
	if err != nil {
		t.Fatal(err)
	}
	var books []string
	for _, p := range res.Placements {
		books = append(books, p.Artifact.BookID)
	}
	if !reflect.DeepEqual(books, []string{"a", "b", "a", "b"}) {
		t.Errorf("books = %v, want [a b a b]", books)
	}
}

func TestAssembleNoRepeat(t *testing.T) {
	pool := newPool(t, entry{1, "a"})
	policy := DefaultPolicy()
	policy.AllowRepeatArtifacts = false

	res, err := New(pool, policy).Assemble(context.Background(), "111")
	if err != nil {
		t.Fatal(err)
	}
	checkCoverage(t, "111", res)
	if res.Placements[0].IsFallback() || !res.Placements[1].IsFallback() || !res.Placements[2].IsFallback() {
		t.Errorf("expected one artifact then fallbacks, got %+v", res.Placements)
	}
	if res.Stats.Fallbacks != 2 {
		t.Errorf("Fallbacks = %d, want 2", res.Stats.Fallbacks)
	}
}

func TestAssembleOnePerBook(t *testing.T) {
	pool := newPool(t, entry{5, "a"}, entry{5, "a"})
	policy := DefaultPolicy()
	policy.MaxSpanLength = 1

	res, _ := New(pool, policy).Assemble(context.Background(), "55")
	if res.Placements[0].Artifact.ID == res.Placements[1].Artifact.ID {
		t.Error("without OnePerBook both artifacts should be used")
	}

	policy.OnePerBook = true
	res, _ = New(pool, policy).Assemble(context.Background(), "55")
	if res.Placements[0].Artifact.ID != res.Placements[1].Artifact.ID {
		t.Error("with OnePerBook only the first artifact of the book is eligible")
	}
}

// ============================================================================
// Leading digits
// ============================================================================

func TestAssembleLeadingZeros(t *testing.T) {
	pool := newPool(t, entry{3, "a"}, entry{7, "a"})
	policy := DefaultPolicy()
	policy.MaxSpanLength = 2

	res, err := New(pool, policy).Assemble(context.Background(), "307")
	if err != nil {
		t.Fatal(err)
	}
	if got := chunks(res); !reflect.DeepEqual(got, []string{"3", "07"}) {
		t.Fatalf("chunks = %v, want [3 07]", got)
	}
	if p := res.Placements[1]; p.LeadingZeros != 1 || p.Artifact.Value != 7 {
		t.Errorf("placement = %+v, want 7 with one leading zero", p)
	}

	policy.RejectLeadingZeros = true
	res, err = New(pool, policy).Assemble(context.Background(), "307")
	if err != nil {
		t.Fatal(err)
	}
	if got := chunks(res); !reflect.DeepEqual(got, []string{"3", "0", "7"}) {
		t.Errorf("chunks = %v, want [3 0 7]", got)
	}
	if !res.Placements[1].IsFallback() {
		t.Error("lone zero without an artifact should fall back")
	}
}

func TestAssembleIsolateIntegerPart(t *testing.T) {
	pool := newPool(t, entry{31, "a"}, entry{3, "a"}, entry{14, "a"})
	policy := DefaultPolicy()

	res, _ := New(pool, policy).Assemble(context.Background(), "314")
	if got := chunks(res); !reflect.DeepEqual(got, []string{"31", "4"}) {
		t.Errorf("default chunks = %v, want [31 4]", got)
	}

	policy.IsolateIntegerPart = true
	res, _ = New(pool, policy).Assemble(context.Background(), "314")
	if got := chunks(res); !reflect.DeepEqual(got, []string{"3", "14"}) {
		t.Fatalf("isolated chunks = %v, want [3 14]", got)
	}
	if !res.Placements[0].IntegerPart || res.Placements[1].IntegerPart {
		t.Error("only the first placement should be flagged IntegerPart")
	}
}

func TestAssembleIsolateIntegerPartPinsFourteen(t *testing.T) {
	tests := []struct {
		name   string
		pool   []entry
		digits string
		want   []string
	}{
		{"longer value after 3 is split", []entry{{3, "a"}, {14, "a"}, {1415, "a"}, {15, "a"}, {9, "a"}}, "314159", []string{"3", "14", "15", "9"}},
		{"missing 14 falls back digit by digit", []entry{{3, "a"}, {141, "a"}, {4, "a"}}, "314", []string{"3", "1", "4"}},
		{"short stream", []entry{{3, "a"}, {1, "a"}}, "31", []string{"3", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultPolicy()
			policy.IsolateIntegerPart = true
			res, err := New(newPool(t, tt.pool...), policy).Assemble(context.Background(), tt.digits)
			if err != nil {
				t.Fatal(err)
			}
			if got := chunks(res); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("chunks = %v, want %v", got, tt.want)
			}
			checkCoverage(t, tt.digits, res)
		})
	}
}

// ============================================================================
// Properties
// ============================================================================

func randomPool(t *testing.T, rng *rand.Rand, n int) *catalog.Snapshot {
	books := []string{"a", "b", "c", "d"}
	entries := make([]entry, n)
	for i := range entries {
		v := rng.Intn(1000)
		if rng.Intn(4) == 0 {
			v = rng.Intn(model.MaxValue + 1)
		}
		entries[i] = entry{v, books[rng.Intn(len(books))]}
	}
	return newPool(t, entries...)
}

func TestAssembleGapFreeAndDeterministic(t *testing.T) {
	digits, err := pidigits.Digits(500)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 10; trial++ {
		pool := randomPool(t, rng, 200+trial*100)
		policy := DefaultPolicy()
		policy.DiversityWindow = trial % 3
		policy.AllowRepeatArtifacts = trial%2 == 0

		first, err := New(pool, policy).Assemble(context.Background(), digits)
		if err != nil {
			t.Fatal(err)
		}
		checkCoverage(t, digits, first)

		second, err := New(pool, policy).Assemble(context.Background(), digits)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("trial %d: assembly is not deterministic", trial)
		}
	}
}

func TestAssembleDiversityWindow(t *testing.T) {
	var entries []entry
	for v := 0; v <= 9; v++ {
		for _, b := range []string{"a", "b", "c"} {
			entries = append(entries, entry{v, b})
		}
	}
	pool := newPool(t, entries...)

	policy := DefaultPolicy()
	policy.MaxSpanLength = 1
	policy.DiversityWindow = 2

	digits, _ := pidigits.Digits(200)
	res, err := New(pool, policy).Assemble(context.Background(), digits)
	if err != nil {
		t.Fatal(err)
	}
	checkCoverage(t, digits, res)
	if res.Stats.Relaxed != 0 {
		t.Errorf("Relaxed = %d, want 0 with three books and K=2", res.Stats.Relaxed)
	}
	for i := range res.Placements {
		for j := max(0, i-policy.DiversityWindow); j < i; j++ {
			if res.Placements[i].Artifact.BookID == res.Placements[j].Artifact.BookID {
				t.Fatalf("placements %d and %d share book %s within the window", j, i, res.Placements[i].Artifact.BookID)
			}
		}
	}
	if res.Stats.DistinctBooks != 3 {
		t.Errorf("DistinctBooks = %d, want 3", res.Stats.DistinctBooks)
	}
}

func TestAssembleDiversityRelaxes(t *testing.T) {
	pool := newPool(t, entry{1, "a"})
	policy := DefaultPolicy()
	policy.DiversityWindow = 3

	res, err := New(pool, policy).Assemble(context.Background(), "111")
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Fallbacks != 0 {
		t.Errorf("Fallbacks = %d, want 0: diversity must relax rather than fall back", res.Stats.Fallbacks)
	}
	if res.Stats.Relaxed != 2 {
		t.Errorf("Relaxed = %d, want 2", res.Stats.Relaxed)
	}
}

func TestAssembleStats(t *testing.T) {
	pool := newPool(t, entry{14, "a"}, entry{15, "b"})
	res, err := New(pool, DefaultPolicy()).Assemble(context.Background(), "314159")
	if err != nil {
		t.Fatal(err)
	}
	// 3 | 14 | 15 | 9
	if got := chunks(res); !reflect.DeepEqual(got, []string{"3", "14", "15", "9"}) {
		t.Fatalf("chunks = %v", got)
	}
	want := Stats{Digits: 6, Placements: 4, Fallbacks: 2, DistinctBooks: 2, AvgSpanLength: 1.5}
	if res.Stats != want {
		t.Errorf("Stats = %+v, want %+v", res.Stats, want)
	}
}
