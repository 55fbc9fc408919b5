package piscan

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/piscan/catalog"
)

const bookHOCR = `<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<body>
 <div class="ocr_page" id="page_1" title='image "alpha_0001.png"; bbox 0 0 200 100; ppageno 0'>
  <span class="ocr_line" id="line_1_1" title="bbox 20 20 120 40">
   <span class="ocrx_word" id="word_1_1" title="bbox 20 20 60 40; x_wconf 95">31</span>
   <span class="ocrx_word" id="word_1_2" title="bbox 80 20 120 40; x_wconf 95">four</span>
  </span>
  <span class="ocr_line" id="line_1_2" title="bbox 60 50 140 70">
   <span class="ocrx_word" id="word_1_3" title="bbox 60 50 140 70; x_wconf 97">fifteen</span>
  </span>
 </div>
 <div class="ocr_page" id="page_2" title='image "alpha_0002.png"; bbox 0 0 200 100; ppageno 1'>
  <span class="ocr_line" id="line_2_1" title="bbox 20 20 60 40">
   <span class="ocrx_word" id="word_2_1" title="bbox 20 20 60 40; x_wconf 95">9</span>
  </span>
 </div>
</body>
</html>`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// newTestCorpus lays out one book whose second page image is missing.
func newTestCorpus(t *testing.T) (root, out, db string) {
	t.Helper()
	dir := t.TempDir()
	root = filepath.Join(dir, "raw")
	book := filepath.Join(root, "alpha")
	if err := os.MkdirAll(book, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(book, "alpha.hocr"), []byte(bookHOCR), 0o644); err != nil {
		t.Fatal(err)
	}
	writePage(t, filepath.Join(book, "alpha_0001.png"), 200, 100)
	return root, filepath.Join(dir, "numbers"), filepath.Join(dir, "piscan.db")
}

// ============================================================================
// Extraction
// ============================================================================

func TestExtract(t *testing.T) {
	root, out, db := newTestCorpus(t)
	ctx := context.Background()

	pipeline := Corpus(root).Output(out).Catalog(db).Workers(2).Logger(quietLogger())
	report, warnings, err := pipeline.Extract(ctx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if report.Books != 1 || report.Pages != 1 || report.PagesFailed != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Spans != 3 || report.Artifacts != 3 || report.Duplicates != 0 {
		t.Errorf("spans/artifacts/duplicates = %d/%d/%d, want 3/3/0",
			report.Spans, report.Artifacts, report.Duplicates)
	}

	var pageWarnings int
	for _, w := range warnings {
		if w.Kind == WarningPage {
			pageWarnings++
			var pf *PageFailure
			if !errors.As(w.Err, &pf) || pf.PageID != "alpha_0002" {
				t.Errorf("page warning error = %v", w.Err)
			}
		}
	}
	if pageWarnings != 1 {
		t.Errorf("got %d page warnings, want 1: %s", pageWarnings, FormatWarnings(warnings))
	}

	for _, value := range []string{"31", "4", "15"} {
		entries, err := os.ReadDir(filepath.Join(out, value))
		if err != nil || len(entries) != 1 {
			t.Errorf("crops for %s: %v (%d entries)", value, err, len(entries))
		}
	}

	t.Run("rerun finds only duplicates", func(t *testing.T) {
		report, _, err := pipeline.Extract(ctx)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if report.Artifacts != 0 || report.Duplicates != 3 {
			t.Errorf("artifacts/duplicates = %d/%d, want 0/3", report.Artifacts, report.Duplicates)
		}
	})

	t.Run("book filter", func(t *testing.T) {
		report, _, err := pipeline.Books("nobody").Extract(ctx)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if report.Books != 0 || report.Pages != 0 {
			t.Errorf("report = %+v", report)
		}
	})
}

func TestExtractCancelled(t *testing.T) {
	root, out, db := newTestCorpus(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Corpus(root).Output(out).Catalog(db).Logger(quietLogger()).Extract(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExtractMissingCorpus(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Corpus(filepath.Join(dir, "absent")).
		Catalog(filepath.Join(dir, "piscan.db")).
		Logger(quietLogger()).
		Extract(context.Background())
	if err == nil {
		t.Error("expected error for missing corpus root")
	}
}

func TestPipelineImmutable(t *testing.T) {
	base := Corpus("raw")
	a := base.Books("alpha")
	b := a.Books("beta")

	if len(base.options.books) != 0 {
		t.Errorf("base books = %v", base.options.books)
	}
	if len(a.options.books) != 1 || len(b.options.books) != 2 {
		t.Errorf("a = %v, b = %v", a.options.books, b.options.books)
	}
	if base.DigitsOnly().options.wordForm == base.options.wordForm {
		t.Error("DigitsOnly did not change the copy")
	}
}

// ============================================================================
// Assembly
// ============================================================================

func TestAssemble(t *testing.T) {
	root, out, db := newTestCorpus(t)
	ctx := context.Background()

	if _, _, err := Corpus(root).Output(out).Catalog(db).Logger(quietLogger()).Extract(ctx); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	result, warnings, err := Catalog(db).Digits(10).Logger(quietLogger()).Assemble(ctx)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	var got []string
	var joined strings.Builder
	for _, p := range result.Placements {
		got = append(got, p.Digits)
		joined.WriteString(p.Digits)
	}
	if joined.String() != "3141592653" {
		t.Errorf("placements cover %q", joined.String())
	}
	want := []string{"31", "4", "15", "9", "2", "6", "5", "3"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("placements = %v, want %v", got, want)
	}
	if result.Stats.Fallbacks != 5 || result.Stats.DistinctBooks != 1 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if len(warnings) != 1 || warnings[0].Kind != WarningCatalog {
		t.Errorf("warnings = %v", warnings)
	}

	for _, p := range result.Placements[:3] {
		if p.IsFallback() {
			t.Errorf("placement %q has no crop", p.Digits)
			continue
		}
		if _, err := os.Stat(p.Artifact.Path); err != nil {
			t.Errorf("crop for %q: %v", p.Digits, err)
		}
	}
}

func TestAssembleEmptyCatalog(t *testing.T) {
	db := filepath.Join(t.TempDir(), "piscan.db")
	store, err := catalog.Open(context.Background(), db, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	store.Close()

	result, warnings, err := Catalog(db).Digits(5).Logger(quietLogger()).Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if result.Stats.Fallbacks != 5 || len(result.Placements) != 5 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "empty") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestAssembleMissingCatalog(t *testing.T) {
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "typo.db")
	assembly := Catalog(db).Digits(20).Logger(quietLogger())

	tests := []struct {
		name string
		run  func() error
	}{
		{"Assemble", func() error {
			_, _, err := assembly.Assemble(ctx)
			return err
		}},
		{"Books", func() error {
			_, err := assembly.Books(ctx)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("expected os.ErrNotExist, got %v", err)
			}
			if _, err := os.Stat(db); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("%s created %s", tt.name, db)
			}
		})
	}
}

func TestAssemblyPolicy(t *testing.T) {
	p := Catalog("x.db").MaxSpanLength(3).NoRepeats().DiversityWindow(4).
		IsolateIntegerPart().RejectLeadingZeros().OnePerBook().Policy()

	if p.MaxSpanLength != 3 || p.AllowRepeatArtifacts || p.DiversityWindow != 4 ||
		!p.IsolateIntegerPart || !p.RejectLeadingZeros || !p.OnePerBook {
		t.Errorf("policy = %+v", p)
	}
	if !Catalog("x.db").Policy().AllowRepeatArtifacts {
		t.Error("repeats should be allowed by default")
	}
}

func TestMust(t *testing.T) {
	if got := Must(42, nil, nil); got != 42 {
		t.Errorf("Must = %d", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("Must did not panic")
		}
	}()
	Must(0, nil, errors.New("boom"))
}

func TestAssemblyBooks(t *testing.T) {
	root, out, db := newTestCorpus(t)
	ctx := context.Background()
	if _, _, err := Corpus(root).Output(out).Catalog(db).Logger(quietLogger()).Extract(ctx); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	books, err := Catalog(db).Logger(quietLogger()).Books(ctx)
	if err != nil {
		t.Fatalf("Books: %v", err)
	}
	if len(books) != 1 || books[0].ID != "alpha" {
		t.Errorf("books = %+v", books)
	}
}
