package tokens

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/tsawler/piscan/format"
	"github.com/tsawler/piscan/model"
)

var testBook = model.Book{ID: "book", Title: "A Test Book"}

// newPageImage returns a white page image with dark blocks under each box.
func newPageImage(w, h int, boxes ...model.BBox) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for _, b := range boxes {
		r := b.Rect().Intersect(img.Bounds())
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetGray(x, y, color.Gray{Y: 20})
			}
		}
	}
	return img
}

type testWord struct {
	text string
	box  model.BBox
}

func newTestPage(words ...testWord) *model.Page {
	page := model.NewPage(testBook.ID, "p1", 600, 200)
	for _, w := range words {
		page.AddWord(model.Word{Text: w.text, BBox: w.box, Confidence: 95})
	}
	return page
}

func sentencePage() *model.Page {
	return newTestPage(
		testWord{"In", model.NewBBox(10, 50, 20, 20)},
		testWord{"1776", model.NewBBox(40, 50, 40, 20)},
		testWord{"there", model.NewBBox(90, 50, 50, 20)},
	)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	config := DefaultConfig()
	config.OutputDir = t.TempDir()
	return config
}

// ============================================================================
// Extraction
// ============================================================================

func TestExtractPage(t *testing.T) {
	config := testConfig(t)
	page := sentencePage()
	img := newPageImage(600, 200, page.Words[1].BBox)

	result := NewExtractor(config).ExtractPage(context.Background(), testBook, page, img)
	if result.Err != nil {
		t.Fatalf("ExtractPage error: %v", result.Err)
	}
	if result.Spans != 1 || len(result.Artifacts) != 1 {
		t.Fatalf("expected 1 span and 1 artifact, got %d and %d", result.Spans, len(result.Artifacts))
	}

	a := result.Artifacts[0]
	if a.Value != 1776 || a.Form != model.FormDigit {
		t.Errorf("artifact value/form = %d/%v", a.Value, a.Form)
	}
	if a.Source != image.Rect(40, 50, 80, 70) {
		t.Errorf("Source = %v", a.Source)
	}
	if a.Crop != image.Rect(36, 46, 84, 74) {
		t.Errorf("Crop = %v", a.Crop)
	}
	if a.Width != 48 || a.Height != 28 {
		t.Errorf("size = %dx%d, want 48x28", a.Width, a.Height)
	}
	if a.ID != a.Key().ID() {
		t.Error("artifact ID should derive from its dedupe key")
	}
	if a.Confidence != 95 {
		t.Errorf("Confidence = %v, want 95", a.Confidence)
	}

	want := filepath.Join(config.OutputDir, "1776", "1776_book_p1_36_46_h28.png")
	if a.Path != want {
		t.Errorf("Path = %q, want %q", a.Path, want)
	}

	f, err := os.Open(a.Path)
	if err != nil {
		t.Fatalf("crop not written: %v", err)
	}
	defer f.Close()
	crop, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode crop: %v", err)
	}
	if crop.Bounds().Dx() != 48 || crop.Bounds().Dy() != 28 {
		t.Errorf("crop bounds = %v", crop.Bounds())
	}
	// Margin pixel is white, span pixel is dark.
	if g := color.GrayModel.Convert(crop.At(0, 0)).(color.Gray); g.Y != 255 {
		t.Errorf("margin pixel = %d, want 255", g.Y)
	}
	if g := color.GrayModel.Convert(crop.At(10, 10)).(color.Gray); g.Y != 20 {
		t.Errorf("span pixel = %d, want 20", g.Y)
	}
}

func TestExtractPageTargetHeight(t *testing.T) {
	config := testConfig(t)
	config.TargetHeight = 56

	page := sentencePage()
	result := NewExtractor(config).ExtractPage(context.Background(), testBook, page, newPageImage(600, 200))
	if result.Err != nil || len(result.Artifacts) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	a := result.Artifacts[0]
	if a.Width != 96 || a.Height != 56 {
		t.Errorf("size = %dx%d, want 96x56", a.Width, a.Height)
	}
	if filepath.Base(a.Path) != "1776_book_p1_36_46_h56.png" {
		t.Errorf("Path = %q", a.Path)
	}
}

func TestExtractPageClampsToImage(t *testing.T) {
	config := testConfig(t)
	page := newTestPage(testWord{"42", model.NewBBox(1, 1, 20, 20)})

	result := NewExtractor(config).ExtractPage(context.Background(), testBook, page, newPageImage(600, 200))
	if len(result.Artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %+v", result)
	}
	if got := result.Artifacts[0].Crop; got != image.Rect(0, 0, 25, 25) {
		t.Errorf("Crop = %v, want (0,0)-(25,25)", got)
	}
}

// ============================================================================
// Deduplication
// ============================================================================

func TestExtractPageSkipsSeen(t *testing.T) {
	config := testConfig(t)
	page := sentencePage()
	img := newPageImage(600, 200)

	first := NewExtractor(config).ExtractPage(context.Background(), testBook, page, img)
	if len(first.Artifacts) != 1 {
		t.Fatalf("first run: expected 1 artifact, got %d", len(first.Artifacts))
	}

	known := map[model.DedupeKey]bool{first.Artifacts[0].Key(): true}
	seen := func(k model.DedupeKey) bool { return known[k] }

	second := NewExtractor(config, WithSeen(seen)).ExtractPage(context.Background(), testBook, page, img)
	if second.Err != nil {
		t.Fatalf("second run error: %v", second.Err)
	}
	if len(second.Artifacts) != 0 || second.Duplicates != 1 {
		t.Errorf("second run: artifacts=%d duplicates=%d, want 0 and 1", len(second.Artifacts), second.Duplicates)
	}
}

// ============================================================================
// Validation
// ============================================================================

func TestExtractPageRejections(t *testing.T) {
	tests := []struct {
		name string
		word testWord
	}{
		{"too small", testWord{"7", model.NewBBox(100, 100, 3, 3)}},
		{"too tall", testWord{"1", model.NewBBox(100, 20, 8, 40)}},
		{"too wide", testWord{"5", model.NewBBox(100, 100, 200, 20)}},
		{"outside image", testWord{"9", model.NewBBox(1000, 1000, 20, 20)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(t)
			config.Margin = 0
			page := newTestPage(tt.word)

			result := NewExtractor(config).ExtractPage(context.Background(), testBook, page, newPageImage(600, 200))
			if result.Err != nil {
				t.Fatalf("unexpected page error: %v", result.Err)
			}
			if len(result.Artifacts) != 0 || len(result.Rejected) != 1 {
				t.Fatalf("artifacts=%d rejected=%d, want 0 and 1", len(result.Artifacts), len(result.Rejected))
			}
			if !errors.Is(result.Rejected[0], ErrCropValidation) {
				t.Errorf("rejection %v should match ErrCropValidation", result.Rejected[0])
			}
			var cropErr *CropError
			if !errors.As(result.Rejected[0], &cropErr) {
				t.Fatalf("expected *CropError, got %T", result.Rejected[0])
			}
			if cropErr.BookID != "book" || cropErr.PageID != "p1" {
				t.Errorf("CropError location = %s/%s", cropErr.BookID, cropErr.PageID)
			}
		})
	}
}

func TestExtractSpanNegativeWidth(t *testing.T) {
	e := NewExtractor(testConfig(t))
	word := model.Word{Text: "5", BBox: model.NewBBoxFromCorners(50, 10, 40, 30), Confidence: 95}
	span := model.NewNumberSpan(5, model.FormDigit, []model.Word{word})
	key := model.DedupeKey{BookID: "book", PageID: "p1", Source: span.BBox.Rect()}

	_, err := e.extractSpan(context.Background(), key, span, newPageImage(600, 200))
	if !errors.Is(err, ErrCropValidation) {
		t.Errorf("expected ErrCropValidation, got %v", err)
	}
}

// ============================================================================
// Verification and cancellation
// ============================================================================

type stubVerifier struct {
	ok  bool
	err error
}

func (s stubVerifier) Verify(context.Context, image.Image, model.NumberSpan) (bool, error) {
	return s.ok, s.err
}

func TestExtractPageVerifier(t *testing.T) {
	page := sentencePage()
	img := newPageImage(600, 200)

	result := NewExtractor(testConfig(t), WithVerifier(stubVerifier{ok: true})).
		ExtractPage(context.Background(), testBook, page, img)
	if len(result.Artifacts) != 1 {
		t.Errorf("accepting verifier: expected 1 artifact, got %d", len(result.Artifacts))
	}

	result = NewExtractor(testConfig(t), WithVerifier(stubVerifier{ok: false})).
		ExtractPage(context.Background(), testBook, page, img)
	if len(result.Artifacts) != 0 || len(result.Rejected) != 1 {
		t.Errorf("rejecting verifier: artifacts=%d rejected=%d", len(result.Artifacts), len(result.Rejected))
	}

	boom := errors.New("engine crashed")
	result = NewExtractor(testConfig(t), WithVerifier(stubVerifier{err: boom})).
		ExtractPage(context.Background(), testBook, page, img)
	if !errors.Is(result.Err, boom) {
		t.Errorf("failing verifier: Err = %v, want %v", result.Err, boom)
	}
}

func TestExtractPageCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewExtractor(testConfig(t)).ExtractPage(ctx, testBook, sentencePage(), newPageImage(600, 200))
	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", result.Err)
	}
	if len(result.Artifacts) != 0 {
		t.Errorf("expected no artifacts, got %d", len(result.Artifacts))
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"book", "book"},
		{"a/b", "a-b"},
		{`a\b:c`, "a-b-c"},
		{"", "_"},
		{"tab\there", "tabhere"},
	}
	for _, tt := range tests {
		if got := safeName(tt.in); got != tt.want {
			t.Errorf("safeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ============================================================================
// Image loading
// ============================================================================

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	src := newPageImage(30, 20)

	pngPath := filepath.Join(dir, "page.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tiffPath := filepath.Join(dir, "page.tif")
	f, err = os.Create(tiffPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(f, src, nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	for _, path := range []string{pngPath, tiffPath} {
		img, err := LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage(%s): %v", path, err)
		}
		if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
			t.Errorf("LoadImage(%s) bounds = %v", path, img.Bounds())
		}
	}
}

func TestLoadImageUnsupported(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "page.txt")
	if err := os.WriteFile(txt, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadImage(txt); !errors.Is(err, format.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for text, got %v", err)
	}

	if _, err := LoadImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
