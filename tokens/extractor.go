package tokens

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/draw"

	"github.com/tsawler/piscan/detect"
	"github.com/tsawler/piscan/model"
)

// Verifier re-reads a crop and reports whether it still shows the span's
// value. It lets an OCR engine veto crops the page-level OCR got wrong.
type Verifier interface {
	Verify(ctx context.Context, crop image.Image, span model.NumberSpan) (bool, error)
}

// SeenFunc reports whether an occurrence was already extracted.
type SeenFunc func(model.DedupeKey) bool

// Option configures an Extractor.
type Option func(*Extractor)

// WithDetector sets the span detector.
func WithDetector(d *detect.Detector) Option {
	return func(e *Extractor) { e.detector = d }
}

// WithVerifier sets a crop verifier.
func WithVerifier(v Verifier) Option {
	return func(e *Extractor) { e.verifier = v }
}

// WithSeen sets the lookup used to skip occurrences extracted by an
// earlier run.
func WithSeen(seen SeenFunc) Option {
	return func(e *Extractor) { e.seen = seen }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// Extractor turns the number spans of a page into crop files.
// It is safe for concurrent use when its Verifier and SeenFunc are.
type Extractor struct {
	config   Config
	detector *detect.Detector
	verifier Verifier
	seen     SeenFunc
	logger   *slog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(config Config, opts ...Option) *Extractor {
	e := &Extractor{config: config}
	for _, opt := range opts {
		opt(e)
	}
	if e.detector == nil {
		e.detector = detect.NewDetector()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config {
	return e.config
}

// PageResult is the outcome of extracting one page.
type PageResult struct {
	BookID     string
	PageID     string
	Spans      int                   // Number spans detected
	Artifacts  []model.TokenArtifact // Crops written, in span order
	Duplicates int                   // Spans skipped as already extracted
	Rejected   []error               // Crop rejections, each a *CropError
	Err        error                 // Set when the page could not be processed
}

// ExtractPage detects the spans on page and writes a crop for each.
// Rejected crops are collected in the result and do not stop the page.
// A cancelled context or a write failure ends the page with Err set.
func (e *Extractor) ExtractPage(ctx context.Context, book model.Book, page *model.Page, img image.Image) PageResult {
	result := PageResult{BookID: book.ID, PageID: page.ID}

	spans := e.detector.Detect(page)
	result.Spans = len(spans)

	for _, span := range spans {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		key := model.DedupeKey{BookID: book.ID, PageID: page.ID, Source: span.BBox.Rect()}
		if e.seen != nil && e.seen(key) {
			result.Duplicates++
			continue
		}

		artifact, err := e.extractSpan(ctx, key, span, img)
		if err != nil {
			var cropErr *CropError
			if errors.As(err, &cropErr) {
				e.logger.Debug("extract.crop.rejected",
					"book", book.ID,
					"page", page.ID,
					"value", span.Value,
					"reason", cropErr.Reason,
				)
				result.Rejected = append(result.Rejected, err)
				continue
			}
			result.Err = err
			return result
		}
		result.Artifacts = append(result.Artifacts, artifact)
	}

	return result
}

func (e *Extractor) extractSpan(ctx context.Context, key model.DedupeKey, span model.NumberSpan, img image.Image) (model.TokenArtifact, error) {
	reject := func(rect image.Rectangle, reason string) error {
		return &CropError{Value: span.Value, BookID: key.BookID, PageID: key.PageID, Rect: rect, Reason: reason}
	}

	if !span.BBox.IsFinite() || !span.BBox.IsValid() {
		return model.TokenArtifact{}, reject(image.Rectangle{}, "malformed span geometry")
	}

	rect := key.Source.Inset(-e.config.Margin).Intersect(img.Bounds())
	if rect.Empty() {
		return model.TokenArtifact{}, reject(rect, "outside the page image")
	}
	if reason := e.validate(rect, span); reason != "" {
		return model.TokenArtifact{}, reject(rect, reason)
	}

	crop := e.cut(img, rect)

	if e.verifier != nil {
		ok, err := e.verifier.Verify(ctx, crop, span)
		if err != nil {
			return model.TokenArtifact{}, fmt.Errorf("tokens: verify crop: %w", err)
		}
		if !ok {
			return model.TokenArtifact{}, reject(rect, "verifier did not read the value back")
		}
	}

	size := crop.Bounds().Size()
	path := e.path(span.Value, key, rect.Min, size.Y)
	if err := writePNG(path, crop); err != nil {
		return model.TokenArtifact{}, err
	}

	return model.TokenArtifact{
		ID:         key.ID(),
		Value:      span.Value,
		BookID:     key.BookID,
		PageID:     key.PageID,
		Source:     key.Source,
		Crop:       rect,
		Form:       span.Form,
		Path:       path,
		Width:      size.X,
		Height:     size.Y,
		Confidence: span.MinConfidence(),
	}, nil
}

// validate returns why rect is not an acceptable crop, or "".
func (e *Extractor) validate(rect image.Rectangle, span model.NumberSpan) string {
	w, h := rect.Dx(), rect.Dy()
	if w < e.config.MinWidth || h < e.config.MinHeight {
		return fmt.Sprintf("too small (%dx%d)", w, h)
	}
	if e.config.MaxTallness > 0 && float64(h)/float64(w) > e.config.MaxTallness {
		return fmt.Sprintf("too tall (%dx%d)", w, h)
	}
	chars := utf8.RuneCountInString(span.Text())
	if limit := e.config.maxWideness(chars); e.config.WidePerChar > 0 && float64(w)/float64(h) > limit {
		return fmt.Sprintf("too wide for %d characters (%dx%d)", chars, w, h)
	}
	return ""
}

// cut copies rect out of img, rescaling to the target height if one is set.
func (e *Extractor) cut(img image.Image, rect image.Rectangle) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)

	target := e.config.TargetHeight
	if target <= 0 || target == rect.Dy() {
		return dst
	}

	width := int(math.Round(float64(rect.Dx()) * float64(target) / float64(rect.Dy())))
	if width < 1 {
		width = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, width, target))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), dst, dst.Bounds(), draw.Src, nil)
	return scaled
}

// path returns <out>/<value>/<value>_<book>_<page>_<x0>_<y0>_h<height>.png.
func (e *Extractor) path(value int, key model.DedupeKey, origin image.Point, height int) string {
	v := strconv.Itoa(value)
	name := fmt.Sprintf("%s_%s_%s_%d_%d_h%d.png",
		v, safeName(key.BookID), safeName(key.PageID), origin.X, origin.Y, height)
	return filepath.Join(e.config.OutputDir, v, name)
}

// safeName makes an identifier usable as a file name component.
func safeName(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == 0:
			return '-'
		case r < ' ':
			return -1
		}
		return r
	}, s)
}

// writePNG encodes img to a temporary file in the target directory and
// renames it into place.
func writePNG(path string, img image.Image) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tokens: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".crop-*.png")
	if err != nil {
		return fmt.Errorf("tokens: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("tokens: encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokens: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("tokens: write %s: %w", path, err)
	}
	return nil
}
