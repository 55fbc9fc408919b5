package piscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/tsawler/piscan/catalog"
	"github.com/tsawler/piscan/corpus"
	"github.com/tsawler/piscan/detect"
	"github.com/tsawler/piscan/hocr"
	"github.com/tsawler/piscan/internal/workers"
	"github.com/tsawler/piscan/tokens"
)

// Pipeline provides a fluent interface for extracting number crops from a
// corpus. Each configuration method returns a new Pipeline instance, making
// it safe for concurrent use and allowing method chaining.
type Pipeline struct {
	root    string
	options ExtractOptions
}

// clone creates a copy of the Pipeline with a deep copy of options.
func (p *Pipeline) clone() *Pipeline {
	return &Pipeline{root: p.root, options: p.options.clone()}
}

// ============================================================================
// Configuration Methods (return new Pipeline instance)
// ============================================================================

// Output sets the directory crops are written under.
func (p *Pipeline) Output(dir string) *Pipeline {
	newP := p.clone()
	newP.options.outputDir = dir
	return newP
}

// Catalog sets the catalog database path.
func (p *Pipeline) Catalog(path string) *Pipeline {
	newP := p.clone()
	newP.options.catalogPath = path
	return newP
}

// Books restricts extraction to the given book ids.
// Multiple calls are cumulative.
//
// Example:
//
//	report, _, err := piscan.Corpus("data/raw").Books("alpha", "beta").Extract(ctx)
func (p *Pipeline) Books(ids ...string) *Pipeline {
	newP := p.clone()
	newP.options.books = append(newP.options.books, ids...)
	return newP
}

// Workers sets how many pages are processed at once. Zero or less means
// one per CPU.
func (p *Pipeline) Workers(n int) *Pipeline {
	newP := p.clone()
	newP.options.workers = n
	return newP
}

// Margin sets the pixels added around each number before cropping.
func (p *Pipeline) Margin(px int) *Pipeline {
	newP := p.clone()
	newP.options.margin = px
	return newP
}

// MinConfidence sets the OCR word confidence (0-100) a word must exceed
// for a number to be read from it.
func (p *Pipeline) MinConfidence(c float64) *Pipeline {
	newP := p.clone()
	newP.options.minConfidence = c
	return newP
}

// TargetHeight rescales every crop to h pixels high.
func (p *Pipeline) TargetHeight(h int) *Pipeline {
	newP := p.clone()
	newP.options.targetHeight = h
	return newP
}

// DigitsOnly skips spelled-out numbers.
func (p *Pipeline) DigitsOnly() *Pipeline {
	newP := p.clone()
	newP.options.wordForm = false
	return newP
}

// Verify re-reads each crop with v and keeps only crops that still show
// their number.
func (p *Pipeline) Verify(v tokens.Verifier) *Pipeline {
	newP := p.clone()
	newP.options.verifier = v
	return newP
}

// Logger sets the logger; slog.Default() is used otherwise.
func (p *Pipeline) Logger(l *slog.Logger) *Pipeline {
	newP := p.clone()
	newP.options.logger = l
	return newP
}

// ============================================================================
// Extraction
// ============================================================================

// pageJob is one page handed to a worker.
type pageJob struct {
	book  corpus.BookDir
	raw   hocr.RawPage
	index int
}

// pageOutcome is a worker's result for one page.
type pageOutcome struct {
	result  tokens.PageResult
	dropped []error
}

// run is the state of one Extract call.
type run struct {
	options   ExtractOptions
	logger    *slog.Logger
	store     *catalog.Store
	index     *catalog.Index
	extractor *tokens.Extractor
	report    Report
	warnings  []Warning
}

// Extract scans the corpus, writes a crop for every number found, and
// records each page's crops in the catalog in one transaction.
//
// Problems confined to a book or a page are returned as warnings and the
// run continues. The error is non-nil only when the corpus or catalog
// cannot be opened or ctx ends; pages committed before that stay in the
// catalog.
func (p *Pipeline) Extract(ctx context.Context) (*Report, []Warning, error) {
	start := time.Now()
	logger := p.options.logger
	if logger == nil {
		logger = slog.Default()
	}

	books, problems, err := corpus.Scan(p.root)
	if err != nil {
		return nil, nil, err
	}

	store, err := catalog.Open(ctx, p.options.catalogPath, logger)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	index, err := store.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	r := &run{options: p.options, logger: logger, store: store, index: index}
	r.extractor = p.newExtractor(logger, index)
	for _, problem := range problems {
		r.warn(Warning{Kind: WarningBook, Message: "book skipped", Err: problem})
		r.report.BooksFailed++
	}

	for _, bd := range books {
		if len(p.options.books) > 0 && !slices.Contains(p.options.books, bd.Book.ID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}
		r.extractBook(ctx, bd)
	}

	r.report.Elapsed = time.Since(start)
	logger.Info("extract.done",
		"books", r.report.Books,
		"pages", r.report.Pages,
		"pages_failed", r.report.PagesFailed,
		"artifacts", r.report.Artifacts,
		"duplicates", r.report.Duplicates,
		"elapsed", r.report.Elapsed,
	)
	return &r.report, r.warnings, ctx.Err()
}

func (p *Pipeline) newExtractor(logger *slog.Logger, index *catalog.Index) *tokens.Extractor {
	dc := detect.DefaultConfig()
	dc.MinConfidence = p.options.minConfidence
	dc.WordForm = p.options.wordForm

	tc := tokens.DefaultConfig()
	tc.OutputDir = p.options.outputDir
	tc.Margin = p.options.margin
	tc.TargetHeight = p.options.targetHeight

	opts := []tokens.Option{
		tokens.WithDetector(detect.NewDetectorWithConfig(dc)),
		tokens.WithSeen(index.Has),
		tokens.WithLogger(logger),
	}
	if p.options.verifier != nil {
		opts = append(opts, tokens.WithVerifier(p.options.verifier))
	}
	return tokens.NewExtractor(tc, opts...)
}

func (r *run) warn(w Warning) {
	r.warnings = append(r.warnings, w)
}

// extractBook processes the pages of one book on the worker pool.
func (r *run) extractBook(ctx context.Context, bd corpus.BookDir) {
	book := bd.Book
	logger := r.logger.With("book", book.ID)

	doc, err := hocr.ParseFile(bd.HOCRPath)
	if err != nil {
		r.report.BooksFailed++
		r.warn(Warning{Kind: WarningBook, BookID: book.ID, Message: "unreadable hOCR", Err: err})
		logger.Warn("extract.book.failed", "error", err)
		return
	}
	if err := r.store.PutBook(ctx, book); err != nil {
		r.report.BooksFailed++
		r.warn(Warning{Kind: WarningBook, BookID: book.ID, Message: "catalog rejected book", Err: err})
		return
	}
	r.report.Books++

	jobs := make([]pageJob, len(doc.Pages))
	for i, raw := range doc.Pages {
		jobs[i] = pageJob{book: bd, raw: raw, index: i}
	}

	runner := workers.NewRunner[pageJob, pageOutcome](workers.RunnerConfig{
		MaxConcurrency: r.options.workers,
		LogPrefix:      book.ID,
		Logger:         r.logger,
	})
	skipped := runner.RunWithCallbacks(ctx, jobs, r.extractPage,
		func(job pageJob, out pageOutcome) { r.commit(ctx, job, out) },
		func(job pageJob, err error) { r.fail(job, err) },
	)
	r.report.PagesSkipped += skipped
	logger.Info("extract.book.done", "pages", len(jobs), "skipped", skipped)
}

// extractPage runs on a worker goroutine and touches no shared state
// except through the extractor.
func (r *run) extractPage(ctx context.Context, job pageJob) (pageOutcome, error) {
	book := job.book.Book
	pageID := job.raw.PageID(job.index)

	path, err := job.book.ResolveImage(job.raw, job.index)
	if err != nil {
		return pageOutcome{}, &PageFailure{BookID: book.ID, PageID: pageID, Err: err}
	}
	img, err := tokens.LoadImage(path)
	if err != nil {
		return pageOutcome{}, &PageFailure{BookID: book.ID, PageID: pageID, Err: err}
	}

	bounds := img.Bounds()
	page, dropped := hocr.Normalize(book.ID, pageID, job.raw, hocr.Dims{Width: bounds.Dx(), Height: bounds.Dy()})
	if page == nil {
		err := errors.Join(dropped...)
		return pageOutcome{}, &PageFailure{BookID: book.ID, PageID: pageID, Err: err}
	}

	result := r.extractor.ExtractPage(ctx, book, page, img)
	if result.Err != nil {
		return pageOutcome{}, &PageFailure{BookID: book.ID, PageID: pageID, Err: result.Err}
	}
	return pageOutcome{result: result, dropped: dropped}, nil
}

// commit runs on the single aggregating goroutine.
func (r *run) commit(ctx context.Context, job pageJob, out pageOutcome) {
	res := out.result
	logger := r.logger.With("book", res.BookID, "page", res.PageID)

	// Finished pages are committed even when the run is being cancelled.
	inserted, err := r.store.CommitPage(context.WithoutCancel(ctx), catalog.PageCommit{
		BookID:    res.BookID,
		PageID:    res.PageID,
		Spans:     res.Spans,
		Artifacts: res.Artifacts,
	})
	if err != nil {
		r.fail(job, &PageFailure{BookID: res.BookID, PageID: res.PageID, Err: err})
		return
	}

	for _, a := range res.Artifacts {
		if _, err := r.index.Add(a); err != nil {
			logger.Warn("extract.index.add", "value", a.Value, "error", err)
		}
	}

	r.report.Pages++
	r.report.Spans += res.Spans
	r.report.Artifacts += inserted
	r.report.Duplicates += res.Duplicates + len(res.Artifacts) - inserted
	r.report.Rejected += len(res.Rejected)
	r.report.DroppedWords += len(out.dropped)

	if len(out.dropped) > 0 {
		r.warn(Warning{
			Kind: WarningGeometry, BookID: res.BookID, PageID: res.PageID,
			Message: fmt.Sprintf("%d words dropped", len(out.dropped)),
			Err:     out.dropped[0],
		})
	}
	if len(res.Rejected) > 0 {
		r.warn(Warning{
			Kind: WarningCrop, BookID: res.BookID, PageID: res.PageID,
			Message: fmt.Sprintf("%d crops rejected", len(res.Rejected)),
			Err:     res.Rejected[0],
		})
	}

	logger.Debug("extract.page.ok",
		"spans", res.Spans,
		"artifacts", inserted,
		"duplicates", res.Duplicates,
		"rejected", len(res.Rejected),
	)
}

// fail records a page failure; it runs on the aggregating goroutine.
func (r *run) fail(job pageJob, err error) {
	r.report.PagesFailed++
	r.warn(Warning{
		Kind:    WarningPage,
		BookID:  job.book.Book.ID,
		PageID:  job.raw.PageID(job.index),
		Message: "page skipped",
		Err:     err,
	})
	r.logger.Warn("extract.page.failed",
		"book", job.book.Book.ID,
		"page", job.raw.PageID(job.index),
		"error", err,
	)
}
