// Package site builds the static blog: it loads the reviews, copies the
// passthrough files and renders the index and one page per book into the
// output directory.
package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/bookshelf/internal/browser"
	"github.com/conneroisu/bookshelf/internal/config"
	"github.com/conneroisu/bookshelf/internal/content"
	siteerrors "github.com/conneroisu/bookshelf/internal/errors"
	"github.com/conneroisu/bookshelf/internal/logging"
	"github.com/conneroisu/bookshelf/internal/views"
)

// Output names of the browser paginator assets.
const (
	WasmFile     = "bookshelf.wasm"
	WasmExecFile = "wasm_exec.js"
)

// Report summarizes a build.
type Report struct {
	Books         int           `json:"books"`
	PagesWritten  int           `json:"pages_written"`
	FilesCopied   int           `json:"files_copied"`
	FilesSkipped  int           `json:"files_skipped"`
	ContentErrors []string      `json:"content_errors,omitempty"`
	Duration      time.Duration `json:"duration"`
	Pages         []string      `json:"pages"`
}

// PageData is passed to every layout.
type PageData struct {
	Site           config.SiteConfig
	Title          string
	Description    string
	IDs            views.ElementIDs
	PageSize       int
	TruncateLength int
	EmptyText      string
	Wasm           bool
	WasmArgs       []string
	LiveReload     string

	// Index pages.
	Books []*content.Book

	// Book pages.
	Book *content.Book
	// BackPage is the index page listing Book.
	BackPage int
}

// Builder renders a project into its output directory.
type Builder struct {
	cfg        *config.Config
	root       string
	logger     logging.Logger
	liveReload string
}

// Option configures a Builder.
type Option func(*Builder)

// WithRoot resolves the configured paths against dir instead of the working
// directory.
func WithRoot(dir string) Option {
	return func(b *Builder) { b.root = dir }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithLiveReload injects a client that reloads the page when the websocket
// at path says so.
func WithLiveReload(path string) Option {
	return func(b *Builder) { b.liveReload = path }
}

// NewBuilder creates a builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:    cfg,
		root:   ".",
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithComponent("site")
	return b
}

// OutputDir returns the resolved output directory.
func (b *Builder) OutputDir() string {
	return b.path(b.cfg.Paths.Output)
}

func (b *Builder) path(rel string) string {
	return filepath.Join(b.root, rel)
}

type renderJob struct {
	name string
	tmpl *template.Template
	data PageData
}

// Build runs one full build. Malformed reviews are skipped and listed in the
// report; any other failure aborts the build.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	perf := logging.StartOperation(b.logger, "build")
	start := time.Now()
	report := &Report{}
	output := b.OutputDir()

	if b.cfg.Build.Clean {
		if err := os.RemoveAll(output); err != nil {
			return nil, b.fail(ctx, perf, siteerrors.NewIOError(siteerrors.ErrCodeWrite, "cannot clean output", err).
				WithLocation(output, 0))
		}
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return nil, b.fail(ctx, perf, siteerrors.NewIOError(siteerrors.ErrCodeWrite, "cannot create output", err).
			WithLocation(output, 0))
	}

	books, err := content.Load(ctx, b.path(b.cfg.Paths.Content), content.Options{
		DefaultLayout:  b.cfg.Content.DefaultLayout,
		DefaultTags:    b.cfg.Content.DefaultTags,
		TruncateLength: b.cfg.Content.TruncateLength,
		Logger:         b.logger,
	})
	if err != nil && !siteerrors.IsType(err, siteerrors.ErrorTypeContent) {
		return nil, b.fail(ctx, perf, err)
	}
	if err != nil {
		report.ContentErrors = splitErrors(err)
	}
	books, slugErrors := b.checkSlugs(books)
	for _, se := range slugErrors {
		b.logger.Warn(ctx, se, "Review skipped")
		report.ContentErrors = append(report.ContentErrors, se.Error())
	}
	report.Books = len(books)

	if err := b.copyPassthrough(ctx, report); err != nil {
		return nil, b.fail(ctx, perf, err)
	}

	wasm, err := b.copyWasm(ctx, report)
	if err != nil {
		return nil, b.fail(ctx, perf, err)
	}

	l, err := loadLayouts(b.path(b.cfg.Paths.Layouts))
	if err != nil {
		return nil, b.fail(ctx, perf, err)
	}

	jobs, err := b.plan(ctx, l, books, wasm)
	if err != nil {
		return nil, b.fail(ctx, perf, err)
	}

	if err := b.render(ctx, jobs, report); err != nil {
		return nil, b.fail(ctx, perf, err)
	}

	report.Duration = time.Since(start)
	perf.End(ctx,
		"books", report.Books,
		"pages", report.PagesWritten,
		"copied", report.FilesCopied,
		"skipped", report.FilesSkipped,
		"content_errors", len(report.ContentErrors),
	)
	return report, nil
}

func (b *Builder) fail(ctx context.Context, perf *logging.PerfLogger, err error) error {
	perf.EndWithError(ctx, err)
	return err
}

func (b *Builder) copyPassthrough(ctx context.Context, report *Report) error {
	for _, rel := range b.cfg.Passthrough {
		src := b.path(rel)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			b.logger.Debug(ctx, "Passthrough path missing", "path", rel)
			continue
		}
		dst := destination(rel, b.cfg.Paths.Input, b.OutputDir())
		res, err := b.copyTree(ctx, src, dst)
		if err != nil {
			return err
		}
		report.FilesCopied += res.copied
		report.FilesSkipped += res.skipped
	}
	return nil
}

// copyWasm installs the browser paginator when configured and reports
// whether it did.
func (b *Builder) copyWasm(ctx context.Context, report *Report) (bool, error) {
	if b.cfg.Site.Wasm == "" {
		return false, nil
	}
	pairs := [][2]string{
		{b.cfg.Site.Wasm, WasmFile},
		{b.cfg.Site.WasmExec, WasmExecFile},
	}
	for _, pair := range pairs {
		src := b.path(pair[0])
		if _, err := os.Stat(src); err != nil {
			return false, siteerrors.ErrFileNotFound(src, err)
		}
		res, err := b.copyTree(ctx, src, filepath.Join(b.OutputDir(), pair[1]))
		if err != nil {
			return false, err
		}
		report.FilesCopied += res.copied
		report.FilesSkipped += res.skipped
	}
	return true, nil
}

// plan builds the render jobs for the index and every book.
func (b *Builder) plan(ctx context.Context, l *layouts, books []*content.Book, wasm bool) ([]renderJob, error) {
	base := PageData{
		Site:           b.cfg.Site,
		Description:    b.cfg.Site.Description,
		IDs:            b.cfg.Pagination.IDs,
		PageSize:       b.cfg.Pagination.PageSize,
		TruncateLength: b.cfg.Content.TruncateLength,
		EmptyText:      views.EmptyStateText,
		Wasm:           wasm,
		WasmArgs:       b.wasmSettings().Args(),
		LiveReload:     b.liveReload,
	}

	listed := content.Collection(books, b.collectionTag())
	position := make(map[*content.Book]int, len(listed))
	for i, book := range listed {
		position[book] = i
	}

	index := l.lookup(IndexTemplate)
	if index == nil {
		return nil, siteerrors.NewBuildError(siteerrors.ErrCodeTemplate, "missing "+IndexTemplate, nil)
	}
	indexData := base
	indexData.Books = listed
	jobs := []renderJob{{name: "index.html", tmpl: index, data: indexData}}

	for _, book := range books {
		tmpl := l.lookup(book.Layout)
		if tmpl == nil || book.Layout == LayoutTemplate {
			b.logger.Warn(ctx, nil, "Unknown layout, using default",
				"file", book.SourcePath,
				"layout", book.Layout,
				"available", l.names(),
			)
			tmpl = l.lookup(BookTemplate)
		}
		if tmpl == nil {
			return nil, siteerrors.NewBuildError(siteerrors.ErrCodeTemplate, "missing "+BookTemplate, nil)
		}

		data := base
		data.Title = book.Title
		data.Description = book.Description
		data.Book = book
		data.BackPage = 1
		if i, ok := position[book]; ok {
			data.BackPage = i/b.cfg.Pagination.PageSize + 1
		}
		jobs = append(jobs, renderJob{
			name: filepath.Join(book.Slug, "index.html"),
			tmpl: tmpl,
			data: data,
		})
	}
	return jobs, nil
}

// checkSlugs keeps the books whose page can be written without replacing
// another output. A book whose slug is empty or reserved is dropped with a
// content error, and so is a later book reusing an earlier book's slug.
func (b *Builder) checkSlugs(books []*content.Book) ([]*content.Book, []*siteerrors.SiteError) {
	reserved := b.reservedNames()
	owners := make(map[string]*content.Book, len(books))
	kept := make([]*content.Book, 0, len(books))
	var problems []*siteerrors.SiteError

	for _, book := range books {
		if book.Slug == "" || reserved[book.Slug] {
			problems = append(problems, siteerrors.NewContentError(siteerrors.ErrCodeReservedSlug,
				fmt.Sprintf("slug %q would overwrite a reserved output", book.Slug), nil).
				WithLocation(book.SourcePath, 0))
			continue
		}
		if first, ok := owners[book.Slug]; ok {
			problems = append(problems, siteerrors.NewContentError(siteerrors.ErrCodeDuplicateSlug,
				fmt.Sprintf("slug %q is already used by %s", book.Slug, first.SourcePath), nil).
				WithLocation(book.SourcePath, 0).
				WithContext("first", first.SourcePath))
			continue
		}
		owners[book.Slug] = book
		kept = append(kept, book)
	}
	return kept, problems
}

// reservedNames lists the top-level output names a book page must not take.
// Passthrough destinations are included.
func (b *Builder) reservedNames() map[string]bool {
	reserved := map[string]bool{
		"index.html": true,
		WasmFile:     true,
		WasmExecFile: true,
	}
	output := b.OutputDir()
	for _, rel := range b.cfg.Passthrough {
		inner, err := filepath.Rel(output, destination(rel, b.cfg.Paths.Input, output))
		if err != nil || inner == "." {
			continue
		}
		top, _, _ := strings.Cut(filepath.ToSlash(inner), "/")
		reserved[top] = true
	}
	return reserved
}

func (b *Builder) wasmSettings() browser.Settings {
	p := b.cfg.Pagination
	return browser.Settings{
		IDs:             p.IDs,
		PageSize:        p.PageSize,
		Debounce:        p.Debounce,
		ScrollThreshold: p.ScrollThreshold,
		ScrollOffset:    p.ScrollOffset,
	}
}

func (b *Builder) collectionTag() string {
	if len(b.cfg.Content.DefaultTags) > 0 {
		return b.cfg.Content.DefaultTags[0]
	}
	return "books"
}

// render executes the jobs on up to build.workers goroutines.
func (b *Builder) render(ctx context.Context, jobs []renderJob, report *Report) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.cfg.Build.Workers, 1))

	var mu sync.Mutex
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := job.tmpl.ExecuteTemplate(&buf, LayoutTemplate, job.data); err != nil {
				se := siteerrors.NewBuildError(siteerrors.ErrCodeRender, "cannot render "+job.name, err)
				if job.data.Book != nil {
					se.WithLocation(job.data.Book.SourcePath, 0)
				}
				return se
			}

			dst := filepath.Join(b.OutputDir(), job.name)
			if err := writeFile(dst, buf.Bytes(), b.cfg.Build.Precompress); err != nil {
				return siteerrors.NewIOError(siteerrors.ErrCodeWrite, "cannot write page", err).WithLocation(dst, 0)
			}

			mu.Lock()
			report.PagesWritten++
			report.Pages = append(report.Pages, filepath.ToSlash(job.name))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Strings(report.Pages)
	return nil
}

// splitErrors flattens a joined error into its messages.
func splitErrors(err error) []string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range joined.Unwrap() {
		out = append(out, e.Error())
	}
	return out
}
