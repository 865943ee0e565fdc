package content

import (
	"context"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	siteerrors "github.com/conneroisu/bookshelf/internal/errors"
	"github.com/conneroisu/bookshelf/internal/logging"
)

// Options control how reviews are loaded.
type Options struct {
	DefaultLayout  string
	DefaultTags    []string
	TruncateLength int
	Logger         logging.Logger
}

// Load reads every *.md file under dir. Files that fail to parse are skipped
// and reported together as content errors after the rest have loaded; the
// returned books are valid either way. I/O failures abort.
func Load(ctx context.Context, dir string, opts Options) ([]*Book, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithComponent("content")

	collector := siteerrors.NewErrorCollector()
	var books []*Book

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return siteerrors.NewIOError(siteerrors.ErrCodeFileNotFound, "cannot read content", err).
				WithLocation(path, 0)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		source, err := os.ReadFile(path)
		if err != nil {
			return siteerrors.NewIOError(siteerrors.ErrCodeFileNotFound, "cannot read content", err).
				WithLocation(path, 0)
		}

		book, err := Parse(path, source, opts)
		if err != nil {
			logger.Warn(ctx, err, "Skipping review", "file", path)
			collector.AddError(err)
			return nil
		}
		books = append(books, book)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "Loaded reviews", "dir", dir, "books", len(books), "errors", collector.Len())
	return books, collector.Err()
}

// Parse builds a Book from one markdown source. path is used for the slug,
// the title fallback and error locations.
func Parse(path string, source []byte, opts Options) (*Book, error) {
	header, body, bodyLine, err := splitFrontMatter(source)
	if err != nil {
		return nil, siteerrors.NewContentError(siteerrors.ErrCodeFrontMatter, "invalid front matter", err).
			WithLocation(path, 1)
	}

	fm, err := parseFrontMatter(header)
	if err != nil {
		return nil, siteerrors.NewContentError(siteerrors.ErrCodeFrontMatter, "invalid front matter", err).
			WithLocation(path, 2)
	}

	date, err := ParseDate(fm.Date)
	if err != nil {
		return nil, siteerrors.NewContentError(siteerrors.ErrCodeInvalidDate, "invalid date", err).
			WithLocation(path, headerLine(header, "date"))
	}

	rendered, err := RenderMarkdown(body)
	if err != nil {
		return nil, siteerrors.NewContentError(siteerrors.ErrCodeMarkdown, "cannot render markdown", err).
			WithLocation(path, bodyLine)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	book := &Book{
		Slug:        Slugify(fm.Slug),
		Title:       strings.TrimSpace(fm.Title),
		Subtitle:    strings.TrimSpace(fm.Subtitle),
		Author:      strings.TrimSpace(fm.Author),
		Rating:      min(max(fm.Rating, 0), 5),
		Date:        date,
		Cover:       fm.Cover,
		Tags:        fm.Tags,
		Description: strings.TrimSpace(fm.Description),
		Layout:      fm.Layout,
		Body:        template.HTML(rendered),
		SourcePath:  path,
	}

	if book.Slug == "" {
		book.Slug = Slugify(name)
	}
	if book.Slug == "" {
		book.Slug = FallbackSlug(path)
	}
	if book.Title == "" {
		book.Title = TitleFromName(name)
	}
	if book.Description == "" {
		book.Description = Truncate(PlainText(rendered), opts.TruncateLength)
	}
	if book.Layout == "" {
		book.Layout = opts.DefaultLayout
	}
	if len(book.Tags) == 0 {
		book.Tags = append([]string(nil), opts.DefaultTags...)
	}
	book.Permalink = "/" + book.Slug + "/"

	return book, nil
}

// TitleFromName turns a file name like "the-dispossessed" into
// "The Dispossessed".
func TitleFromName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// headerLine returns the file line of key in the front matter, or 2.
func headerLine(header []byte, key string) int {
	for i, line := range strings.Split(string(header), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), key+":") {
			return i + 2
		}
	}
	return 2
}
