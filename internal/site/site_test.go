package site

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bookshelf/internal/config"
	"github.com/conneroisu/bookshelf/internal/dom"
	siteerrors "github.com/conneroisu/bookshelf/internal/errors"
	"github.com/conneroisu/bookshelf/internal/paginator"
	"github.com/conneroisu/bookshelf/internal/views"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func review(title, date string) string {
	return "---\ntitle: " + title + "\ndate: " + date + "\nsubtitle: Someone\nrating: 4\n---\nA review of " + title + ".\n"
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuild(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md":      review("Dune", "2024-01-03"),
		"src/books/kindred.md":   review("Kindred", "2024-01-02"),
		"src/books/piranesi.md":  review("Piranesi", "2024-01-01"),
		"src/books/solaris.md":   review("Solaris", "2023-12-31"),
		"src/style.css":          "body { color: black; }",
		"src/images/cover.png":   "png",
		"admin/config.yml":       "backend: git",
		"src/books/broken.md":    "---\ndate: whenever\n---\n",
		"src/_layouts/notes.txt": "ignored",
	})

	cfg := config.Default()
	cfg.Site.Title = "Shelf"
	report, err := NewBuilder(cfg, WithRoot(root)).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Books)
	assert.Equal(t, 5, report.PagesWritten)
	assert.Equal(t, 3, report.FilesCopied)
	assert.Zero(t, report.FilesSkipped)
	require.Len(t, report.ContentErrors, 1)
	assert.Contains(t, report.ContentErrors[0], "broken.md")
	assert.Equal(t, []string{
		"dune/index.html",
		"index.html",
		"kindred/index.html",
		"piranesi/index.html",
		"solaris/index.html",
	}, report.Pages)

	dist := filepath.Join(root, "dist")
	assert.FileExists(t, filepath.Join(dist, "style.css"))
	assert.FileExists(t, filepath.Join(dist, "images", "cover.png"))
	assert.FileExists(t, filepath.Join(dist, "admin", "config.yml"))
	assert.NoFileExists(t, filepath.Join(dist, "index.html.gz"))

	index := readFile(t, filepath.Join(dist, "index.html"))
	assert.Contains(t, index, "<title>Shelf</title>")
	assert.Contains(t, index, `data-page-size="3"`)
	assert.Contains(t, index, `id="book-search"`)
	assert.Contains(t, index, `id="no-results"`)
	assert.Contains(t, index, "★★★★☆")
	assert.NotContains(t, index, "wasm_exec.js")
	assert.NotContains(t, index, "WebSocket")

	page, err := dom.ParseCards(strings.NewReader(index), views.DefaultIDs())
	require.NoError(t, err)
	require.Len(t, page.Cards, 4)
	assert.Equal(t, "Dune", page.Cards[0].Title)
	assert.Equal(t, "Solaris", page.Cards[3].Title)
	assert.Equal(t, "Someone", page.Cards[0].Subtitle)
	assert.Equal(t, "/dune/", page.Cards[0].Href)
	assert.True(t, page.HasControls)

	solaris := readFile(t, filepath.Join(dist, "solaris", "index.html"))
	assert.Contains(t, solaris, "<title>Solaris | Shelf</title>")
	assert.Contains(t, solaris, `href="/#page-2"`)
	assert.Contains(t, solaris, "<p>A review of Solaris.</p>")
	assert.Contains(t, solaris, `datetime="2023-12-31"`)
}

func TestBuildSkipsUnchangedPassthrough(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md": review("Dune", "2024-01-03"),
		"src/style.css":     "body {}",
	})
	builder := NewBuilder(config.Default(), WithRoot(root))

	first, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.FilesCopied)

	second, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.FilesCopied)
	assert.Equal(t, 1, second.FilesSkipped)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "style.css"), []byte("body { margin: 0 }"), 0o644))
	third, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, third.FilesCopied)
	assert.Equal(t, "body { margin: 0 }", readFile(t, filepath.Join(root, "dist", "style.css")))
}

func TestBuildClean(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md": review("Dune", "2024-01-03"),
		"dist/stale.html":   "old",
	})

	cfg := config.Default()
	_, err := NewBuilder(cfg, WithRoot(root)).Build(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "dist", "stale.html"))

	cfg.Build.Clean = true
	_, err = NewBuilder(cfg, WithRoot(root)).Build(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, "dist", "stale.html"))
	assert.FileExists(t, filepath.Join(root, "dist", "index.html"))
}

func TestBuildPrecompress(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md": review("Dune", "2024-01-03"),
		"src/style.css":     "body {}",
	})
	cfg := config.Default()
	cfg.Build.Precompress = true

	_, err := NewBuilder(cfg, WithRoot(root)).Build(context.Background())
	require.NoError(t, err)

	dist := filepath.Join(root, "dist")
	f, err := os.Open(filepath.Join(dist, "index.html.gz"))
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	unzipped, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, readFile(t, filepath.Join(dist, "index.html")), string(unzipped))
	assert.FileExists(t, filepath.Join(dist, "style.css.gz"))
}

func TestBuildWithoutPrecompressRemovesGzip(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md": review("Dune", "2024-01-03"),
		"src/style.css":     "body {}",
	})
	cfg := config.Default()
	cfg.Build.Precompress = true
	builder := NewBuilder(cfg, WithRoot(root))

	_, err := builder.Build(context.Background())
	require.NoError(t, err)
	dist := filepath.Join(root, "dist")
	assert.FileExists(t, filepath.Join(dist, "dune", "index.html.gz"))
	assert.FileExists(t, filepath.Join(dist, "style.css.gz"))

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "books", "dune.md"), []byte(review("Dune Messiah", "2024-01-03")), 0o644))
	cfg.Build.Precompress = false
	report, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesSkipped)

	assert.NoFileExists(t, filepath.Join(dist, "index.html.gz"))
	assert.NoFileExists(t, filepath.Join(dist, "dune", "index.html.gz"))
	assert.NoFileExists(t, filepath.Join(dist, "style.css.gz"))
	assert.Contains(t, readFile(t, filepath.Join(dist, "dune", "index.html")), "Dune Messiah")
}

func TestBuildNonLatinFileName(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md":  review("Dune", "2024-01-03"),
		"src/books/三体.md":   review("The Three-Body Problem", "2024-01-02"),
		"src/books/📚.md":    review("Untitled", "2024-01-01"),
	})

	report, err := NewBuilder(config.Default(), WithRoot(root)).Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.ContentErrors)
	assert.Equal(t, 3, report.Books)
	assert.Equal(t, 4, report.PagesWritten)
	assert.Contains(t, report.Pages, "三体/index.html")
	assert.Equal(t, 1, countOf(report.Pages, "index.html"))

	dist := filepath.Join(root, "dist")
	index := readFile(t, filepath.Join(dist, "index.html"))
	page, err := dom.ParseCards(strings.NewReader(index), views.DefaultIDs())
	require.NoError(t, err)
	require.Len(t, page.Cards, 3)
	assert.Equal(t, "The Three-Body Problem", page.Cards[1].Title)
	assert.Contains(t, readFile(t, filepath.Join(dist, "三体", "index.html")), "The Three-Body Problem")
}

func TestBuildRejectsReservedSlug(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md":   review("Dune", "2024-01-03"),
		"src/books/admin.md":  review("Admin", "2024-01-02"),
		"src/books/images.md": "---\ntitle: Pictures\nslug: Images\n---\nBody.\n",
		"admin/index.html":    "<h1>cms</h1>",
	})

	report, err := NewBuilder(config.Default(), WithRoot(root)).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Books)
	assert.Equal(t, []string{"dune/index.html", "index.html"}, report.Pages)
	require.Len(t, report.ContentErrors, 2)
	for _, msg := range report.ContentErrors {
		assert.Contains(t, msg, siteerrors.ErrCodeReservedSlug)
	}
	assert.Equal(t, "<h1>cms</h1>", readFile(t, filepath.Join(root, "dist", "admin", "index.html")))
}

func TestBuildReportsDuplicateSlugs(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/2023/review.md": review("First Pick", "2023-06-01"),
		"src/books/2024/review.md": review("Second Pick", "2024-06-01"),
		"src/books/dune.md":        "---\ntitle: Dune\nslug: The Classic\n---\nBody.\n",
		"src/books/other-dune.md":  "---\ntitle: Dune Again\nslug: the-classic\n---\nBody.\n",
	})

	report, err := NewBuilder(config.Default(), WithRoot(root)).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Books)
	assert.Equal(t, []string{"index.html", "review/index.html", "the-classic/index.html"}, report.Pages)

	require.Len(t, report.ContentErrors, 2)
	first := filepath.Join(root, "src", "books", "2023", "review.md")
	second := filepath.Join(root, "src", "books", "2024", "review.md")
	var duplicate string
	for _, msg := range report.ContentErrors {
		assert.Contains(t, msg, siteerrors.ErrCodeDuplicateSlug)
		if strings.Contains(msg, second) {
			duplicate = msg
		}
	}
	assert.Contains(t, duplicate, first)

	page := readFile(t, filepath.Join(root, "dist", "review", "index.html"))
	assert.Contains(t, page, "First Pick")
	assert.Contains(t, readFile(t, filepath.Join(root, "dist", "the-classic", "index.html")), "<title>Dune |")
}

func countOf(values []string, want string) int {
	n := 0
	for _, v := range values {
		if v == want {
			n++
		}
	}
	return n
}

func TestBuildWasmAndLiveReload(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md":  review("Dune", "2024-01-03"),
		"build/paginator.wasm": "\x00asm",
		"build/wasm_exec.js": "// go runtime",
	})
	cfg := config.Default()
	cfg.Site.Wasm = "build/paginator.wasm"
	cfg.Site.WasmExec = "build/wasm_exec.js"

	_, err := NewBuilder(cfg, WithRoot(root), WithLiveReload("/_bookshelf/reload")).Build(context.Background())
	require.NoError(t, err)

	dist := filepath.Join(root, "dist")
	assert.FileExists(t, filepath.Join(dist, WasmFile))
	assert.FileExists(t, filepath.Join(dist, WasmExecFile))

	index := readFile(t, filepath.Join(dist, "index.html"))
	assert.Contains(t, index, `<script src="/wasm_exec.js"></script>`)
	assert.Contains(t, index, `fetch("/bookshelf.wasm")`)
	assert.Contains(t, index, `"--page-size=3"`)
	assert.Contains(t, index, `"--container=books-grid"`)
	assert.Contains(t, index, "new WebSocket")
	assert.Contains(t, index, `_bookshelf`)
}

func TestBuildMissingWasm(t *testing.T) {
	root := writeProject(t, map[string]string{"src/books/dune.md": review("Dune", "2024-01-03")})
	cfg := config.Default()
	cfg.Site.Wasm = "missing.wasm"
	cfg.Site.WasmExec = "missing.js"

	_, err := NewBuilder(cfg, WithRoot(root)).Build(context.Background())
	require.Error(t, err)
	assert.True(t, siteerrors.IsType(err, siteerrors.ErrorTypeIO))
}

func TestBuildLayoutOverride(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md":    "---\ntitle: Dune\nlayout: wide.html\n---\nSand.\n",
		"src/books/kindred.md": "---\ntitle: Kindred\nlayout: nope.html\n---\nTime.\n",
		"src/_layouts/wide.html": `{{ define "content" }}<div class="wide">{{ .Book.Title }}</div>{{ end }}`,
		"src/_layouts/index.html": `{{ define "content" }}<ul>{{ range .Books }}<li>{{ .Title }}</li>{{ end }}</ul>{{ end }}`,
	})

	_, err := NewBuilder(config.Default(), WithRoot(root)).Build(context.Background())
	require.NoError(t, err)

	dist := filepath.Join(root, "dist")
	assert.Contains(t, readFile(t, filepath.Join(dist, "dune", "index.html")), `<div class="wide">Dune</div>`)
	assert.Contains(t, readFile(t, filepath.Join(dist, "kindred", "index.html")), "&laquo; All books")
	assert.Contains(t, readFile(t, filepath.Join(dist, "index.html")), "<li>Dune</li><li>Kindred</li>")
}

func TestBuildTemplateError(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md":       review("Dune", "2024-01-03"),
		"src/_layouts/index.html": `{{ define "content" }}{{ .Missing }{{ end }}`,
	})

	_, err := NewBuilder(config.Default(), WithRoot(root)).Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, &siteerrors.SiteError{Type: siteerrors.ErrorTypeBuild, Code: siteerrors.ErrCodeTemplate})
}

func TestBuildRenderError(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/books/dune.md":       review("Dune", "2024-01-03"),
		"src/_layouts/index.html": `{{ define "content" }}{{ .Nope }}{{ end }}`,
	})

	_, err := NewBuilder(config.Default(), WithRoot(root)).Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, &siteerrors.SiteError{Type: siteerrors.ErrorTypeBuild, Code: siteerrors.ErrCodeRender})
}

func TestDestination(t *testing.T) {
	assert.Equal(t, filepath.Join("dist", "style.css"), destination("src/style.css", "src", "dist"))
	assert.Equal(t, filepath.Join("dist", "admin"), destination("admin", "src", "dist"))
	assert.Equal(t, filepath.Join("dist", "images"), destination("./src/images/", "src", "dist"))
	assert.Equal(t, filepath.Join("dist", "srcfoo"), destination("srcfoo", "src", "dist"))
}

func TestFuncs(t *testing.T) {
	assert.Equal(t, "★★★☆☆", Stars(3))
	assert.Equal(t, "☆☆☆☆☆", Stars(-1))
	assert.Equal(t, "★★★★★", Stars(9))

	funcs := Funcs()
	fragment := funcs["fragment"].(func(int) string)
	assert.Equal(t, paginator.FormatFragment(4), fragment(4))

	truncate := funcs["truncate"].(func(int, string) string)
	assert.Equal(t, "one two...", truncate(8, "one two three"))
}

func TestDigest(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(a, bytes.Repeat([]byte("x"), 4096), 0o644))
	require.NoError(t, os.WriteFile(b, bytes.Repeat([]byte("x"), 4096), 0o644))

	same, err := sameContent(a, b)
	require.NoError(t, err)
	assert.True(t, same)

	require.NoError(t, os.WriteFile(b, []byte("y"), 0o644))
	same, err = sameContent(a, b)
	require.NoError(t, err)
	assert.False(t, same)

	same, err = sameContent(a, filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, same)
}
