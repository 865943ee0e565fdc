package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/conneroisu/bookshelf/internal/config"
	"github.com/conneroisu/bookshelf/internal/site"
	"github.com/conneroisu/bookshelf/internal/views"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute(), buf.String())
	return buf.String()
}

func TestScaffoldConfigLoads(t *testing.T) {
	data, err := yaml.Marshal(scaffoldConfig("Reading"))
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), ".bookshelf.yml")
	require.NoError(t, os.WriteFile(file, data, 0o644))

	v := viper.New()
	config.Configure(v, file, "")
	require.NoError(t, v.ReadInConfig())
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)

	want := config.Default()
	want.Site.Title = "Reading"
	assert.Equal(t, want, cfg)
	assert.Contains(t, string(data), "debounce: 150ms")
}

func TestRunInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shelf")
	initTitle, initMinimal, initForce = "Bookshelf", false, false

	var out bytes.Buffer
	initCmd.SetOut(&out)
	defer initCmd.SetOut(nil)

	require.NoError(t, runInit(initCmd, []string{dir}))
	for _, path := range []string{
		".bookshelf.yml",
		"src/style.css",
		"src/books/the-left-hand-of-darkness.md",
		"admin/config.yml",
		"admin/index.html",
	} {
		assert.FileExists(t, filepath.Join(dir, path))
	}
	assert.DirExists(t, filepath.Join(dir, "src", "_layouts"))
	assert.DirExists(t, filepath.Join(dir, "src", "images"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "style.css"), []byte("mine"), 0o644))
	out.Reset()
	require.NoError(t, runInit(initCmd, []string{dir}))
	assert.Contains(t, out.String(), "src/style.css already exists")

	data, err := os.ReadFile(filepath.Join(dir, "src", "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestRunInitMinimal(t *testing.T) {
	dir := t.TempDir()
	initTitle, initMinimal, initForce = "Bookshelf", true, false
	defer func() { initMinimal = false }()

	initCmd.SetOut(&bytes.Buffer{})
	defer initCmd.SetOut(nil)

	require.NoError(t, runInit(initCmd, []string{dir}))
	assert.NoFileExists(t, filepath.Join(dir, "src", "books", "the-left-hand-of-darkness.md"))
}

func buildIndex(t *testing.T, titles ...string) string {
	t.Helper()
	root := t.TempDir()
	for i, title := range titles {
		name := strings.ToLower(strings.ReplaceAll(title, " ", "-")) + ".md"
		body := fmt.Sprintf("---\ntitle: %s\nsubtitle: Author %s\ndate: 2024-01-%02d\n---\nAbout %s.\n",
			title, title, 20-i, title)
		path := filepath.Join(root, "src", "books", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	_, err := site.NewBuilder(config.Default(), site.WithRoot(root)).Build(context.Background())
	require.NoError(t, err)
	return filepath.Join(root, "dist", "index.html")
}

func search(t *testing.T, index string, opts searchOptions) *searchResult {
	t.Helper()
	f, err := os.Open(index)
	require.NoError(t, err)
	defer f.Close()

	if opts.IDs == (views.ElementIDs{}) {
		opts.IDs = views.DefaultIDs()
	}
	result, err := searchIndex(f, opts)
	require.NoError(t, err)
	return result
}

func cardTitles(r *searchResult) []string {
	var out []string
	for _, c := range r.Cards {
		out = append(out, c.Title)
	}
	return out
}

func TestSearchIndex(t *testing.T) {
	index := buildIndex(t, "Dune", "Kindred", "Piranesi", "Solaris", "Beloved")

	tests := []struct {
		name     string
		opts     searchOptions
		page     int
		pages    int
		matched  int
		titles   []string
		fragment string
	}{
		{
			name: "first page", opts: searchOptions{},
			page: 1, pages: 2, matched: 5,
			titles:   []string{"Dune", "Kindred", "Piranesi"},
			fragment: "#page-1",
		},
		{
			name: "page flag", opts: searchOptions{Page: 2},
			page: 2, pages: 2, matched: 5,
			titles:   []string{"Solaris", "Beloved"},
			fragment: "#page-2",
		},
		{
			name: "page clamped", opts: searchOptions{Page: 40},
			page: 2, pages: 2, matched: 5,
			titles:   []string{"Solaris", "Beloved"},
			fragment: "#page-2",
		},
		{
			name: "fragment", opts: searchOptions{Fragment: "#page-2"},
			page: 2, pages: 2, matched: 5,
			titles:   []string{"Solaris", "Beloved"},
			fragment: "#page-2",
		},
		{
			name: "query is case insensitive", opts: searchOptions{Query: "  KINDRED "},
			page: 1, pages: 1, matched: 1,
			titles:   []string{"Kindred"},
			fragment: "#page-1",
		},
		{
			name: "query matches subtitle", opts: searchOptions{Query: "author sol"},
			page: 1, pages: 1, matched: 1,
			titles:   []string{"Solaris"},
			fragment: "#page-1",
		},
		{
			name: "no matches", opts: searchOptions{Query: "zzz", Page: 3},
			page: 1, pages: 1, matched: 0,
			fragment: "#page-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := search(t, index, tt.opts)
			assert.Equal(t, tt.page, result.Page)
			assert.Equal(t, tt.pages, result.Pages)
			assert.Equal(t, tt.matched, result.Matched)
			assert.Equal(t, 5, result.Total)
			assert.Equal(t, tt.titles, cardTitles(result))
			assert.Equal(t, tt.fragment, result.Fragment)
		})
	}
}

func TestSearchIndexWithoutContainer(t *testing.T) {
	_, err := searchIndex(strings.NewReader("<html><body><p>nothing</p></body></html>"), searchOptions{IDs: views.DefaultIDs()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#books-grid")
}

func TestWriteSearchResult(t *testing.T) {
	index := buildIndex(t, "Dune", "Kindred", "Piranesi", "Solaris")
	result := search(t, index, searchOptions{})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSearchResult(&buf, result, formatTable))
		assert.Contains(t, buf.String(), "TITLE")
		assert.Contains(t, buf.String(), "Kindred")
		assert.Contains(t, buf.String(), "/piranesi/")
		assert.Contains(t, buf.String(), "Page 1 of 2 (4 of 4 books)")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSearchResult(&buf, result, formatJSON))
		var decoded searchResult
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, 2, decoded.Pages)
		assert.Equal(t, []string{"Dune", "Kindred", "Piranesi"}, cardTitles(&decoded))
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSearchResult(&buf, result, formatYAML))
		var decoded searchResult
		require.NoError(t, yamlv3.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, 4, decoded.Matched)
		assert.Equal(t, "#page-1", decoded.Fragment)
	})

	t.Run("html", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSearchResult(&buf, result, formatHTML))
		assert.Contains(t, buf.String(), `<ul class="pagination`)
		assert.Contains(t, buf.String(), `href="#page-2"`)
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		empty := search(t, index, searchOptions{Query: "nothing at all"})
		require.NoError(t, writeSearchResult(&buf, empty, formatTable))
		assert.Equal(t, views.EmptyStateText+"\n", buf.String())
	})
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("json", formatTable, formatJSON))
	err := validateFormat("csv", formatTable, formatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table, json")
}

func TestIndexPath(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, filepath.Join("dist", "index.html"), indexPath(cfg, ""))
	assert.Equal(t, "other.html", indexPath(cfg, "other.html"))
}

func TestInitBuildSearch(t *testing.T) {
	chdir(t, t.TempDir())

	execute(t, "init", "--title", "Reading")

	out := execute(t, "build")
	assert.Contains(t, out, "Built 1 books into dist")
	assert.FileExists(t, filepath.Join("dist", "the-left-hand-of-darkness", "index.html"))
	assert.FileExists(t, filepath.Join("dist", "admin", "config.yml"))

	out = execute(t, "search", "darkness", "--format", "json")
	var result searchResult
	require.NoError(t, json.Unmarshal([]byte(out[strings.Index(out, "{"):]), &result))
	require.Len(t, result.Cards, 1)
	assert.Equal(t, "The Left Hand of Darkness", result.Cards[0].Title)
	assert.Equal(t, "/the-left-hand-of-darkness/", result.Cards[0].Href)
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version", "--format", "text", "--short")
	assert.NotEmpty(t, strings.TrimSpace(out))

	out = execute(t, "version", "--format", "json", "--short=false")
	assert.Contains(t, out, `"go_version"`)
}
