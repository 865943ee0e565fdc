package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/conneroisu/bookshelf/internal/config"
)

var initCmd = &cobra.Command{
	Use:     "init [dir]",
	Aliases: []string{"i"},
	Short:   "Create a bookshelf project",
	Long: `Create the directory layout, a .bookshelf.yml with every setting at its
default, a stylesheet and an example review. Existing files are kept unless
--force is given.

Examples:
  bookshelf init                    # Current directory
  bookshelf init my-reviews         # New directory
  bookshelf init --title "Reading"  # Site title
  bookshelf init --minimal          # No example review`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	initTitle   string
	initMinimal bool
	initForce   bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initTitle, "title", "Bookshelf", "Site title")
	initCmd.Flags().BoolVar(&initMinimal, "minimal", false, "Skip the example review")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	projectDir := "."
	if len(args) == 1 {
		projectDir = args[0]
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initializing bookshelf project in %s\n", projectDir)

	if err := createDirectoryStructure(projectDir); err != nil {
		return fmt.Errorf("failed to create directory structure: %w", err)
	}

	configData, err := yaml.Marshal(scaffoldConfig(initTitle))
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	files := []scaffoldFile{
		{path: ".bookshelf.yml", data: append([]byte("# bookshelf configuration\n"), configData...)},
		{path: "src/style.css", data: []byte(styleCSS)},
		{path: "admin/config.yml", data: []byte(adminConfig)},
		{path: "admin/index.html", data: []byte(adminIndex)},
	}
	if !initMinimal {
		files = append(files, scaffoldFile{path: "src/books/the-left-hand-of-darkness.md", data: []byte(exampleReview)})
	}

	for _, f := range files {
		if err := f.write(out, projectDir, initForce); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "✓ Project initialized successfully!")
	fmt.Fprintln(out, "\nNext steps:")
	if projectDir != "." {
		fmt.Fprintln(out, "  cd "+projectDir)
	}
	fmt.Fprintln(out, "  bookshelf serve")
	return nil
}

func createDirectoryStructure(projectDir string) error {
	d := config.Default()
	dirs := []string{
		d.Paths.Content,
		d.Paths.Layouts,
		filepath.Join(d.Paths.Input, "images"),
		"admin",
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(projectDir, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

type scaffoldFile struct {
	path string
	data []byte
}

func (f scaffoldFile) write(out io.Writer, projectDir string, force bool) error {
	path := filepath.Join(projectDir, filepath.FromSlash(f.path))
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(out, "⚠ %s already exists, skipping\n", f.path)
		return nil
	}
	if err := os.WriteFile(path, f.data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	fmt.Fprintf(out, "  created %s\n", f.path)
	return nil
}

func item(key string, value any) yaml.MapItem {
	return yaml.MapItem{Key: key, Value: value}
}

// scaffoldConfig lists every setting at its default, in documentation
// order. Durations are written as strings so the file stays readable.
func scaffoldConfig(title string) yaml.MapSlice {
	d := config.Default()
	return yaml.MapSlice{
		item("site", yaml.MapSlice{
			item("title", title),
			item("description", d.Site.Description),
			item("base_url", d.Site.BaseURL),
			item("wasm", d.Site.Wasm),
			item("wasm_exec", d.Site.WasmExec),
		}),
		item("paths", yaml.MapSlice{
			item("input", d.Paths.Input),
			item("content", d.Paths.Content),
			item("layouts", d.Paths.Layouts),
			item("output", d.Paths.Output),
		}),
		item("passthrough", d.Passthrough),
		item("content", yaml.MapSlice{
			item("default_layout", d.Content.DefaultLayout),
			item("default_tags", d.Content.DefaultTags),
			item("truncate_length", d.Content.TruncateLength),
		}),
		item("pagination", yaml.MapSlice{
			item("page_size", d.Pagination.PageSize),
			item("debounce", d.Pagination.Debounce.String()),
			item("scroll_threshold", d.Pagination.ScrollThreshold),
			item("scroll_offset", d.Pagination.ScrollOffset),
			item("ids", yaml.MapSlice{
				item("container", d.Pagination.IDs.Container),
				item("controls", d.Pagination.IDs.Controls),
				item("empty_state", d.Pagination.IDs.EmptyState),
				item("search", d.Pagination.IDs.Search),
			}),
		}),
		item("build", yaml.MapSlice{
			item("clean", d.Build.Clean),
			item("workers", d.Build.Workers),
			item("precompress", d.Build.Precompress),
		}),
		item("server", yaml.MapSlice{
			item("host", d.Server.Host),
			item("port", d.Server.Port),
			item("live_reload", d.Server.LiveReload),
		}),
		item("log", yaml.MapSlice{
			item("level", d.Log.Level),
			item("format", d.Log.Format),
		}),
	}
}

const exampleReview = `---
title: The Left Hand of Darkness
subtitle: Ursula K. Le Guin
author: Ursula K. Le Guin
rating: 5
date: 2024-01-15
tags: [books, science fiction]
description: An envoy alone on a frozen world learns what it means to trust.
---
Genly Ai arrives on Gethen to invite its people into an interstellar league,
and spends most of the novel failing to understand them.

The long crossing of the Gobrin Ice is among the best chapters in the genre.
`

const styleCSS = `.card {
  height: 100%;
}

.rating {
  color: #f5a623;
  letter-spacing: 0.1em;
}

.pagination .page-link {
  cursor: pointer;
}
`

const adminConfig = `backend:
  name: git-gateway
  branch: main
media_folder: src/images
public_folder: /images
collections:
  - name: books
    label: Books
    folder: src/books
    create: true
    slug: "{{slug}}"
    fields:
      - { label: Title, name: title, widget: string }
      - { label: Subtitle, name: subtitle, widget: string, required: false }
      - { label: Author, name: author, widget: string, required: false }
      - { label: Rating, name: rating, widget: number, min: 0, max: 5 }
      - { label: Date, name: date, widget: datetime }
      - { label: Cover, name: cover, widget: image, required: false }
      - { label: Description, name: description, widget: text, required: false }
      - { label: Body, name: body, widget: markdown }
`

const adminIndex = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Content Manager</title>
</head>
<body>
  <script src="https://unpkg.com/decap-cms@^3.0.0/dist/decap-cms.js"></script>
</body>
</html>
`
