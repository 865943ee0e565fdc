package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/bookshelf/internal/dom"
	"github.com/conneroisu/bookshelf/internal/paginator"
	"github.com/conneroisu/bookshelf/internal/views"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search and page through the built index",
	Long: `Read the built index page, filter its cards by the query and print one page
of results, exactly as the browser would show them.

Examples:
  bookshelf search                       # First page of every book
  bookshelf search le guin               # Books mentioning "le guin"
  bookshelf search --page 2              # Second page
  bookshelf search --fragment '#page-3'  # Page named by a URL fragment
  bookshelf search dune -f json          # Machine readable
  bookshelf search -f html               # Pagination markup`,
	RunE: runSearch,
}

var (
	searchIndexFlag string
	searchPage      int
	searchFragment  string
	searchFormat    string
)

func init() {
	rootCmd.AddCommand(searchCmd)

	addIndexFlag(searchCmd, &searchIndexFlag)
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "Page to show (clamped to the result)")
	searchCmd.Flags().StringVar(&searchFragment, "fragment", "", "Address fragment to navigate to, such as #page-2")
	addFormatFlag(searchCmd, &searchFormat, formatTable, formatTable, formatJSON, formatYAML, formatHTML)
}

// searchResult is one page of search output.
type searchResult struct {
	Query    string     `json:"query" yaml:"query"`
	Page     int        `json:"page" yaml:"page"`
	Pages    int        `json:"pages" yaml:"pages"`
	Matched  int        `json:"matched" yaml:"matched"`
	Total    int        `json:"total" yaml:"total"`
	Fragment string     `json:"fragment" yaml:"fragment"`
	Cards    []dom.Card `json:"cards" yaml:"cards"`

	controls paginator.Controls
}

// searchOptions says which page of which query to show.
type searchOptions struct {
	IDs      views.ElementIDs
	PageSize int
	Query    string
	Page     int
	Fragment string
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validateFormat(searchFormat, formatTable, formatJSON, formatYAML, formatHTML); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := indexPath(cfg, searchIndexFlag)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %s (run bookshelf build first): %w", path, err)
	}
	defer f.Close()

	result, err := searchIndex(f, searchOptions{
		IDs:      cfg.Pagination.IDs,
		PageSize: cfg.Pagination.PageSize,
		Query:    strings.Join(args, " "),
		Page:     searchPage,
		Fragment: searchFragment,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return writeSearchResult(cmd.OutOrStdout(), result, searchFormat)
}

// searchIndex runs a query against the cards of a built page. The query is
// applied first, then the fragment is followed, then the page is chosen.
func searchIndex(r io.Reader, opts searchOptions) (*searchResult, error) {
	page, err := dom.ParseCards(r, opts.IDs)
	if errors.Is(err, dom.ErrNoContainer) {
		return nil, fmt.Errorf("no #%s element: %w", opts.IDs.Container, err)
	}
	if err != nil {
		return nil, err
	}

	size := opts.PageSize
	if page.PageSize > 0 {
		size = page.PageSize
	}

	history := paginator.NewHistory("")
	p := paginator.New(page.Cards, dom.CardFields, nil,
		paginator.WithPageSize(size),
		paginator.WithNavigator(history),
		paginator.WithScheduler(paginator.ImmediateScheduler{}),
	)
	defer p.Close()

	p.ApplyQuery(opts.Query)
	if opts.Fragment != "" {
		history.Navigate(opts.Fragment)
	}
	if opts.Page > 0 {
		p.GoToPage(opts.Page)
	}

	state := p.Snapshot()
	return &searchResult{
		Query:    state.Query,
		Page:     state.Current,
		Pages:    state.Total,
		Matched:  state.Matched,
		Total:    p.Len(),
		Fragment: history.Fragment(),
		Cards:    state.Visible,
		controls: state.Controls,
	}, nil
}

func writeSearchResult(w io.Writer, result *searchResult, format string) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case formatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(result)
	case formatHTML:
		markup, err := views.RenderString(context.Background(), views.Pagination(result.controls))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, markup)
		return err
	default:
		return writeSearchTable(w, result)
	}
}

func writeSearchTable(w io.Writer, result *searchResult) error {
	if result.Matched == 0 {
		_, err := fmt.Fprintln(w, views.EmptyStateText)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tBY\tLINK")
	fmt.Fprintln(tw, "-\t-----\t--\t----")
	for _, card := range result.Cards {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", card.Index+1, card.Title, card.Subtitle, card.Href)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nPage %d of %d (%d of %d books)\n", result.Page, result.Pages, result.Matched, result.Total)
	return err
}
