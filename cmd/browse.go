package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/conneroisu/bookshelf/internal/dom"
	"github.com/conneroisu/bookshelf/internal/paginator"
	"github.com/conneroisu/bookshelf/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Page through the built index in the terminal",
	Long: `Open the cards of the built index page in an interactive terminal view.

Keys:
  left/right, h/l   previous / next page
  1-9               jump to a page
  [ ]               back / forward through visited pages
  /                 search (esc clears, enter keeps the results)
  q                 quit`,
	RunE: runBrowse,
}

var (
	browseIndexFlag string
	browsePage      int
)

func init() {
	rootCmd.AddCommand(browseCmd)

	addIndexFlag(browseCmd, &browseIndexFlag)
	browseCmd.Flags().IntVar(&browsePage, "page", 0, "Page to start on")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("browse needs an interactive terminal; use bookshelf search instead")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := indexPath(cfg, browseIndexFlag)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %s (run bookshelf build first): %w", path, err)
	}
	page, err := dom.ParseCards(f, cfg.Pagination.IDs)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	pageSize := cfg.Pagination.PageSize
	if page.PageSize > 0 {
		pageSize = page.PageSize
	}
	var fragment string
	if browsePage > 0 {
		fragment = paginator.FormatFragment(browsePage)
	}

	return tui.Run(commandContext(cmd), page.Cards, tui.Options{
		Title:    cfg.Site.Title,
		PageSize: pageSize,
		Debounce: cfg.Pagination.Debounce,
		Fragment: fragment,
	})
}
