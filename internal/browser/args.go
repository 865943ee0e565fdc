// Package browser binds the paginator to a live page when compiled for
// js/wasm. The settings in this file are shared with the site builder, which
// passes them to the module as its command line.
package browser

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/conneroisu/bookshelf/internal/paginator"
	"github.com/conneroisu/bookshelf/internal/views"
)

// ProgramName is argv[0] for the wasm module.
const ProgramName = "bookshelf"

// Settings configures the browser host.
type Settings struct {
	IDs             views.ElementIDs
	PageSize        int
	Debounce        time.Duration
	ScrollThreshold float64
	ScrollOffset    float64
}

// DefaultSettings matches the paginator defaults.
func DefaultSettings() Settings {
	return Settings{
		IDs:             views.DefaultIDs(),
		PageSize:        paginator.DefaultPageSize,
		Debounce:        paginator.DefaultDebounce,
		ScrollThreshold: paginator.DefaultScrollThreshold,
		ScrollOffset:    paginator.DefaultScrollOffset,
	}
}

// Args encodes s as a command line, program name first.
func (s Settings) Args() []string {
	return []string{
		ProgramName,
		"--container=" + s.IDs.Container,
		"--controls=" + s.IDs.Controls,
		"--empty=" + s.IDs.EmptyState,
		"--search=" + s.IDs.Search,
		"--page-size=" + strconv.Itoa(s.PageSize),
		"--debounce=" + s.Debounce.String(),
		"--scroll-threshold=" + strconv.FormatFloat(s.ScrollThreshold, 'f', -1, 64),
		"--scroll-offset=" + strconv.FormatFloat(s.ScrollOffset, 'f', -1, 64),
	}
}

// ParseArgs decodes a command line produced by Args. Missing flags keep
// their defaults.
func ParseArgs(args []string) (Settings, error) {
	s := DefaultSettings()

	fs := pflag.NewFlagSet(ProgramName, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&s.IDs.Container, "container", s.IDs.Container, "id of the element holding the cards")
	fs.StringVar(&s.IDs.Controls, "controls", s.IDs.Controls, "id of the pagination mount")
	fs.StringVar(&s.IDs.EmptyState, "empty", s.IDs.EmptyState, "id of the no-results element")
	fs.StringVar(&s.IDs.Search, "search", s.IDs.Search, "id of the search input")
	fs.IntVar(&s.PageSize, "page-size", s.PageSize, "cards per page")
	fs.DurationVar(&s.Debounce, "debounce", s.Debounce, "search debounce")
	fs.Float64Var(&s.ScrollThreshold, "scroll-threshold", s.ScrollThreshold, "pixels offscreen before scrolling")
	fs.Float64Var(&s.ScrollOffset, "scroll-offset", s.ScrollOffset, "margin above the container after scrolling")

	if len(args) > 0 {
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return s, err
	}
	if s.PageSize < 1 {
		return s, fmt.Errorf("page-size must be at least 1, got %d", s.PageSize)
	}
	return s, nil
}

// Options converts s into paginator options.
func (s Settings) Options() []paginator.Option {
	return []paginator.Option{
		paginator.WithPageSize(s.PageSize),
		paginator.WithDebounce(s.Debounce),
		paginator.WithScrollThreshold(s.ScrollThreshold, s.ScrollOffset),
	}
}
