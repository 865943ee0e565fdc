//go:build js && wasm

// Command bookshelf-wasm paginates the book cards of a built index page in
// the browser. The site builder copies it to /bookshelf.wasm when
// site.wasm is configured.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/conneroisu/bookshelf/internal/browser"
	"github.com/conneroisu/bookshelf/internal/dom"
	"github.com/conneroisu/bookshelf/internal/logging"
)

func main() {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.LevelInfo,
		Output:    os.Stdout,
		Component: "browser",
	})
	ctx := context.Background()

	settings, err := browser.ParseArgs(os.Args)
	if err != nil {
		logger.Warn(ctx, err, "Invalid arguments, using defaults")
		settings = browser.DefaultSettings()
	}

	if _, err := browser.Mount(settings, logger); err != nil {
		if !errors.Is(err, dom.ErrNoContainer) {
			logger.Error(ctx, err, "Cannot mount paginator")
		}
		return
	}

	// Keep the callbacks alive for the life of the page.
	select {}
}
