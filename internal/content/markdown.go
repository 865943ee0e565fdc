package content

import (
	"bytes"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

// markdown returns the shared converter. goldmark converters are safe for
// concurrent use.
func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			// Reviews are written by the site owner and may embed HTML.
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		)
	})
	return markdownInstance
}

// RenderMarkdown converts markdown source to HTML.
func RenderMarkdown(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown().Convert(source, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
