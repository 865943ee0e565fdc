// Package views holds the HTML fragments the blog shares between the build
// pipeline and the in-browser paginator.
package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/bookshelf/internal/paginator"
)

// EmptyStateText is shown when a search matches no books.
const EmptyStateText = "No books match your search."

// Pagination renders controls as a Bootstrap pagination list. Empty controls
// render nothing.
func Pagination(c paginator.Controls) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if c.Empty() {
			return nil
		}
		var b strings.Builder
		b.WriteString(`<ul class="pagination justify-content-center mb-0">`)
		for _, ctl := range c.All() {
			writeControl(&b, ctl)
		}
		b.WriteString(`</ul>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeControl(b *strings.Builder, ctl paginator.Control) {
	class := "page-item"
	switch {
	case ctl.Disabled:
		class += " disabled"
	case ctl.Active:
		class += " active"
	}

	b.WriteString(`<li class="` + class + `">`)
	b.WriteString(`<a class="page-link" href="` + templ.EscapeString(ctl.Href()) + `"`)

	switch ctl.Kind {
	case paginator.ControlPrevious:
		b.WriteString(` aria-label="Previous"><span aria-hidden="true">&laquo;</span>`)
	case paginator.ControlNext:
		b.WriteString(` aria-label="Next"><span aria-hidden="true">&raquo;</span>`)
	default:
		if ctl.Active {
			b.WriteString(` aria-current="page"`)
		}
		b.WriteString(`>` + templ.EscapeString(ctl.Label))
	}
	b.WriteString(`</a></li>`)
}

// RenderString renders a component to a string.
func RenderString(ctx context.Context, component templ.Component) (string, error) {
	var b strings.Builder
	if err := component.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
