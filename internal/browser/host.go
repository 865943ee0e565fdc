//go:build js && wasm

package browser

import (
	"context"
	"errors"
	"strings"
	"syscall/js"

	"github.com/conneroisu/bookshelf/internal/dom"
	"github.com/conneroisu/bookshelf/internal/logging"
	"github.com/conneroisu/bookshelf/internal/paginator"
)

// Host is a paginator mounted on the current document.
type Host struct {
	pager    *paginator.Paginator[dom.Card]
	releases []func()
}

// Mount finds the cards in the document and starts paginating them. It
// returns dom.ErrNoContainer when the page has nothing to paginate.
func Mount(settings Settings, logger logging.Logger) (*Host, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	window := js.Global()
	document := window.Get("document")

	markup := document.Get("documentElement").Get("outerHTML").String()
	page, err := dom.ParseCards(strings.NewReader(markup), settings.IDs)
	if err != nil {
		return nil, err
	}
	container := document.Call("getElementById", settings.IDs.Container)
	elements := cardElements(container)
	if len(elements) != len(page.Cards) {
		return nil, errors.New("card elements do not match the parsed document")
	}

	if page.PageSize > 0 {
		settings.PageSize = page.PageSize
	}

	view := &DOMView{
		elements: elements,
		empty:    document.Call("getElementById", settings.IDs.EmptyState),
		controls: document.Call("getElementById", settings.IDs.Controls),
		logger:   logger,
	}
	opts := append(settings.Options(),
		paginator.WithNavigator(NewHashNavigator(window)),
		paginator.WithScroller(&Scroller{window: window, container: container}),
		paginator.WithLogger(logger),
	)

	h := &Host{pager: paginator.New(page.Cards, dom.CardFields, view, opts...)}

	search := document.Call("getElementById", settings.IDs.Search)
	if present(search) {
		h.bindSearch(search)
	} else {
		logger.Debug(context.Background(), "No search input, search disabled", "id", settings.IDs.Search)
	}

	logger.Info(context.Background(), "Paginator mounted",
		"cards", len(page.Cards),
		"page_size", settings.PageSize,
	)
	return h, nil
}

func (h *Host) bindSearch(input js.Value) {
	onInput := js.FuncOf(func(js.Value, []js.Value) any {
		h.pager.SetQuery(input.Get("value").String())
		return nil
	})
	onKey := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 && args[0].Get("key").String() == "Escape" {
			input.Set("value", "")
			h.pager.ClearSearch()
		}
		return nil
	})
	input.Call("addEventListener", "input", onInput)
	input.Call("addEventListener", "keydown", onKey)

	h.releases = append(h.releases, func() {
		input.Call("removeEventListener", "input", onInput)
		input.Call("removeEventListener", "keydown", onKey)
		onInput.Release()
		onKey.Release()
	})
}

// Close detaches every listener.
func (h *Host) Close() {
	h.pager.Close()
	for _, release := range h.releases {
		release()
	}
	h.releases = nil
}

// cardElements returns the articles under container that are not nested in
// another article, in document order.
func cardElements(container js.Value) []js.Value {
	nodes := container.Call("querySelectorAll", "article")
	var out []js.Value
	for i := 0; i < nodes.Length(); i++ {
		el := nodes.Index(i)
		outer := el.Get("parentElement").Call("closest", "article")
		if present(outer) && container.Call("contains", outer).Bool() {
			continue
		}
		out = append(out, el)
	}
	return out
}
