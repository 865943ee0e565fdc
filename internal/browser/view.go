//go:build js && wasm

package browser

import (
	"context"
	"syscall/js"

	"github.com/conneroisu/bookshelf/internal/dom"
	"github.com/conneroisu/bookshelf/internal/logging"
	"github.com/conneroisu/bookshelf/internal/paginator"
	"github.com/conneroisu/bookshelf/internal/views"
)

// DOMView shows and hides card elements and renders the controls.
type DOMView struct {
	elements []js.Value
	empty    js.Value
	controls js.Value
	logger   logging.Logger
}

// SetVisible implements paginator.View.
func (v *DOMView) SetVisible(card dom.Card, visible bool) {
	if card.Index < 0 || card.Index >= len(v.elements) {
		return
	}
	display := "none"
	if visible {
		display = ""
	}
	v.elements[card.Index].Get("style").Set("display", display)
}

// SetEmpty implements paginator.View.
func (v *DOMView) SetEmpty(empty bool) {
	if !present(v.empty) {
		return
	}
	display := "none"
	if empty {
		display = ""
	}
	v.empty.Get("style").Set("display", display)
}

// RenderControls implements paginator.View.
func (v *DOMView) RenderControls(c paginator.Controls) {
	if !present(v.controls) {
		return
	}
	markup, err := views.RenderString(context.Background(), views.Pagination(c))
	if err != nil {
		v.logger.Warn(context.Background(), err, "Cannot render pagination")
		return
	}
	v.controls.Set("innerHTML", markup)
}

// Scroller moves the window so the container is in view.
type Scroller struct {
	window    js.Value
	container js.Value
}

// ContainerTop implements paginator.Scroller.
func (s *Scroller) ContainerTop() (float64, error) {
	return s.container.Call("getBoundingClientRect").Get("top").Float(), nil
}

// ScrollBy implements paginator.Scroller.
func (s *Scroller) ScrollBy(dy float64) error {
	s.window.Call("scrollTo", map[string]any{
		"top":      s.window.Get("scrollY").Float() + dy,
		"behavior": "smooth",
	})
	return nil
}

func present(v js.Value) bool {
	return !v.IsUndefined() && !v.IsNull()
}
