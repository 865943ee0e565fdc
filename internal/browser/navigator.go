//go:build js && wasm

package browser

import (
	"syscall/js"

	"github.com/conneroisu/bookshelf/internal/paginator"
)

// HashNavigator keeps the current page in location.hash.
type HashNavigator struct {
	window js.Value
}

// NewHashNavigator wraps window.
func NewHashNavigator(window js.Value) *HashNavigator {
	return &HashNavigator{window: window}
}

// Read implements paginator.Navigator.
func (n *HashNavigator) Read() int {
	page, ok := paginator.ParseFragment(n.window.Get("location").Get("hash").String())
	if !ok {
		return 0
	}
	return page
}

// Write implements paginator.Navigator. replaceState does not fire
// hashchange, so subscribers are not told about our own writes.
func (n *HashNavigator) Write(page int) {
	n.window.Get("history").Call("replaceState", js.Null(), "", paginator.FormatFragment(page))
}

// Subscribe implements paginator.Navigator.
func (n *HashNavigator) Subscribe(fn func()) func() {
	listener := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	})
	n.window.Call("addEventListener", "hashchange", listener)
	return func() {
		n.window.Call("removeEventListener", "hashchange", listener)
		listener.Release()
	}
}
