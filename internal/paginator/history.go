package paginator

import "sync"

// Navigator connects the paginator to an addressable location.
//
// Write replaces the current location without creating a history entry and
// must not notify subscribers. Subscribers are only told about changes made
// by someone else, such as the user going back or following a link.
type Navigator interface {
	// Read returns the page named by the current location, or 0 if it names
	// none.
	Read() int
	Write(page int)
	Subscribe(fn func()) (cancel func())
}

// History is an in-memory Navigator that behaves like a browser tab's
// session history restricted to fragments.
type History struct {
	mu          sync.Mutex
	entries     []string
	index       int
	subscribers map[int]func()
	nextID      int
}

// NewHistory starts a history whose only entry is fragment.
func NewHistory(fragment string) *History {
	return &History{
		entries:     []string{fragment},
		subscribers: make(map[int]func()),
	}
}

// Fragment returns the current entry.
func (h *History) Fragment() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Entries returns a copy of every entry, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Read implements Navigator.
func (h *History) Read() int {
	page, ok := ParseFragment(h.Fragment())
	if !ok {
		return 0
	}
	return page
}

// Write implements Navigator by replacing the current entry.
func (h *History) Write(page int) {
	h.mu.Lock()
	h.entries[h.index] = FormatFragment(page)
	h.mu.Unlock()
}

// Subscribe implements Navigator.
func (h *History) Subscribe(fn func()) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subscribers, id)
		h.mu.Unlock()
	}
}

// Navigate pushes fragment as a new entry, discarding any forward entries,
// and notifies subscribers. Navigating to the current fragment does nothing.
func (h *History) Navigate(fragment string) {
	h.mu.Lock()
	if h.entries[h.index] == fragment {
		h.mu.Unlock()
		return
	}
	h.entries = append(h.entries[:h.index+1], fragment)
	h.index++
	subs := h.snapshotLocked()
	h.mu.Unlock()

	notify(subs)
}

// NavigateToPage is Navigate with a formatted page fragment.
func (h *History) NavigateToPage(page int) {
	h.Navigate(FormatFragment(page))
}

// Back moves to the previous entry. It reports false at the oldest entry.
func (h *History) Back() bool {
	return h.move(-1)
}

// Forward moves to the next entry. It reports false at the newest entry.
func (h *History) Forward() bool {
	return h.move(1)
}

func (h *History) move(delta int) bool {
	h.mu.Lock()
	target := h.index + delta
	if target < 0 || target >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = target
	subs := h.snapshotLocked()
	h.mu.Unlock()

	notify(subs)
	return true
}

func (h *History) snapshotLocked() []func() {
	subs := make([]func(), 0, len(h.subscribers))
	for id := 0; id < h.nextID; id++ {
		if fn, ok := h.subscribers[id]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
