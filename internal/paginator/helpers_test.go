package paginator

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler is a manual clock for debounce tests.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// FireStopped runs callbacks of stopped timers too, the way a timer that
// already started firing when Stop was called would.
func (s *fakeScheduler) FireStopped() {
	s.mu.Lock()
	var all []*fakeTimer
	for _, t := range s.timers {
		if !t.fired {
			t.fired = true
			all = append(all, t)
		}
	}
	s.mu.Unlock()

	for _, t := range all {
		t.fn()
	}
}

func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// recordingView remembers the last state the paginator rendered.
type recordingView struct {
	visible  map[int]bool
	empty    bool
	controls Controls
	renders  int
}

func newRecordingView() *recordingView {
	return &recordingView{visible: make(map[int]bool)}
}

func (v *recordingView) SetVisible(id int, visible bool) { v.visible[id] = visible }
func (v *recordingView) SetEmpty(empty bool)             { v.empty = empty }
func (v *recordingView) RenderControls(c Controls) {
	v.controls = c
	v.renders++
}

func (v *recordingView) Shown() []int {
	var ids []int
	for id, ok := range v.visible {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

type fakeScroller struct {
	top      float64
	err      error
	panicMsg string
	scrolled []float64
}

func (s *fakeScroller) ContainerTop() (float64, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.top, s.err
}

func (s *fakeScroller) ScrollBy(dy float64) error {
	s.scrolled = append(s.scrolled, dy)
	if s.err != nil {
		return s.err
	}
	return nil
}

var errScroll = errors.New("scroll unavailable")

type book struct {
	title, subtitle, description string
}

// catalog returns ids 1..n with generated fields, and an extractor for them.
func catalog(n int) ([]int, Extractor[int]) {
	books := make(map[int]book, n)
	ids := make([]int, n)
	for i := 1; i <= n; i++ {
		ids[i-1] = i
		books[i] = book{
			title:       fmt.Sprintf("Book %d", i),
			subtitle:    fmt.Sprintf("Author %d", i),
			description: fmt.Sprintf("Review number %d", i),
		}
	}
	return ids, func(id int) Fields {
		b := books[id]
		return Fields{Title: b.title, Subtitle: b.subtitle, Description: b.description}
	}
}

func fieldsExtractor(books map[int]Fields) Extractor[int] {
	return func(id int) Fields { return books[id] }
}
