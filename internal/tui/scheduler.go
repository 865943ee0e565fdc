package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/conneroisu/bookshelf/internal/paginator"
)

// scheduledMsg carries a debounced callback into the update loop so the
// paginator is only touched from there.
type scheduledMsg struct {
	fn func()
}

// Scheduler is a paginator.Scheduler that delivers callbacks as messages to
// a bubbletea program instead of running them on the timer goroutine.
type Scheduler struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewScheduler returns a scheduler that drops callbacks until Attach is
// called.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Attach sets where due callbacks are sent, usually (*tea.Program).Send.
func (s *Scheduler) Attach(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	s.mu.Unlock()
}

// AfterFunc implements paginator.Scheduler.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) paginator.Timer {
	return time.AfterFunc(d, func() {
		s.mu.Lock()
		send := s.send
		s.mu.Unlock()
		if send != nil {
			send(scheduledMsg{fn: fn})
		}
	})
}
