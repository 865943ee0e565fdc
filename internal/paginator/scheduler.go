package paginator

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d. Implementations may run fn on another
// goroutine or post it into a host event loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// RealScheduler schedules callbacks with time.AfterFunc.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// ImmediateScheduler runs callbacks synchronously, ignoring the delay. It
// suits one-shot hosts such as command line queries.
type ImmediateScheduler struct{}

// AfterFunc implements Scheduler.
func (ImmediateScheduler) AfterFunc(_ time.Duration, fn func()) Timer {
	fn()
	return stoppedTimer{}
}

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return false }
