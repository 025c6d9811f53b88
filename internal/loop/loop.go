// Package loop provides the single goroutine on which all preview state is
// mutated. Host callbacks and timer expirations are posted as closures and
// run one at a time in FIFO order.
package loop

import (
	"sync"
	"time"

	"go-markdown-preview/internal/contracts"
)

// Loop runs posted closures sequentially on one goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}
}

// New creates a loop and starts its goroutine.
func New() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post queues fn to run on the loop. It never blocks, including when called
// from the loop itself. It reports false once the loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from the loop goroutine.
func (l *Loop) Do(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}

	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// AfterFunc waits for d and then runs fn on the loop. The returned timer's
// Stop prevents fn from being queued, but not from running if it was
// already queued.
func (l *Loop) AfterFunc(d time.Duration, fn func()) contracts.Timer {
	return time.AfterFunc(d, func() {
		l.Post(fn)
	})
}

// Stop discards queued closures and ends the loop goroutine. The closure
// currently running, if any, completes first.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()

	close(l.done)
}

// Done is closed once Stop has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run() {
	for {
		select {
		case <-l.wake:
		case <-l.done:
			return
		}

		for {
			l.mu.Lock()
			if l.stopped || len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			fn()
		}
	}
}
