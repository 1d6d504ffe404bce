// Package guard makes sure only the newest request's response is applied.
//
// Every issued request gets a ticket from a monotonically increasing counter.
// When a response comes back, success or failure, it is accepted only if its
// ticket is still the newest one issued and nothing newer has superseded it.
// Everything else is dropped. Network calls are not relied on to abort;
// superseded calls may be canceled as an optimization, but ordering is
// decided purely by ticket comparison.
//
// The guard also owns the "currently displayed" outcome. The accept path is
// the only writer, so debounce-driven and selection-driven requests cannot
// overwrite each other out of order.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrFrozen is returned by Issue after Freeze.
var ErrFrozen = errors.New("guard is frozen")

// ErrPanicked is the outcome of a request that panicked.
var ErrPanicked = errors.New("request panicked")

// Ticket identifies one issued request. Zero means "none issued".
type Ticket uint64

// Outcome is a resolved response.
type Outcome[T any] struct {
	Seq   Ticket
	Value T
	Err   error
}

// Submitter runs a task somewhere other than the caller's goroutine.
// *ants.Pool satisfies it.
type Submitter interface {
	Submit(task func()) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(task func()) error

// Submit calls f.
func (f SubmitterFunc) Submit(task func()) error { return f(task) }

// Go runs each task on its own goroutine.
var Go Submitter = SubmitterFunc(func(task func()) error {
	go task()
	return nil
})

// Guard tracks issued tickets and the displayed outcome.
type Guard[T any] struct {
	submit          Submitter
	abortSuperseded bool
	onAccept        func(Outcome[T])
	onDrop          func(seq, latest Ticket)

	mu      sync.Mutex
	latest  Ticket
	pending bool // latest ticket issued and not yet resolved
	current *Outcome[T]
	frozen  bool
	cancel  context.CancelFunc
}

// Option configures a Guard.
type Option[T any] func(*Guard[T])

// WithSubmitter sets where requests run. Defaults to Go.
func WithSubmitter[T any](s Submitter) Option[T] {
	return func(g *Guard[T]) {
		g.submit = s
	}
}

// WithAbortSuperseded cancels the context of a request once a newer one
// supersedes it.
func WithAbortSuperseded[T any]() Option[T] {
	return func(g *Guard[T]) {
		g.abortSuperseded = true
	}
}

// OnAccept is called, outside the guard's lock, after an outcome is applied.
// Callbacks may run concurrently and out of order; treat them as a signal to
// re-read Current rather than as an ordered stream.
func OnAccept[T any](fn func(Outcome[T])) Option[T] {
	return func(g *Guard[T]) {
		g.onAccept = fn
	}
}

// OnDrop is called, outside the lock, when a stale response is discarded.
func OnDrop[T any](fn func(seq, latest Ticket)) Option[T] {
	return func(g *Guard[T]) {
		g.onDrop = fn
	}
}

// New creates a guard.
func New[T any](opts ...Option[T]) *Guard[T] {
	g := &Guard[T]{submit: Go}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Issue stamps a new ticket and hands req to the submitter. The response is
// fed to Resolve when req returns. Issue neither blocks on the submitter nor
// resolves inline, so callers may hold their own locks around it. A task the
// submitter rejects resolves as a failure.
func (g *Guard[T]) Issue(ctx context.Context, req func(context.Context) (T, error)) (Ticket, error) {
	reqCtx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	if g.frozen {
		g.mu.Unlock()
		cancel()
		return 0, ErrFrozen
	}
	g.abortLocked()
	g.latest++
	seq := g.latest
	g.pending = true
	g.cancel = cancel
	g.mu.Unlock()

	task := func() {
		defer cancel()
		value, err := run(reqCtx, req)
		g.Resolve(seq, value, err)
	}

	go func() {
		if err := g.submit.Submit(task); err != nil {
			cancel()
			var zero T
			g.Resolve(seq, zero, fmt.Errorf("failed to dispatch request: %w", err))
		}
	}()
	return seq, nil
}

// run calls req and turns a panic into an error so the ticket still resolves.
func run[T any](ctx context.Context, req func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			value, err = zero, fmt.Errorf("%w: %v", ErrPanicked, p)
		}
	}()
	return req(ctx)
}

// Resolve applies a response if seq is still the newest unresolved ticket.
// It reports whether the outcome was accepted.
func (g *Guard[T]) Resolve(seq Ticket, value T, err error) bool {
	g.mu.Lock()
	if g.frozen || !g.pending || seq != g.latest {
		latest := g.latest
		g.mu.Unlock()
		if g.onDrop != nil {
			g.onDrop(seq, latest)
		}
		return false
	}

	outcome := Outcome[T]{Seq: seq, Value: value, Err: err}
	g.current = &outcome
	g.pending = false
	g.cancel = nil
	g.mu.Unlock()

	if g.onAccept != nil {
		g.onAccept(outcome)
	}
	return true
}

// Supersede invalidates every outstanding request without issuing a new one.
// The displayed outcome is kept.
func (g *Guard[T]) Supersede() Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.abortLocked()
	g.latest++
	g.pending = false
	return g.latest
}

// Reset supersedes outstanding requests and clears the displayed outcome.
func (g *Guard[T]) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.abortLocked()
	g.latest++
	g.pending = false
	g.current = nil
}

// Freeze drops every later response and refuses new requests. In-flight
// calls are canceled.
func (g *Guard[T]) Freeze() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.frozen = true
	g.pending = false
}

// Current returns the displayed outcome.
func (g *Guard[T]) Current() (Outcome[T], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return Outcome[T]{}, false
	}
	return *g.current, true
}

// InFlight reports whether the newest ticket is still waiting for a response.
func (g *Guard[T]) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

func (g *Guard[T]) abortLocked() {
	if g.abortSuperseded && g.cancel != nil {
		g.cancel()
	}
	g.cancel = nil
}
