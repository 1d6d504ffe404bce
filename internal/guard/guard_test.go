package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gate lets a test decide when each request returns.
type gate struct {
	started chan struct{}
	release chan struct{}
	value   string
	err     error
	ctxErr  error
}

func newGate(value string, err error) *gate {
	return &gate{started: make(chan struct{}), release: make(chan struct{}), value: value, err: err}
}

func (g *gate) request(ctx context.Context) (string, error) {
	close(g.started)
	<-g.release
	g.ctxErr = ctx.Err()
	return g.value, g.err
}

func waitStarted(t *testing.T, g *gate) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never started")
	}
}

type recorder struct {
	mu       sync.Mutex
	accepted []Outcome[string]
	dropped  [][2]Ticket
	signal   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{signal: make(chan struct{}, 16)}
}

func (r *recorder) options() []Option[string] {
	return []Option[string]{
		OnAccept(func(o Outcome[string]) {
			r.mu.Lock()
			r.accepted = append(r.accepted, o)
			r.mu.Unlock()
			r.signal <- struct{}{}
		}),
		OnDrop[string](func(seq, latest Ticket) {
			r.mu.Lock()
			r.dropped = append(r.dropped, [2]Ticket{seq, latest})
			r.mu.Unlock()
			r.signal <- struct{}{}
		}),
	}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(5 * time.Second):
		t.Fatal("no resolution observed")
	}
}

func TestGuard_LatestWins(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name             string
		firstErr, secErr error
	}{
		{name: "both succeed"},
		{name: "first fails", firstErr: boom},
		{name: "second fails", secErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			g := New(rec.options()...)

			first := newGate("first", tt.firstErr)
			second := newGate("second", tt.secErr)

			seqA, err := g.Issue(context.Background(), first.request)
			require.NoError(t, err)
			seqB, err := g.Issue(context.Background(), second.request)
			require.NoError(t, err)
			assert.Less(t, seqA, seqB)
			waitStarted(t, first)
			waitStarted(t, second)

			close(second.release)
			rec.wait(t)
			close(first.release)
			rec.wait(t)

			current, ok := g.Current()
			require.True(t, ok)
			assert.Equal(t, seqB, current.Seq)
			assert.Equal(t, "second", current.Value)
			assert.Equal(t, tt.secErr, current.Err)

			rec.mu.Lock()
			defer rec.mu.Unlock()
			require.Len(t, rec.accepted, 1)
			require.Len(t, rec.dropped, 1)
			assert.Equal(t, [2]Ticket{seqA, seqB}, rec.dropped[0])
			assert.False(t, g.InFlight())
		})
	}
}

func TestGuard_SupersedeKeepsDisplay(t *testing.T) {
	rec := newRecorder()
	g := New(rec.options()...)

	first := newGate("shown", nil)
	_, err := g.Issue(context.Background(), first.request)
	require.NoError(t, err)
	close(first.release)
	rec.wait(t)

	second := newGate("late", nil)
	seq, err := g.Issue(context.Background(), second.request)
	require.NoError(t, err)
	assert.True(t, g.InFlight())

	latest := g.Supersede()
	assert.False(t, g.InFlight())
	assert.Greater(t, latest, seq)

	close(second.release)
	rec.wait(t)

	current, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, "shown", current.Value)
}

func TestGuard_ResetClearsDisplay(t *testing.T) {
	rec := newRecorder()
	g := New(rec.options()...)

	req := newGate("value", nil)
	_, err := g.Issue(context.Background(), req.request)
	require.NoError(t, err)
	close(req.release)
	rec.wait(t)

	g.Reset()
	_, ok := g.Current()
	assert.False(t, ok)
}

func TestGuard_FreezeDropsEverything(t *testing.T) {
	rec := newRecorder()
	g := New(rec.options()...)

	req := newGate("value", nil)
	_, err := g.Issue(context.Background(), req.request)
	require.NoError(t, err)
	waitStarted(t, req)

	g.Freeze()
	assert.False(t, g.InFlight())

	close(req.release)
	rec.wait(t)
	assert.ErrorIs(t, req.ctxErr, context.Canceled)

	_, ok := g.Current()
	assert.False(t, ok)

	_, err = g.Issue(context.Background(), newGate("x", nil).request)
	assert.ErrorIs(t, err, ErrFrozen)
}

func TestGuard_AbortSuperseded(t *testing.T) {
	rec := newRecorder()
	opts := append(rec.options(), WithAbortSuperseded[string]())
	g := New(opts...)

	first := newGate("first", nil)
	_, err := g.Issue(context.Background(), first.request)
	require.NoError(t, err)
	waitStarted(t, first)

	second := newGate("second", nil)
	_, err = g.Issue(context.Background(), second.request)
	require.NoError(t, err)

	close(first.release)
	rec.wait(t)
	assert.ErrorIs(t, first.ctxErr, context.Canceled)

	close(second.release)
	rec.wait(t)
	assert.NoError(t, second.ctxErr)

	current, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, "second", current.Value)
}

func TestGuard_SubmitFailureResolvesSlot(t *testing.T) {
	rec := newRecorder()
	rejected := errors.New("pool overloaded")
	opts := append(rec.options(), WithSubmitter[string](SubmitterFunc(func(func()) error {
		return rejected
	})))
	g := New(opts...)

	seq, err := g.Issue(context.Background(), newGate("never", nil).request)
	require.NoError(t, err)
	rec.wait(t)

	current, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, seq, current.Seq)
	assert.ErrorIs(t, current.Err, rejected)
	assert.False(t, g.InFlight())
}

func TestGuard_ResolveUnknownTicket(t *testing.T) {
	g := New[int]()
	assert.False(t, g.Resolve(3, 1, nil))
	_, ok := g.Current()
	assert.False(t, ok)
}

func TestGuard_PanicResolvesSlot(t *testing.T) {
	rec := newRecorder()
	g := New(rec.options()...)

	seq, err := g.Issue(context.Background(), func(context.Context) (string, error) {
		panic("analyzer exploded")
	})
	require.NoError(t, err)
	rec.wait(t)

	current, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, seq, current.Seq)
	assert.ErrorIs(t, current.Err, ErrPanicked)
	assert.Contains(t, current.Err.Error(), "analyzer exploded")
	assert.False(t, g.InFlight())

	next := newGate("after", nil)
	_, err = g.Issue(context.Background(), next.request)
	require.NoError(t, err)
	close(next.release)
	rec.wait(t)
	current, _ = g.Current()
	assert.Equal(t, "after", current.Value)
}
