package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter counts fires and remembers the last value it saw.
type counter struct {
	fires atomic.Int32
	last  atomic.Value
	fired chan struct{}
}

func newCounter() *counter {
	return &counter{fired: make(chan struct{}, 8)}
}

func (c *counter) action(value string) func() {
	return func() {
		c.last.Store(value)
		c.fires.Add(1)
		c.fired <- struct{}{}
	}
}

func (c *counter) waitFire(t *testing.T) {
	t.Helper()
	select {
	case <-c.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("action never fired")
	}
}

func (c *counter) assertQuiet(t *testing.T) {
	t.Helper()
	select {
	case <-c.fired:
		t.Fatal("action fired unexpectedly")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTrigger_FiresOnceAfterQuietPeriod(t *testing.T) {
	clock := clockwork.NewFakeClock()
	trig := New(clock)
	c := newCounter()

	require.True(t, trig.Schedule(c.action("a"), DefaultQuietPeriod))

	clock.Advance(500 * time.Millisecond)
	require.True(t, trig.Schedule(c.action("ab"), DefaultQuietPeriod))

	clock.Advance(999 * time.Millisecond)
	c.assertQuiet(t)

	clock.Advance(time.Millisecond)
	c.waitFire(t)
	assert.Equal(t, int32(1), c.fires.Load())
	assert.Equal(t, "ab", c.last.Load())
	assert.False(t, trig.Cancel(), "nothing left pending after firing")

	clock.Advance(10 * time.Second)
	c.assertQuiet(t)
}

func TestTrigger_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	trig := New(clock)
	c := newCounter()

	assert.False(t, trig.Cancel())

	trig.Schedule(c.action("x"), time.Second)
	assert.True(t, trig.Cancel())
	assert.False(t, trig.Cancel())

	clock.Advance(2 * time.Second)
	c.assertQuiet(t)

	// Still usable after a cancel.
	trig.Schedule(c.action("y"), time.Second)
	clock.Advance(time.Second)
	c.waitFire(t)
	assert.Equal(t, "y", c.last.Load())
}

func TestTrigger_StopRefusesLaterSchedules(t *testing.T) {
	clock := clockwork.NewFakeClock()
	trig := New(clock)
	c := newCounter()

	trig.Schedule(c.action("x"), time.Second)
	trig.Stop()

	clock.Advance(2 * time.Second)
	c.assertQuiet(t)

	assert.False(t, trig.Schedule(c.action("y"), time.Second))
	assert.False(t, trig.Cancel())
}

func TestTrigger_RealClock(t *testing.T) {
	trig := New(nil)
	c := newCounter()

	trig.Schedule(c.action("real"), 10*time.Millisecond)
	c.waitFire(t)
	assert.Equal(t, "real", c.last.Load())
}
