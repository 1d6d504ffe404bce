package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func assertEmpty(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}
}

func TestBroker_RoutesByType(t *testing.T) {
	b := NewBroker()
	states := b.Subscribe(SessionStateEvent)
	auth := b.Subscribe(AuthRequiredEvent)
	all := b.Subscribe()

	b.Publish(Event{Type: AuthRequiredEvent, Payload: AuthRequiredPayload{SessionID: "s1"}})

	assert.Equal(t, "s1", receive(t, auth).Payload.(AuthRequiredPayload).SessionID)
	assert.Equal(t, AuthRequiredEvent, receive(t, all).Type)
	assertEmpty(t, states)
}

func TestBroker_DeliversOncePerChannel(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(SelectionChangedEvent, Wildcard)

	b.Publish(Event{Type: SelectionChangedEvent})
	receive(t, ch)
	assertEmpty(t, ch)
}

func TestBroker_FullSubscriberKeepsNewest(t *testing.T) {
	b := NewBrokerWithBuffer(2)
	ch := b.Subscribe(StatusMessageEvent)

	for _, msg := range []string{"one", "two", "three"} {
		b.Publish(Event{Type: StatusMessageEvent, Payload: StatusMessagePayload{Message: msg}})
	}

	assert.Equal(t, "two", receive(t, ch).Payload.(StatusMessagePayload).Message)
	assert.Equal(t, "three", receive(t, ch).Payload.(StatusMessagePayload).Message)
	assertEmpty(t, ch)
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(SessionStateEvent, SessionClosedEvent)

	b.Unsubscribe(ch, SessionStateEvent)
	b.Publish(Event{Type: SessionStateEvent})
	assertEmpty(t, ch)

	b.Publish(Event{Type: SessionClosedEvent})
	receive(t, ch)

	b.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after the last subscriber left is a no-op.
	b.Publish(Event{Type: SessionClosedEvent})
}

func TestBroker_Clear(t *testing.T) {
	b := NewBroker()
	one := b.Subscribe(SessionStateEvent, ProjectLoadedEvent)
	two := b.Subscribe()

	b.Clear()

	_, ok := <-one
	assert.False(t, ok)
	_, ok = <-two
	assert.False(t, ok)
}
