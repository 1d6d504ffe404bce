package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComponent_MessageClearsOnMatchingTick(t *testing.T) {
	c := New()
	c.SetSize(80, 1)
	c.SetLeftContent("/sandbox · Idle")

	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return stamp }
	assert.NotNil(t, c.ShowError("Analysis failed"))

	msg, ok := c.Message()
	assert.True(t, ok)
	assert.Equal(t, Error, msg.Type)
	assert.Contains(t, c.View(), "Analysis failed")
	assert.Contains(t, c.View(), "/sandbox")

	c.Update(clearMessageMsg{timestamp: stamp.Add(-time.Second)})
	_, ok = c.Message()
	assert.True(t, ok, "a stale tick must not clear a newer message")

	c.Update(clearMessageMsg{timestamp: stamp})
	_, ok = c.Message()
	assert.False(t, ok)
}

func TestParseType(t *testing.T) {
	assert.Equal(t, Success, ParseType("success"))
	assert.Equal(t, Warning, ParseType("warning"))
	assert.Equal(t, Error, ParseType("error"))
	assert.Equal(t, Info, ParseType("anything"))
}
