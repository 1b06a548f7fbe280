package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestChannel() (*Channel, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	return NewChannel(WithClock(clk.now)), clk
}

func TestShow_DeduplicatesActive(t *testing.T) {
	c, _ := newTestChannel()

	c.Show("X", SeverityWarning, "")
	c.Show("X", SeverityWarning, "")

	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "X", active[0].Message)
	assert.Equal(t, SeverityWarning, active[0].Severity)
}

func TestShow_SameMessageDifferentSeverity(t *testing.T) {
	c, _ := newTestChannel()

	c.Show("X", SeverityWarning, "")
	c.Show("X", SeverityError, "")

	assert.Len(t, c.Active(), 2)
}

func TestShow_InsertionOrder(t *testing.T) {
	c, _ := newTestChannel()

	c.Show("first", SeverityError, "")
	c.Show("second", SeverityInfo, "/contact")
	c.Show("third", SeveritySuccess, "")

	active := c.Active()
	require.Len(t, active, 3)
	assert.Equal(t, "first", active[0].Message)
	assert.Equal(t, "second", active[1].Message)
	assert.Equal(t, "/contact", active[1].LinkTo)
	assert.Equal(t, "third", active[2].Message)
}

func TestShow_UnknownSeverityDefaultsToInfo(t *testing.T) {
	c, _ := newTestChannel()
	c.Show("hello", "", "")

	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, SeverityInfo, active[0].Severity)
}

func TestExpiry(t *testing.T) {
	c, clk := newTestChannel()
	c.Show("X", SeverityWarning, "")

	clk.advance(DefaultTTL - time.Millisecond)
	assert.Len(t, c.Active(), 1)

	clk.advance(time.Millisecond)
	assert.Empty(t, c.Active())

	// once expired, the same message can be shown again
	c.Show("X", SeverityWarning, "")
	assert.Len(t, c.Active(), 1)
}

func TestDismiss_Idempotent(t *testing.T) {
	c, clk := newTestChannel()
	c.Show("a", SeverityInfo, "")
	c.Show("b", SeverityInfo, "")
	id := c.Active()[0].ID

	c.Dismiss(id)
	c.Dismiss(id)
	c.Dismiss(999)

	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].Message)

	clk.advance(DefaultTTL)
	c.Dismiss(active[0].ID)
	assert.Empty(t, c.Active())
}
