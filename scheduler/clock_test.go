package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClockAdvance(t *testing.T) {
	c := NewManualClock(epoch)

	var fired []time.Time
	c.AfterFunc(2*time.Second, func() { fired = append(fired, c.Now()) })
	c.AfterFunc(time.Second, func() {
		fired = append(fired, c.Now())
		c.AfterFunc(500*time.Millisecond, func() { fired = append(fired, c.Now()) })
	})

	c.Advance(3 * time.Second)

	assert.Equal(t, []time.Time{
		epoch.Add(time.Second),
		epoch.Add(1500 * time.Millisecond),
		epoch.Add(2 * time.Second),
	}, fired)
	assert.Equal(t, epoch.Add(3*time.Second), c.Now())
}

func TestManualTimerStop(t *testing.T) {
	c := NewManualClock(epoch)
	tm := c.AfterFunc(time.Second, func() { t.Fatal("stopped timer fired") })

	assert.Equal(t, 1, c.Pending())
	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	assert.Zero(t, c.Pending())
	c.Advance(time.Hour)
}

func TestRealClockAfterFunc(t *testing.T) {
	done := make(chan struct{})
	RealClock{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer never fired")
	}
}
