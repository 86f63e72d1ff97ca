package tick

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountdownFiresOnce(t *testing.T) {
	var c Countdown
	c.Arm(3)
	assert.True(t, c.Active())

	assert.False(t, c.Tick())
	assert.False(t, c.Tick())
	assert.True(t, c.Tick())
	assert.True(t, c.Fired())
	assert.True(t, c.Expired())

	// stays quiet afterwards
	assert.False(t, c.Tick())
	assert.False(t, c.Fired())
}

func TestCountdownIdleNeverFires(t *testing.T) {
	var c Countdown
	for i := 0; i < 10; i++ {
		assert.False(t, c.Tick())
	}
	assert.True(t, c.Expired())
	assert.False(t, c.Active())
}

func TestCountdownRearmAndStop(t *testing.T) {
	var c Countdown
	c.Arm(2)
	c.Tick()
	c.Arm(2) // restart
	assert.Equal(t, 2, c.Remaining())
	assert.False(t, c.Tick())
	c.Stop()
	assert.False(t, c.Tick())
	assert.False(t, c.Fired())

	c.Arm(-5)
	assert.True(t, c.Expired())
}
