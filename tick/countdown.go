package tick

// Countdown is a software monostable driven by the tick loop.
// Arm it with a number of ticks; call Tick exactly once per tick.
type Countdown struct {
	remaining int
	fired     bool
}

// Arm starts (or restarts) the countdown. n <= 0 disarms it.
func (c *Countdown) Arm(n int) {
	if n < 0 {
		n = 0
	}
	c.remaining = n
	c.fired = false
}

// Stop disarms the countdown without firing
func (c *Countdown) Stop() {
	c.remaining = 0
	c.fired = false
}

// Tick decrements once and reports whether the countdown reached zero on this tick
func (c *Countdown) Tick() bool {
	c.fired = false
	if c.remaining <= 0 {
		return false
	}
	c.remaining--
	if c.remaining == 0 {
		c.fired = true
	}
	return c.fired
}

// Fired is true for the tick on which the countdown expired
func (c *Countdown) Fired() bool {
	return c.fired
}

// Active is true while ticks remain
func (c *Countdown) Active() bool {
	return c.remaining > 0
}

// Expired is true when nothing is pending (never armed, stopped, or run out)
func (c *Countdown) Expired() bool {
	return c.remaining == 0
}

// Remaining returns the ticks left
func (c *Countdown) Remaining() int {
	return c.remaining
}
