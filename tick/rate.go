package tick

import "time"

// Period is the length of one tick (about 16.67kHz)
const Period = 60 * time.Microsecond

const (
	PerSecond = int(time.Second / Period)
	PerMinute = int(time.Minute / Period)
)

// FromDuration converts a duration into whole ticks
func FromDuration(d time.Duration) int {
	return int(d / Period)
}
