package clock

import "go-hemisphere/tick"

// NumTaps is how many intervals are averaged into a tapped tempo
const NumTaps = 3

// maxTapInterval is the beat length of the slowest tempo; a longer gap
// means the player stopped tapping.
const maxTapInterval = tick.PerMinute / MinTempo

// TapTempo collects intervals between button presses
type TapTempo struct {
	times   [NumTaps]int
	taps    int
	last    uint32
	started bool
}

// Tap records a press at tick now. Once NumTaps intervals are collected it
// returns their tempo and starts over.
func (t *TapTempo) Tap(now uint32) (bpm int, ok bool) {
	if t.started {
		interval := int(now - t.last)
		if interval > maxTapInterval {
			t.taps = 0
		} else {
			t.times[t.taps] = interval
			t.taps++
			if t.taps == NumTaps {
				bpm, ok = TempoFromTaps(t.times[:])
				t.taps = 0
			}
		}
	}
	t.last = now
	t.started = true
	return bpm, ok
}

// Reset forgets any partial gesture
func (t *TapTempo) Reset() {
	t.taps = 0
	t.started = false
}

// Taps returns how many intervals are in the current gesture
func (t *TapTempo) Taps() int {
	return t.taps
}

// TempoFromTaps averages tick intervals into a tempo, rounded to the nearest BPM
func TempoFromTaps(intervals []int) (int, bool) {
	if len(intervals) == 0 {
		return 0, false
	}
	sum := 0
	for _, iv := range intervals {
		sum += iv
	}
	if sum <= 0 {
		return 0, false
	}
	// bpm = PerMinute / (sum/len), rounded
	n := len(intervals)
	bpm := (tick.PerMinute*n + sum/2) / sum
	return clamp(bpm, MinTempo, MaxTempo), true
}

// SetTempoFromTaps sets the tempo from tapped intervals
func (m *Manager) SetTempoFromTaps(intervals []int) {
	if bpm, ok := TempoFromTaps(intervals); ok {
		m.SetTempoBPM(bpm)
	}
}
