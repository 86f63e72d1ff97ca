// Package signal conditions raw hardware reads into per-tick input state:
// gate levels, clock edges, change detection with hysteresis, and the ADC lag
// protocol.
package signal

import "go-hemisphere/tick"

// Pitch-scaled code constants. 128 codes per semitone, 1536 per volt/octave.
const (
	Semitone        = 1 << 7
	Octave          = 12 << 7
	GateThreshold   = 15 << 7 // 1.25 volts
	ChangeThreshold = 32      // quarter semitone
	ADCLagTicks     = 96
	MaxCV           = 5 * Octave // 5 volts
	ThreeVoltCV     = 3 * Octave
	PulseVoltage    = 5
)

// Input is the conditioned state of one analog input lane
type Input struct {
	Raw      int  // latest ADC code
	Last     int  // last value that counted as a change
	Clocked  bool // CV crossed GateThreshold upward on this tick
	GateHigh bool // CV above GateThreshold
	Changed  bool // |Raw - Last| exceeded ChangeThreshold on this tick

	settled int // Raw as of the last tick with no lag pending
	lag     tick.Countdown
}

// Sample conditions one ADC read. Must be called once per tick.
// Tick the lag countdown first so the settled value is taken on the tick it completes.
func (in *Input) Sample(raw int) {
	in.Raw = raw
	if !in.lag.Active() {
		in.settled = raw
	}
	in.GateHigh = raw > GateThreshold
	in.Clocked = in.GateHigh && in.Last < GateThreshold

	if abs(raw-in.Last) > ChangeThreshold {
		in.Changed = true
		in.Last = raw
	} else {
		in.Changed = false
	}
}

// StartLag begins the ADC settling countdown after a clock edge
func (in *Input) StartLag() {
	in.lag.Arm(ADCLagTicks)
}

// TickLag advances the settling countdown. Called once per tick by the frame.
func (in *Input) TickLag() {
	in.lag.Tick()
}

// IsLagComplete is true only on the tick the settling countdown reaches zero
func (in *Input) IsLagComplete() bool {
	return in.lag.Fired()
}

// Settled returns the reading from before the pending lag started, or the
// current reading when no lag is pending
func (in *Input) Settled() int {
	return in.settled
}

// LagPending is true while the settling countdown is running
func (in *Input) LagPending() bool {
	return in.lag.Active()
}

// Digital is the conditioned state of a digital gate/trigger line
type Digital struct {
	Clocked  bool
	GateHigh bool
	prev     bool
}

// Sample conditions one digital read. Clocked is set on the low-to-high
// transition only, so a held gate never retriggers.
func (d *Digital) Sample(high bool) {
	d.GateHigh = high
	d.Clocked = high && !d.prev
	d.prev = high
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
