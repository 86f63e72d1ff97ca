// Package frame holds the per-tick soft I/O snapshot shared by every applet.
// A tick is Load (hardware to frame), processing (MIDI, clock, applets) and
// Send (frame to hardware), always in that order.
package frame

import (
	"go-hemisphere/midi"
	"go-hemisphere/signal"
	"go-hemisphere/tick"
)

const (
	NumDigital  = 4
	NumADC      = 4
	NumDAC      = 4
	NumChannels = 4

	// NumTriggerSources is the size of the trigger mapping space:
	// 1-4 digital inputs, 5-8 CV inputs as gates, 9-12 output loopback
	NumTriggerSources = NumDigital + NumADC + NumDAC

	MaxSkip       = 100
	MaxTrigLength = 63

	gateLevel = signal.PulseVoltage * signal.Octave
)

// Rand is the random source used for clock skipping (*rand.Rand satisfies it)
type Rand interface {
	Intn(n int) int
}

// ClockSource supplies the master clock's per-channel state for one tick
type ClockSource interface {
	IsRunning() bool
	Multiply(ch int) int
	Tock(ch int) bool
	Beep(ch int) bool
}

// IOFrame is the conditioned state of every I/O lane for the current tick.
// It is owned by the tick loop; applets borrow it for one call at a time.
type IOFrame struct {
	AutoMIDIOut    bool
	TriggerMapping [NumChannels]int
	MIDI           *midi.State

	tick       uint32
	trigLength int // ms

	digital    [NumDigital]signal.Digital
	cv         [NumADC]signal.Input
	outputs    [NumDAC]int
	outputDiff [NumDAC]int
	clockOut   [NumDAC]tick.Countdown
	skip       [NumDAC]int
	loopback   [NumDAC]bool

	lastClock  [NumChannels]uint32
	cycleTicks [NumChannels]uint32

	internal [NumChannels]bool
	tocks    [NumChannels]bool
	boops    [NumChannels]bool

	rand Rand
}

// New returns a frame with trigger inputs 1-4 mapped to channels 1-4
func New(r Rand) *IOFrame {
	f := &IOFrame{
		TriggerMapping: [NumChannels]int{1, 2, 3, 4},
		MIDI:           midi.NewState(),
		rand:           r,
	}
	f.SetTrigLength(midi.DefaultTrigLength)
	return f
}

// Tick returns the current frame tick
func (f *IOFrame) Tick() uint32 {
	return f.tick
}

// Load reads the hardware into the frame and advances every countdown once
func (f *IOFrame) Load(hw Hardware) {
	f.tick++
	f.MIDI.SetTick(f.tick)

	for ch := range f.loopback {
		f.loopback[ch] = false
	}
	for ch := range f.digital {
		f.digital[ch].Sample(hw.ReadDigital(ch))
	}
	for ch := range f.cv {
		f.cv[ch].TickLag()
		f.cv[ch].Sample(hw.ReadADC(ch))
	}
	for ch := range f.clockOut {
		if f.clockOut[ch].Tick() {
			f.outputs[ch] = 0
		}
	}
}

// LatchClock copies the master clock's tocks and boops for this tick.
// Boops are consumed here, so each fires on exactly one tick.
func (f *IOFrame) LatchClock(c ClockSource) {
	running := c.IsRunning()
	for ch := 0; ch < NumChannels; ch++ {
		f.internal[ch] = running && c.Multiply(ch) != 0
		f.tocks[ch] = f.internal[ch] && c.Tock(ch)
		f.boops[ch] = c.Beep(ch)
	}
}

// Send writes every output to the hardware and runs the outbound MIDI path
func (f *IOFrame) Send(hw Hardware) {
	for ch, v := range f.outputs {
		hw.WriteDAC(ch, v, 0)
	}
	f.MIDI.TickNoteOffs()
	if f.AutoMIDIOut {
		f.MIDI.Send(f.outputs)
	}
}

// In returns the raw CV of an input
func (f *IOFrame) In(ch int) int {
	return f.cv[ch].Raw
}

// CVChanged reports whether an input moved past the hysteresis band on this tick
func (f *IOFrame) CVChanged(ch int) bool {
	return f.cv[ch].Changed
}

// Out sets an output. Crossing the gate threshold upward raises the
// output's loopback trigger for applets that run later this tick.
func (f *IOFrame) Out(ch, value int) {
	if value > signal.GateThreshold && f.outputs[ch] < signal.GateThreshold {
		f.loopback[ch] = true
	}
	f.outputDiff[ch] = value - f.outputs[ch]
	f.outputs[ch] = value
}

// GateOut sets an output fully high or low
func (f *IOFrame) GateOut(ch int, on bool) {
	if on {
		f.Out(ch, gateLevel)
	} else {
		f.Out(ch, 0)
	}
}

// ClockOut fires a trigger pulse lasting ticks (<= 0 uses the trigger length).
// With a skip probability set, some pulses are randomly dropped.
func (f *IOFrame) ClockOut(ch, ticks int) {
	if ticks <= 0 {
		ticks = f.PulseTicks()
	}
	// no draw at all when skip is off, so other random consumers are unaffected
	if f.skip[ch] != 0 && f.rand.Intn(MaxSkip) < f.skip[ch] {
		return
	}
	f.clockOut[ch].Arm(ticks)
	f.outputs[ch] = gateLevel
	f.loopback[ch] = true
}

// NudgeSkip moves an output's skip probability (percent)
func (f *IOFrame) NudgeSkip(ch, dir int) {
	f.skip[ch] = clamp(f.skip[ch]+dir, 0, MaxSkip)
}

// Skip returns an output's skip probability
func (f *IOFrame) Skip(ch int) int {
	return f.skip[ch]
}

// Gate reports the level of a channel's mapped trigger source
func (f *IOFrame) Gate(ch int) bool {
	src := f.TriggerMapping[ch]
	switch {
	case src >= 1 && src <= NumDigital:
		return f.digital[src-1].GateHigh
	case src <= NumDigital+NumADC && src > NumDigital:
		return f.cv[src-NumDigital-1].GateHigh
	case src <= NumTriggerSources && src > NumDigital+NumADC:
		return f.outputs[src-NumDigital-NumADC-1] > signal.GateThreshold
	}
	return false
}

// Clock reports whether a channel was clocked on this tick: by the internal
// clock when it is running with a non-zero multiplier, otherwise by the
// mapped trigger source. Manual boops always count.
func (f *IOFrame) Clock(ch int) bool {
	var clocked bool
	if f.internal[ch] {
		clocked = f.tocks[ch]
	} else {
		clocked = f.triggered(f.TriggerMapping[ch])
	}
	clocked = clocked || f.boops[ch]

	if clocked && f.lastClock[ch] != f.tick {
		f.cycleTicks[ch] = f.tick - f.lastClock[ch]
		f.lastClock[ch] = f.tick
	}
	return clocked
}

func (f *IOFrame) triggered(src int) bool {
	switch {
	case src >= 1 && src <= NumDigital:
		return f.digital[src-1].Clocked
	case src <= NumDigital+NumADC && src > NumDigital:
		return f.cv[src-NumDigital-1].Clocked
	case src <= NumTriggerSources && src > NumDigital+NumADC:
		return f.loopback[src-NumDigital-NumADC-1]
	}
	return false
}

// DigitalClocked reports a rising edge on a digital input, ignoring the
// trigger mapping
func (f *IOFrame) DigitalClocked(ch int) bool {
	return f.digital[ch].Clocked
}

// TicksSinceClock returns the ticks since a channel last clocked
func (f *IOFrame) TicksSinceClock(ch int) uint32 {
	return f.tick - f.lastClock[ch]
}

// ClockCycleTicks returns the ticks between a channel's last two clocks
func (f *IOFrame) ClockCycleTicks(ch int) uint32 {
	return f.cycleTicks[ch]
}

// StartADCLag begins waiting for an input's CV to settle after a clock edge
func (f *IOFrame) StartADCLag(ch int) {
	f.cv[ch].StartLag()
}

// EndOfADCLag is true on the one tick the input has settled
func (f *IOFrame) EndOfADCLag(ch int) bool {
	return f.cv[ch].IsLagComplete()
}

// LaggedIn returns the settled CV and true once the lag completes. Before
// that it returns the reading from before the clock edge and false.
func (f *IOFrame) LaggedIn(ch int) (int, bool) {
	if f.cv[ch].IsLagComplete() {
		return f.cv[ch].Raw, true
	}
	return f.cv[ch].Settled(), false
}

// ViewIn returns an input as last observed, for displays
func (f *IOFrame) ViewIn(ch int) int {
	return f.cv[ch].Raw
}

// ViewOut returns an output as last written, for displays
func (f *IOFrame) ViewOut(ch int) int {
	return f.outputs[ch]
}

// OutputDiff returns how much an output moved on its last write
func (f *IOFrame) OutputDiff(ch int) int {
	return f.outputDiff[ch]
}

// SetTrigLength sets the default pulse width in ms (1-63)
func (f *IOFrame) SetTrigLength(ms int) {
	f.trigLength = clamp(ms, 1, MaxTrigLength)
	f.MIDI.SetTrigLength(f.trigLength)
}

// TrigLength returns the default pulse width in ms
func (f *IOFrame) TrigLength() int {
	return f.trigLength
}

// PulseTicks returns the default pulse width in ticks
func (f *IOFrame) PulseTicks() int {
	return f.trigLength * midi.TicksPerMs
}

var triggerSourceNames = [NumTriggerSources + 1]string{
	"---", "TR1", "TR2", "TR3", "TR4",
	"CV1", "CV2", "CV3", "CV4",
	"OutA", "OutB", "OutC", "OutD",
}

// TriggerSourceName returns the display name of a trigger mapping value
func TriggerSourceName(src int) string {
	if src < 0 || src > NumTriggerSources {
		return "?"
	}
	return triggerSourceNames[src]
}

// SetTriggerMapping assigns a trigger source (0-12) to a channel
func (f *IOFrame) SetTriggerMapping(ch, src int) {
	f.TriggerMapping[ch] = clamp(src, 0, NumTriggerSources)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
