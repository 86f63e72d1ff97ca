package applet

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-hemisphere/clock"
	"go-hemisphere/frame"
	"go-hemisphere/midi"
	"go-hemisphere/signal"
	"go-hemisphere/tick"
)

func newTestFrame() (*frame.IOFrame, *frame.Sim) {
	return frame.New(rand.New(rand.NewSource(1))), frame.NewSim()
}

// step runs one tick: Load, the clock, the applet, Send
func step(f *frame.IOFrame, hw *frame.Sim, c *clock.Manager, a Applet) {
	f.Load(hw)
	c.Tick(false)
	f.LatchClock(c)
	a.Controller(f)
	f.Send(hw)
}

func keys(a Applet, ks ...string) {
	for _, k := range ks {
		a.HandleKey(k)
	}
}

func TestRegistry(t *testing.T) {
	c := clock.NewManager()
	for _, name := range Names() {
		a, err := New(name, c)
		require.NoError(t, err, name)
		assert.Equal(t, name, a.Name())
		assert.NotEmpty(t, a.View())
	}

	_, err := New("Nope", c)
	assert.Error(t, err)
	assert.Equal(t, []string{"ClkToGate", "ClockSet", "Empty", "MIDIIn", "SampleHld"}, Names())
}

func TestClockSetupDataRoundTrip(t *testing.T) {
	c := clock.NewManager()
	cs := NewClockSetup(c)
	cs.AutoSave = true
	cs.Screensaver = 5
	c.SetTempoBPM(143)
	c.SetClockPPQN(7)
	c.SetMultiply(-3, 1)
	c.SetMultiply(0, 2)
	c.SetMultiply(8, 3)
	cs.trigMap = [frame.NumChannels]int{0, 12, 5, 9}
	cs.trigLength = 40

	data := cs.OnDataRequest()

	c2 := clock.NewManager()
	cs2 := NewClockSetup(c2)
	cs2.OnDataReceive(data)

	assert.True(t, cs2.AutoSave)
	assert.False(t, cs2.CursorWrap)
	assert.Equal(t, 5, cs2.Screensaver)
	assert.Equal(t, 143, c2.Tempo())
	assert.Equal(t, 7, c2.ClockPPQN())
	assert.Equal(t, []int{1, -3, 0, 8}, []int{c2.Multiply(0), c2.Multiply(1), c2.Multiply(2), c2.Multiply(3)})
	assert.Equal(t, cs.trigMap, cs2.trigMap)
	assert.Equal(t, 40, cs2.trigLength)

	f, _ := newTestFrame()
	cs2.Controller(f)
	assert.Equal(t, [frame.NumChannels]int{0, 12, 5, 9}, f.TriggerMapping)
	assert.Equal(t, 40, f.TrigLength())
}

func TestClockSetupKeepsTempoWhileRunning(t *testing.T) {
	c := clock.NewManager()
	cs := NewClockSetup(c)
	c.SetTempoBPM(90)
	data := cs.OnDataRequest()

	c.SetTempoBPM(120)
	c.Start(false)
	cs.OnDataReceive(data)
	assert.Equal(t, 120, c.Tempo())
}

func TestClockSetupPlayStop(t *testing.T) {
	c := clock.NewManager()
	cs := NewClockSetup(c)

	keys(cs, "enter")
	assert.True(t, c.IsPaused())
	keys(cs, "enter")
	assert.True(t, c.IsRunning())
	keys(cs, "enter")
	assert.True(t, c.IsStopped())
}

func TestClockSetupTapTempo(t *testing.T) {
	c := clock.NewManager()
	cs := NewClockSetup(c)
	f, hw := newTestFrame()

	keys(cs, "down")
	require.Equal(t, csTempo, cs.Cursor())

	interval := tick.FromDuration(500 * time.Millisecond)
	for i := 0; i < clock.NumTaps+1; i++ {
		for j := 0; j < interval; j++ {
			step(f, hw, c, cs)
		}
		keys(cs, "enter")
	}
	assert.Equal(t, 120, c.Tempo())
}

func TestClockSetupEditsValues(t *testing.T) {
	c := clock.NewManager()
	cs := NewClockSetup(c)
	start := c.Tempo()

	keys(cs, "down", "right", "right")
	assert.Equal(t, start+2, c.Tempo())

	keys(cs, "down", "right")
	assert.Equal(t, 1, c.Shuffle())

	keys(cs, "down", "down", "left", "left")
	assert.Equal(t, -1, c.Multiply(0), "x1 down twice is /2")

	keys(cs, "up", "up", "up", "up", "up")
	assert.Equal(t, csPlayStop, cs.Cursor())
	keys(cs, "up")
	assert.Equal(t, csPlayStop, cs.Cursor(), "no wrap by default")

	cs.CursorWrap = true
	keys(cs, "up")
	assert.Equal(t, csLast, cs.Cursor())
}

func TestClockSetupTriggerMapping(t *testing.T) {
	c := clock.NewManager()
	cs := NewClockSetup(c)
	f, hw := newTestFrame()
	step(f, hw, c, cs)

	for cs.Cursor() != csTrig2 {
		keys(cs, "down")
	}
	keys(cs, "right", "right")
	step(f, hw, c, cs)
	assert.Equal(t, 4, f.TriggerMapping[1])

	// changes made elsewhere flow back into the panel
	f.SetTriggerMapping(1, 7)
	step(f, hw, c, cs)
	keys(cs, "left")
	step(f, hw, c, cs)
	assert.Equal(t, 6, f.TriggerMapping[1])
}

func TestClockSetupBoop(t *testing.T) {
	c := clock.NewManager()
	cs := NewClockSetup(c)
	f, hw := newTestFrame()

	for cs.Cursor() != csBoop3 {
		keys(cs, "down")
	}
	keys(cs, "enter")

	f.Load(hw)
	c.Tick(false)
	f.LatchClock(c)
	assert.True(t, f.Clock(2))
	assert.False(t, f.Clock(0))

	f.Load(hw)
	c.Tick(false)
	f.LatchClock(c)
	assert.False(t, f.Clock(2))
}

func TestMIDIInNoteToCV(t *testing.T) {
	c := clock.NewManager()
	m := NewMIDIIn()
	f, hw := newTestFrame()

	f.MIDI.Process(midi.Message{Channel: 1, Status: midi.NoteOn, Data1: 60, Data2: 100})
	step(f, hw, c, m)
	assert.Equal(t, midi.NoteCV(60), f.ViewOut(0))
	assert.Equal(t, midi.NoteCV(60), hw.DAC(0))
}

func TestMIDIInTriggerLane(t *testing.T) {
	c := clock.NewManager()
	m := NewMIDIIn()
	f, hw := newTestFrame()

	// lane B function: Note -> Trig
	keys(m, "down", "down", "down", "right")
	assert.Equal(t, midi.FnTrig, m.Mapping(1).Function)
	step(f, hw, c, m)
	require.Equal(t, midi.FnTrig, f.MIDI.Map[1].Function)

	f.MIDI.Process(midi.Message{Channel: 1, Status: midi.NoteOn, Data1: 60, Data2: 100})
	step(f, hw, c, m)
	assert.Equal(t, signal.PulseVoltage*signal.Octave, f.ViewOut(1))

	for i := 0; i < f.PulseTicks(); i++ {
		step(f, hw, c, m)
	}
	assert.Equal(t, 0, f.ViewOut(1))
}

func TestMIDIInDataRoundTrip(t *testing.T) {
	m := NewMIDIIn()
	// lane A channel 3, lane D function CC#
	keys(m, "right", "right")
	for i := 0; i < 7; i++ {
		keys(m, "down")
	}
	for i := 0; i < int(midi.FnCC-midi.FnNote); i++ {
		keys(m, "right")
	}
	keys(m, "down", "left", "left")

	m2 := NewMIDIIn()
	m2.OnDataReceive(m.OnDataRequest())
	assert.Equal(t, 2, m2.Mapping(0).Channel)
	assert.Equal(t, midi.FnCC, m2.Mapping(3).Function)
	assert.Equal(t, midi.FnNote, m2.Mapping(1).Function)

	f, hw := newTestFrame()
	step(f, hw, clock.NewManager(), m2)
	assert.Equal(t, midi.DefaultClockDivisor-2, f.MIDI.ClockDivisor)
	assert.Equal(t, -1, f.MIDI.Map[3].CC)
}

func TestSampleHoldWaitsForLag(t *testing.T) {
	c := clock.NewManager()
	sh := NewSampleHold()
	f, hw := newTestFrame()

	hw.SetADC(0, 1000)
	hw.SetDigital(0, true)
	step(f, hw, c, sh)
	assert.Equal(t, 0, f.ViewOut(0), "nothing held until the input settles")
	hw.SetDigital(0, false)

	hw.SetADC(0, 2000)
	for i := 0; i < signal.ADCLagTicks-1; i++ {
		step(f, hw, c, sh)
		require.Equal(t, 0, f.ViewOut(0), "tick %d", i)
	}
	step(f, hw, c, sh)
	assert.Equal(t, 2000, f.ViewOut(0))

	hw.SetADC(0, 3000)
	for i := 0; i < 200; i++ {
		step(f, hw, c, sh)
	}
	assert.Equal(t, 2000, f.ViewOut(0), "held between clocks")
}

func TestSampleHoldTrack(t *testing.T) {
	c := clock.NewManager()
	sh := NewSampleHold()
	keys(sh, "right", "enter")
	require.True(t, sh.Tracking(1))
	f, hw := newTestFrame()

	hw.SetDigital(1, true)
	hw.SetADC(1, 500)
	step(f, hw, c, sh)
	assert.Equal(t, 500, f.ViewOut(1))
	hw.SetADC(1, 700)
	step(f, hw, c, sh)
	assert.Equal(t, 700, f.ViewOut(1))

	hw.SetDigital(1, false)
	hw.SetADC(1, 900)
	step(f, hw, c, sh)
	assert.Equal(t, 700, f.ViewOut(1))

	sh2 := NewSampleHold()
	sh2.OnDataReceive(sh.OnDataRequest())
	assert.True(t, sh2.Tracking(1))
	assert.False(t, sh2.Tracking(0))
}

func TestClkToGateWidth(t *testing.T) {
	c := clock.NewManager()
	g := NewClkToGate()
	f, hw := newTestFrame()

	pulse := func() {
		hw.SetDigital(0, true)
		step(f, hw, c, g)
		hw.SetDigital(0, false)
	}
	pulse()
	for i := 0; i < 99; i++ {
		step(f, hw, c, g)
	}
	pulse()
	require.Equal(t, uint32(100), f.ClockCycleTicks(0))

	high := 1
	for i := 0; i < 99; i++ {
		step(f, hw, c, g)
		if f.ViewOut(0) > signal.GateThreshold {
			high++
		}
	}
	assert.Equal(t, 50, high)
}

func TestClkToGateData(t *testing.T) {
	g := NewClkToGate()
	keys(g, "down", "right", "right", "right")
	assert.Equal(t, 53, g.Width(1))

	g2 := NewClkToGate()
	g2.OnDataReceive(g.OnDataRequest())
	assert.Equal(t, 53, g2.Width(1))
	assert.Equal(t, defaultGateWidth, g2.Width(0))

	g3 := NewClkToGate()
	g3.OnDataReceive(0)
	assert.Equal(t, defaultGateWidth, g3.Width(3))
}
