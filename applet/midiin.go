package applet

import (
	"fmt"
	"strings"

	"go-hemisphere/config"
	"go-hemisphere/frame"
	"go-hemisphere/midi"
	"go-hemisphere/signal"
	"go-hemisphere/widgets"
)

// MIDIIn cursor: channel and function per lane, then the clock divisor
const (
	miLaneFields = 2
	miDivisor    = midi.NumOutputs * miLaneFields
)

const maxClockDivisor = 24

var locDivisor = config.Location{Offset: 36, Width: 5}

// lane i: channel 4 bits at 9i, function 5 bits at 9i+4
func locLaneChannel(i int) config.Location {
	return config.Location{Offset: uint(i * 9), Width: 4}
}

func locLaneFunction(i int) config.Location {
	return config.Location{Offset: uint(i*9 + 4), Width: 5}
}

// MIDIIn turns incoming MIDI into CV: each output lane follows one MIDI
// channel with a function (note pitch, gate, velocity, CC, clock...).
type MIDIIn struct {
	cursor int

	// lane settings, applied on the next Controller call when dirty
	mapping [midi.NumOutputs]midi.Mapping
	divisor int
	dirty   bool

	outputs [midi.NumOutputs]int
	log     []midi.LogEntry
}

func NewMIDIIn() *MIDIIn {
	m := &MIDIIn{divisor: midi.DefaultClockDivisor}
	for i := range m.mapping {
		m.mapping[i] = midi.Mapping{Function: midi.FnNote, CC: -1}
	}
	return m
}

func (m *MIDIIn) Name() string { return "MIDIIn" }

func (m *MIDIIn) Start() {}

// Controller copies translated MIDI into the outputs. Trigger functions fire
// a pulse per queued event instead of holding a level.
func (m *MIDIIn) Controller(f *frame.IOFrame) {
	s := f.MIDI
	if m.dirty {
		for i := range m.mapping {
			cc := s.Map[i].CC
			if m.mapping[i].Function != s.Map[i].Function {
				cc = -1
			}
			s.Map[i] = midi.Mapping{Channel: m.mapping[i].Channel, Function: m.mapping[i].Function, CC: cc}
		}
		s.ClockDivisor = m.divisor
		m.dirty = false
	} else {
		m.mapping = s.Map
		m.divisor = s.ClockDivisor
	}

	for ch := 0; ch < midi.NumOutputs; ch++ {
		fn := s.Map[ch].Function
		switch {
		case fn == midi.FnNone:
		case fn.IsTrigger():
			if s.TakeTrigger(ch) {
				f.ClockOut(ch, 0)
			}
		default:
			f.Out(ch, s.Outputs[ch])
		}
		m.outputs[ch] = f.ViewOut(ch)
	}
	m.log = s.Log.Entries()
}

// HandleKey: up/down select a field, left/right change it
func (m *MIDIIn) HandleKey(key string) {
	switch key {
	case "up", "k":
		m.cursor = clampInt(m.cursor-1, 0, miDivisor)
	case "down", "j":
		m.cursor = clampInt(m.cursor+1, 0, miDivisor)
	case "left", "h", "-":
		m.change(-1)
	case "right", "l", "+", "=":
		m.change(1)
	}
}

func (m *MIDIIn) change(dir int) {
	if m.cursor == miDivisor {
		m.divisor = clampInt(m.divisor+dir, 1, maxClockDivisor)
		m.dirty = true
		return
	}
	lane := &m.mapping[m.cursor/miLaneFields]
	if m.cursor%miLaneFields == 0 {
		lane.Channel = clampInt(lane.Channel+dir, 0, midi.NumChannels-1)
	} else {
		fn := (int(lane.Function) + dir + int(midi.NumFunctions)) % int(midi.NumFunctions)
		lane.Function = midi.Function(fn)
	}
	m.dirty = true
}

// Mapping returns a lane's current assignment
func (m *MIDIIn) Mapping(lane int) midi.Mapping {
	return m.mapping[lane]
}

func (m *MIDIIn) OnDataRequest() uint64 {
	var data uint64
	for i, mp := range m.mapping {
		data = config.Pack(data, locLaneChannel(i), mp.Channel)
		data = config.Pack(data, locLaneFunction(i), int(mp.Function))
	}
	data = config.Pack(data, locDivisor, m.divisor)
	return data
}

func (m *MIDIIn) OnDataReceive(data uint64) {
	for i := range m.mapping {
		m.mapping[i].Channel = config.Unpack(data, locLaneChannel(i))
		fn := config.Unpack(data, locLaneFunction(i))
		if fn >= int(midi.NumFunctions) {
			fn = int(midi.FnNone)
		}
		m.mapping[i].Function = midi.Function(fn)
	}
	m.divisor = clampInt(config.Unpack(data, locDivisor), 1, maxClockDivisor)
	m.dirty = true
}

func (m *MIDIIn) View() string {
	var b strings.Builder
	b.WriteString("MIDI > CV\n\n")

	for i, mp := range m.mapping {
		chMark, fnMark := " ", " "
		switch m.cursor {
		case i * miLaneFields:
			chMark = ">"
		case i*miLaneFields + 1:
			fnMark = ">"
		}
		fn := mp.Function.String()
		if mp.Function == midi.FnCC && mp.CC >= 0 {
			fn = fmt.Sprintf("CC%d", mp.CC)
		}
		fmt.Fprintf(&b, "%c %sch%-2d %s%-8s %s\n",
			'A'+i, chMark, mp.Channel+1, fnMark, fn,
			widgets.RenderMeter(m.outputs[i], signal.MaxCV, 12))
	}
	divMark := " "
	if m.cursor == miDivisor {
		divMark = ">"
	}
	fmt.Fprintf(&b, "\n%sclock /%d\n\n", divMark, m.divisor)

	for _, e := range m.log {
		b.WriteString("  " + e.String() + "\n")
	}
	b.WriteString("\n")
	b.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "up/down", Desc: "select lane setting"},
			{Key: "left/right", Desc: "change channel, function or divisor"},
		}},
	}))
	return b.String()
}
