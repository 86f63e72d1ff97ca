package midi

import (
	"go-hemisphere/debug"
	"go-hemisphere/signal"
	"go-hemisphere/tick"
)

const (
	// TicksPerMs approximates the 16.67kHz tick rate
	TicksPerMs = 17

	// DefaultTrigLength is the default pulse width in ms
	DefaultTrigLength = 2

	defaultVelocity = 100
	outGateLevel    = 12 << 7 // 1 volt
)

// outbound turns CV output lanes back into MIDI
type outbound struct {
	Map        [NumOutputs]Mapping
	PulseTicks int

	sender Sender

	currentNote [NumChannels]uint8
	sounding    [NumChannels]bool
	currentCC   [NumOutputs]uint8
	lastChan    [NumOutputs]int
	noteOff     [NumOutputs]tick.Countdown

	inputs   [NumOutputs]int
	lastCV   [NumOutputs]int
	clocked  [NumOutputs]bool
	gateHigh [NumOutputs]bool
	changed  [NumOutputs]bool
}

func (s *State) initOutbound() {
	s.out.PulseTicks = TicksPerMs * DefaultTrigLength
	for i := 0; i < NumOutputs; i++ {
		fn := FnNote
		if i%2 == 1 {
			fn = FnGate
		}
		s.out.Map[i] = Mapping{Channel: i / 2, Function: fn, CC: 1}
		s.out.lastChan[i] = i / 2
	}
}

// SetSender sets where outbound MIDI goes (nil drops it)
func (s *State) SetSender(snd Sender) {
	s.out.sender = snd
}

// SetOutputMapping configures how an output lane is translated to MIDI
func (s *State) SetOutputMapping(ch int, m Mapping) {
	// nothing learns on the way out, so a CC number must be a real controller
	m.CC = clamp(m.CC, 0, 127)
	m.Channel = clamp(m.Channel, 0, NumChannels-1)
	s.out.Map[ch] = m
}

// OutputMapping returns the outbound configuration of a lane
func (s *State) OutputMapping(ch int) Mapping {
	return s.out.Map[ch]
}

// SetTrigLength sets the hold time of note-ons fired from note lanes, in ms
func (s *State) SetTrigLength(ms int) {
	if ms < 1 {
		ms = 1
	}
	s.out.PulseTicks = TicksPerMs * ms
}

// TickNoteOffs advances the note-off countdowns. Called exactly once per
// tick, whether or not outbound MIDI is enabled, so held notes always end.
func (s *State) TickNoteOffs() {
	for i := range s.out.noteOff {
		if s.out.noteOff[i].Tick() {
			s.sendNoteOff(s.out.lastChan[i])
		}
	}
}

// Send translates this tick's output values into MIDI. Note-offs for a
// changed pitch always go out before the matching note-on.
func (s *State) Send(outvals [NumOutputs]int) {
	o := &s.out

	// first pass: edge detection and note-offs
	for i := 0; i < NumOutputs; i++ {
		mch := o.Map[i].Channel

		o.inputs[i] = outvals[i]
		o.gateHigh[i] = o.inputs[i] > outGateLevel
		o.clocked[i] = o.gateHigh[i] && o.lastCV[i] < outGateLevel
		if abs(o.inputs[i]-o.lastCV[i]) > signal.ChangeThreshold {
			o.changed[i] = true
			o.lastCV[i] = o.inputs[i]
		} else {
			o.changed[i] = false
		}

		switch o.Map[i].Function {
		case FnNote:
			if o.changed[i] {
				s.sendNoteOff(o.lastChan[i])
				o.noteOff[i].Stop()
				o.currentNote[mch] = CVNote(o.inputs[i])
			}
		case FnGate:
			if !o.gateHigh[i] && o.changed[i] {
				s.sendNoteOff(mch)
			}
		case FnCC:
			val := uint8(ProportionCV(abs(o.inputs[i]), 127))
			if val != o.currentCC[i] {
				s.send(Message{Channel: uint8(mch + 1), Status: ControlChange, Data1: uint8(o.Map[i].CC), Data2: val})
			}
			o.currentCC[i] = val
		}
	}

	// second pass: note-ons, lanes paired A/B
	for i := 0; i < NumOutputs/2; i++ {
		a, b := i*2, i*2+1
		if o.Map[b].Function == FnGate {
			if o.clocked[b] {
				s.sendNoteOn(o.Map[b].Channel)
				o.lastChan[b] = o.Map[b].Channel
			}
		} else if o.Map[a].Function == FnNote {
			if o.changed[a] {
				s.sendNoteOn(o.Map[a].Channel)
				o.noteOff[a].Arm(o.PulseTicks)
				o.lastChan[a] = o.Map[a].Channel
			}
		}
	}
}

// SendRealtime emits a realtime message (clock, start, stop)
func (s *State) SendRealtime(status uint8) {
	s.send(Message{Status: status})
}

func (s *State) sendNoteOn(mch int) {
	note := s.out.currentNote[mch]
	s.out.sounding[mch] = true
	s.send(Message{Channel: uint8(mch + 1), Status: NoteOn, Data1: note, Data2: defaultVelocity})
}

func (s *State) sendNoteOff(mch int) {
	if !s.out.sounding[mch] {
		return
	}
	s.out.sounding[mch] = false
	s.send(Message{Channel: uint8(mch + 1), Status: NoteOff, Data1: s.out.currentNote[mch]})
}

func (s *State) send(m Message) {
	if s.out.sender == nil {
		return
	}
	if err := s.out.sender.Send(m.Encode()); err != nil {
		debug.LogEvery(100, "midi", "send failed: %v", err)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
