package midi

import (
	"go-hemisphere/debug"
	"go-hemisphere/signal"
)

const (
	NumChannels = 16 // MIDI channels
	NumOutputs  = 4  // CV output lanes driven by MIDI

	// DefaultClockDivisor filters 24 PPQN MIDI clock down to 2 PPQN
	DefaultClockDivisor = 12

	gateOn = signal.PulseVoltage * signal.Octave
)

// State tracks incoming MIDI: note stacks, sustain, transport, and the CV each
// mapped output channel should produce. It also owns the outbound path (see Send).
type State struct {
	// Inbound mapping per output lane
	Map [NumOutputs]Mapping

	// Translated CV values and pending trigger pulses per output lane
	Outputs      [NumOutputs]int
	SemitoneMask [NumOutputs]uint16
	trigQ        [NumOutputs]bool

	stacks  [NumChannels]NoteStack
	sustain uint16 // bit per MIDI channel

	// Transport
	ClockDivisor int
	clockRun     bool
	clockQ       bool
	startQ       bool
	stopQ        bool
	clockCount   int

	// Activity
	Log         ActivityLog
	LastChannel int
	LastMsgTick uint32
	now         uint32

	out outbound
}

// NewState returns a state with every inbound lane following notes on MIDI
// channel 1, and outbound note/gate pairs on channels 1 and 2.
func NewState() *State {
	s := &State{ClockDivisor: DefaultClockDivisor}
	for i := 0; i < NumOutputs; i++ {
		s.Map[i] = Mapping{Channel: 0, Function: FnNote, CC: -1}
	}
	s.initOutbound()
	return s
}

// SetTick records the current frame tick (for activity timestamps)
func (s *State) SetTick(t uint32) {
	s.now = t
}

// Process handles a decoded message
func (s *State) Process(m Message) {
	s.ProcessMIDIMsg(int(m.Channel), m.Status, int(m.Data1), int(m.Data2))
}

// ProcessMIDIMsg updates state for one incoming message. channel is 1-16
// (ignored for realtime messages).
func (s *State) ProcessMIDIMsg(channel int, status uint8, data1, data2 int) {
	switch status {
	case Clock:
		s.clockCount++
		if s.clockCount >= s.divisor() {
			s.clockCount = 0
			s.clockQ = true
			s.queueTriggers(FnClock)
		}
		return

	case Start, Continue: // Continue restarts like Start
		s.startQ = true
		s.clockCount = 0
		s.clockRun = true
		s.queueTriggers(FnStart)
		debug.Log("midi", "transport start (status %#x)", status)
		return

	case Stop, SystemReset:
		s.stopQ = true
		s.clockRun = false
		// panic reset: no stuck notes survive a stop
		s.ClearNoteStacks()
		s.ClearSustainLatch(-1)
		for ch := range s.SemitoneMask {
			s.SemitoneMask[ch] = 0
		}
		debug.Log("midi", "transport stop (status %#x)", status)
		return
	}

	if channel < 1 || channel > NumChannels {
		return
	}
	m := channel - 1
	stack := &s.stacks[m]

	switch status {
	case NoteOn:
		stack.Push(uint8(data1), uint8(data2))
	case NoteOff:
		stack.Pop(uint8(data1))
	case ControlChange:
		if data1 == CCSustain {
			if data2 > 63 {
				if !s.CheckSustainLatch(m) {
					s.SetSustainLatch(m)
				}
			} else {
				s.ClearSustainLatch(m)
			}
		}
	}

	logThis := false
	for ch := 0; ch < NumOutputs; ch++ {
		mp := &s.Map[ch]
		if mp.Function == FnNone || mp.Channel != m {
			continue
		}
		s.LastChannel = m

		switch status {
		case NoteOn:
			s.SemitoneMask[ch] |= 1 << (data1 % 12)
			if mp.Function.IsNote() {
				s.Outputs[ch] = NoteCV(s.selectNote(mp.Function, stack))
			}
			switch mp.Function {
			case FnTrig, FnTrigAlways:
				s.trigQ[ch] = true
			case FnTrigFirst:
				if stack.Len() == 1 {
					s.trigQ[ch] = true
				}
			case FnGate:
				s.Outputs[ch] = gateOn
			case FnGateInv:
				s.Outputs[ch] = 0
			}
			s.updateVelocity(ch, stack)
			logThis = true

		case NoteOff:
			s.SemitoneMask[ch] &^= 1 << (data1 % 12)
			// hold the pitch when the last note is released or sustain is down
			if stack.Len() > 0 && mp.Function.IsNote() && !s.CheckSustainLatch(m) {
				s.Outputs[ch] = NoteCV(s.selectNote(mp.Function, stack))
			}
			if mp.Function == FnTrigAlways {
				s.trigQ[ch] = true
			}
			if stack.Len() == 0 && !s.CheckSustainLatch(m) {
				s.gateOff(ch)
			}
			s.updateVelocity(ch, stack)
			logThis = true

		case ControlChange:
			if data1 == CCSustain && data2 <= 63 && stack.Len() == 0 {
				// deferred note-off held back by the pedal
				s.gateOff(ch)
			}
			if mp.Function == FnCC {
				if mp.CC < 0 {
					mp.CC = data1
				}
				if mp.CC == data1 {
					s.Outputs[ch] = Proportion(data2, 127, signal.MaxCV)
					logThis = true
				}
			}

		case AfterTouchPoly:
			if n := mp.Function.AfterTouchKey(); n > 0 {
				if stack.Len() >= n {
					if int(stack.Nth(n)) == data1 {
						s.Outputs[ch] = Proportion(data2, 127, signal.MaxCV)
					}
					logThis = true
				} else {
					s.Outputs[ch] = 0
				}
			}

		case AfterTouchChannel:
			if mp.Function == FnAfterTouch {
				s.Outputs[ch] = Proportion(data1, 127, signal.MaxCV)
				logThis = true
			}

		case PitchBend:
			if mp.Function == FnPitchBend {
				bend := (data2 << 7) + data1 - 8192
				s.Outputs[ch] = Proportion(bend, 8192, signal.ThreeVoltCV)
				logThis = true
			}
		}
	}

	if logThis {
		s.Log.Add(LogEntry{Status: status, Data1: uint8(data1), Data2: uint8(data2)})
		s.LastMsgTick = s.now
	}
}

// selectNote applies a note-selection policy to a non-empty stack
func (s *State) selectNote(fn Function, stack *NoteStack) int {
	n := stack.Len()
	switch fn {
	case FnNotePoly2:
		if n > 1 {
			return int(stack.Nth(2))
		}
		return int(stack.Last())
	case FnNotePoly3:
		if n > 2 {
			return int(stack.Nth(3))
		}
		if n == 2 { // spread evenly when only two are held
			return int(stack.Last())
		}
		return int(stack.First())
	case FnNotePoly4:
		if n > 3 {
			return int(stack.Nth(4))
		}
		return int(stack.First())
	case FnNoteMin:
		return int(stack.Min())
	case FnNoteMax:
		return int(stack.Max())
	case FnNotePedal:
		return int(stack.First())
	case FnNoteInv:
		return 127 - int(stack.Last())
	}
	return int(stack.Last())
}

func (s *State) updateVelocity(ch int, stack *NoteStack) {
	n := s.Map[ch].Function.velocityVoice()
	if n == 0 {
		return
	}
	if stack.Len() >= n {
		s.Outputs[ch] = Proportion(int(stack.Vel(n)), 127, signal.MaxCV)
	} else {
		s.Outputs[ch] = 0
	}
}

func (s *State) gateOff(ch int) {
	switch s.Map[ch].Function {
	case FnGate:
		s.Outputs[ch] = 0
	case FnGateInv:
		s.Outputs[ch] = gateOn
	}
}

func (s *State) queueTriggers(fn Function) {
	for ch := 0; ch < NumOutputs; ch++ {
		if s.Map[ch].Function == fn {
			s.trigQ[ch] = true
		}
	}
}

func (s *State) divisor() int {
	if s.ClockDivisor < 1 {
		return 1
	}
	return s.ClockDivisor
}

// TakeTrigger consumes a pending trigger pulse for an output lane
func (s *State) TakeTrigger(ch int) bool {
	t := s.trigQ[ch]
	s.trigQ[ch] = false
	return t
}

// TakeClock consumes the divided MIDI clock flag
func (s *State) TakeClock() bool {
	q := s.clockQ
	s.clockQ = false
	return q
}

// TakeStart consumes a pending Start/Continue
func (s *State) TakeStart() bool {
	q := s.startQ
	s.startQ = false
	return q
}

// TakeStop consumes a pending Stop/SystemReset
func (s *State) TakeStop() bool {
	q := s.stopQ
	s.stopQ = false
	return q
}

// Running reports whether the external transport is playing
func (s *State) Running() bool {
	return s.clockRun
}

// ClearNoteStacks empties every channel's note stack
func (s *State) ClearNoteStacks() {
	for c := range s.stacks {
		s.stacks[c].Clear()
	}
}

// ClearSustainLatch releases sustain on a MIDI channel (0-15), or all of them when m < 0
func (s *State) ClearSustainLatch(m int) {
	if m < 0 {
		s.sustain = 0
		return
	}
	s.sustain &^= 1 << m
}

// SetSustainLatch latches sustain on a MIDI channel (0-15)
func (s *State) SetSustainLatch(m int) {
	s.sustain |= 1 << m
}

// CheckSustainLatch reports the sustain state of a MIDI channel (0-15)
func (s *State) CheckSustainLatch(m int) bool {
	return s.sustain&(1<<m) != 0
}

// Stack returns a snapshot of the notes held on a MIDI channel (0-15), oldest first
func (s *State) Stack(m int) []NoteData {
	return s.stacks[m].Notes()
}

// NoteCount returns how many notes are held on a MIDI channel (0-15)
func (s *State) NoteCount(m int) int {
	return s.stacks[m].Len()
}

// GetNoteLast returns the most recent note on a MIDI channel (0-15)
func (s *State) GetNoteLast(m int) (uint8, bool) {
	if s.stacks[m].Len() == 0 {
		return 0, false
	}
	return s.stacks[m].Last(), true
}

// GetNoteFirst returns the longest-held note on a MIDI channel (0-15)
func (s *State) GetNoteFirst(m int) (uint8, bool) {
	if s.stacks[m].Len() == 0 {
		return 0, false
	}
	return s.stacks[m].First(), true
}

// GetNoteMin returns the lowest held note on a MIDI channel (0-15)
func (s *State) GetNoteMin(m int) (uint8, bool) {
	if s.stacks[m].Len() == 0 {
		return 0, false
	}
	return s.stacks[m].Min(), true
}

// GetNoteMax returns the highest held note on a MIDI channel (0-15)
func (s *State) GetNoteMax(m int) (uint8, bool) {
	if s.stacks[m].Len() == 0 {
		return 0, false
	}
	return s.stacks[m].Max(), true
}
