package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-hemisphere/signal"
)

// noteGateState maps lane 0 to pitch and lane 1 to gate on MIDI channel 1
func noteGateState() *State {
	s := NewState()
	s.Map[0] = Mapping{Channel: 0, Function: FnNote, CC: -1}
	s.Map[1] = Mapping{Channel: 0, Function: FnGate, CC: -1}
	s.Map[2] = Mapping{Channel: 0, Function: FnNone, CC: -1}
	s.Map[3] = Mapping{Channel: 0, Function: FnNone, CC: -1}
	return s
}

func TestNoteOnSetsPitchAndGate(t *testing.T) {
	s := noteGateState()
	s.ProcessMIDIMsg(1, NoteOn, 72, 100)

	assert.Equal(t, 12*signal.Semitone, s.Outputs[0])
	assert.Equal(t, gateOn, s.Outputs[1])
	assert.Equal(t, uint16(1), s.SemitoneMask[0])

	s.ProcessMIDIMsg(1, NoteOff, 72, 0)
	assert.Equal(t, 0, s.Outputs[1])
	// pitch holds after release
	assert.Equal(t, 12*signal.Semitone, s.Outputs[0])
	assert.Equal(t, uint16(0), s.SemitoneMask[0])
}

func TestOtherChannelIgnored(t *testing.T) {
	s := noteGateState()
	s.ProcessMIDIMsg(2, NoteOn, 72, 100)
	assert.Equal(t, 0, s.Outputs[1])
	assert.Equal(t, 1, s.NoteCount(1))
	assert.Equal(t, 0, s.Log.Len())
}

func TestLastNotePriority(t *testing.T) {
	s := noteGateState()
	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	s.ProcessMIDIMsg(1, NoteOn, 67, 100)
	assert.Equal(t, NoteCV(67), s.Outputs[0])

	// releasing the latest falls back to the previous note
	s.ProcessMIDIMsg(1, NoteOff, 67, 0)
	assert.Equal(t, NoteCV(60), s.Outputs[0])
	assert.Equal(t, gateOn, s.Outputs[1])
}

func TestSustainHoldsGate(t *testing.T) {
	s := noteGateState()
	s.ProcessMIDIMsg(1, ControlChange, CCSustain, 127)
	assert.True(t, s.CheckSustainLatch(0))

	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	s.ProcessMIDIMsg(1, NoteOff, 60, 0)
	assert.Equal(t, gateOn, s.Outputs[1])

	s.ProcessMIDIMsg(1, ControlChange, CCSustain, 0)
	assert.False(t, s.CheckSustainLatch(0))
	assert.Equal(t, 0, s.Outputs[1])
}

func TestSustainReleaseWithNotesHeld(t *testing.T) {
	s := noteGateState()
	s.ProcessMIDIMsg(1, ControlChange, CCSustain, 127)
	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	s.ProcessMIDIMsg(1, ControlChange, CCSustain, 0)
	assert.Equal(t, gateOn, s.Outputs[1])
}

func TestSustainFreezesPitchWithNotesHeld(t *testing.T) {
	s := noteGateState()
	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	s.ProcessMIDIMsg(1, NoteOn, 67, 100)
	s.ProcessMIDIMsg(1, ControlChange, CCSustain, 127)

	// 60 is still held, but the pedal keeps the released note sounding
	s.ProcessMIDIMsg(1, NoteOff, 67, 0)
	assert.Equal(t, NoteCV(67), s.Outputs[0])
	assert.Equal(t, gateOn, s.Outputs[1])

	s.ProcessMIDIMsg(1, ControlChange, CCSustain, 0)
	assert.Equal(t, gateOn, s.Outputs[1])
	assert.Equal(t, 1, s.NoteCount(0))
}

func TestStopIsPanicReset(t *testing.T) {
	s := noteGateState()
	s.ProcessMIDIMsg(1, ControlChange, CCSustain, 127)
	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	s.ProcessMIDIMsg(3, NoteOn, 50, 100)

	s.ProcessMIDIMsg(0, Stop, 0, 0)
	assert.True(t, s.TakeStop())
	assert.False(t, s.Running())
	assert.Equal(t, 0, s.NoteCount(0))
	assert.Equal(t, 0, s.NoteCount(2))
	assert.False(t, s.CheckSustainLatch(0))
	assert.Equal(t, uint16(0), s.SemitoneMask[0])

	// the late note-off still closes the gate
	s.ProcessMIDIMsg(1, NoteOff, 60, 0)
	assert.Equal(t, 0, s.Outputs[1])
	assert.Equal(t, 0, s.NoteCount(0))
}

func TestSystemResetClearsLikeStop(t *testing.T) {
	s := noteGateState()
	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	s.ProcessMIDIMsg(0, SystemReset, 0, 0)
	assert.True(t, s.TakeStop())
	assert.Equal(t, 0, s.NoteCount(0))
}

func TestClockDivisor(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 6, 12, 24} {
		s := NewState()
		s.ClockDivisor = n
		pulses := 0
		for i := 0; i < 24; i++ {
			s.ProcessMIDIMsg(0, Clock, 0, 0)
			if s.TakeClock() {
				pulses++
			}
		}
		assert.Equal(t, 24/n, pulses, "divisor %d", n)
	}
}

func TestStartResetsClockPhase(t *testing.T) {
	s := NewState()
	s.Map[2] = Mapping{Function: FnClock}
	s.Map[3] = Mapping{Function: FnStart}

	for i := 0; i < 5; i++ {
		s.ProcessMIDIMsg(0, Clock, 0, 0)
	}
	assert.False(t, s.TakeClock())

	s.ProcessMIDIMsg(0, Continue, 0, 0)
	assert.True(t, s.TakeStart())
	assert.True(t, s.Running())
	assert.True(t, s.TakeTrigger(3))
	assert.False(t, s.TakeTrigger(3))

	for i := 0; i < DefaultClockDivisor-1; i++ {
		s.ProcessMIDIMsg(0, Clock, 0, 0)
	}
	assert.False(t, s.TakeTrigger(2))
	s.ProcessMIDIMsg(0, Clock, 0, 0)
	assert.True(t, s.TakeTrigger(2))
}

func TestTriggerFunctions(t *testing.T) {
	s := NewState()
	s.Map[0] = Mapping{Function: FnTrig}
	s.Map[1] = Mapping{Function: FnTrigFirst}
	s.Map[2] = Mapping{Function: FnTrigAlways}

	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	assert.True(t, s.TakeTrigger(0))
	assert.True(t, s.TakeTrigger(1))
	assert.True(t, s.TakeTrigger(2))

	s.ProcessMIDIMsg(1, NoteOn, 62, 100)
	assert.True(t, s.TakeTrigger(0))
	assert.False(t, s.TakeTrigger(1), "legato note does not retrigger")
	assert.True(t, s.TakeTrigger(2))

	s.ProcessMIDIMsg(1, NoteOff, 62, 0)
	assert.False(t, s.TakeTrigger(0))
	assert.True(t, s.TakeTrigger(2))
}

func TestCCLearn(t *testing.T) {
	s := NewState()
	s.Map[2] = Mapping{Function: FnCC, CC: -1}

	s.ProcessMIDIMsg(1, ControlChange, 7, 127)
	assert.Equal(t, 7, s.Map[2].CC)
	assert.Equal(t, signal.MaxCV, s.Outputs[2])

	s.ProcessMIDIMsg(1, ControlChange, 10, 0)
	assert.Equal(t, signal.MaxCV, s.Outputs[2])

	s.ProcessMIDIMsg(1, ControlChange, 7, 0)
	assert.Equal(t, 0, s.Outputs[2])
}

func TestPitchBend(t *testing.T) {
	s := NewState()
	s.Map[0] = Mapping{Function: FnPitchBend}

	s.ProcessMIDIMsg(1, PitchBend, 0, 0x40)
	assert.Equal(t, 0, s.Outputs[0])

	s.ProcessMIDIMsg(1, PitchBend, 0x7F, 0x7F)
	assert.Equal(t, 4607, s.Outputs[0])

	s.ProcessMIDIMsg(1, PitchBend, 0, 0)
	assert.Equal(t, -signal.ThreeVoltCV, s.Outputs[0])
}

func TestAfterTouch(t *testing.T) {
	s := NewState()
	s.Map[0] = Mapping{Function: FnAfterTouch}
	s.Map[1] = Mapping{Function: FnAfterTouchKey1}

	s.ProcessMIDIMsg(1, AfterTouchChannel, 127, 0)
	assert.Equal(t, signal.MaxCV, s.Outputs[0])

	// poly pressure with no notes held parks the output
	s.ProcessMIDIMsg(1, AfterTouchPoly, 60, 127)
	assert.Equal(t, 0, s.Outputs[1])

	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	s.ProcessMIDIMsg(1, AfterTouchPoly, 60, 127)
	assert.Equal(t, signal.MaxCV, s.Outputs[1])

	// pressure on another key is ignored
	s.ProcessMIDIMsg(1, AfterTouchPoly, 61, 0)
	assert.Equal(t, signal.MaxCV, s.Outputs[1])
}

func TestPolyNoteSelection(t *testing.T) {
	s := NewState()
	s.Map[0] = Mapping{Function: FnNote}
	s.Map[1] = Mapping{Function: FnNotePoly2}
	s.Map[2] = Mapping{Function: FnNoteMin}
	s.Map[3] = Mapping{Function: FnNotePedal}

	s.ProcessMIDIMsg(1, NoteOn, 64, 100)
	assert.Equal(t, NoteCV(64), s.Outputs[1], "single note falls back to latest")

	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	s.ProcessMIDIMsg(1, NoteOn, 67, 100)
	assert.Equal(t, NoteCV(67), s.Outputs[0])
	assert.Equal(t, NoteCV(60), s.Outputs[1])
	assert.Equal(t, NoteCV(60), s.Outputs[2])
	assert.Equal(t, NoteCV(64), s.Outputs[3])
}

func TestVelocityVoices(t *testing.T) {
	s := NewState()
	s.Map[0] = Mapping{Function: FnVel}
	s.Map[1] = Mapping{Function: FnVel2}

	s.ProcessMIDIMsg(1, NoteOn, 60, 127)
	assert.Equal(t, signal.MaxCV, s.Outputs[0])
	assert.Equal(t, 0, s.Outputs[1])

	s.ProcessMIDIMsg(1, NoteOn, 62, 0x40)
	assert.Equal(t, signal.MaxCV, s.Outputs[1])
	assert.Less(t, s.Outputs[0], signal.MaxCV)
}

func TestGateInverted(t *testing.T) {
	s := NewState()
	s.Map[0] = Mapping{Function: FnGateInv}
	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	assert.Equal(t, 0, s.Outputs[0])
	s.ProcessMIDIMsg(1, NoteOff, 60, 0)
	assert.Equal(t, gateOn, s.Outputs[0])
}

func TestNoteQueries(t *testing.T) {
	s := NewState()
	_, ok := s.GetNoteLast(0)
	assert.False(t, ok)

	s.ProcessMIDIMsg(1, NoteOn, 64, 100)
	s.ProcessMIDIMsg(1, NoteOn, 55, 100)
	s.ProcessMIDIMsg(1, NoteOn, 70, 100)

	n, ok := s.GetNoteLast(0)
	require.True(t, ok)
	assert.Equal(t, uint8(70), n)
	n, _ = s.GetNoteFirst(0)
	assert.Equal(t, uint8(64), n)
	n, _ = s.GetNoteMin(0)
	assert.Equal(t, uint8(55), n)
	n, _ = s.GetNoteMax(0)
	assert.Equal(t, uint8(70), n)
}

func TestActivityLoggedOncePerMessage(t *testing.T) {
	s := NewState() // all four lanes on channel 1
	s.SetTick(42)
	s.ProcessMIDIMsg(1, NoteOn, 60, 100)
	assert.Equal(t, 1, s.Log.Len())
	assert.Equal(t, uint32(42), s.LastMsgTick)
	assert.Equal(t, 0, s.LastChannel)
}

func TestActivityLogRing(t *testing.T) {
	var l ActivityLog
	for i := 0; i < LogSize+2; i++ {
		l.Add(LogEntry{Status: NoteOn, Data1: uint8(i)})
	}
	entries := l.Entries()
	require.Len(t, entries, LogSize)
	for i, e := range entries {
		assert.Equal(t, uint8(i+2), e.Data1)
	}
}
