package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-hemisphere/signal"
)

// recorder captures outbound messages in send order
type recorder struct {
	msgs []Message
}

func (r *recorder) Send(msg gomidi.Message) error {
	m, ok := Decode(msg)
	if ok {
		r.msgs = append(r.msgs, m)
	}
	return nil
}

func (r *recorder) take() []Message {
	out := r.msgs
	r.msgs = nil
	return out
}

func outState() (*State, *recorder) {
	s := NewState()
	rec := &recorder{}
	s.SetSender(rec)
	s.SetOutputMapping(2, Mapping{Function: FnNone})
	s.SetOutputMapping(3, Mapping{Function: FnNone})
	return s, rec
}

const gateHi = 2 * signal.Octave

func TestOutboundGateRetrigger(t *testing.T) {
	s, rec := outState()

	s.Send([NumOutputs]int{signal.Octave, gateHi, 0, 0})
	assert.Equal(t, []Message{{Channel: 1, Status: NoteOn, Data1: 72, Data2: defaultVelocity}}, rec.take())

	// pitch moves while gate held: old note ends, new one waits for the gate
	s.Send([NumOutputs]int{signal.Octave + signal.Semitone, gateHi, 0, 0})
	assert.Equal(t, []Message{{Channel: 1, Status: NoteOff, Data1: 72}}, rec.take())

	s.Send([NumOutputs]int{signal.Octave + signal.Semitone, 0, 0, 0})
	assert.Empty(t, rec.take(), "note already released")

	s.Send([NumOutputs]int{signal.Octave + signal.Semitone, gateHi, 0, 0})
	assert.Equal(t, []Message{{Channel: 1, Status: NoteOn, Data1: 73, Data2: defaultVelocity}}, rec.take())

	s.Send([NumOutputs]int{signal.Octave + signal.Semitone, 0, 0, 0})
	assert.Equal(t, []Message{{Channel: 1, Status: NoteOff, Data1: 73}}, rec.take())
}

func TestOutboundNoteOffBeforeNoteOn(t *testing.T) {
	s, rec := outState()
	s.SetOutputMapping(1, Mapping{Function: FnNone})

	s.Send([NumOutputs]int{0, 0, 0, 0})
	s.Send([NumOutputs]int{signal.Octave, 0, 0, 0})
	s.Send([NumOutputs]int{2 * signal.Octave, 0, 0, 0})

	msgs := rec.take()
	require.Len(t, msgs, 3)
	assert.Equal(t, NoteOn, msgs[0].Status)
	assert.Equal(t, uint8(72), msgs[0].Data1)
	assert.Equal(t, NoteOff, msgs[1].Status)
	assert.Equal(t, uint8(72), msgs[1].Data1)
	assert.Equal(t, NoteOn, msgs[2].Status)
	assert.Equal(t, uint8(84), msgs[2].Data1)
}

func TestOutboundNoteLaneTimesOut(t *testing.T) {
	s, rec := outState()
	s.SetOutputMapping(1, Mapping{Function: FnNone})

	s.Send([NumOutputs]int{signal.Octave, 0, 0, 0})
	require.Len(t, rec.take(), 1)

	pulse := TicksPerMs * DefaultTrigLength
	for i := 1; i < pulse; i++ {
		s.TickNoteOffs()
	}
	assert.Empty(t, rec.take())

	s.TickNoteOffs()
	assert.Equal(t, []Message{{Channel: 1, Status: NoteOff, Data1: 72}}, rec.take())

	// exactly one note-off per note-on
	for i := 0; i < pulse*2; i++ {
		s.TickNoteOffs()
	}
	assert.Empty(t, rec.take())
}

func TestOutboundTrigLength(t *testing.T) {
	s, rec := outState()
	s.SetOutputMapping(1, Mapping{Function: FnNone})
	s.SetTrigLength(5)

	s.Send([NumOutputs]int{signal.Octave, 0, 0, 0})
	rec.take()
	for i := 1; i < 5*TicksPerMs; i++ {
		s.TickNoteOffs()
	}
	assert.Empty(t, rec.take())
	s.TickNoteOffs()
	assert.Len(t, rec.take(), 1)
}

func TestOutboundSmallChangeIgnored(t *testing.T) {
	s, rec := outState()
	s.SetOutputMapping(1, Mapping{Function: FnNone})

	s.Send([NumOutputs]int{signal.Octave, 0, 0, 0})
	rec.take()
	s.Send([NumOutputs]int{signal.Octave + signal.ChangeThreshold, 0, 0, 0})
	assert.Empty(t, rec.take())
}

func TestOutboundCCOnlyOnChange(t *testing.T) {
	s, rec := outState()
	s.SetOutputMapping(0, Mapping{Channel: 2, Function: FnCC, CC: 74})
	s.SetOutputMapping(1, Mapping{Function: FnNone})

	s.Send([NumOutputs]int{signal.MaxCV, 0, 0, 0})
	assert.Equal(t, []Message{{Channel: 3, Status: ControlChange, Data1: 74, Data2: 127}}, rec.take())

	s.Send([NumOutputs]int{signal.MaxCV, 0, 0, 0})
	assert.Empty(t, rec.take())

	s.Send([NumOutputs]int{0, 0, 0, 0})
	assert.Equal(t, []Message{{Channel: 3, Status: ControlChange, Data1: 74, Data2: 0}}, rec.take())
}

func TestOutboundCCNumberClamped(t *testing.T) {
	s, rec := outState()
	s.SetOutputMapping(0, Mapping{Function: FnCC, CC: -1})
	s.SetOutputMapping(1, Mapping{Function: FnNone})
	assert.Equal(t, 0, s.OutputMapping(0).CC)

	s.Send([NumOutputs]int{signal.MaxCV, 0, 0, 0})
	assert.Equal(t, []Message{{Channel: 1, Status: ControlChange, Data1: 0, Data2: 127}}, rec.take())

	s.SetOutputMapping(0, Mapping{Function: FnCC, CC: 300})
	assert.Equal(t, 127, s.OutputMapping(0).CC)
}

func TestSendRealtime(t *testing.T) {
	s, rec := outState()
	s.SendRealtime(Clock)
	s.SendRealtime(Start)
	assert.Equal(t, []Message{{Status: Clock}, {Status: Start}}, rec.take())
}

func TestSendWithoutSender(t *testing.T) {
	s := NewState()
	assert.NotPanics(t, func() {
		s.Send([NumOutputs]int{signal.Octave, gateHi, 0, 0})
		s.TickNoteOffs()
	})
}
