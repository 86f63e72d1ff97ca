package midi

// Function selects what an output channel does with MIDI
type Function int

const (
	FnNone Function = iota
	FnNote
	FnTrig
	FnGate
	FnVel
	FnCC
	FnAfterTouch
	FnPitchBend
	FnClock
	FnStart
	FnTrigFirst
	FnTrigAlways
	FnNotePoly2
	FnNotePoly3
	FnNotePoly4
	FnVel2
	FnVel3
	FnVel4
	FnNoteMin
	FnNoteMax
	FnNotePedal
	FnNoteInv
	FnGateInv
	FnAfterTouchKey1
	FnAfterTouchKey2
	FnAfterTouchKey3
	FnAfterTouchKey4

	NumFunctions
)

var functionNames = [NumFunctions]string{
	"Off", "Note", "Trig", "Gate", "Veloc", "CC#", "Aft", "Bend", "Clock", "Start",
	"Trig1st", "TrigAll", "Poly2", "Poly3", "Poly4", "Vel2", "Vel3", "Vel4",
	"NoteMin", "NoteMax", "Pedal", "Inv", "Gate-", "AtKey1", "AtKey2", "AtKey3", "AtKey4",
}

func (f Function) String() string {
	if f < 0 || f >= NumFunctions {
		return "?"
	}
	return functionNames[f]
}

// IsNote reports whether the function outputs a pitch derived from the note stack
func (f Function) IsNote() bool {
	switch f {
	case FnNote, FnNotePoly2, FnNotePoly3, FnNotePoly4, FnNoteMin, FnNoteMax, FnNotePedal, FnNoteInv:
		return true
	}
	return false
}

// IsTrigger reports whether the function fires a trigger pulse instead of setting a level
func (f Function) IsTrigger() bool {
	switch f {
	case FnTrig, FnTrigFirst, FnTrigAlways, FnClock, FnStart:
		return true
	}
	return false
}

// AfterTouchKey returns n (1-4) for the poly aftertouch functions, 0 otherwise
func (f Function) AfterTouchKey() int {
	if f >= FnAfterTouchKey1 && f <= FnAfterTouchKey4 {
		return int(f-FnAfterTouchKey1) + 1
	}
	return 0
}

// velocityVoice returns n (1-4) for the velocity functions, 0 otherwise
func (f Function) velocityVoice() int {
	switch f {
	case FnVel:
		return 1
	case FnVel2:
		return 2
	case FnVel3:
		return 3
	case FnVel4:
		return 4
	}
	return 0
}

// Mapping is the static MIDI configuration of one output channel
type Mapping struct {
	Channel  int      // MIDI channel, 0-15
	Function Function // note selection policy
	CC       int      // controller for FnCC; -1 learns from the first CC seen
}
