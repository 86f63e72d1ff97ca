package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI status bytes (channel nibble stripped)
const (
	NoteOff           uint8 = 0x80
	NoteOn            uint8 = 0x90
	AfterTouchPoly    uint8 = 0xA0
	ControlChange     uint8 = 0xB0
	ProgramChange     uint8 = 0xC0
	AfterTouchChannel uint8 = 0xD0
	PitchBend         uint8 = 0xE0

	Clock       uint8 = 0xF8
	Start       uint8 = 0xFA
	Continue    uint8 = 0xFB
	Stop        uint8 = 0xFC
	SystemReset uint8 = 0xFF
)

// CCSustain is the sustain pedal controller number
const CCSustain = 64

// Message is one logical MIDI message, independent of the transport it came from.
// Channel is 1-16 for channel voice messages and 0 for realtime messages.
type Message struct {
	Channel uint8
	Status  uint8
	Data1   uint8
	Data2   uint8
}

// IsRealtime reports whether the message is a system realtime message
func (m Message) IsRealtime() bool {
	return m.Status >= 0xF8
}

// Decode converts a wire message into a Message. Unsupported messages
// (sysex, song position, ...) return false.
func Decode(msg gomidi.Message) (Message, bool) {
	if len(msg) == 0 {
		return Message{}, false
	}

	var ch, d1, d2 uint8
	switch {
	case msg.GetNoteStart(&ch, &d1, &d2):
		return Message{Channel: ch + 1, Status: NoteOn, Data1: d1, Data2: d2}, true
	case msg.GetNoteEnd(&ch, &d1):
		// NoteOn with velocity 0 is a note off
		return Message{Channel: ch + 1, Status: NoteOff, Data1: d1}, true
	case msg.GetControlChange(&ch, &d1, &d2):
		return Message{Channel: ch + 1, Status: ControlChange, Data1: d1, Data2: d2}, true
	case msg.GetPolyAfterTouch(&ch, &d1, &d2):
		return Message{Channel: ch + 1, Status: AfterTouchPoly, Data1: d1, Data2: d2}, true
	case msg.GetAfterTouch(&ch, &d1):
		return Message{Channel: ch + 1, Status: AfterTouchChannel, Data1: d1}, true
	case msg.GetProgramChange(&ch, &d1):
		return Message{Channel: ch + 1, Status: ProgramChange, Data1: d1}, true
	}

	var rel int16
	var abs uint16
	if msg.GetPitchBend(&ch, &rel, &abs) {
		return Message{Channel: ch + 1, Status: PitchBend, Data1: uint8(abs & 0x7F), Data2: uint8(abs >> 7)}, true
	}

	switch msg[0] {
	case Clock, Start, Continue, Stop, SystemReset:
		return Message{Status: msg[0]}, true
	}
	return Message{}, false
}

// Encode converts a Message into its wire form
func (m Message) Encode() gomidi.Message {
	ch := (m.Channel - 1) & 0x0F
	switch m.Status {
	case NoteOn:
		return gomidi.NoteOn(ch, m.Data1, m.Data2)
	case NoteOff:
		return gomidi.NoteOffVelocity(ch, m.Data1, m.Data2)
	case ControlChange:
		return gomidi.ControlChange(ch, m.Data1, m.Data2)
	case AfterTouchPoly:
		return gomidi.PolyAfterTouch(ch, m.Data1, m.Data2)
	case AfterTouchChannel:
		return gomidi.AfterTouch(ch, m.Data1)
	case ProgramChange:
		return gomidi.ProgramChange(ch, m.Data1)
	case PitchBend:
		return gomidi.Pitchbend(ch, int16(int(m.Data2)<<7|int(m.Data1))-8192)
	case Clock:
		return gomidi.TimingClock()
	case Start:
		return gomidi.Start()
	case Continue:
		return gomidi.Continue()
	case Stop:
		return gomidi.Stop()
	case SystemReset:
		return gomidi.Reset()
	}
	return nil
}
