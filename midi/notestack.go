package midi

// NoteData is one held note
type NoteData struct {
	Note     uint8
	Velocity uint8
}

// NoteStack holds the notes currently down on one MIDI channel, oldest first.
// A note number appears at most once; pushing it again promotes it to latest.
type NoteStack struct {
	notes []NoteData
}

// Push adds a note as the most recent, removing any earlier copy
func (s *NoteStack) Push(note, velocity uint8) {
	s.remove(note)
	s.notes = append(s.notes, NoteData{Note: note, Velocity: velocity})
}

// Pop removes a note by value. Missing notes are ignored.
func (s *NoteStack) Pop(note uint8) {
	s.remove(note)
	if len(s.notes) == 0 {
		s.notes = nil
	}
}

func (s *NoteStack) remove(note uint8) {
	out := s.notes[:0]
	for _, n := range s.notes {
		if n.Note != note {
			out = append(out, n)
		}
	}
	s.notes = out
}

// Clear drops every note
func (s *NoteStack) Clear() {
	s.notes = nil
}

// Len returns the number of held notes
func (s *NoteStack) Len() int {
	return len(s.notes)
}

// Notes returns a copy of the stack, oldest first
func (s *NoteStack) Notes() []NoteData {
	out := make([]NoteData, len(s.notes))
	copy(out, s.notes)
	return out
}

// Nth returns the n-th most recent note (1 = latest). Callers check Len first.
func (s *NoteStack) Nth(n int) uint8 {
	return s.notes[len(s.notes)-n].Note
}

// Vel returns the velocity of the n-th most recent note (1 = latest)
func (s *NoteStack) Vel(n int) uint8 {
	return s.notes[len(s.notes)-n].Velocity
}

// Last returns the most recently pushed note
func (s *NoteStack) Last() uint8 {
	return s.notes[len(s.notes)-1].Note
}

// First returns the note held the longest
func (s *NoteStack) First() uint8 {
	return s.notes[0].Note
}

// Min returns the lowest held note (127 when empty)
func (s *NoteStack) Min() uint8 {
	m := uint8(127)
	for _, n := range s.notes {
		if n.Note < m {
			m = n.Note
		}
	}
	return m
}

// Max returns the highest held note (0 when empty)
func (s *NoteStack) Max() uint8 {
	m := uint8(0)
	for _, n := range s.notes {
		if n.Note > m {
			m = n.Note
		}
	}
	return m
}

// Contains reports whether a note is held
func (s *NoteStack) Contains(note uint8) bool {
	for _, n := range s.notes {
		if n.Note == note {
			return true
		}
	}
	return false
}
