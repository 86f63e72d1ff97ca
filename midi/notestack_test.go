package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func notesOf(s *NoteStack) []uint8 {
	var out []uint8
	for _, n := range s.Notes() {
		out = append(out, n.Note)
	}
	return out
}

func TestNoteStackPushPromotesDuplicate(t *testing.T) {
	var s NoteStack
	s.Push(60, 100)
	s.Push(64, 90)
	s.Push(67, 80)
	s.Push(60, 127)

	assert.Equal(t, []uint8{64, 67, 60}, notesOf(&s))
	assert.Equal(t, uint8(60), s.Last())
	assert.Equal(t, uint8(127), s.Vel(1))
	assert.Equal(t, uint8(64), s.First())
	assert.Equal(t, uint8(67), s.Nth(2))
}

func TestNoteStackPopMissingIsNoop(t *testing.T) {
	var s NoteStack
	s.Pop(60)
	assert.Equal(t, 0, s.Len())

	s.Push(60, 100)
	s.Push(62, 100)
	s.Pop(70)
	assert.Equal(t, 2, s.Len())

	s.Pop(60)
	assert.Equal(t, []uint8{62}, notesOf(&s))
	assert.False(t, s.Contains(60))
}

func TestNoteStackMinMax(t *testing.T) {
	var s NoteStack
	assert.Equal(t, uint8(127), s.Min())
	assert.Equal(t, uint8(0), s.Max())

	s.Push(64, 1)
	s.Push(48, 1)
	s.Push(72, 1)
	assert.Equal(t, uint8(48), s.Min())
	assert.Equal(t, uint8(72), s.Max())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestNotesReturnsCopy(t *testing.T) {
	var s NoteStack
	s.Push(60, 100)
	notes := s.Notes()
	notes[0].Note = 1
	assert.Equal(t, uint8(60), s.Last())
}
