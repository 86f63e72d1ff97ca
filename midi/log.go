package midi

import "fmt"

// LogSize is the number of entries kept for the activity display
const LogSize = 7

// LogEntry is one logged message
type LogEntry struct {
	Status uint8
	Data1  uint8
	Data2  uint8
}

// ActivityLog is a fixed ring of the most recent messages
type ActivityLog struct {
	entries [LogSize]LogEntry
	start   int
	count   int
}

// Add appends an entry, evicting the oldest when full
func (l *ActivityLog) Add(e LogEntry) {
	if l.count < LogSize {
		l.entries[(l.start+l.count)%LogSize] = e
		l.count++
		return
	}
	l.entries[l.start] = e
	l.start = (l.start + 1) % LogSize
}

// Entries returns the log oldest to newest
func (l *ActivityLog) Entries() []LogEntry {
	out := make([]LogEntry, 0, l.count)
	for i := 0; i < l.count; i++ {
		out = append(out, l.entries[(l.start+i)%LogSize])
	}
	return out
}

// Len returns the number of entries
func (l *ActivityLog) Len() int {
	return l.count
}

var statusNames = map[uint8]string{
	NoteOff:           "Off",
	NoteOn:            "On",
	AfterTouchPoly:    "PolyAT",
	ControlChange:     "CC",
	ProgramChange:     "PC",
	AfterTouchChannel: "AT",
	PitchBend:         "Bend",
	Clock:             "Clock",
	Start:             "Start",
	Continue:          "Cont",
	Stop:              "Stop",
	SystemReset:       "Reset",
}

// StatusName returns a short display name for a status byte
func StatusName(status uint8) string {
	if n, ok := statusNames[status]; ok {
		return n
	}
	return fmt.Sprintf("%#02x", status)
}

func (e LogEntry) String() string {
	return fmt.Sprintf("%-6s %3d %3d", StatusName(e.Status), e.Data1, e.Data2)
}
