package midi

import "go-hemisphere/signal"

// NoteCV converts a MIDI note number into a pitch code, C4 (60) = 0V
func NoteCV(note int) int {
	return (note - 60) * signal.Semitone
}

// CVNote converts a pitch code into the nearest MIDI note number
func CVNote(cv int) uint8 {
	n := 60
	if cv >= 0 {
		n += (cv + signal.Semitone/2) / signal.Semitone
	} else {
		n -= (-cv + signal.Semitone/2) / signal.Semitone
	}
	return uint8(clamp(n, 0, 127))
}

// Proportion scales numerator/denominator onto 0..max in 18.14 fixed point
func Proportion(numerator, denominator, max int) int {
	if denominator == 0 {
		return 0
	}
	p := (int64(numerator) << 14) / int64(denominator)
	return int((p * int64(max)) >> 14)
}

// ProportionCV maps a pitch code in 0..MaxCV onto 0..max
func ProportionCV(cv, max int) int {
	return clamp(Proportion(cv, signal.MaxCV, max), 0, max)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
