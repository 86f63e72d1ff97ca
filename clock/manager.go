// Package clock is the master tempo engine: transport state, tempo, shuffle,
// per-channel multiply/divide and external sync reconciliation.
package clock

import (
	"go-hemisphere/debug"
	"go-hemisphere/tick"
)

const (
	NumChannels = 4

	MinTempo     = 10
	MaxTempo     = 255
	DefaultTempo = 120

	MaxShuffle = 99

	MinMultiply = -31
	MaxMultiply = 31

	// MIDIPPQN is the resolution of outgoing MIDI clock
	MIDIPPQN = 24
)

// ppqnTable maps the 4-bit external sync setting to pulses per quarter note
var ppqnTable = [16]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 16, 20, 24}

// NumPPQN is the number of external sync settings
const NumPPQN = len(ppqnTable)

// State is the transport state
type State int

const (
	Stopped State = iota
	Paused
	Running
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Running:
		return "running"
	}
	return "stopped"
}

// Manager derives per-channel clock tocks from the internal tempo or an
// external sync source. Call Tick exactly once per tick.
type Manager struct {
	state   State
	tempo   int
	shuffle int
	ppqn    int // index into ppqnTable
	mult    [NumChannels]int

	beatLen   int // ticks per beat
	beatTick  int // ticks into the current beat
	beatCount int
	newBeat   bool

	next     [NumChannels]int // next subdivision index within the beat
	midiNext int

	tock     [NumChannels]bool
	boop     [NumChannels]bool
	midiTock bool
	midiOut  bool

	// external sync
	sinceSync int
	syncCount int
	synced    bool
}

// NewManager returns a stopped clock at the default tempo with every channel at x1
func NewManager() *Manager {
	m := &Manager{midiOut: true, ppqn: 4}
	m.SetTempoBPM(DefaultTempo)
	for ch := range m.mult {
		m.mult[ch] = 1
	}
	return m
}

// Start begins running, or waits for an external pulse when paused is true.
// Starting resets the beat phase.
func (m *Manager) Start(paused bool) {
	if paused {
		m.state = Paused
	} else {
		m.state = Running
	}
	m.reset()
	debug.Log("clock", "start %s at %d bpm", m.state, m.tempo)
}

// SyncStart counts the current tick as the first, beat-aligned sync pulse.
// Used when a transport Start marks the downbeat and the first divided
// clock pulse only arrives a division later.
func (m *Manager) SyncStart() {
	m.syncCount = 1
	m.sinceSync = -1
}

// Stop halts the clock
func (m *Manager) Stop() {
	m.state = Stopped
	m.reset()
	debug.Log("clock", "stop")
}

// Pause holds the clock until the next external sync pulse
func (m *Manager) Pause() {
	m.state = Paused
}

// PlayStop cycles stop -> pause -> start; any press while running stops
func (m *Manager) PlayStop() {
	if m.IsRunning() {
		m.Stop()
		return
	}
	m.Start(!m.IsPaused())
}

func (m *Manager) IsRunning() bool { return m.state == Running }
func (m *Manager) IsPaused() bool  { return m.state == Paused }
func (m *Manager) IsStopped() bool { return m.state == Stopped }

// State returns the transport state
func (m *Manager) State() State {
	return m.state
}

func (m *Manager) reset() {
	m.beatTick = 0
	m.beatCount = 0
	m.newBeat = true
	m.midiNext = 0
	m.midiTock = false
	m.sinceSync = 0
	m.syncCount = 0
	m.synced = false
	for ch := range m.next {
		m.next[ch] = 0
		m.tock[ch] = false
	}
}

// SetTempoBPM sets the internal tempo, clamped to MinTempo..MaxTempo
func (m *Manager) SetTempoBPM(bpm int) {
	m.tempo = clamp(bpm, MinTempo, MaxTempo)
	m.beatLen = tick.PerMinute / m.tempo
}

// Tempo returns the tempo in BPM
func (m *Manager) Tempo() int {
	return m.tempo
}

// BeatLength returns the ticks per quarter note at the current tempo
func (m *Manager) BeatLength() int {
	return m.beatLen
}

// SetShuffle sets the swing amount, 0-99 percent
func (m *Manager) SetShuffle(pct int) {
	m.shuffle = clamp(pct, 0, MaxShuffle)
}

func (m *Manager) Shuffle() int {
	return m.shuffle
}

// SetClockPPQN selects the external sync resolution by table index (0-15)
func (m *Manager) SetClockPPQN(idx int) {
	m.ppqn = clamp(idx, 0, NumPPQN-1)
}

// ClockPPQN returns the table index of the external sync resolution
func (m *Manager) ClockPPQN() int {
	return m.ppqn
}

// PPQN returns the external sync resolution in pulses per quarter note.
// Zero means pulses only start a paused clock.
func (m *Manager) PPQN() int {
	return ppqnTable[m.ppqn]
}

// SetMultiply sets a channel's rate: n > 0 multiplies by n, n < 0 divides
// by 1-n, and 0 turns the channel off.
func (m *Manager) SetMultiply(n, ch int) {
	m.mult[ch] = clamp(n, MinMultiply, MaxMultiply)
}

func (m *Manager) Multiply(ch int) int {
	return m.mult[ch]
}

// Boop fires a single manual tock on a channel, running or not
func (m *Manager) Boop(ch int) {
	m.boop[ch] = true
}

// Beep consumes a pending boop
func (m *Manager) Beep(ch int) bool {
	b := m.boop[ch]
	m.boop[ch] = false
	return b
}

// Tock reports whether a channel's clock fired on this tick
func (m *Manager) Tock(ch int) bool {
	return m.tock[ch]
}

// MIDITock reports whether a 24 PPQN MIDI clock is due on this tick
func (m *Manager) MIDITock() bool {
	return m.midiTock && m.midiOut
}

// EnableMIDIOut resumes sending MIDI clock
func (m *Manager) EnableMIDIOut() {
	m.midiOut = true
}

// DisableMIDIOut stops sending MIDI clock, so clock received from a sequencer
// is not echoed back to it
func (m *Manager) DisableMIDIOut() {
	m.midiOut = false
}

func (m *Manager) MIDIOutEnabled() bool {
	return m.midiOut
}

// Synced reports whether external pulses are driving the tempo
func (m *Manager) Synced() bool {
	return m.synced
}

// Beat returns the beat count since start and the ticks into the current beat
func (m *Manager) Beat() (count, ticks int) {
	return m.beatCount, m.beatTick
}

// Tick advances the clock by one tick. sync is true on the tick an external
// clock pulse arrived. A paused clock starts on the first pulse.
func (m *Manager) Tick(sync bool) {
	for ch := range m.tock {
		m.tock[ch] = false
	}
	m.midiTock = false

	if m.IsPaused() && sync {
		m.Start(false)
	}
	if !m.IsRunning() {
		return
	}

	realign := m.syncPulse(sync)

	switch {
	case m.newBeat:
		// first tick after start: beat 0 begins here
	case realign:
		m.beginBeat()
	default:
		m.beatTick++
		if m.beatTick >= m.beatLen {
			if m.waitingForSync() {
				m.beatTick = m.beatLen - 1
			} else {
				m.beginBeat()
			}
		}
	}

	if m.newBeat {
		m.newBeat = false
		for ch := range m.next {
			m.next[ch] = 0
		}
		m.midiNext = 0
		m.divideTocks()
		m.beatCount++
	}

	m.subdivideTocks()

	if m.midiNext < MIDIPPQN && m.beatTick >= m.midiNext*m.beatLen/MIDIPPQN {
		m.midiTock = true
		m.midiNext++
	}
}

func (m *Manager) beginBeat() {
	m.beatTick = 0
	m.newBeat = true
}

// syncPulse folds an external pulse into the tempo. Returns true when the
// pulse lands on a beat and the phase should realign.
func (m *Manager) syncPulse(sync bool) bool {
	m.sinceSync++
	p := m.PPQN()
	if !sync || p == 0 {
		if m.synced && m.sinceSync > 2*m.beatLen {
			m.synced = false
			debug.Log("clock", "external sync lost")
		}
		return false
	}

	if m.syncCount > 0 {
		beatLen := m.sinceSync * p
		bpm := clamp(tick.PerMinute/beatLen, MinTempo, MaxTempo)
		if !m.synced {
			debug.Log("clock", "external sync at %d bpm (%d ppqn)", bpm, p)
		}
		m.tempo = bpm
		m.beatLen = clamp(beatLen, tick.PerMinute/MaxTempo, tick.PerMinute/MinTempo)
		m.synced = true
	}
	aligned := m.syncCount%p == 0
	m.syncCount++
	m.sinceSync = 0
	return aligned
}

// waitingForSync holds the end of a beat while an external pulse is expected
func (m *Manager) waitingForSync() bool {
	return m.synced && m.sinceSync <= 2*m.beatLen
}

// divideTocks fires divided channels on their beat
func (m *Manager) divideTocks() {
	for ch, n := range m.mult {
		if n < 0 && m.beatCount%(1-n) == 0 {
			m.tock[ch] = true
		}
	}
}

// subdivideTocks fires multiplied channels as the beat passes each subdivision
func (m *Manager) subdivideTocks() {
	for ch, n := range m.mult {
		if n <= 0 || m.next[ch] >= n {
			continue
		}
		if m.beatTick >= m.subdivision(n, m.next[ch]) {
			m.tock[ch] = true
			m.next[ch]++
		}
	}
}

// subdivision returns the tick offset of subdivision k of n within the beat.
// Odd subdivisions are delayed by up to half a subdivision as shuffle grows.
func (m *Manager) subdivision(n, k int) int {
	at := k * m.beatLen / n
	if k%2 == 1 {
		at += (m.beatLen / n) * m.shuffle / 200
	}
	return at
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
