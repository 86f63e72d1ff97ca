package engine

import (
	"go-hemisphere/clock"
	"go-hemisphere/frame"
)

// Snapshot is a copy of engine state for display, taken under the lock
type Snapshot struct {
	Tick     uint32
	State    clock.State
	Tempo    int
	Shuffle  int
	PPQN     int
	Synced   bool
	Beat     int
	Multiply [clock.NumChannels]int

	Inputs   [frame.NumADC]int
	Outputs  [frame.NumDAC]int
	Mapping  [frame.NumChannels]int
	AutoMIDI bool

	Applets []string
	Focused int
	View    string // focused applet

	Ports   []string
	Dropped uint64 // MIDI messages lost to a full inbox
}

// Snapshot captures the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, f := e.clock, e.frame
	s := Snapshot{
		Tick:     f.Tick(),
		State:    c.State(),
		Tempo:    c.Tempo(),
		Shuffle:  c.Shuffle(),
		PPQN:     c.PPQN(),
		Synced:   c.Synced(),
		Mapping:  f.TriggerMapping,
		AutoMIDI: f.AutoMIDIOut,
		Focused:  e.focused,
		Ports:    e.ports.Names(),
		Dropped:  e.inbox.Dropped(),
	}
	s.Beat, _ = c.Beat()
	for ch := range s.Multiply {
		s.Multiply[ch] = c.Multiply(ch)
	}
	for ch := range s.Inputs {
		s.Inputs[ch] = f.ViewIn(ch)
	}
	for ch := range s.Outputs {
		s.Outputs[ch] = f.ViewOut(ch)
	}
	for _, a := range e.applets {
		s.Applets = append(s.Applets, a.Name())
	}
	if a := e.focusedApplet(); a != nil {
		s.View = a.View()
	}
	return s
}
