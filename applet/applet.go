// Package applet defines the swappable processing modules that run once per
// tick against the shared frame.
package applet

import (
	"sort"

	"github.com/pkg/errors"

	"go-hemisphere/clock"
	"go-hemisphere/frame"
)

// Applet is a processing module. Controller runs once per tick between the
// frame's Load and Send; the frame must not be kept after it returns.
type Applet interface {
	Name() string
	Start()
	Controller(f *frame.IOFrame)

	// UI - applet returns render data, the host draws it
	View() string
	HandleKey(key string)

	// Settings persistence as one packed word
	OnDataRequest() uint64
	OnDataReceive(data uint64)
}

// Factory builds an applet around the shared clock
type Factory func(c *clock.Manager) Applet

var registry = map[string]Factory{
	"ClockSet":  func(c *clock.Manager) Applet { return NewClockSetup(c) },
	"MIDIIn":    func(*clock.Manager) Applet { return NewMIDIIn() },
	"SampleHld": func(*clock.Manager) Applet { return NewSampleHold() },
	"ClkToGate": func(*clock.Manager) Applet { return NewClkToGate() },
	"Empty":     func(*clock.Manager) Applet { return NewEmpty() },
}

// New builds a registered applet by name
func New(name string, c *clock.Manager) (Applet, error) {
	f, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("unknown applet %q", name)
	}
	return f(c), nil
}

// Names lists the registered applets
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
