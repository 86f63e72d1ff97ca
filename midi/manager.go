package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-hemisphere/debug"
)

// DeviceEvent is emitted when ports connect/disconnect
type DeviceEvent struct {
	Type  DeviceEventType
	ID    string
	Input bool // false = output port
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// Virtual/system ports that are never auto-connected
var excludedPorts = []string{"midi through", "through port", "dummy"}

// DeviceManager handles hot-plug of MIDI ports. Inputs feed the inbox,
// outputs join the port set.
type DeviceManager struct {
	inbox *Inbox
	ports *Ports

	// Names to connect. Empty means every non-excluded port.
	wantIn  []string
	wantOut []string

	inputs   map[string]func() // stop functions for listening inputs
	outputs  map[string]bool
	mu       sync.RWMutex
	events   chan DeviceEvent
	pollRate time.Duration
}

// NewDeviceManager creates a device manager routing into inbox and ports
func NewDeviceManager(inbox *Inbox, ports *Ports, inputs, outputs []string) *DeviceManager {
	return &DeviceManager{
		inbox:    inbox,
		ports:    ports,
		wantIn:   inputs,
		wantOut:  outputs,
		inputs:   make(map[string]func()),
		outputs:  make(map[string]bool),
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
	}
}

// Events returns a channel of port connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Connected returns the names of connected inputs and outputs
func (dm *DeviceManager) Connected() (inputs, outputs []string) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	for name := range dm.inputs {
		inputs = append(inputs, name)
	}
	for name := range dm.outputs {
		outputs = append(outputs, name)
	}
	return inputs, outputs
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	// Get current MIDI ports with timeout (CoreMIDI can hang)
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	var inPorts []drivers.In
	var outPorts []drivers.Out

	select {
	case result := <-ch:
		inPorts = result.inPorts
		outPorts = result.outPorts
	case <-time.After(3 * time.Second):
		debug.Log("ports", "port scan timed out")
		return
	}

	seenIn := make(map[string]bool)
	for _, in := range inPorts {
		name := in.String()
		if !wanted(name, dm.wantIn) {
			continue
		}
		seenIn[name] = true

		dm.mu.RLock()
		_, exists := dm.inputs[name]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
			dm.inbox.PushWire(msg)
		}, gomidi.HandleError(func(err error) {
			debug.Log("ports", "listener error on %s: %v", name, err)
		}))
		if err != nil {
			debug.Log("ports", "listen %s failed: %v", name, err)
			continue
		}

		dm.mu.Lock()
		dm.inputs[name] = stop
		dm.mu.Unlock()
		dm.emit(DeviceEvent{Type: DeviceConnected, ID: name, Input: true})
	}

	seenOut := make(map[string]bool)
	for _, out := range outPorts {
		name := out.String()
		if !wanted(name, dm.wantOut) {
			continue
		}
		seenOut[name] = true

		dm.mu.RLock()
		exists := dm.outputs[name]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		send, err := gomidi.SendTo(out)
		if err != nil {
			debug.Log("ports", "open %s failed: %v", name, err)
			continue
		}
		dm.ports.Attach(name, SendFunc(send))

		dm.mu.Lock()
		dm.outputs[name] = true
		dm.mu.Unlock()
		dm.emit(DeviceEvent{Type: DeviceConnected, ID: name})
	}

	// Check for disconnects
	dm.mu.Lock()
	for name, stop := range dm.inputs {
		if !seenIn[name] {
			stop()
			delete(dm.inputs, name)
			dm.emit(DeviceEvent{Type: DeviceDisconnected, ID: name, Input: true})
		}
	}
	for name := range dm.outputs {
		if !seenOut[name] {
			dm.ports.Detach(name)
			delete(dm.outputs, name)
			dm.emit(DeviceEvent{Type: DeviceDisconnected, ID: name})
		}
	}
	dm.mu.Unlock()
}

func (dm *DeviceManager) emit(ev DeviceEvent) {
	debug.Log("ports", "event type=%d id=%s input=%v", ev.Type, ev.ID, ev.Input)
	select {
	case dm.events <- ev:
	default:
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for name, stop := range dm.inputs {
		stop()
		delete(dm.inputs, name)
	}
	for name := range dm.outputs {
		dm.ports.Detach(name)
		delete(dm.outputs, name)
	}
}

// wanted reports whether a port should be connected given the configured names
func wanted(name string, want []string) bool {
	lower := strings.ToLower(name)
	if len(want) == 0 {
		for _, ex := range excludedPorts {
			if strings.Contains(lower, ex) {
				return false
			}
		}
		return true
	}
	for _, w := range want {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
