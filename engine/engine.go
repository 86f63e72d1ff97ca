// Package engine runs the tick loop: it owns the frame, the master clock,
// the MIDI inbox and outputs, and the applet slots, and steps them in a
// fixed order once per tick.
package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go-hemisphere/applet"
	"go-hemisphere/clock"
	"go-hemisphere/config"
	"go-hemisphere/debug"
	"go-hemisphere/frame"
	"go-hemisphere/midi"
	"go-hemisphere/tick"
)

// uiTicks is how often the UI is poked, about 30 times a second
const uiTicks = uint64(tick.PerSecond / 30)

// Engine orchestrates one host: hardware in, MIDI in, clock, applets,
// hardware out, MIDI out
type Engine struct {
	mu sync.Mutex

	hw    frame.Hardware
	frame *frame.IOFrame
	clock *clock.Manager
	inbox *midi.Inbox
	ports *midi.Ports
	tap   clock.TapTempo

	applets []applet.Applet
	focused int

	lastState clock.State
	ticks     uint64

	// Notify UI of updates
	UpdateChan chan struct{}
}

// New builds an engine for the given hardware and applies cfg
func New(cfg *config.Config, hw frame.Hardware) (*Engine, error) {
	e := &Engine{
		hw:         hw,
		frame:      frame.New(rand.New(rand.NewSource(time.Now().UnixNano()))),
		clock:      clock.NewManager(),
		inbox:      midi.NewInbox(midi.DefaultInboxSize),
		ports:      midi.NewPorts(),
		UpdateChan: make(chan struct{}, 1),
	}
	e.frame.MIDI.SetSender(e.ports)

	if err := e.apply(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) apply(cfg *config.Config) error {
	f := e.frame
	if cfg.TrigLength > 0 {
		f.SetTrigLength(cfg.TrigLength)
	}
	for ch, src := range cfg.TriggerMapping {
		if ch < frame.NumChannels {
			f.SetTriggerMapping(ch, src)
		}
	}

	f.AutoMIDIOut = cfg.MIDI.AutoOut
	if cfg.MIDI.ClockDivisor > 0 {
		f.MIDI.ClockDivisor = cfg.MIDI.ClockDivisor
	}
	for i, mc := range cfg.MIDI.InMap {
		if i < midi.NumOutputs {
			f.MIDI.Map[i] = mapping(mc)
		}
	}
	for i, mc := range cfg.MIDI.OutMap {
		if i < midi.NumOutputs {
			f.MIDI.SetOutputMapping(i, mapping(mc))
		}
	}

	names := cfg.Applets
	if len(names) == 0 {
		names = []string{"ClockSet"}
	}
	for _, name := range names {
		a, err := applet.New(name, e.clock)
		if err != nil {
			return errors.Wrap(err, "load applets")
		}
		if data, ok := cfg.AppletData(name); ok {
			a.OnDataReceive(data)
		}
		a.Start()
		e.applets = append(e.applets, a)
	}
	return nil
}

func mapping(mc config.MappingConfig) midi.Mapping {
	fn := midi.Function(mc.Function)
	if fn < 0 || fn >= midi.NumFunctions {
		fn = midi.FnNone
	}
	ch := mc.Channel
	if ch < 0 || ch >= midi.NumChannels {
		ch = 0
	}
	return midi.Mapping{Channel: ch, Function: fn, CC: mc.CC}
}

// Inbox returns the queue MIDI listeners push into
func (e *Engine) Inbox() *midi.Inbox {
	return e.inbox
}

// Ports returns the set of MIDI outputs
func (e *Engine) Ports() *midi.Ports {
	return e.ports
}

// Clock returns the master clock. Callers outside the tick loop should use
// the engine's transport methods, which lock.
func (e *Engine) Clock() *clock.Manager {
	return e.clock
}

// Tick runs one full cycle
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.step()
}

func (e *Engine) step() {
	f := e.frame
	c := e.clock

	f.Load(e.hw)
	e.inbox.Drain(f.MIDI.Process)

	pulse := f.DigitalClocked(0)
	if f.MIDI.TakeClock() {
		pulse = true
	}
	if f.MIDI.TakeStart() {
		c.DisableMIDIOut()
		c.Start(false)
		c.SyncStart()
	}
	if f.MIDI.TakeStop() {
		c.Stop()
		c.EnableMIDIOut()
		// the stop came from outside; don't echo it
		e.lastState = clock.Stopped
	}

	c.Tick(pulse)
	e.transportOut()
	f.LatchClock(c)

	for _, a := range e.applets {
		a.Controller(f)
	}
	f.Send(e.hw)

	e.ticks++
	if e.ticks%uiTicks == 0 {
		e.notify()
	}
}

// transportOut mirrors the internal clock to MIDI when it is the master
func (e *Engine) transportOut() {
	c := e.clock
	state := c.State()
	if state != e.lastState && c.MIDIOutEnabled() {
		switch {
		case state == clock.Running:
			e.frame.MIDI.SendRealtime(midi.Start)
		case e.lastState == clock.Running:
			e.frame.MIDI.SendRealtime(midi.Stop)
		}
	}
	e.lastState = state

	if c.MIDITock() {
		e.frame.MIDI.SendRealtime(midi.Clock)
	}
}

func (e *Engine) notify() {
	select {
	case e.UpdateChan <- struct{}{}:
	default:
	}
}

// PlayStop cycles the transport: stopped, paused (waits for sync), running
func (e *Engine) PlayStop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.PlayStop()
}

// Stop stops the clock
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.Stop()
}

// Tap registers a tap tempo press at the current tick. Presses share one
// tap sequence with the clock panel's enter key.
func (e *Engine) Tap() {
	e.mu.Lock()
	defer e.mu.Unlock()

	var bpm int
	var ok bool
	if cs := e.clockSetup(); cs != nil {
		bpm, ok = cs.Tap(e.frame.Tick())
	} else if bpm, ok = e.tap.Tap(e.frame.Tick()); ok {
		e.clock.SetTempoBPM(bpm)
	}
	if ok {
		debug.Log("clock", "tapped tempo %d", bpm)
	}
}

// NudgeTempo moves the tempo by delta BPM
func (e *Engine) NudgeTempo(delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tap.Reset()
	if cs := e.clockSetup(); cs != nil {
		cs.ResetTap()
	}
	e.clock.SetTempoBPM(e.clock.Tempo() + delta)
}

// Boop fires a manual clock on a channel
func (e *Engine) Boop(ch int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ch >= 0 && ch < clock.NumChannels {
		e.clock.Boop(ch)
	}
}

// SetAutoMIDIOut turns CV to MIDI translation on or off
func (e *Engine) SetAutoMIDIOut(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frame.AutoMIDIOut = on
}

// FocusNext moves key focus to the next applet slot
func (e *Engine) FocusNext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.applets) > 0 {
		e.focused = (e.focused + 1) % len(e.applets)
	}
}

// Focus moves key focus to a slot
func (e *Engine) Focus(idx int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx >= 0 && idx < len(e.applets) {
		e.focused = idx
	}
}

// HandleKey forwards a key to the focused applet
func (e *Engine) HandleKey(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a := e.focusedApplet(); a != nil {
		a.HandleKey(key)
	}
}

func (e *Engine) focusedApplet() applet.Applet {
	if e.focused < len(e.applets) {
		return e.applets[e.focused]
	}
	return nil
}

// SaveData stores every applet's packed settings and the frame settings into cfg
func (e *Engine) SaveData(cfg *config.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := e.frame
	cfg.TrigLength = f.TrigLength()
	cfg.TriggerMapping = append([]int(nil), f.TriggerMapping[:]...)
	cfg.MIDI.AutoOut = f.AutoMIDIOut
	cfg.MIDI.ClockDivisor = f.MIDI.ClockDivisor
	cfg.MIDI.InMap = cfg.MIDI.InMap[:0]
	cfg.MIDI.OutMap = cfg.MIDI.OutMap[:0]
	for i := 0; i < midi.NumOutputs; i++ {
		in, out := f.MIDI.Map[i], f.MIDI.OutputMapping(i)
		cfg.MIDI.InMap = append(cfg.MIDI.InMap, config.MappingConfig{Channel: in.Channel, Function: int(in.Function), CC: in.CC})
		cfg.MIDI.OutMap = append(cfg.MIDI.OutMap, config.MappingConfig{Channel: out.Channel, Function: int(out.Function), CC: out.CC})
	}

	cfg.Applets = cfg.Applets[:0]
	for _, a := range e.applets {
		cfg.Applets = append(cfg.Applets, a.Name())
		cfg.SetAppletData(a.Name(), a.OnDataRequest())
	}
}

// AutoSave reports whether the clock panel asks for settings to be saved on exit
func (e *Engine) AutoSave() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cs := e.clockSetup(); cs != nil {
		return cs.AutoSave
	}
	return false
}

func (e *Engine) clockSetup() *applet.ClockSetup {
	for _, a := range e.applets {
		if cs, ok := a.(*applet.ClockSetup); ok {
			return cs
		}
	}
	return nil
}
