package applet

import (
	"fmt"
	"strings"

	"go-hemisphere/clock"
	"go-hemisphere/config"
	"go-hemisphere/frame"
	"go-hemisphere/widgets"
)

// ClockSetup cursor positions
const (
	csPlayStop = iota
	csTempo
	csShuffle
	csExtPPQN
	csMult1
	csMult2
	csMult3
	csMult4
	csTrig1
	csTrig2
	csTrig3
	csTrig4
	csBoop1
	csBoop2
	csBoop3
	csBoop4
	csLast = csBoop4
)

// Ticks an indicator stays lit after a tock or a boop
const (
	flashTicks  = 500
	buttonTicks = 1000
)

// ClockSetup packed settings layout
var (
	locAutoSave    = config.Location{Offset: 0, Width: 1}
	locCursorWrap  = config.Location{Offset: 1, Width: 1}
	locTempo       = config.Location{Offset: 2, Width: 8}
	locPPQN        = config.Location{Offset: 10, Width: 4}
	locTrigLength  = config.Location{Offset: 54, Width: 7}
	locScreensaver = config.Location{Offset: 61, Width: 3}
)

// multiplier i: 6 bits at 14+6i, stored +32
func locMult(i int) config.Location {
	return config.Location{Offset: uint(14 + i*6), Width: 6}
}

// trigger mapping i: 4 bits at 38+4i, stored +1 so 0 means unset
func locTrig(i int) config.Location {
	return config.Location{Offset: uint(38 + i*4), Width: 4}
}

// ClockSetup is the transport and master clock panel: play/stop, tempo
// (with tap tempo), shuffle, external sync resolution, per-channel
// multipliers, trigger input mapping and manual boops.
type ClockSetup struct {
	clock  *clock.Manager
	cursor int
	tap    clock.TapTempo
	now    uint32

	// frame settings, applied on the next Controller call when dirty
	trigMap    [frame.NumChannels]int
	trigLength int
	dirty      bool

	AutoSave    bool
	CursorWrap  bool
	Screensaver int

	flash  [clock.NumChannels]int
	button int
}

// NewClockSetup creates the panel for a clock
func NewClockSetup(c *clock.Manager) *ClockSetup {
	return &ClockSetup{
		clock:      c,
		trigMap:    [frame.NumChannels]int{1, 2, 3, 4},
		trigLength: 2,
	}
}

func (cs *ClockSetup) Name() string { return "ClockSet" }

func (cs *ClockSetup) Start() {}

// Controller syncs trigger settings with the frame and animates the tock indicators
func (cs *ClockSetup) Controller(f *frame.IOFrame) {
	cs.now = f.Tick()

	if cs.dirty {
		for ch, src := range cs.trigMap {
			f.SetTriggerMapping(ch, src)
		}
		f.SetTrigLength(cs.trigLength)
		cs.dirty = false
	} else {
		cs.trigMap = f.TriggerMapping
		cs.trigLength = f.TrigLength()
	}

	for ch := range cs.flash {
		if cs.clock.Tock(ch) {
			cs.flash[ch] = flashTicks
		} else if cs.flash[ch] > 0 {
			cs.flash[ch]--
		}
	}
	if cs.button > 0 {
		cs.button--
	}
}

// HandleKey: up/down move the cursor, left/right edit, enter presses
func (cs *ClockSetup) HandleKey(key string) {
	switch key {
	case "up", "k":
		cs.tap.Reset()
		cs.moveCursor(-1)
	case "down", "j":
		cs.tap.Reset()
		cs.moveCursor(1)
	case "left", "h", "-":
		cs.tap.Reset()
		cs.change(-1)
	case "right", "l", "+", "=":
		cs.tap.Reset()
		cs.change(1)
	case "enter", " ":
		cs.press()
	}
}

func (cs *ClockSetup) moveCursor(dir int) {
	c := cs.cursor + dir
	if cs.CursorWrap {
		c = (c + csLast + 1) % (csLast + 1)
	}
	cs.cursor = clampInt(c, 0, csLast)
}

func (cs *ClockSetup) press() {
	switch {
	case cs.cursor == csPlayStop:
		cs.clock.PlayStop()
	case cs.cursor == csTempo:
		cs.Tap(cs.now)
	case cs.cursor >= csBoop1:
		cs.clock.Boop(cs.cursor - csBoop1)
		cs.button = buttonTicks
	}
}

func (cs *ClockSetup) change(dir int) {
	c := cs.clock
	switch {
	case cs.cursor == csPlayStop:
		c.PlayStop()
	case cs.cursor == csTempo:
		c.SetTempoBPM(c.Tempo() + dir)
	case cs.cursor == csShuffle:
		c.SetShuffle(c.Shuffle() + dir)
	case cs.cursor == csExtPPQN:
		c.SetClockPPQN(c.ClockPPQN() + dir)
	case cs.cursor >= csMult1 && cs.cursor <= csMult4:
		ch := cs.cursor - csMult1
		c.SetMultiply(c.Multiply(ch)+dir, ch)
	case cs.cursor >= csTrig1 && cs.cursor <= csTrig4:
		ch := cs.cursor - csTrig1
		cs.trigMap[ch] = clampInt(cs.trigMap[ch]+dir, 0, frame.NumTriggerSources)
		cs.dirty = true
	case cs.cursor >= csBoop1:
		c.Boop(cs.cursor - csBoop1)
		cs.button = buttonTicks
	}
}

// Tap registers a tap tempo press at frame tick now and sets the tempo
// once enough taps are in
func (cs *ClockSetup) Tap(now uint32) (bpm int, ok bool) {
	if bpm, ok = cs.tap.Tap(now); ok {
		cs.clock.SetTempoBPM(bpm)
	}
	return bpm, ok
}

// ResetTap abandons a tap sequence in progress
func (cs *ClockSetup) ResetTap() {
	cs.tap.Reset()
}

// Cursor returns the selected setting
func (cs *ClockSetup) Cursor() int {
	return cs.cursor
}

func (cs *ClockSetup) OnDataRequest() uint64 {
	var data uint64
	data = config.Pack(data, locAutoSave, boolInt(cs.AutoSave))
	data = config.Pack(data, locCursorWrap, boolInt(cs.CursorWrap))
	data = config.Pack(data, locTempo, cs.clock.Tempo())
	data = config.Pack(data, locPPQN, cs.clock.ClockPPQN())
	for i := 0; i < clock.NumChannels; i++ {
		data = config.Pack(data, locMult(i), cs.clock.Multiply(i)+32)
		data = config.Pack(data, locTrig(i), cs.trigMap[i]+1)
	}
	data = config.Pack(data, locTrigLength, cs.trigLength)
	data = config.Pack(data, locScreensaver, cs.Screensaver)
	return data
}

func (cs *ClockSetup) OnDataReceive(data uint64) {
	cs.AutoSave = config.Unpack(data, locAutoSave) != 0
	cs.CursorWrap = config.Unpack(data, locCursorWrap) != 0

	// don't yank the tempo out from under a running clock
	if !cs.clock.IsRunning() {
		cs.clock.SetTempoBPM(config.Unpack(data, locTempo))
	}
	cs.clock.SetClockPPQN(config.Unpack(data, locPPQN))
	for i := 0; i < clock.NumChannels; i++ {
		cs.clock.SetMultiply(config.Unpack(data, locMult(i))-32, i)
		if t := config.Unpack(data, locTrig(i)); t != 0 {
			cs.trigMap[i] = t - 1
		}
	}
	cs.trigLength = clampInt(config.Unpack(data, locTrigLength), 1, frame.MaxTrigLength)
	cs.Screensaver = config.Unpack(data, locScreensaver)
	cs.dirty = true
}

func (cs *ClockSetup) View() string {
	c := cs.clock
	var b strings.Builder

	b.WriteString("CLOCKS/TRIGGERS\n\n")

	state := "■"
	switch {
	case c.IsRunning():
		state = "▶"
	case c.IsPaused():
		state = "❚❚"
	}
	sync := ""
	if c.Synced() {
		sync = " (ext)"
	}
	fmt.Fprintf(&b, "%s%-3s %s%3d BPM%s  %sshuffle %2d%%  %ssync=%d\n\n",
		cs.mark(csPlayStop), state,
		cs.mark(csTempo), c.Tempo(), sync,
		cs.mark(csShuffle), c.Shuffle(),
		cs.mark(csExtPPQN), c.PPQN())

	for ch := 0; ch < clock.NumChannels; ch++ {
		fmt.Fprintf(&b, "%s%-6s", cs.mark(csMult1+ch), multString(c.Multiply(ch)))
	}
	b.WriteString("\n")
	for ch := 0; ch < clock.NumChannels; ch++ {
		fmt.Fprintf(&b, "%s%-6s", cs.mark(csTrig1+ch), frame.TriggerSourceName(cs.trigMap[ch]))
	}
	b.WriteString("\n")
	for ch := 0; ch < clock.NumChannels; ch++ {
		pressed := cs.button > 0 && cs.cursor == csBoop1+ch
		fmt.Fprintf(&b, "%s%-6s", cs.mark(csBoop1+ch), widgets.RenderLamp(pressed || cs.flash[ch] > 0))
	}
	b.WriteString("\n\n")

	b.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "up/down", Desc: "select setting"},
			{Key: "left/right", Desc: "change value"},
			{Key: "enter", Desc: "play/stop, tap tempo, boop"},
		}},
	}))
	return b.String()
}

func (cs *ClockSetup) mark(pos int) string {
	if cs.cursor == pos {
		return ">"
	}
	return " "
}

// multString renders a multiplier the way the panel shows it: x2, /3, off
func multString(m int) string {
	switch {
	case m > 0:
		return fmt.Sprintf("x%d", m)
	case m < 0:
		return fmt.Sprintf("/%d", 1-m)
	}
	return "off"
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
