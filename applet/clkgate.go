package applet

import (
	"fmt"
	"strings"

	"go-hemisphere/config"
	"go-hemisphere/frame"
	"go-hemisphere/widgets"
)

const (
	defaultGateWidth = 50
	maxGateWidth     = 99
)

// ClkToGate stretches each channel's clock into a gate lasting a percentage
// of the measured clock cycle.
type ClkToGate struct {
	cursor int
	width  [frame.NumChannels]int // percent of the cycle
	remain [frame.NumChannels]uint32
}

func NewClkToGate() *ClkToGate {
	c := &ClkToGate{}
	for ch := range c.width {
		c.width[ch] = defaultGateWidth
	}
	return c
}

func (c *ClkToGate) Name() string { return "ClkToGate" }

func (c *ClkToGate) Start() {
	c.remain = [frame.NumChannels]uint32{}
}

func (c *ClkToGate) Controller(f *frame.IOFrame) {
	for ch := 0; ch < frame.NumChannels; ch++ {
		if f.Clock(ch) {
			c.remain[ch] = f.ClockCycleTicks(ch) * uint32(c.width[ch]) / 100
		} else if c.remain[ch] > 0 {
			c.remain[ch]--
		}
		f.GateOut(ch, c.remain[ch] > 0)
	}
}

// HandleKey: up/down select a channel, left/right change its width
func (c *ClkToGate) HandleKey(key string) {
	switch key {
	case "up", "k":
		c.cursor = clampInt(c.cursor-1, 0, frame.NumChannels-1)
	case "down", "j":
		c.cursor = clampInt(c.cursor+1, 0, frame.NumChannels-1)
	case "left", "h", "-":
		c.width[c.cursor] = clampInt(c.width[c.cursor]-1, 1, maxGateWidth)
	case "right", "l", "+", "=":
		c.width[c.cursor] = clampInt(c.width[c.cursor]+1, 1, maxGateWidth)
	}
}

// Width returns a channel's gate width in percent
func (c *ClkToGate) Width(ch int) int {
	return c.width[ch]
}

// 7 bits per channel
func locWidth(ch int) config.Location {
	return config.Location{Offset: uint(ch * 7), Width: 7}
}

func (c *ClkToGate) OnDataRequest() uint64 {
	var data uint64
	for ch, w := range c.width {
		data = config.Pack(data, locWidth(ch), w)
	}
	return data
}

func (c *ClkToGate) OnDataReceive(data uint64) {
	for ch := range c.width {
		w := config.Unpack(data, locWidth(ch))
		if w == 0 {
			w = defaultGateWidth
		}
		c.width[ch] = clampInt(w, 1, maxGateWidth)
	}
}

func (c *ClkToGate) View() string {
	var b strings.Builder
	b.WriteString("CLOCK > GATE\n\n")
	for ch, w := range c.width {
		mark := " "
		if ch == c.cursor {
			mark = ">"
		}
		fmt.Fprintf(&b, "%s%c %2d%% %s %s\n", mark, 'A'+ch, w,
			widgets.RenderMeter(w, 100, 10), widgets.RenderLamp(c.remain[ch] > 0))
	}
	b.WriteString("\n")
	b.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "up/down", Desc: "select channel"},
			{Key: "left/right", Desc: "gate width"},
		}},
	}))
	return b.String()
}
