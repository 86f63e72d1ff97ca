package applet

import (
	"fmt"
	"strings"

	"go-hemisphere/config"
	"go-hemisphere/frame"
	"go-hemisphere/signal"
	"go-hemisphere/widgets"
)

// SampleHold samples each CV input to the matching output when the channel
// clocks. Samples are taken after the ADC lag so the edge and the CV it
// qualifies can arrive together. In track mode the output follows the input
// while the channel's gate is high and holds when it drops.
type SampleHold struct {
	cursor int
	track  [frame.NumChannels]bool
	held   [frame.NumChannels]int
}

func NewSampleHold() *SampleHold {
	return &SampleHold{}
}

func (sh *SampleHold) Name() string { return "SampleHld" }

func (sh *SampleHold) Start() {
	sh.held = [frame.NumChannels]int{}
}

func (sh *SampleHold) Controller(f *frame.IOFrame) {
	for ch := 0; ch < frame.NumChannels; ch++ {
		if sh.track[ch] {
			if f.Gate(ch) {
				sh.held[ch] = f.In(ch)
			}
		} else {
			if f.Clock(ch) {
				f.StartADCLag(ch)
			}
			if v, ok := f.LaggedIn(ch); ok {
				sh.held[ch] = v
			}
		}
		f.Out(ch, sh.held[ch])
	}
}

// HandleKey: left/right select a channel, enter toggles sample/track
func (sh *SampleHold) HandleKey(key string) {
	switch key {
	case "left", "h", "up", "k":
		sh.cursor = clampInt(sh.cursor-1, 0, frame.NumChannels-1)
	case "right", "l", "down", "j":
		sh.cursor = clampInt(sh.cursor+1, 0, frame.NumChannels-1)
	case "enter", " ":
		sh.track[sh.cursor] = !sh.track[sh.cursor]
	}
}

// Tracking reports whether a channel is in track and hold mode
func (sh *SampleHold) Tracking(ch int) bool {
	return sh.track[ch]
}

func (sh *SampleHold) OnDataRequest() uint64 {
	var data uint64
	for ch, t := range sh.track {
		data = config.Pack(data, config.Location{Offset: uint(ch), Width: 1}, boolInt(t))
	}
	return data
}

func (sh *SampleHold) OnDataReceive(data uint64) {
	for ch := range sh.track {
		sh.track[ch] = config.Unpack(data, config.Location{Offset: uint(ch), Width: 1}) != 0
	}
}

func (sh *SampleHold) View() string {
	var b strings.Builder
	b.WriteString("SAMPLE & HOLD\n\n")
	for ch, v := range sh.held {
		mark := " "
		if ch == sh.cursor {
			mark = ">"
		}
		mode := "S&H"
		if sh.track[ch] {
			mode = "T&H"
		}
		fmt.Fprintf(&b, "%s%c %s %s %+6d\n", mark, 'A'+ch, mode,
			widgets.RenderMeter(v, signal.MaxCV, 12), v)
	}
	b.WriteString("\n")
	b.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "left/right", Desc: "select channel"},
			{Key: "enter", Desc: "sample or track"},
		}},
	}))
	return b.String()
}
