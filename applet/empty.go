package applet

import (
	"go-hemisphere/frame"
	"go-hemisphere/widgets"
)

// Empty is a placeholder for a slot with no applet assigned
type Empty struct{}

func NewEmpty() *Empty {
	return &Empty{}
}

func (e *Empty) Name() string                { return "Empty" }
func (e *Empty) Start()                      {}
func (e *Empty) Controller(f *frame.IOFrame) {}
func (e *Empty) HandleKey(key string)        {}
func (e *Empty) OnDataRequest() uint64       { return 0 }
func (e *Empty) OnDataReceive(data uint64)   {}

func (e *Empty) View() string {
	out := "EMPTY\n\n"
	out += "No applet assigned to this slot.\n\n"
	out += widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "tab", Desc: "next slot"},
		}},
	})
	return out
}
