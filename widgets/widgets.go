package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	lampOn  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc33")).Bold(true)
	lampOff = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
)

// RenderLamp renders an indicator: ● lit, ○ dark
func RenderLamp(on bool) string {
	if on {
		return lampOn.Render("●")
	}
	return lampOff.Render("○")
}

// RenderPad renders a single colored block
func RenderPad(color [3]uint8) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render("■")
}

// RenderMeter renders value/max as a horizontal bar width cells wide.
// Negative values are drawn from the right edge.
func RenderMeter(value, max, width int) string {
	if width <= 0 {
		return ""
	}
	if max <= 0 {
		return strings.Repeat("·", width)
	}
	neg := value < 0
	if neg {
		value = -value
	}
	if value > max {
		value = max
	}
	n := value * width / max
	bar := strings.Repeat("█", n)
	pad := strings.Repeat("·", width-n)
	if neg {
		return pad + bar
	}
	return bar + pad
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
