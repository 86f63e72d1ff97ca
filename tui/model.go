package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-hemisphere/clock"
	"go-hemisphere/engine"
	"go-hemisphere/frame"
	"go-hemisphere/midi"
	"go-hemisphere/signal"
	"go-hemisphere/theme"
	"go-hemisphere/widgets"
)

// keys that drive the simulated digital inputs TR1-TR4
var gateKeys = map[string]int{"z": 0, "x": 1, "c": 2, "v": 3}

type Model struct {
	Engine    *engine.Engine
	DeviceMgr *midi.DeviceManager // nil without MIDI drivers
	Sim       *frame.Sim          // nil on real hardware
	Theme     *theme.Theme
	OnSave    func() error // persists settings; nil disables saving

	status   string
	gates    [frame.NumDigital]bool
	lastPort string
	quitting bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(e *engine.Engine, deviceMgr *midi.DeviceManager, sim *frame.Sim, th *theme.Theme) Model {
	return Model{
		Engine:    e,
		DeviceMgr: deviceMgr,
		Sim:       sim,
		Theme:     th,
	}
}

func ListenForUpdates(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		<-e.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Engine)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			m.Engine.Stop()
			return m, tea.Quit

		case "p":
			m.Engine.PlayStop()

		case "t":
			m.Engine.Tap()

		case "]":
			m.Engine.NudgeTempo(1)

		case "[":
			m.Engine.NudgeTempo(-1)

		case "1", "2", "3", "4":
			m.Engine.Boop(int(key[0] - '1'))

		case "a":
			m.Engine.SetAutoMIDIOut(!m.Engine.Snapshot().AutoMIDI)

		case "tab":
			m.Engine.FocusNext()

		case "s":
			if m.OnSave != nil {
				if err := m.OnSave(); err != nil {
					m.status = "save failed: " + err.Error()
				} else {
					m.status = "saved"
				}
			}

		default:
			if ch, ok := gateKeys[key]; ok && m.Sim != nil {
				m.gates[ch] = !m.gates[ch]
				m.Sim.SetDigital(ch, m.gates[ch])
				return m, nil
			}
			m.Engine.HandleKey(key)
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Engine)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		dir := "out"
		if event.Input {
			dir = "in"
		}
		if event.Type == midi.DeviceConnected {
			m.lastPort = fmt.Sprintf("+ %s (%s)", event.ID, dir)
		} else {
			m.lastPort = fmt.Sprintf("- %s (%s)", event.ID, dir)
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.Engine.Snapshot()
	th := m.Theme

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	activeStyle := lipgloss.NewStyle().Foreground(th.Active())
	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.Muted()).
		Padding(0, 1)

	state := th.Symbols.Stop
	switch s.State {
	case clock.Running:
		state = th.Symbols.Play
	case clock.Paused:
		state = th.Symbols.Pause
	}
	sync := ""
	if s.Synced {
		sync = " ext"
	}
	midiOut := ""
	if s.AutoMIDI {
		midiOut = "  CV>MIDI"
	}
	header := headerStyle.Render(fmt.Sprintf("go-hemisphere  %s  %3dbpm%s  beat:%03d%s",
		state, s.Tempo, sync, s.Beat%1000, midiOut))

	// I/O lanes
	var io strings.Builder
	for ch := 0; ch < frame.NumChannels; ch++ {
		gate := th.Symbols.GateOff
		if s.Outputs[ch] > signal.GateThreshold {
			gate = th.Symbols.GateOn
		}
		trig := ""
		if m.gates[ch] {
			trig = activeStyle.Render(" TR")
		}
		fmt.Fprintf(&io, "%d %s %s  %c %c %s %s%s\n",
			ch+1,
			widgets.RenderMeter(s.Inputs[ch], signal.MaxCV, 10),
			frame.TriggerSourceName(s.Mapping[ch]),
			'A'+ch, gate,
			widgets.RenderMeter(s.Outputs[ch], signal.MaxCV, 10),
			widgets.RenderPad(th.Palette.Level(s.Outputs[ch], signal.MaxCV)),
			trig)
	}

	// slots
	var tabs []string
	for i, name := range s.Applets {
		if i == s.Focused {
			tabs = append(tabs, activeStyle.Render("["+name+"]"))
		} else {
			tabs = append(tabs, dimStyle.Render(" "+name+" "))
		}
	}

	ports := append([]string(nil), s.Ports...)
	sort.Strings(ports)
	portLine := "no MIDI outputs"
	if len(ports) > 0 {
		portLine = "out: " + strings.Join(ports, ", ")
	}
	if m.DeviceMgr != nil {
		ins, _ := m.DeviceMgr.Connected()
		portLine += fmt.Sprintf("  in: %d", len(ins))
	}
	if m.lastPort != "" {
		portLine += "  " + m.lastPort
	}
	if m.status != "" {
		portLine += "  " + m.status
	}
	if s.Dropped > 0 {
		portLine += fmt.Sprintf("  dropped:%d", s.Dropped)
	}

	help := dimStyle.Render("p:play t:tap [/]:tempo 1-4:boop z/x/c/v:TR a:cv>midi s:save tab:applet q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(panelStyle.Render(strings.TrimRight(io.String(), "\n")))
	out.WriteString("\n")
	out.WriteString(strings.Join(tabs, " "))
	out.WriteString("\n")
	out.WriteString(panelStyle.Render(s.View))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(portLine))
	out.WriteString("\n\n")
	out.WriteString(help)
	return out.String()
}
