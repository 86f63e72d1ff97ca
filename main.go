package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"go-hemisphere/config"
	"go-hemisphere/debug"
	"go-hemisphere/engine"
	"go-hemisphere/frame"
	"go-hemisphere/midi"
	"go-hemisphere/theme"
	"go-hemisphere/tui"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default ~/.config/go-hemisphere/config.json)")
		debugLog   = flag.Bool("debug", false, "write ~/.config/go-hemisphere/debug.log")
		noMIDI     = flag.Bool("no-midi", false, "don't scan for MIDI ports")
	)
	flag.Parse()

	if err := run(*configPath, *debugLog, !*noMIDI); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debugLog, useMIDI bool) error {
	if debugLog {
		if err := debug.Enable(); err != nil {
			return err
		}
		defer debug.Disable()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	palette := theme.Default()
	if cfg.Palette != "" {
		if palette, err = theme.LoadGPL(cfg.Palette); err != nil {
			return err
		}
	}
	th := theme.New(palette)

	// Simulated I/O lanes driven from the keyboard
	sim := frame.NewSim()
	eng, err := engine.New(cfg, sim)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DIN out over a UART
	if cfg.MIDI.SerialPort != "" {
		sp, err := midi.OpenSerial(cfg.MIDI.SerialPort, cfg.MIDI.SerialBaud)
		if err != nil {
			return err
		}
		defer sp.Close()
		eng.Ports().Attach("serial:"+cfg.MIDI.SerialPort, sp)
	}

	// MIDI device manager (handles hot-plug)
	var deviceMgr *midi.DeviceManager
	if useMIDI {
		deviceMgr = midi.NewDeviceManager(eng.Inbox(), eng.Ports(), cfg.MIDI.Inputs, cfg.MIDI.Outputs)
		go deviceMgr.Run(ctx)
	}

	go eng.Run(ctx)

	fmt.Println("go-hemisphere")
	fmt.Println("Connect MIDI devices any time - they'll be detected automatically")
	fmt.Println("")

	save := func() error {
		eng.SaveData(cfg)
		return saveConfig(cfg, configPath)
	}

	m := tui.NewModel(eng, deviceMgr, sim, th)
	m.OnSave = save
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "ui")
	}

	if eng.AutoSave() {
		if err := save(); err != nil {
			return err
		}
		debug.Log("config", "settings saved")
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func saveConfig(cfg *config.Config, path string) error {
	if path == "" {
		return cfg.Save()
	}
	return cfg.SaveFile(path)
}
