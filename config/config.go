package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// MappingConfig is one output lane's MIDI assignment
type MappingConfig struct {
	Channel  int `json:"channel"`  // 0-15
	Function int `json:"function"` // midi.Function
	CC       int `json:"cc"`       // -1 learns
}

// MIDIConfig selects ports and lane assignments
type MIDIConfig struct {
	Inputs       []string        `json:"inputs,omitempty"`  // empty = every port
	Outputs      []string        `json:"outputs,omitempty"` // empty = every port
	SerialPort   string          `json:"serialPort,omitempty"`
	SerialBaud   int             `json:"serialBaud,omitempty"`
	AutoOut      bool            `json:"autoOut"`
	ClockDivisor int             `json:"clockDivisor,omitempty"`
	InMap        []MappingConfig `json:"inMap,omitempty"`
	OutMap       []MappingConfig `json:"outMap,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	// GIMP .gpl file; empty uses the built-in palette
	Palette        string            `json:"palette,omitempty"`
	TrigLength     int               `json:"trigLength,omitempty"` // ms
	TriggerMapping []int             `json:"triggerMapping,omitempty"`
	MIDI           MIDIConfig        `json:"midi"`
	Applets        []string          `json:"applets,omitempty"`
	Data           map[string]uint64 `json:"data,omitempty"` // packed applet settings by applet name
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		TrigLength:     2,
		TriggerMapping: []int{1, 2, 3, 4},
		MIDI: MIDIConfig{
			SerialBaud:   31250,
			ClockDivisor: 12,
		},
		Applets: []string{"ClockSet", "MIDIIn"},
		Data:    make(map[string]uint64),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, ".config", "go-hemisphere"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config from path, or returns defaults if it does not exist
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if cfg.Data == nil {
		cfg.Data = make(map[string]uint64)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// AppletData returns the packed settings saved for an applet
func (c *Config) AppletData(name string) (uint64, bool) {
	v, ok := c.Data[name]
	return v, ok
}

// SetAppletData stores an applet's packed settings
func (c *Config) SetAppletData(name string, data uint64) {
	if c.Data == nil {
		c.Data = make(map[string]uint64)
	}
	c.Data[name] = data
}
