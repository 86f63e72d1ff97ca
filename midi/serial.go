package midi

import (
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"go.bug.st/serial"

	"go-hemisphere/debug"
)

// DINBaud is the MIDI 1.0 DIN current-loop baud rate
const DINBaud = 31250

// SerialPort writes raw MIDI bytes to a UART (5-pin DIN out)
type SerialPort struct {
	name string
	port serial.Port
}

// OpenSerial opens the named serial device. baud <= 0 uses DINBaud.
func OpenSerial(name string, baud int) (*SerialPort, error) {
	if baud <= 0 {
		baud = DINBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial %s", name)
	}
	debug.Log("serial", "opened %s at %d baud", name, baud)
	return &SerialPort{name: name, port: p}, nil
}

// Send writes one message's bytes
func (s *SerialPort) Send(msg gomidi.Message) error {
	if _, err := s.port.Write([]byte(msg)); err != nil {
		return errors.Wrap(err, "serial write")
	}
	return nil
}

// Close closes the device
func (s *SerialPort) Close() error {
	debug.Log("serial", "closing %s", s.name)
	return s.port.Close()
}

// ListSerialPorts returns the serial devices present on the host
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "list serial ports")
	}
	return ports, nil
}
