package midi

import (
	"sync"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-hemisphere/debug"
)

// Sender accepts outgoing wire messages
type Sender interface {
	Send(msg gomidi.Message) error
}

// SendFunc adapts a gomidi send function to Sender
type SendFunc func(msg gomidi.Message) error

// Send calls f
func (f SendFunc) Send(msg gomidi.Message) error {
	return f(msg)
}

// Ports duplicates every message across all attached outputs (USB device,
// USB host, DIN serial). Each port receives messages in the same order.
type Ports struct {
	mu    sync.RWMutex
	names []string
	ports map[string]Sender
}

// NewPorts creates an empty port set
func NewPorts() *Ports {
	return &Ports{ports: make(map[string]Sender)}
}

// Attach adds or replaces a named output
func (p *Ports) Attach(name string, s Sender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.ports[name]; !ok {
		p.names = append(p.names, name)
	}
	p.ports[name] = s
	debug.Log("ports", "attached %s", name)
}

// Detach removes a named output
func (p *Ports) Detach(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.ports[name]; !ok {
		return
	}
	delete(p.ports, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
	debug.Log("ports", "detached %s", name)
}

// Names returns the attached port names in attach order
func (p *Ports) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Send writes msg to every port. A failing port does not stop the others;
// the first error is returned.
func (p *Ports) Send(msg gomidi.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var first error
	for _, name := range p.names {
		if err := p.ports[name].Send(msg); err != nil && first == nil {
			first = errors.Wrapf(err, "send to %s", name)
		}
	}
	return first
}

// OpenOutput opens a driver output port by name
func OpenOutput(name string) (Sender, error) {
	out, err := gomidi.FindOutPort(name)
	if err != nil {
		return nil, errors.Wrapf(err, "find output %q", name)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "open output %q", name)
	}
	return SendFunc(send), nil
}
