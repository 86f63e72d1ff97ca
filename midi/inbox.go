package midi

import (
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// DefaultInboxSize bounds the queue between port listeners and the tick loop
const DefaultInboxSize = 256

// Inbox queues messages arriving on listener goroutines so the tick loop can
// drain them synchronously before touching the frame.
type Inbox struct {
	ch      chan Message
	dropped atomic.Uint64
}

// NewInbox creates a queue holding up to size messages
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{ch: make(chan Message, size)}
}

// Push enqueues a message without blocking. When full the message is dropped.
func (in *Inbox) Push(m Message) bool {
	select {
	case in.ch <- m:
		return true
	default:
		in.dropped.Add(1)
		return false
	}
}

// PushWire decodes and enqueues a wire message; unsupported messages are ignored
func (in *Inbox) PushWire(msg gomidi.Message) {
	if m, ok := Decode(msg); ok {
		in.Push(m)
	}
}

// Drain hands every queued message to fn, in arrival order, and returns the count.
// Only messages present when Drain starts are handled; later ones wait for the next tick.
func (in *Inbox) Drain(fn func(Message)) int {
	n := len(in.ch)
	for i := 0; i < n; i++ {
		fn(<-in.ch)
	}
	return n
}

// Dropped returns how many messages were lost to a full queue
func (in *Inbox) Dropped() uint64 {
	return in.dropped.Load()
}
