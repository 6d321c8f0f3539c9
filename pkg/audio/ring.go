package audio

import (
	"errors"
	"sync/atomic"

	"github.com/DCNick3/shin-sub001/pkg/tick"
)

// commandBufferCapacity bounds how many commands a handle can queue
// between two audio callbacks.
const commandBufferCapacity = 8

// ErrCommandQueueFull is returned when the game thread pushes commands
// faster than the audio thread consumes them. Callers log it and drop
// the command.
var ErrCommandQueueFull = errors.New("audio: command queue full")

type commandKind uint8

const (
	cmdSetVolume commandKind = iota
	cmdSetPanning
	cmdStop
)

type command struct {
	kind   commandKind
	target float32
	tween  tick.Tween
}

// commandRing is a single-producer single-consumer queue between the
// game thread and the audio thread. The producer writes only tail, the
// consumer writes only head, so a fixed buffer and two atomics are
// enough.
type commandRing struct {
	buffer [commandBufferCapacity]command
	head   atomic.Uint32
	tail   atomic.Uint32
}

func (r *commandRing) push(c command) error {
	head := r.head.Load()
	tail := r.tail.Load()
	if tail-head == commandBufferCapacity {
		return ErrCommandQueueFull
	}
	r.buffer[tail%commandBufferCapacity] = c
	r.tail.Store(tail + 1)
	return nil
}

func (r *commandRing) pop() (command, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return command{}, false
	}
	c := r.buffer[head%commandBufferCapacity]
	r.head.Store(head + 1)
	return c, true
}
