package signaller

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
)

var bindingCounter atomic.Uint64

// ExecMode identifies how a slot is executed during emit.
type ExecMode string

const (
	// ModeInline runs the slot on the emitting goroutine.
	ModeInline ExecMode = "inline"
	// ModeDeferred enqueues the slot on the signal's scheduler.
	ModeDeferred ExecMode = "deferred"
	// ModeSubmitted submits the slot to the signal's dispatcher.
	ModeSubmitted ExecMode = "submitted"
)

// Slot is the callable signature accepted by a signal.
type Slot[T any] func(ctx context.Context, value T) error

// Connection is the opaque handle returned by connect operations. Calling
// Disconnect removes the binding; disconnecting twice is a no-op.
type Connection interface {
	// ID returns the stable identifier of the binding.
	ID() string
	// Disconnect removes the binding from its signal.
	Disconnect()
}

// binding associates a slot with its connection-time options. A binding is
// either alive or dead; the transition is one-way.
type binding[T any] struct {
	id         string
	signal     *Signal[T]
	weak       bool
	forceAsync bool
	deferred   bool
	alive      atomic.Bool

	// resolve returns the callable target, reporting false once a weakly
	// held receiver has been collected.
	resolve func() (Slot[T], bool)

	// pin keeps a strongly held receiver reachable for the binding's lifetime.
	pin any

	cleanup    runtime.Cleanup
	hasCleanup bool
}

func newBinding[T any](s *Signal[T], cfg connectConfig, resolve func() (Slot[T], bool), weak bool, pin any) *binding[T] {
	b := &binding[T]{
		id:         fmt.Sprintf("slot-%d", bindingCounter.Add(1)),
		signal:     s,
		weak:       weak,
		forceAsync: cfg.forceAsync,
		deferred:   cfg.deferred,
		resolve:    resolve,
		pin:        pin,
	}
	b.alive.Store(true)
	return b
}

// ID returns the stable identifier of the binding.
func (b *binding[T]) ID() string {
	return b.id
}

// Disconnect removes the binding from its signal.
func (b *binding[T]) Disconnect() {
	b.signal.Disconnect(b)
}

// stopCleanup cancels the weak-death cleanup, if one was registered.
func (b *binding[T]) stopCleanup() {
	if b.hasCleanup {
		b.cleanup.Stop()
	}
}

// SlotPanicError wraps a panic recovered from a deferred or pool-submitted
// slot. Inline slots are not guarded; their panics propagate to the emit
// caller.
type SlotPanicError struct {
	Signal string
	SlotID string
	Value  any
}

func (e SlotPanicError) Error() string {
	return fmt.Sprintf("signaller: panic in slot %s of signal %s: %v", e.SlotID, e.Signal, e.Value)
}
