// Package signaller provides a signals and slots mechanism for decoupled
// callback dispatch. A Signal fans an emitted value out to every connected
// slot, running each one inline, on a bounded worker pool, or on a
// caller-driven scheduler. Method bindings may hold their receiver weakly so
// that bindings whose receiver has been collected are pruned automatically.
package signaller
