package signaller

import (
	"context"
	"sync"
)

// AutoConnect records connect intents for methods of R so that every
// constructed instance can be bound to its signals in one call. Mark the
// methods once, typically at package init time, then call Bind from the
// constructor:
//
//	var listenerHooks = signaller.NewAutoConnect[Listener]()
//
//	func init() {
//		signaller.Mark(listenerHooks, saved, (*Listener).OnSaved)
//	}
//
//	func NewListener() (*Listener, error) {
//		l := &Listener{}
//		if _, err := listenerHooks.Bind(l); err != nil {
//			return nil, err
//		}
//		return l, nil
//	}
//
// Only methods with a pointer receiver participate. Plain functions have no
// instance to bind and are connected directly with Connect.
type AutoConnect[R any] struct {
	mu      sync.Mutex
	markers []func(*R) (Connection, error)
}

// NewAutoConnect constructs an empty marker table for instances of R.
func NewAutoConnect[R any]() *AutoConnect[R] {
	return &AutoConnect[R]{}
}

// Mark records that method should be connected to s for every instance bound
// later. The options apply to each resulting binding; bindings are weak by
// default, so a collected instance is pruned automatically.
func Mark[T any, R any](table *AutoConnect[R], s *Signal[T], method func(*R, context.Context, T) error, opts ...ConnectOption) {
	table.mu.Lock()
	defer table.mu.Unlock()
	table.markers = append(table.markers, func(recv *R) (Connection, error) {
		return ConnectMethod(s, recv, method, opts...)
	})
}

// Bind materializes one binding per marked method for recv and returns the
// connection handles in marking order. On failure the bindings made so far
// are disconnected and the error is returned.
func (a *AutoConnect[R]) Bind(recv *R) ([]Connection, error) {
	if recv == nil {
		return nil, ErrNilReceiver
	}
	a.mu.Lock()
	markers := make([]func(*R) (Connection, error), len(a.markers))
	copy(markers, a.markers)
	a.mu.Unlock()

	conns := make([]Connection, 0, len(markers))
	for _, marker := range markers {
		conn, err := marker(recv)
		if err != nil {
			for _, made := range conns {
				made.Disconnect()
			}
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, nil
}
