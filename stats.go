package signaller

import "sync/atomic"

type signalStats struct {
	emits      atomic.Uint64
	inline     atomic.Uint64
	deferred   atomic.Uint64
	submitted  atomic.Uint64
	slotErrors atomic.Uint64
	pruned     atomic.Uint64
}

// Stats is a point-in-time snapshot of a signal's dispatch counters.
type Stats struct {
	Name       string
	Slots      int
	Emits      uint64
	Inline     uint64
	Deferred   uint64
	Submitted  uint64
	SlotErrors uint64
	Pruned     uint64
}

// Stats returns the current counter snapshot for the signal.
func (s *Signal[T]) Stats() Stats {
	s.mu.Lock()
	slots := len(s.bindings)
	s.mu.Unlock()

	return Stats{
		Name:       s.name,
		Slots:      slots,
		Emits:      s.stats.emits.Load(),
		Inline:     s.stats.inline.Load(),
		Deferred:   s.stats.deferred.Load(),
		Submitted:  s.stats.submitted.Load(),
		SlotErrors: s.stats.slotErrors.Load(),
		Pruned:     s.stats.pruned.Load(),
	}
}
