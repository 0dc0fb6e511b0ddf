package signaller

// Event describes a signal lifecycle notification passed to hook callbacks.
// Slot and Mode are empty for emit events, and Err is only set for slot
// failures.
type Event struct {
	Signal string
	Slot   string
	Mode   ExecMode
	Err    error
}

// HookFunc is invoked for lifecycle notifications.
type HookFunc func(Event)

// Hooks aggregates optional observer callbacks. OnSlotError receives failures
// of deferred and pool-submitted slots, whose errors never reach the emit
// caller, as well as inline failures before they propagate.
type Hooks struct {
	OnConnect    HookFunc
	OnDisconnect HookFunc
	OnEmit       HookFunc
	OnSlotError  HookFunc
}

// Merge combines two hook sets, running the receiver first.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnConnect:    chainHooks(h.OnConnect, other.OnConnect),
		OnDisconnect: chainHooks(h.OnDisconnect, other.OnDisconnect),
		OnEmit:       chainHooks(h.OnEmit, other.OnEmit),
		OnSlotError:  chainHooks(h.OnSlotError, other.OnSlotError),
	}
}

func chainHooks(first, second HookFunc) HookFunc {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	default:
		return func(event Event) {
			first(event)
			second(event)
		}
	}
}
