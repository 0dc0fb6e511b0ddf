package signaller

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"weak"
)

var (
	// ErrNilSlot indicates a connect was attempted with a nil callable.
	ErrNilSlot = errors.New("signaller: slot must not be nil")
	// ErrNilReceiver indicates a method connect was attempted with a nil receiver.
	ErrNilReceiver = errors.New("signaller: receiver must not be nil")
	// ErrNoScheduler indicates a deferred slot was connected to a signal without a scheduler.
	ErrNoScheduler = errors.New("signaller: no scheduler configured")
	// ErrSignalClosed indicates the signal has been closed.
	ErrSignalClosed = errors.New("signaller: signal closed")
)

// DefaultPoolSize is the worker count of the dispatcher a signal creates for
// itself when none is supplied.
const DefaultPoolSize = 5

// Option configures a signal.
type Option func(*config)

type config struct {
	name       string
	forceAsync bool
	dispatcher Dispatcher
	poolSize   int
	scheduler  *Scheduler
	logger     *slog.Logger
	hooks      Hooks
}

func defaultSignalConfig() config {
	return config{
		poolSize: DefaultPoolSize,
		logger:   slog.Default(),
	}
}

// WithName assigns a human-readable name to the signal. Names are diagnostic
// only and need not be unique.
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}

// WithForceAsync makes every slot of this signal execute on the dispatcher
// unless the slot itself is deferred.
func WithForceAsync() Option {
	return func(cfg *config) {
		cfg.forceAsync = true
	}
}

// WithDispatcher supplies the dispatcher used for force-async slots. The
// signal borrows it and will not stop it on Close.
func WithDispatcher(d Dispatcher) Option {
	return func(cfg *config) {
		if d != nil {
			cfg.dispatcher = d
		}
	}
}

// WithPoolSize sets the worker count used when the signal creates its own
// dispatcher. Values below one fall back to DefaultPoolSize.
func WithPoolSize(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.poolSize = size
		}
	}
}

// WithScheduler attaches the scheduler that deferred slots are enqueued on.
func WithScheduler(sched *Scheduler) Option {
	return func(cfg *config) {
		cfg.scheduler = sched
	}
}

// WithLogger overrides the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithSignalHooks registers observer hooks on the signal.
func WithSignalHooks(h Hooks) Option {
	return func(cfg *config) {
		cfg.hooks = cfg.hooks.Merge(h)
	}
}

// ConnectOption configures a single binding.
type ConnectOption func(*connectConfig)

type connectConfig struct {
	forceAsync bool
	deferred   bool
	strong     bool
}

// ForceAsync makes this binding execute on the signal's dispatcher instead of
// inline.
func ForceAsync() ConnectOption {
	return func(cfg *connectConfig) {
		cfg.forceAsync = true
	}
}

// Deferred makes this binding enqueue on the signal's scheduler instead of
// executing during emit. Deferred takes precedence over force-async.
func Deferred() ConnectOption {
	return func(cfg *connectConfig) {
		cfg.deferred = true
	}
}

// StrongRef makes a method binding keep its receiver alive for the binding's
// lifetime. It has no effect on plain slot bindings, which always hold their
// slot strongly.
func StrongRef() ConnectOption {
	return func(cfg *connectConfig) {
		cfg.strong = true
	}
}

// Signal is a dispatch point fanning emitted values out to connected slots.
type Signal[T any] struct {
	name       string
	forceAsync bool
	poolSize   int
	scheduler  *Scheduler
	logger     *slog.Logger
	hooks      Hooks

	mu         sync.Mutex
	bindings   []*binding[T]
	dispatcher Dispatcher
	ownsPool   bool
	closed     bool

	stats signalStats
}

// New constructs a signal for payloads of type T.
func New[T any](opts ...Option) *Signal[T] {
	cfg := defaultSignalConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Signal[T]{
		name:       cfg.name,
		forceAsync: cfg.forceAsync,
		poolSize:   cfg.poolSize,
		scheduler:  cfg.scheduler,
		logger:     cfg.logger,
		hooks:      cfg.hooks,
		dispatcher: cfg.dispatcher,
	}
}

// Name returns the signal's diagnostic name, which may be empty.
func (s *Signal[T]) Name() string {
	return s.name
}

func (s *Signal[T]) label() string {
	if s.name == "" {
		return "<anonymous>"
	}
	return s.name
}

// Connect registers a slot and returns its connection handle. Duplicate
// connects are additive: connecting the same slot twice makes it run twice
// per emit.
func (s *Signal[T]) Connect(slot Slot[T], opts ...ConnectOption) (Connection, error) {
	if slot == nil {
		return nil, ErrNilSlot
	}
	cfg := connectConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	b := newBinding(s, cfg, func() (Slot[T], bool) { return slot, true }, false, nil)
	if err := s.add(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ConnectMethod registers a bound method as a slot. The receiver is held
// weakly by default: once it becomes unreachable the binding is pruned and
// never invoked again. Use StrongRef to keep the receiver alive instead.
func ConnectMethod[T any, R any](s *Signal[T], recv *R, method func(*R, context.Context, T) error, opts ...ConnectOption) (Connection, error) {
	if s == nil {
		return nil, errors.New("signaller: nil signal")
	}
	if method == nil {
		return nil, ErrNilSlot
	}
	if recv == nil {
		return nil, ErrNilReceiver
	}
	cfg := connectConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.strong {
		b := newBinding(s, cfg, func() (Slot[T], bool) {
			return func(ctx context.Context, value T) error {
				return method(recv, ctx, value)
			}, true
		}, false, recv)
		if err := s.add(b); err != nil {
			return nil, err
		}
		return b, nil
	}

	ptr := weak.Make(recv)
	resolve := func() (Slot[T], bool) {
		r := ptr.Value()
		if r == nil {
			return nil, false
		}
		return func(ctx context.Context, value T) error {
			return method(r, ctx, value)
		}, true
	}
	b := newBinding(s, cfg, resolve, true, nil)
	if err := s.add(b); err != nil {
		return nil, err
	}
	// The cleanup closure must not capture recv, or it would never become
	// unreachable. It only reaches the binding, which holds a weak pointer.
	b.cleanup = runtime.AddCleanup(recv, func(dead *binding[T]) { s.prune(dead) }, b)
	b.hasCleanup = true
	return b, nil
}

func (s *Signal[T]) add(b *binding[T]) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSignalClosed
	}
	if b.deferred && s.scheduler == nil {
		s.mu.Unlock()
		return ErrNoScheduler
	}
	s.bindings = append(s.bindings, b)
	s.mu.Unlock()

	s.logger.Info("connecting slot", "signal", s.label(), "slot", b.id, "mode", s.modeOf(b), "weak", b.weak)
	s.invokeHook(s.hooks.OnConnect, Event{Signal: s.name, Slot: b.id, Mode: s.modeOf(b)})
	return nil
}

// Disconnect removes the binding behind conn. Handles from other signals,
// already disconnected handles, and pruned handles are ignored.
func (s *Signal[T]) Disconnect(conn Connection) {
	b, ok := conn.(*binding[T])
	if !ok || b == nil || b.signal != s {
		s.logger.Info("slot is not connected", "signal", s.label())
		return
	}
	if !b.alive.CompareAndSwap(true, false) {
		s.logger.Info("slot is not connected", "signal", s.label(), "slot", b.id)
		return
	}
	b.stopCleanup()
	s.removeBinding(b)
	s.logger.Info("disconnecting slot", "signal", s.label(), "slot", b.id)
	s.invokeHook(s.hooks.OnDisconnect, Event{Signal: s.name, Slot: b.id, Mode: s.modeOf(b)})
}

// prune drops a binding whose weakly held receiver has been collected.
func (s *Signal[T]) prune(b *binding[T]) {
	if !b.alive.CompareAndSwap(true, false) {
		return
	}
	s.removeBinding(b)
	s.stats.pruned.Add(1)
	s.logger.Debug("slot target released", "signal", s.label(), "slot", b.id)
	s.invokeHook(s.hooks.OnDisconnect, Event{Signal: s.name, Slot: b.id, Mode: s.modeOf(b)})
}

func (s *Signal[T]) removeBinding(b *binding[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, candidate := range s.bindings {
		if candidate == b {
			copy(s.bindings[i:], s.bindings[i+1:])
			s.bindings[len(s.bindings)-1] = nil
			s.bindings = s.bindings[:len(s.bindings)-1]
			break
		}
	}
}

// Clear disconnects every slot.
func (s *Signal[T]) Clear() {
	s.mu.Lock()
	dropped := s.bindings
	s.bindings = nil
	s.mu.Unlock()

	s.logger.Info("disconnecting all slots", "signal", s.label(), "slots", len(dropped))
	s.dropBindings(dropped)
}

// Close disconnects every slot, stops a dispatcher the signal created for
// itself, and rejects further connects and emits with ErrSignalClosed.
// Borrowed dispatchers and schedulers are left running.
func (s *Signal[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	dropped := s.bindings
	s.bindings = nil
	pool := s.dispatcher
	owns := s.ownsPool
	s.dispatcher = nil
	s.mu.Unlock()

	s.dropBindings(dropped)
	if owns && pool != nil {
		pool.Stop()
	}
	s.logger.Info("signal closed", "signal", s.label())
}

func (s *Signal[T]) dropBindings(dropped []*binding[T]) {
	for _, b := range dropped {
		if !b.alive.CompareAndSwap(true, false) {
			continue
		}
		b.stopCleanup()
		s.invokeHook(s.hooks.OnDisconnect, Event{Signal: s.name, Slot: b.id, Mode: s.modeOf(b)})
	}
}

// Emit calls every connected slot with value. The binding list is snapshotted
// at call time; connects and disconnects made during dispatch take effect on
// the next emit. Inline slots run on the calling goroutine in registration
// order, and the first inline error aborts the remaining slots and is
// returned unmodified; slots already handed to the scheduler or dispatcher
// are unaffected. Deferred and force-async slots never block the caller.
func (s *Signal[T]) Emit(ctx context.Context, value T) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSignalClosed
	}
	snapshot := make([]*binding[T], len(s.bindings))
	copy(snapshot, s.bindings)
	s.mu.Unlock()

	s.stats.emits.Add(1)
	s.logger.Info("emitting signal", "signal", s.label(), "slots", len(snapshot))
	s.invokeHook(s.hooks.OnEmit, Event{Signal: s.name})

	for _, b := range snapshot {
		slot, ok := b.resolve()
		if !ok {
			s.prune(b)
			continue
		}

		switch s.modeOf(b) {
		case ModeDeferred:
			s.stats.deferred.Add(1)
			s.logger.Debug("scheduling slot", "signal", s.label(), "slot", b.id)
			s.scheduler.Enqueue(s.guarded(ctx, b, slot, value, ModeDeferred))
		case ModeSubmitted:
			s.stats.submitted.Add(1)
			s.logger.Debug("submitting slot", "signal", s.label(), "slot", b.id)
			s.dispatcherFor().Submit(s.guarded(ctx, b, slot, value, ModeSubmitted))
		default:
			s.stats.inline.Add(1)
			s.logger.Debug("calling slot", "signal", s.label(), "slot", b.id)
			if err := slot(ctx, value); err != nil {
				s.stats.slotErrors.Add(1)
				s.invokeHook(s.hooks.OnSlotError, Event{Signal: s.name, Slot: b.id, Mode: ModeInline, Err: err})
				return err
			}
		}
	}
	return nil
}

// guarded wraps a slot invocation for execution outside the emit call. Errors
// and panics cannot reach the emit caller anymore, so they are surfaced via
// the logger and the OnSlotError hook.
func (s *Signal[T]) guarded(ctx context.Context, b *binding[T], slot Slot[T], value T, mode ExecMode) func() {
	return func() {
		err := func() (err error) {
			defer func() {
				if recovered := recover(); recovered != nil {
					err = SlotPanicError{Signal: s.label(), SlotID: b.id, Value: recovered}
				}
			}()
			return slot(ctx, value)
		}()
		if err != nil {
			s.stats.slotErrors.Add(1)
			s.logger.Error("slot failed", "signal", s.label(), "slot", b.id, "error", err)
			s.invokeHook(s.hooks.OnSlotError, Event{Signal: s.name, Slot: b.id, Mode: mode, Err: err})
		}
	}
}

func (s *Signal[T]) modeOf(b *binding[T]) ExecMode {
	switch {
	case b.deferred:
		return ModeDeferred
	case b.forceAsync || s.forceAsync:
		return ModeSubmitted
	default:
		return ModeInline
	}
}

// dispatcherFor lazily creates the signal's own worker pool on first use.
// A close racing with an in-flight emit must not resurrect a stopped pool,
// so the remaining submissions of that emit run on plain goroutines.
func (s *Signal[T]) dispatcherFor() Dispatcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return GoroutineDispatcher{}
	}
	if s.dispatcher == nil {
		s.dispatcher = NewWorkerPoolDispatcher(s.poolSize)
		s.ownsPool = true
	}
	return s.dispatcher
}

func (s *Signal[T]) invokeHook(hook HookFunc, event Event) {
	if hook != nil {
		hook(event)
	}
}
