package dispatch

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tickd/pkg/types"
)

// ActionOptions configures an ActionDispatcher. The zero value is usable.
type ActionOptions struct {
	Logger zerolog.Logger
	// ExecDuration enables per-handler duration logging when non-nil.
	ExecDuration *ExecDuration[types.ActionKind]
	// MaxDrain caps the actions popped by one Dispatch call; 0 drains until empty.
	MaxDrain int
}

// DrainStats summarizes one Dispatch or Emit call.
type DrainStats struct {
	Items       int
	Invocations int
	Failures    int
	// Deferred counts items left in the queue because MaxDrain was reached.
	Deferred int
}

// ActionDispatcher queues actions and runs every handler registered for an
// action's kind, in registration order, once per Dispatch.
type ActionDispatcher struct {
	log      zerolog.Logger
	timing   timing[types.ActionKind]
	maxDrain int

	queue    fifo[types.Action]
	handlers *table[types.ActionKind, ActionHandler]
	failures atomic.Uint64
}

func NewActionDispatcher(opts ActionOptions) *ActionDispatcher {
	return &ActionDispatcher{
		log:      opts.Logger,
		timing:   newTiming(opts.ExecDuration),
		maxDrain: opts.MaxDrain,
		handlers: newTable[types.ActionKind, ActionHandler](),
	}
}

// Register appends h to the handlers of kind. The same handler may be
// registered twice and then runs twice per action.
func (d *ActionDispatcher) Register(kind types.ActionKind, h ActionHandler) error {
	_, err := d.Subscribe(kind, h)
	return err
}

// Subscribe registers h like Register and returns the Subscription that
// Unsubscribe takes. Handlers without value identity (func types, or structs
// holding funcs) can only be removed this way.
func (d *ActionDispatcher) Subscribe(kind types.ActionKind, h ActionHandler) (Subscription, error) {
	if h == nil {
		return 0, misusef("nil handler for %q", kind)
	}
	if hk := h.ActionKind(); hk != kind {
		return 0, misusef("handler bound to %q cannot be registered for %q", hk, kind)
	}
	return d.handlers.add(kind, h), nil
}

// Unregister removes the first registration of h for kind. Removing a handler
// that is not registered is a no-op; a handler that cannot be compared by
// value is a misuse error.
func (d *ActionDispatcher) Unregister(kind types.ActionKind, h ActionHandler) error {
	if h == nil {
		return misusef("nil handler for %q", kind)
	}
	if hk := h.ActionKind(); hk != kind {
		return misusef("handler bound to %q cannot be unregistered from %q", hk, kind)
	}
	if !identifiable(h) {
		return misusef("handler %T has no value identity, remove it with Unsubscribe", h)
	}
	d.handlers.remove(kind, h)
	return nil
}

// Unsubscribe removes the registration issued as sub and reports whether it
// was still present.
func (d *ActionDispatcher) Unsubscribe(sub Subscription) bool {
	return d.handlers.removeID(sub)
}

// Push enqueues a at the tail. Safe for concurrent use.
func (d *ActionDispatcher) Push(a types.Action) error {
	if a == nil {
		return misusef("nil action")
	}
	d.queue.push(a)
	return nil
}

// Dispatch drains the queue. Handler failures are logged and never stop the
// drain; the failed action is not requeued.
func (d *ActionDispatcher) Dispatch() DrainStats {
	var st DrainStats
	for d.maxDrain <= 0 || st.Items < d.maxDrain {
		a, ok := d.queue.pop()
		if !ok {
			break
		}
		st.Items++
		kind := a.Kind()
		for _, h := range d.handlers.snapshot(kind) {
			st.Invocations++
			if ee := d.exec(kind, a, h); ee != nil {
				st.Failures++
				d.failures.Add(1)
				failuresTotal.WithLabelValues(string(PhaseAction), string(kind)).Inc()
				logFailure(d.log, ee)
			}
		}
	}
	itemsTotal.WithLabelValues(string(PhaseAction)).Add(float64(st.Items))
	pending := d.queue.len()
	queueDepth.WithLabelValues(string(PhaseAction)).Set(float64(pending))
	if d.maxDrain > 0 && st.Items == d.maxDrain && pending > 0 {
		st.Deferred = pending
		deferredTotal.WithLabelValues(string(PhaseAction)).Add(float64(pending))
		d.log.Warn().Int("max_drain", d.maxDrain).Int("deferred", pending).Msg("action drain bound reached")
	}
	return st
}

func (d *ActionDispatcher) exec(kind types.ActionKind, a types.Action, h ActionHandler) *ExecutionError {
	start := time.Now()
	ee := invoke(PhaseAction, string(kind), a, func() error { return h.Execute(a) })
	dur := time.Since(start)
	execDuration.WithLabelValues(string(PhaseAction)).Observe(dur.Seconds())
	if d.timing.covers(kind) {
		d.timing.report(d.log, PhaseAction, kind, dur)
	}
	return ee
}

// Len returns the number of queued actions.
func (d *ActionDispatcher) Len() int { return d.queue.len() }

// HandlerCount returns how many registrations kind has.
func (d *ActionDispatcher) HandlerCount(kind types.ActionKind) int { return d.handlers.count(kind) }

// Kinds lists the action kinds with at least one handler.
func (d *ActionDispatcher) Kinds() []string { return d.handlers.kinds() }

// Failures returns the number of failed handler calls so far.
func (d *ActionDispatcher) Failures() uint64 { return d.failures.Load() }
