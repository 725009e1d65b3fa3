package dispatch

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tickd/pkg/types"
)

// EventOptions configures an EventDispatcher. The zero value is usable.
type EventOptions struct {
	Logger       zerolog.Logger
	ExecDuration *ExecDuration[types.EventKind]
	MaxDrain     int
	// FailFast makes Emit stop at the first listener failure and return it.
	// Listeners after the failing one and events still queued are not
	// delivered by that call; queued events stay for the next Emit.
	FailFast bool
}

// EventDispatcher queues events and calls the listeners registered for each
// event's kind, in registration order, once per Emit.
type EventDispatcher struct {
	log      zerolog.Logger
	timing   timing[types.EventKind]
	maxDrain int
	failFast bool

	queue     fifo[types.Event]
	listeners *table[types.EventKind, Listener]
	failures  atomic.Uint64
}

func NewEventDispatcher(opts EventOptions) *EventDispatcher {
	return &EventDispatcher{
		log:       opts.Logger,
		timing:    newTiming(opts.ExecDuration),
		maxDrain:  opts.MaxDrain,
		failFast:  opts.FailFast,
		listeners: newTable[types.EventKind, Listener](),
	}
}

// Register appends l to the listeners of kind. Duplicates are allowed.
func (d *EventDispatcher) Register(kind types.EventKind, l Listener) error {
	_, err := d.Subscribe(kind, l)
	return err
}

// Subscribe registers l like Register and returns the Subscription that
// Unsubscribe takes. ListenerFunc values can only be removed this way.
func (d *EventDispatcher) Subscribe(kind types.EventKind, l Listener) (Subscription, error) {
	if l == nil {
		return 0, misusef("nil listener for %q", kind)
	}
	return d.listeners.add(kind, l), nil
}

// Unregister removes the first registration of l for kind; no-op when absent.
// Listeners that cannot be compared by value, ListenerFunc included, are a
// misuse error.
func (d *EventDispatcher) Unregister(kind types.EventKind, l Listener) error {
	if l == nil {
		return misusef("nil listener for %q", kind)
	}
	if !identifiable(l) {
		return misusef("listener %T has no value identity, remove it with Unsubscribe", l)
	}
	d.listeners.remove(kind, l)
	return nil
}

// Unsubscribe removes the registration issued as sub and reports whether it
// was still present.
func (d *EventDispatcher) Unsubscribe(sub Subscription) bool {
	return d.listeners.removeID(sub)
}

// Push enqueues e at the tail. Safe for concurrent use.
func (d *EventDispatcher) Push(e types.Event) error {
	if e == nil {
		return misusef("nil event")
	}
	d.queue.push(e)
	return nil
}

// Emit drains the queue. The returned error is non-nil only in fail-fast mode.
func (d *EventDispatcher) Emit() (DrainStats, error) {
	var st DrainStats
	var failed *ExecutionError
	for failed == nil && (d.maxDrain <= 0 || st.Items < d.maxDrain) {
		e, ok := d.queue.pop()
		if !ok {
			break
		}
		st.Items++
		kind := e.Kind()
		for _, l := range d.listeners.snapshot(kind) {
			st.Invocations++
			ee := d.exec(kind, e, l)
			if ee == nil {
				continue
			}
			st.Failures++
			d.failures.Add(1)
			failuresTotal.WithLabelValues(string(PhaseEvent), string(kind)).Inc()
			logFailure(d.log, ee)
			if d.failFast {
				failed = ee
				break
			}
		}
	}
	itemsTotal.WithLabelValues(string(PhaseEvent)).Add(float64(st.Items))
	pending := d.queue.len()
	queueDepth.WithLabelValues(string(PhaseEvent)).Set(float64(pending))
	if failed != nil {
		return st, failed
	}
	if d.maxDrain > 0 && st.Items == d.maxDrain && pending > 0 {
		st.Deferred = pending
		deferredTotal.WithLabelValues(string(PhaseEvent)).Add(float64(pending))
		d.log.Warn().Int("max_drain", d.maxDrain).Int("deferred", pending).Msg("event drain bound reached")
	}
	return st, nil
}

func (d *EventDispatcher) exec(kind types.EventKind, e types.Event, l Listener) *ExecutionError {
	start := time.Now()
	ee := invoke(PhaseEvent, string(kind), e, func() error { return l.OnEvent(e) })
	dur := time.Since(start)
	execDuration.WithLabelValues(string(PhaseEvent)).Observe(dur.Seconds())
	if d.timing.covers(kind) {
		d.timing.report(d.log, PhaseEvent, kind, dur)
	}
	return ee
}

// Len returns the number of queued events.
func (d *EventDispatcher) Len() int { return d.queue.len() }

// ListenerCount returns how many registrations kind has.
func (d *EventDispatcher) ListenerCount(kind types.EventKind) int { return d.listeners.count(kind) }

// Kinds lists the event kinds with at least one listener.
func (d *EventDispatcher) Kinds() []string { return d.listeners.kinds() }

// Failures returns the number of failed listener calls so far.
func (d *EventDispatcher) Failures() uint64 { return d.failures.Load() }
