package types

// ActionKind identifies a family of actions. Handlers are registered per kind.
type ActionKind string

// EventKind identifies a family of events. Listeners are registered per kind.
type EventKind string

// Action is a unit of requested work. Implementations are treated as
// immutable once pushed.
type Action interface {
	Kind() ActionKind
}

// Event is a unit of notification raised to listeners once per tick.
type Event interface {
	Kind() EventKind
}

// KindTick is the kind of the synthetic end-of-tick event.
const KindTick EventKind = "tick"

// TickEvent is pushed by the loop after all actions of a tick were dispatched.
type TickEvent struct{}

func (TickEvent) Kind() EventKind { return KindTick }
