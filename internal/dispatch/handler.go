package dispatch

import "tickd/pkg/types"

// ActionHandler performs the work for exactly one action kind. The dispatcher
// only registers a handler under the kind it reports.
type ActionHandler interface {
	ActionKind() types.ActionKind
	Execute(types.Action) error
}

// TypedHandler binds a func taking a concrete action type to one kind.
// Execute rejects actions of another kind or Go type with a misuse error.
type TypedHandler[A types.Action] struct {
	kind types.ActionKind
	fn   func(A) error
}

// NewHandler returns a handler for kind. Handlers are registered and
// unregistered by pointer identity.
func NewHandler[A types.Action](kind types.ActionKind, fn func(A) error) *TypedHandler[A] {
	return &TypedHandler[A]{kind: kind, fn: fn}
}

func (h *TypedHandler[A]) ActionKind() types.ActionKind { return h.kind }

func (h *TypedHandler[A]) Execute(a types.Action) error {
	if a == nil {
		return misusef("handler for %q got a nil action", h.kind)
	}
	if a.Kind() != h.kind {
		return misusef("handler bound to %q cannot execute %q", h.kind, a.Kind())
	}
	v, ok := a.(A)
	if !ok {
		return misusef("handler for %q cannot execute %T", h.kind, a)
	}
	return h.fn(v)
}

// Listener receives events of the kinds it was registered for.
type Listener interface {
	OnEvent(types.Event) error
}

// ListenerFunc adapts a plain func to Listener. Funcs have no value
// identity, so register it with Subscribe if it must be removed later.
type ListenerFunc func(types.Event) error

func (f ListenerFunc) OnEvent(e types.Event) error { return f(e) }
