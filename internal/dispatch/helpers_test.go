package dispatch

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"

	"tickd/pkg/types"
)

const (
	kindMove types.ActionKind = "move"
	kindJump types.ActionKind = "jump"

	kindSpawned types.EventKind = "spawned"
)

type moveAction struct{ Step int }

func (moveAction) Kind() types.ActionKind { return kindMove }

type jumpAction struct{ Height int }

func (jumpAction) Kind() types.ActionKind { return kindJump }

type spawnedEvent struct{ ID int }

func (spawnedEvent) Kind() types.EventKind { return kindSpawned }

// recorder is an ActionHandler that records every action it executes.
type recorder struct {
	kind types.ActionKind
	fn   func(types.Action) error

	mu    sync.Mutex
	calls []types.Action
}

func newRecorder(kind types.ActionKind) *recorder { return &recorder{kind: kind} }

func (r *recorder) ActionKind() types.ActionKind { return r.kind }

func (r *recorder) Execute(a types.Action) error {
	r.mu.Lock()
	r.calls = append(r.calls, a)
	r.mu.Unlock()
	if r.fn != nil {
		return r.fn(a)
	}
	return nil
}

func (r *recorder) Calls() []types.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Action(nil), r.calls...)
}

// eventRecorder is a Listener recording every event it receives.
type eventRecorder struct {
	fn     func(types.Event) error
	events []types.Event
}

func (r *eventRecorder) OnEvent(e types.Event) error {
	r.events = append(r.events, e)
	if r.fn != nil {
		return r.fn(e)
	}
	return nil
}

func bufferLogger() (zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return zerolog.New(&buf), &buf
}

func sameActions(got, want []types.Action) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// tickCounter exposes a method value for ListenerFunc.
type tickCounter struct{ calls int }

func (c *tickCounter) OnTick(types.Event) error { c.calls++; return nil }

// boxedListener is comparable by type but may hold a func at run time.
type boxedListener struct{ v any }

func (boxedListener) OnEvent(types.Event) error { return nil }

// funcFieldListener is not comparable at all.
type funcFieldListener struct {
	fn func(types.Event) error
}

func (f funcFieldListener) OnEvent(e types.Event) error { return f.fn(e) }

// funcHandler is an ActionHandler without value identity.
type funcHandler struct {
	kind types.ActionKind
	fn   func(types.Action) error
}

func (h funcHandler) ActionKind() types.ActionKind { return h.kind }

func (h funcHandler) Execute(a types.Action) error { return h.fn(a) }
