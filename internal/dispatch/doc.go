// Package dispatch holds the two per-tick drains of the loop:
//
//   - action.go: ActionDispatcher, FIFO of actions fanned out to kind-bound handlers.
//   - event.go: EventDispatcher, FIFO of events fanned out to listeners.
//   - handler.go: ActionHandler / Listener contracts and the TypedHandler adapter.
//   - queue.go, table.go: the shared FIFO and the ordered kind→observer table.
//   - invoke.go: per-call isolation (error and panic capture) and failure logging.
//   - timing.go: optional exec-duration logging with per-kind ignore lists.
//   - metrics.go: Prometheus collectors shared by both dispatchers.
//
// Both dispatchers drain until their queue is observed empty, so items pushed
// by a handler or listener during a drain are processed in the same drain.
// MaxDrain bounds that; anything left over stays queued for the next call.
//
// Unregister matches by value and refuses observers that cannot be compared
// reliably (funcs, or values holding funcs); Subscribe returns a Subscription
// that Unsubscribe removes regardless of the observer's type.
//
// Push, Register, Subscribe and their inverses are safe from any goroutine. Dispatch and Emit
// are meant to be driven by a single goroutine (the tick loop).
package dispatch
