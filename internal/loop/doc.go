// Package loop drives the fixed-cadence tick: every iteration dispatches
// queued actions, pushes a TickEvent, emits queued events, then paces.
//
//   - loop.go: Loop type, Run/Stop and the per-tick sequence.
//   - config.go: Config and defaults applied by New.
//   - pacing.go: the three pacing modes and the sleep/overrun decision.
//   - clock.go: Clock abstraction (system clock by default).
//   - notices.go, notices_memory.go: lifecycle notices for observers.
//   - status.go: status snapshot served by the HTTP layer.
//   - metrics.go: Prometheus collectors for ticks.
//
// Handlers and listeners run inline on the goroutine that called Run. Stop and
// context cancellation are observed at the top of the next iteration; a tick
// in progress is never interrupted. The pacing sleep is interrupted by
// cancellation.
package loop
