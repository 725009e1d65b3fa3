package loop

import (
	"github.com/rs/zerolog"

	"tickd/internal/dispatch"
	"tickd/pkg/types"
)

// TickDuration enables debug logging of ticks slower than MinMicroseconds.
type TickDuration struct {
	MinMicroseconds int64
}

// Debug groups the optional duration instrumentation. Nil members are off.
type Debug struct {
	TickDuration       *TickDuration
	ActionExecDuration *dispatch.ExecDuration[types.ActionKind]
	EventExecDuration  *dispatch.ExecDuration[types.EventKind]
}

// Config encapsulates all tunables for Loop construction.
type Config struct {
	Pacing Pacing
	Debug  Debug
	// MaxDrainPerTick bounds each of the action and event drains; 0 drains
	// until the queues are empty.
	MaxDrainPerTick int
	// EventFailFast stops the emit at the first listener failure and makes
	// Run return it. Listener failures are isolated otherwise.
	EventFailFast bool

	Logger  zerolog.Logger
	Clock   Clock
	Notices NoticePublisher
}

// DefaultPacing mirrors the stock clock settings: at most 1000 ticks per
// second, overrun when slower than 1 tick per second.
func DefaultPacing() Pacing {
	return Pacing{MinTicksPerSecond: 1, MaxTicksPerSecond: 1000}
}
