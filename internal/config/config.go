package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"tickd/internal/dispatch"
	"tickd/internal/loop"
	"tickd/pkg/types"
)

// Config is the file representation of a tickd process. Zero values mean
// "unspecified"; Default fills the stock values and flags override on top.
type Config struct {
	Clock           *Clock `json:"clock,omitempty" yaml:"clock,omitempty" toml:"clock,omitempty"`
	TPS             *TPS   `json:"tps,omitempty" yaml:"tps,omitempty" toml:"tps,omitempty"`
	Debug           Debug  `json:"debug" yaml:"debug" toml:"debug"`
	MaxDrainPerTick int    `json:"max_drain_per_tick" yaml:"max_drain_per_tick" toml:"max_drain_per_tick"`
	EventFailFast   bool   `json:"event_fail_fast" yaml:"event_fail_fast" toml:"event_fail_fast"`
	HTTP            HTTP   `json:"http" yaml:"http" toml:"http"`
	Log             Log    `json:"log" yaml:"log" toml:"log"`
}

// Clock selects the bounded pacing mode.
type Clock struct {
	MinTicksPerSecond int `json:"min_ticks_per_second" yaml:"min_ticks_per_second" toml:"min_ticks_per_second"`
	MaxTicksPerSecond int `json:"max_ticks_per_second" yaml:"max_ticks_per_second" toml:"max_ticks_per_second"`
}

// TPS selects the single-limit pacing mode.
type TPS struct {
	Limit int `json:"limit" yaml:"limit" toml:"limit"`
}

type Debug struct {
	TickDuration       *Threshold     `json:"tick_duration,omitempty" yaml:"tick_duration,omitempty" toml:"tick_duration,omitempty"`
	ActionExecDuration *ExecThreshold `json:"action_exec_duration,omitempty" yaml:"action_exec_duration,omitempty" toml:"action_exec_duration,omitempty"`
	EventExecDuration  *ExecThreshold `json:"event_exec_duration,omitempty" yaml:"event_exec_duration,omitempty" toml:"event_exec_duration,omitempty"`
}

type Threshold struct {
	MinMicroseconds int64 `json:"min_microseconds" yaml:"min_microseconds" toml:"min_microseconds"`
}

type ExecThreshold struct {
	MinMicroseconds int64    `json:"min_microseconds" yaml:"min_microseconds" toml:"min_microseconds"`
	Ignore          []string `json:"ignore,omitempty" yaml:"ignore,omitempty" toml:"ignore,omitempty"`
}

type HTTP struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	CORS CORS   `json:"cors" yaml:"cors" toml:"cors"`
}

type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins,omitempty" yaml:"origins,omitempty" toml:"origins,omitempty"`
	Methods []string `json:"methods,omitempty" yaml:"methods,omitempty" toml:"methods,omitempty"`
	Headers []string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
}

type Log struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
}

// Default returns the stock configuration: bounded pacing between 1 and 1000
// ticks per second, HTTP on :8080, info logs as JSON.
func Default() Config {
	p := loop.DefaultPacing()
	return Config{
		Clock: &Clock{MinTicksPerSecond: p.MinTicksPerSecond, MaxTicksPerSecond: p.MaxTicksPerSecond},
		HTTP:  HTTP{Addr: ":8080"},
		Log:   Log{Level: "info", Format: "json"},
	}
}

// Pacing derives the loop pacing. A clock section wins over tps.
func (c Config) Pacing() loop.Pacing {
	var p loop.Pacing
	if c.Clock != nil {
		p.MinTicksPerSecond = c.Clock.MinTicksPerSecond
		p.MaxTicksPerSecond = c.Clock.MaxTicksPerSecond
	}
	if c.TPS != nil {
		p.Limit = c.TPS.Limit
	}
	return p
}

// Validate checks value ranges; it does not require any section.
func (c Config) Validate() error {
	if err := c.Pacing().Validate(); err != nil {
		return err
	}
	if c.MaxDrainPerTick < 0 {
		return fmt.Errorf("max_drain_per_tick must not be negative")
	}
	for name, th := range map[string]*ExecThreshold{"action_exec_duration": c.Debug.ActionExecDuration, "event_exec_duration": c.Debug.EventExecDuration} {
		if th != nil && th.MinMicroseconds < 0 {
			return fmt.Errorf("debug.%s.min_microseconds must not be negative", name)
		}
	}
	if th := c.Debug.TickDuration; th != nil && th.MinMicroseconds < 0 {
		return fmt.Errorf("debug.tick_duration.min_microseconds must not be negative")
	}
	return nil
}

// LoopConfig converts the file config into loop construction options.
func (c Config) LoopConfig(log zerolog.Logger) loop.Config {
	lc := loop.Config{
		Pacing:          c.Pacing(),
		MaxDrainPerTick: c.MaxDrainPerTick,
		EventFailFast:   c.EventFailFast,
		Logger:          log,
	}
	if th := c.Debug.TickDuration; th != nil {
		lc.Debug.TickDuration = &loop.TickDuration{MinMicroseconds: th.MinMicroseconds}
	}
	if th := c.Debug.ActionExecDuration; th != nil {
		lc.Debug.ActionExecDuration = &dispatch.ExecDuration[types.ActionKind]{
			MinMicroseconds: th.MinMicroseconds,
			Ignore:          kinds[types.ActionKind](th.Ignore),
		}
	}
	if th := c.Debug.EventExecDuration; th != nil {
		lc.Debug.EventExecDuration = &dispatch.ExecDuration[types.EventKind]{
			MinMicroseconds: th.MinMicroseconds,
			Ignore:          kinds[types.EventKind](th.Ignore),
		}
	}
	return lc
}

func kinds[K ~string](names []string) []K {
	if len(names) == 0 {
		return nil
	}
	out := make([]K, len(names))
	for i, n := range names {
		out[i] = K(n)
	}
	return out
}
