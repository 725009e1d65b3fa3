package dispatch

import (
	"time"

	"github.com/rs/zerolog"
)

// ExecDuration enables debug logging of single handler/listener calls that
// take longer than MinMicroseconds. Kinds listed in Ignore are not measured.
type ExecDuration[K ~string] struct {
	MinMicroseconds int64
	Ignore          []K
}

type timing[K ~string] struct {
	on     bool
	min    time.Duration
	ignore map[K]struct{}
}

func newTiming[K ~string](cfg *ExecDuration[K]) timing[K] {
	if cfg == nil {
		return timing[K]{}
	}
	t := timing[K]{
		on:     true,
		min:    time.Duration(cfg.MinMicroseconds) * time.Microsecond,
		ignore: make(map[K]struct{}, len(cfg.Ignore)),
	}
	for _, k := range cfg.Ignore {
		t.ignore[k] = struct{}{}
	}
	return t
}

func (t timing[K]) covers(kind K) bool {
	if !t.on {
		return false
	}
	_, skip := t.ignore[kind]
	return !skip
}

func (t timing[K]) report(log zerolog.Logger, phase Phase, kind K, d time.Duration) {
	if d <= t.min {
		return
	}
	log.Debug().
		Str("phase", string(phase)).
		Str("kind", string(kind)).
		Int64("duration_us", d.Microseconds()).
		Msgf("duration of %s execution", kind)
}
