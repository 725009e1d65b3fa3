package loop

import (
	"fmt"
	"time"
)

// Mode is the pacing policy derived from which Pacing fields are set.
type Mode string

const (
	// ModeBounded paces to MaxTicksPerSecond and reports ticks slower than
	// MinTicksPerSecond as overruns.
	ModeBounded Mode = "bounded"
	// ModeLimited paces to Limit ticks per second without overrun detection.
	ModeLimited Mode = "limited"
	// ModeUnpaced runs ticks back-to-back.
	ModeUnpaced Mode = "unpaced"
)

// Pacing holds the tick-rate bounds. Both Min and Max select ModeBounded;
// otherwise a positive Limit selects ModeLimited.
type Pacing struct {
	MinTicksPerSecond int
	MaxTicksPerSecond int
	Limit             int
}

func (p Pacing) Mode() Mode {
	switch {
	case p.MinTicksPerSecond > 0 && p.MaxTicksPerSecond > 0:
		return ModeBounded
	case p.Limit > 0:
		return ModeLimited
	default:
		return ModeUnpaced
	}
}

// Validate rejects negative rates, a single clock bound, and min > max.
func (p Pacing) Validate() error {
	if p.MinTicksPerSecond < 0 || p.MaxTicksPerSecond < 0 || p.Limit < 0 {
		return invalidConfigError{msg: "tick rates must not be negative"}
	}
	if (p.MinTicksPerSecond > 0) != (p.MaxTicksPerSecond > 0) {
		return invalidConfigError{msg: "min and max ticks per second must be set together"}
	}
	if p.MinTicksPerSecond > p.MaxTicksPerSecond {
		return invalidConfigError{msg: fmt.Sprintf("min ticks per second %d exceeds max %d", p.MinTicksPerSecond, p.MaxTicksPerSecond)}
	}
	return nil
}

// IdealDuration is the tick period the loop paces to; zero when unpaced.
func (p Pacing) IdealDuration() time.Duration {
	switch p.Mode() {
	case ModeBounded:
		return time.Second / time.Duration(p.MaxTicksPerSecond)
	case ModeLimited:
		return time.Second / time.Duration(p.Limit)
	}
	return 0
}

// MaxAllowedDuration is the overrun threshold; zero outside ModeBounded.
func (p Pacing) MaxAllowedDuration() time.Duration {
	if p.Mode() != ModeBounded {
		return 0
	}
	return time.Second / time.Duration(p.MinTicksPerSecond)
}

// decision is what the loop does after a tick took a given time.
type decision struct {
	sleep   bool
	delay   time.Duration
	overrun bool
}

func (p Pacing) decide(tick time.Duration) decision {
	mode := p.Mode()
	if mode == ModeUnpaced {
		return decision{}
	}
	if mode == ModeBounded && tick > p.MaxAllowedDuration() {
		return decision{overrun: true}
	}
	delay := p.IdealDuration() - tick
	if delay < 0 {
		return decision{}
	}
	return decision{sleep: true, delay: delay}
}
