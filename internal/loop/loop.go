package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tickd/internal/dispatch"
	"tickd/pkg/types"
)

// Loop is the tick driver. It owns one ActionDispatcher and one
// EventDispatcher; the Push/Register/Unregister methods delegate to them and
// are safe from any goroutine.
type Loop struct {
	pacing  Pacing
	tickDbg *TickDuration
	log     zerolog.Logger
	clock   Clock
	notices NoticePublisher

	actions *dispatch.ActionDispatcher
	events  *dispatch.EventDispatcher

	active   atomic.Bool
	stopping atomic.Bool

	mu    sync.RWMutex
	runID string

	ticks      atomic.Uint64
	overruns   atomic.Uint64
	lastTickUS atomic.Int64
}

// New constructs a Loop from cfg. A zero Pacing runs unpaced; use
// DefaultPacing for the stock bounds.
func New(cfg Config) *Loop {
	l := &Loop{
		pacing:  cfg.Pacing,
		tickDbg: cfg.Debug.TickDuration,
		log:     cfg.Logger,
		clock:   cfg.Clock,
		notices: cfg.Notices,
	}
	if l.clock == nil {
		l.clock = systemClock{}
	}
	if l.notices == nil {
		l.notices = noopPublisher{}
	}
	l.actions = dispatch.NewActionDispatcher(dispatch.ActionOptions{
		Logger:       cfg.Logger,
		ExecDuration: cfg.Debug.ActionExecDuration,
		MaxDrain:     cfg.MaxDrainPerTick,
	})
	l.events = dispatch.NewEventDispatcher(dispatch.EventOptions{
		Logger:       cfg.Logger,
		ExecDuration: cfg.Debug.EventExecDuration,
		MaxDrain:     cfg.MaxDrainPerTick,
		FailFast:     cfg.EventFailFast,
	})
	return l
}

// Run blocks, ticking until Stop is called or ctx is done. It returns nil on
// a regular stop, ErrAlreadyRunning if another Run is active, a config error
// for invalid pacing, or the listener failure in fail-fast mode.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.pacing.Validate(); err != nil {
		return err
	}
	if !l.active.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.active.Store(false)
	// A Stop issued before Run starts is kept and ends this run before its
	// first tick; the flag is cleared only once the run is over.
	defer l.stopping.Store(false)

	runID := uuid.NewString()
	l.mu.Lock()
	l.runID = runID
	l.mu.Unlock()
	l.ticks.Store(0)
	l.overruns.Store(0)

	log := l.log.With().Str("run_id", runID).Logger()
	log.Info().Str("mode", string(l.pacing.Mode())).
		Dur("ideal", l.pacing.IdealDuration()).
		Dur("max_allowed", l.pacing.MaxAllowedDuration()).
		Msg("tick loop start")
	l.notices.Publish(Notice{Name: NoticeStart, RunID: runID, Fields: map[string]any{"mode": string(l.pacing.Mode())}})

	err := l.loop(ctx, log, runID)

	lvl := zerolog.InfoLevel
	if err != nil {
		lvl = zerolog.ErrorLevel
	}
	log.WithLevel(lvl).Err(err).
		Uint64("ticks", l.ticks.Load()).
		Uint64("overruns", l.overruns.Load()).
		Msg("tick loop stop")
	l.notices.Publish(Notice{Name: NoticeStop, RunID: runID, Fields: map[string]any{"ticks": l.ticks.Load()}})
	return err
}

func (l *Loop) loop(ctx context.Context, log zerolog.Logger, runID string) error {
	for !l.stopping.Load() && ctx.Err() == nil {
		start := l.clock.Now()
		err := l.tick()
		dur := l.clock.Now().Sub(start)

		l.ticks.Add(1)
		l.lastTickUS.Store(dur.Microseconds())
		ticksTotal.Inc()
		tickDuration.Observe(dur.Seconds())
		if l.tickDbg != nil && dur.Microseconds() > l.tickDbg.MinMicroseconds {
			log.Debug().Int64("duration_us", dur.Microseconds()).Msg("tick duration")
		}
		if err != nil {
			return err
		}

		d := l.pacing.decide(dur)
		if d.overrun {
			l.overruns.Add(1)
			overrunsTotal.Inc()
			maxAllowed := l.pacing.MaxAllowedDuration()
			log.Error().
				Int64("tick_us", dur.Microseconds()).
				Int64("max_allowed_us", maxAllowed.Microseconds()).
				Msg("tick too long, check performance of actions and events")
			l.notices.Publish(Notice{Name: NoticeOverrun, RunID: runID, Fields: map[string]any{
				"tick_us":        dur.Microseconds(),
				"max_allowed_us": maxAllowed.Microseconds(),
			}})
			continue
		}
		if !d.sleep {
			continue
		}
		sleepSeconds.Add(d.delay.Seconds())
		l.clock.Sleep(ctx, d.delay)
	}
	return nil
}

// tick runs one dispatch/emit sequence. The TickEvent is pushed after every
// action of this tick has been dispatched.
func (l *Loop) tick() error {
	l.actions.Dispatch()
	// Push rejects only nil events.
	_ = l.events.Push(types.TickEvent{})
	_, err := l.events.Emit()
	return err
}

// Stop asks Run to return before the next tick. Safe from handlers,
// listeners and other goroutines. Called while no Run is active, it makes the
// next Run return without ticking.
func (l *Loop) Stop() { l.stopping.Store(true) }

// Running reports whether Run is active.
func (l *Loop) Running() bool { return l.active.Load() }

func (l *Loop) PushAction(a types.Action) error { return l.actions.Push(a) }

func (l *Loop) PushEvent(e types.Event) error { return l.events.Push(e) }

func (l *Loop) RegisterActionHandler(kind types.ActionKind, h dispatch.ActionHandler) error {
	return l.actions.Register(kind, h)
}

func (l *Loop) UnregisterActionHandler(kind types.ActionKind, h dispatch.ActionHandler) error {
	return l.actions.Unregister(kind, h)
}

// SubscribeActionHandler registers h and returns a Subscription for Unsubscribe.
func (l *Loop) SubscribeActionHandler(kind types.ActionKind, h dispatch.ActionHandler) (dispatch.Subscription, error) {
	return l.actions.Subscribe(kind, h)
}

func (l *Loop) RegisterEventHandler(kind types.EventKind, ln dispatch.Listener) error {
	return l.events.Register(kind, ln)
}

func (l *Loop) UnregisterEventHandler(kind types.EventKind, ln dispatch.Listener) error {
	return l.events.Unregister(kind, ln)
}

// SubscribeEventHandler registers ln and returns a Subscription for
// Unsubscribe. Use it for ListenerFunc and other func-backed listeners.
func (l *Loop) SubscribeEventHandler(kind types.EventKind, ln dispatch.Listener) (dispatch.Subscription, error) {
	return l.events.Subscribe(kind, ln)
}

// Unsubscribe removes an action or event registration by its Subscription
// and reports whether it was still present.
func (l *Loop) Unsubscribe(sub dispatch.Subscription) bool {
	return l.actions.Unsubscribe(sub) || l.events.Unsubscribe(sub)
}

// LastTick returns the measured duration of the last completed tick.
func (l *Loop) LastTick() time.Duration {
	return time.Duration(l.lastTickUS.Load()) * time.Microsecond
}
