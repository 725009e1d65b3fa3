package main

import (
	"github.com/rs/zerolog"

	"tickd/internal/dispatch"
	"tickd/internal/loop"
	"tickd/pkg/types"
)

const (
	kindHeartbeat types.ActionKind = "heartbeat"
	kindBeat      types.EventKind  = "beat"
)

// heartbeatAction asks for one beat to be recorded.
type heartbeatAction struct{ Tick uint64 }

func (heartbeatAction) Kind() types.ActionKind { return kindHeartbeat }

// beatEvent reports a processed heartbeat.
type beatEvent struct {
	Seq  uint64
	Tick uint64
}

func (beatEvent) Kind() types.EventKind { return kindBeat }

// installHeartbeat wires a small demo workload: every n ticks a heartbeat
// action is pushed, its handler raises a beat event the next tick logs.
func installHeartbeat(lp *loop.Loop, log zerolog.Logger, n int) error {
	var ticks, seq uint64
	onTick := dispatch.ListenerFunc(func(types.Event) error {
		ticks++
		if ticks%uint64(n) != 0 {
			return nil
		}
		return lp.PushAction(heartbeatAction{Tick: ticks})
	})
	beat := dispatch.NewHandler(kindHeartbeat, func(a heartbeatAction) error {
		seq++
		return lp.PushEvent(beatEvent{Seq: seq, Tick: a.Tick})
	})
	onBeat := dispatch.ListenerFunc(func(e types.Event) error {
		b := e.(beatEvent)
		log.Info().Uint64("seq", b.Seq).Uint64("tick", b.Tick).Msg("beat")
		return nil
	})
	if err := lp.RegisterEventHandler(types.KindTick, onTick); err != nil {
		return err
	}
	if err := lp.RegisterActionHandler(kindHeartbeat, beat); err != nil {
		return err
	}
	return lp.RegisterEventHandler(kindBeat, onBeat)
}
