package loop

import "tickd/pkg/types"

// Status builds the status response for /status.
func (l *Loop) Status() types.StatusResponse {
	l.mu.RLock()
	runID := l.runID
	l.mu.RUnlock()
	return types.StatusResponse{
		RunID:            runID,
		Running:          l.active.Load(),
		Mode:             string(l.pacing.Mode()),
		Ticks:            l.ticks.Load(),
		Overruns:         l.overruns.Load(),
		LastTickMicros:   l.lastTickUS.Load(),
		HandlerFailures:  l.actions.Failures(),
		ListenerFailures: l.events.Failures(),
		PendingActions:   l.actions.Len(),
		PendingEvents:    l.events.Len(),
		ActionKinds:      l.actions.Kinds(),
		EventKinds:       l.events.Kinds(),
	}
}

// Ready reports whether the loop is ticking.
func (l *Loop) Ready() bool { return l.active.Load() && !l.stopping.Load() }
