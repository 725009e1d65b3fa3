package loop

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tickd/internal/dispatch"
	"tickd/pkg/types"
)

// fakeClock advances only when told to; Sleep records and advances.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(0, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type stepAction struct{ N int }

func (stepAction) Kind() types.ActionKind { return "step" }

type doneEvent struct{ N int }

func (doneEvent) Kind() types.EventKind { return "done" }

// oneTick builds a loop whose single tick takes tickDur on the fake clock and
// then stops.
func oneTick(t *testing.T, pacing Pacing, tickDur time.Duration, log zerolog.Logger) (*Loop, *fakeClock, *MemoryPublisher) {
	t.Helper()
	clk := newFakeClock()
	pub := NewMemoryPublisher()
	l := New(Config{Pacing: pacing, Logger: log, Clock: clk, Notices: pub})
	err := l.RegisterEventHandler(types.KindTick, dispatch.ListenerFunc(func(types.Event) error {
		clk.Advance(tickDur)
		l.Stop()
		return nil
	}))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return l, clk, pub
}

func TestLoop_TickOrder(t *testing.T) {
	l := New(Config{Clock: newFakeClock()})
	var trace []string
	h := dispatch.NewHandler("step", func(a stepAction) error {
		trace = append(trace, "action")
		return l.PushEvent(doneEvent{a.N})
	})
	_ = l.RegisterActionHandler("step", h)
	_ = l.RegisterEventHandler("done", dispatch.ListenerFunc(func(types.Event) error {
		trace = append(trace, "done")
		return nil
	}))
	ticks := 0
	_ = l.RegisterEventHandler(types.KindTick, dispatch.ListenerFunc(func(types.Event) error {
		ticks++
		trace = append(trace, "tick")
		if ticks == 2 {
			l.Stop()
		}
		return nil
	}))
	_ = l.PushAction(stepAction{1})
	_ = l.PushAction(stepAction{2})

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "action action done done tick tick"
	if got := strings.Join(trace, " "); got != want {
		t.Fatalf("trace=%q want %q", got, want)
	}
	if st := l.Status(); st.Ticks != 2 || st.Running {
		t.Fatalf("status=%+v", st)
	}
}

func TestLoop_StopAfterFirstTick(t *testing.T) {
	l, clk, pub := oneTick(t, Pacing{}, 0, zerolog.Nop())
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := l.Status().Ticks; n != 1 {
		t.Fatalf("ticks=%d want 1", n)
	}
	if len(clk.Sleeps()) != 0 {
		t.Fatalf("unpaced loop slept: %v", clk.Sleeps())
	}
	if got := strings.Join(pub.Names(), ","); got != "loop_start,loop_stop" {
		t.Fatalf("notices=%s", got)
	}
}

func TestLoop_LimitSleepsRemainder(t *testing.T) {
	l, clk, _ := oneTick(t, Pacing{Limit: 20}, 10*time.Millisecond, zerolog.Nop())
	_ = l.Run(context.Background())
	sleeps := clk.Sleeps()
	if len(sleeps) != 1 || sleeps[0] != 40*time.Millisecond {
		t.Fatalf("sleeps=%v want [40ms]", sleeps)
	}
}

func TestLoop_LimitSlowTickDoesNotSleep(t *testing.T) {
	l, clk, _ := oneTick(t, Pacing{Limit: 10}, 200*time.Millisecond, zerolog.Nop())
	_ = l.Run(context.Background())
	if len(clk.Sleeps()) != 0 {
		t.Fatalf("sleeps=%v", clk.Sleeps())
	}
}

func TestLoop_BoundedSlowButTolerated(t *testing.T) {
	var buf bytes.Buffer
	l, clk, pub := oneTick(t, DefaultPacing(), 10*time.Millisecond, zerolog.New(&buf))
	_ = l.Run(context.Background())
	if len(clk.Sleeps()) != 0 {
		t.Fatalf("sleeps=%v", clk.Sleeps())
	}
	if strings.Contains(buf.String(), "tick too long") || l.Status().Overruns != 0 {
		t.Fatalf("unexpected overrun: %s", buf.String())
	}
	for _, n := range pub.Names() {
		if n == NoticeOverrun {
			t.Fatalf("unexpected overrun notice")
		}
	}
}

func TestLoop_BoundedOverrun(t *testing.T) {
	var buf bytes.Buffer
	l, clk, pub := oneTick(t, DefaultPacing(), 1200*time.Millisecond, zerolog.New(&buf))
	_ = l.Run(context.Background())
	if len(clk.Sleeps()) != 0 {
		t.Fatalf("overrun must not sleep: %v", clk.Sleeps())
	}
	out := buf.String()
	if !strings.Contains(out, "tick too long") || !strings.Contains(out, `"tick_us":1200000`) || !strings.Contains(out, `"max_allowed_us":1000000`) {
		t.Fatalf("missing overrun log: %s", out)
	}
	if l.Status().Overruns != 1 {
		t.Fatalf("overruns=%d", l.Status().Overruns)
	}
	if got := strings.Join(pub.Names(), ","); got != "loop_start,overrun,loop_stop" {
		t.Fatalf("notices=%s", got)
	}
}

func TestLoop_BoundedFastTickSleeps(t *testing.T) {
	l, clk, _ := oneTick(t, Pacing{MinTicksPerSecond: 1, MaxTicksPerSecond: 100}, 4*time.Millisecond, zerolog.Nop())
	_ = l.Run(context.Background())
	if s := clk.Sleeps(); len(s) != 1 || s[0] != 6*time.Millisecond {
		t.Fatalf("sleeps=%v want [6ms]", s)
	}
}

func TestLoop_TickDurationDebug(t *testing.T) {
	cases := []struct {
		name    string
		min     int64
		tick    time.Duration
		wantLog bool
	}{
		{"slow tick logged", 10, 20 * time.Microsecond, true},
		{"fast tick quiet", 1000, 100 * time.Microsecond, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			clk := newFakeClock()
			l := New(Config{
				Logger: zerolog.New(&buf),
				Clock:  clk,
				Debug:  Debug{TickDuration: &TickDuration{MinMicroseconds: c.min}},
			})
			_ = l.RegisterEventHandler(types.KindTick, dispatch.ListenerFunc(func(types.Event) error {
				clk.Advance(c.tick)
				l.Stop()
				return nil
			}))
			_ = l.Run(context.Background())
			if got := strings.Contains(buf.String(), `"message":"tick duration"`); got != c.wantLog {
				t.Fatalf("logged=%v want %v: %s", got, c.wantLog, buf.String())
			}
		})
	}
}

func TestLoop_ListenerFailureIsolated(t *testing.T) {
	l := New(Config{Clock: newFakeClock()})
	ticks := 0
	_ = l.RegisterEventHandler(types.KindTick, dispatch.ListenerFunc(func(types.Event) error {
		return errors.New("listener failed")
	}))
	_ = l.RegisterEventHandler(types.KindTick, dispatch.ListenerFunc(func(types.Event) error {
		ticks++
		if ticks == 3 {
			l.Stop()
		}
		return nil
	}))
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if st := l.Status(); st.ListenerFailures != 3 || st.Ticks != 3 {
		t.Fatalf("status=%+v", st)
	}
}

func TestLoop_FailFastReturnsListenerError(t *testing.T) {
	l := New(Config{Clock: newFakeClock(), EventFailFast: true})
	_ = l.RegisterEventHandler(types.KindTick, dispatch.ListenerFunc(func(types.Event) error {
		return errors.New("listener failed")
	}))
	err := l.Run(context.Background())
	if !dispatch.IsExecutionError(err) {
		t.Fatalf("expected execution error, got %v", err)
	}
	if l.Running() {
		t.Fatalf("loop still marked running")
	}
}

func TestLoop_HandlerFailureDoesNotAbortTick(t *testing.T) {
	l := New(Config{Clock: newFakeClock()})
	_ = l.RegisterActionHandler("step", dispatch.NewHandler("step", func(stepAction) error {
		panic("handler exploded")
	}))
	sawTick := false
	_ = l.RegisterEventHandler(types.KindTick, dispatch.ListenerFunc(func(types.Event) error {
		sawTick = true
		l.Stop()
		return nil
	}))
	_ = l.PushAction(stepAction{1})
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !sawTick || l.Status().HandlerFailures != 1 {
		t.Fatalf("sawTick=%v status=%+v", sawTick, l.Status())
	}
}

func TestLoop_ContextCancelStops(t *testing.T) {
	l := New(Config{Pacing: Pacing{Limit: 1000}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for l.Status().Ticks < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("loop did not tick")
		}
		time.Sleep(time.Millisecond)
	}
	if !l.Ready() {
		t.Fatalf("running loop not ready")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestLoop_SecondRunRejected(t *testing.T) {
	l := New(Config{Pacing: Pacing{Limit: 1000}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()
	deadline := time.Now().Add(2 * time.Second)
	for !l.Running() {
		if time.Now().After(deadline) {
			t.Fatalf("loop did not start")
		}
		time.Sleep(time.Millisecond)
	}
	if err := l.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("err=%v want ErrAlreadyRunning", err)
	}
}

func TestLoop_InvalidPacing(t *testing.T) {
	l := New(Config{Pacing: Pacing{MinTicksPerSecond: 10}})
	if err := l.Run(context.Background()); !IsInvalidConfig(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestLoop_Delegation(t *testing.T) {
	l := New(Config{})
	h := dispatch.NewHandler("step", func(stepAction) error { return nil })
	ln := dispatch.ListenerFunc(func(types.Event) error { return nil })

	if err := l.RegisterActionHandler("step", h); err != nil {
		t.Fatalf("register action handler: %v", err)
	}
	if err := l.RegisterActionHandler("other", h); !dispatch.IsMisuse(err) {
		t.Fatalf("kind mismatch not rejected: %v", err)
	}
	sub, err := l.SubscribeEventHandler("done", ln)
	if err != nil {
		t.Fatalf("subscribe event handler: %v", err)
	}
	_ = l.PushAction(stepAction{1})
	_ = l.PushEvent(doneEvent{1})
	st := l.Status()
	if st.PendingActions != 1 || st.PendingEvents != 1 {
		t.Fatalf("status=%+v", st)
	}
	if len(st.ActionKinds) != 1 || st.ActionKinds[0] != "step" || len(st.EventKinds) != 1 || st.EventKinds[0] != "done" {
		t.Fatalf("kinds=%v %v", st.ActionKinds, st.EventKinds)
	}
	if err := l.UnregisterActionHandler("step", h); err != nil {
		t.Fatalf("unregister action handler: %v", err)
	}
	if err := l.UnregisterEventHandler("done", ln); !dispatch.IsMisuse(err) {
		t.Fatalf("func listener removed by value: %v", err)
	}
	if !l.Unsubscribe(sub) || l.Unsubscribe(sub) {
		t.Fatalf("unsubscribe event handler")
	}
	if st := l.Status(); len(st.ActionKinds) != 0 || len(st.EventKinds) != 0 {
		t.Fatalf("kinds left after unregister: %+v", st)
	}
}

func TestLoop_StopBeforeRunIsKept(t *testing.T) {
	clk := newFakeClock()
	l := New(Config{Pacing: Pacing{Limit: 10}, Clock: clk})
	l.Stop()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		l.Stop()
		t.Fatalf("Run ignored a Stop issued before it started")
	}
	if n := l.Status().Ticks; n != 0 {
		t.Fatalf("ticks=%d want 0", n)
	}

	// the flag was consumed: the next run ticks until stopped again
	_ = l.RegisterEventHandler(types.KindTick, dispatch.ListenerFunc(func(types.Event) error {
		l.Stop()
		return nil
	}))
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n := l.Status().Ticks; n != 1 {
		t.Fatalf("ticks=%d want 1", n)
	}
}
