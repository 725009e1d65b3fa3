package loop

// Notice is a loop lifecycle record: loop_start, loop_stop or overrun.
type Notice struct {
	Name   string
	RunID  string
	Fields map[string]any
}

// NoticePublisher receives notices from the loop goroutine. Implementations
// should be lightweight and non-blocking; Publish must not panic.
type NoticePublisher interface {
	Publish(Notice)
}

// noopPublisher is the default; it drops notices.
type noopPublisher struct{}

func (noopPublisher) Publish(Notice) {}

const (
	NoticeStart   = "loop_start"
	NoticeStop    = "loop_stop"
	NoticeOverrun = "overrun"
)
