package loop

import "sync"

// MemoryPublisher keeps notices in memory, for tests and embedding callers
// that poll.
type MemoryPublisher struct {
	mu      sync.Mutex
	notices []Notice
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(n Notice) {
	p.mu.Lock()
	p.notices = append(p.notices, n)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Notices() []Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Notice, len(p.notices))
	copy(out, p.notices)
	return out
}

// Names returns notice names in publish order.
func (p *MemoryPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.notices))
	for _, n := range p.notices {
		out = append(out, n.Name)
	}
	return out
}
