package feed

import "sync"

// StateStore holds the feed's last-modification marker between ticks. It is
// the sole guard against reprocessing an unchanged feed; a restart loses it
// and costs one extra full pass, which downstream idempotency absorbs.
type StateStore interface {
	LastModified() string
	SetLastModified(marker string)
}

// MemoryState is the in-process StateStore used in production.
type MemoryState struct {
	mu     sync.Mutex
	marker string
}

func NewMemoryState() *MemoryState {
	return &MemoryState{}
}

func (s *MemoryState) LastModified() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marker
}

func (s *MemoryState) SetLastModified(marker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = marker
}
