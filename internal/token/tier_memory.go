package token

import (
	"context"
	"sync"
)

// memoryTier holds the token for the lifetime of the process. It backs the
// session-scoped tier and doubles as the durable tier in tests.
type memoryTier struct {
	mu  sync.Mutex
	raw string
}

// NewMemoryTier returns a process-lifetime Tier.
func NewMemoryTier() Tier {
	return &memoryTier{}
}

func (t *memoryTier) Get(_ context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raw, nil
}

func (t *memoryTier) Set(_ context.Context, raw string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw = raw
	return nil
}

func (t *memoryTier) Clear(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw = ""
	return nil
}
