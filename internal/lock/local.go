package lock

import (
	"context"
	"sync"
)

// Local is an in-process Locker for single instance deployments without Redis.
type Local struct {
	mu   sync.Mutex
	held map[string]string
}

func NewLocal() *Local {
	return &Local{held: make(map[string]string)}
}

func (l *Local) Acquire(_ context.Context, key, owner string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return false, nil
	}
	l.held[key] = owner
	return true, nil
}

func (l *Local) Release(_ context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == owner {
		delete(l.held, key)
	}
	return nil
}
