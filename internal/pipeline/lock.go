package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// LocalLocker serializes runs within one process. Use a shared locker
// (see adapter/redislock) when several replicas can trigger runs.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker creates an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

// Acquire takes key or returns domain.ErrRunInProgress. The ttl is ignored;
// the lock lives until released.
func (l *LocalLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, domain.ErrRunInProgress
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
