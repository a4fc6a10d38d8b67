package memory

import (
	"context"
	"sync"

	"github.com/schoolhub/school-hub/internal/application/command"
	"github.com/schoolhub/school-hub/internal/domain/shared"
)

// BatchLocker is a process-local command.BatchLocker used when Redis is off.
type BatchLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewBatchLocker creates an empty locker.
func NewBatchLocker() *BatchLocker {
	return &BatchLocker{held: make(map[string]struct{})}
}

var _ command.BatchLocker = (*BatchLocker)(nil)

// Acquire takes key or returns shared.ErrPromotionInProgress.
func (l *BatchLocker) Acquire(ctx context.Context, key string) (command.ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, shared.ErrPromotionInProgress
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
