package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/shared"
)

// InMemoryCompanyLocker serializes payment reconciliation per company within
// a single process. Suitable for single-instance deployments and tests; use
// RedisCompanyLocker when multiple instances share the database.
type InMemoryCompanyLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]struct{}
}

// NewInMemoryCompanyLocker creates a new in-memory company locker
func NewInMemoryCompanyLocker() *InMemoryCompanyLocker {
	return &InMemoryCompanyLocker{
		locks: make(map[uuid.UUID]struct{}),
	}
}

// AcquireCompanyLock acquires an exclusive per-company lock. It does not
// block: a held lock returns shared.ErrLockNotAcquired immediately, matching
// the Redis implementation.
func (l *InMemoryCompanyLocker) AcquireCompanyLock(_ context.Context, companyID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.locks[companyID]; held {
		return nil, shared.ErrLockNotAcquired
	}
	l.locks[companyID] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.locks, companyID)
		})
	}
	return release, nil
}
