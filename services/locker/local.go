package lockersvc

import (
	"context"
	"sync"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

// localLocker is an in-process core.Locker, used when a single API instance runs (and in tests).
type localLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

var _ core.Locker = (*localLocker)(nil)

func NewLocalLocker() core.Locker {
	return &localLocker{held: make(map[string]chan struct{})}
}

func (l *localLocker) Lock(ctx context.Context, key string) (core.Lock, error) {
	for {
		l.mu.Lock()
		released, busy := l.held[key]
		if !busy {
			l.held[key] = make(chan struct{})
			l.mu.Unlock()
			return &localLock{locker: l, key: key}, nil
		}
		l.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return nil, core.ErrLockNotObtained
		}
	}
}

type localLock struct {
	locker *localLocker
	key    string
	once   sync.Once
}

func (lk *localLock) Release(context.Context) error {
	lk.once.Do(func() {
		lk.locker.mu.Lock()
		defer lk.locker.mu.Unlock()
		close(lk.locker.held[lk.key])
		delete(lk.locker.held, lk.key)
	})
	return nil
}
