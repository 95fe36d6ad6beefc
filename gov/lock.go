package gov

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds concurrent shared holders; a writer takes all of it.
const maxReaders = 1 << 16

// rwLock is a reader/writer lock whose acquisition honors ctx.
type rwLock struct {
	sem *semaphore.Weighted
}

func newRWLock() rwLock {
	return rwLock{sem: semaphore.NewWeighted(maxReaders)}
}

func (l rwLock) lock(ctx context.Context) error { return l.sem.Acquire(ctx, maxReaders) }
func (l rwLock) unlock()                        { l.sem.Release(maxReaders) }

// rlock blocks until a shared hold is available. Accessors use it.
func (l rwLock) rlock()   { _ = l.sem.Acquire(context.Background(), 1) }
func (l rwLock) runlock() { l.sem.Release(1) }

// lockAll takes the exclusive locks in order and returns a function that
// releases them. On failure nothing stays held.
func lockAll(ctx context.Context, locks ...rwLock) (func(), error) {
	held := make([]rwLock, 0, len(locks))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].unlock()
		}
	}
	for _, l := range locks {
		if err := l.lock(ctx); err != nil {
			release()
			return nil, err
		}
		held = append(held, l)
	}
	return release, nil
}
