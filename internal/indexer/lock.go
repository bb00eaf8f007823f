package indexer

import (
	"errors"
	"sync/atomic"
)

// ErrIndexingInProgress is returned when another indexing run holds the lock.
var ErrIndexingInProgress = errors.New("indexing already in progress")

// IndexLock is a non-blocking lock: callers that lose the race get
// ErrIndexingInProgress instead of queueing behind a long run.
type IndexLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *IndexLock) Release() {
	l.state.Store(0)
}

// Held reports whether a run is in progress.
func (l *IndexLock) Held() bool {
	return l.state.Load() == 1
}
