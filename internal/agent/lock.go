package agent

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrLockBusy means the execution lock could not be acquired within the
// configured timeout. Callers report "system busy" and do not retry.
var ErrLockBusy = errors.New("another command is executing")

// ExecutionLock is the single global command lock. It is a binary semaphore
// with timeout-bounded acquisition so a stuck holder can never block new
// commands forever. It is held for the duration of any non-suspended command
// and released before a command suspends waiting for user input.
type ExecutionLock struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewExecutionLock creates the lock. timeout bounds every Acquire call.
func NewExecutionLock(timeout time.Duration) *ExecutionLock {
	return &ExecutionLock{
		sem:     semaphore.NewWeighted(1),
		timeout: timeout,
	}
}

// Acquire takes the lock, waiting up to the configured timeout. It returns
// ErrLockBusy if the lock stays held past the deadline.
func (l *ExecutionLock) Acquire(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return ErrLockBusy
	}
	return nil
}

// TryAcquire takes the lock without waiting.
func (l *ExecutionLock) TryAcquire() bool {
	return l.sem.TryAcquire(1)
}

// Release frees the lock. Must pair with a successful Acquire or TryAcquire.
func (l *ExecutionLock) Release() {
	l.sem.Release(1)
}
