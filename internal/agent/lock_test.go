package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLockAcquireRelease(t *testing.T) {
	l := NewExecutionLock(50 * time.Millisecond)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := l.Acquire(context.Background()); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("second acquire = %v, want ErrLockBusy", err)
	}
	l.Release()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	l.Release()
}

func TestLockTryAcquire(t *testing.T) {
	l := NewExecutionLock(50 * time.Millisecond)
	if !l.TryAcquire() {
		t.Fatal("TryAcquire on free lock must succeed")
	}
	if l.TryAcquire() {
		t.Fatal("TryAcquire on held lock must fail")
	}
	l.Release()
}

func TestLockAcquireWaitsForRelease(t *testing.T) {
	l := NewExecutionLock(time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- l.Acquire(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	l.Release()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("waiting acquire failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiting acquire never completed")
	}
	l.Release()
}

func TestLockMutualExclusion(t *testing.T) {
	l := NewExecutionLock(2 * time.Second)
	var holders int
	var maxHolders int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			holders++
			if holders > maxHolders {
				maxHolders = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			l.Release()
		}()
	}
	wg.Wait()

	if maxHolders != 1 {
		t.Fatalf("lock held by %d goroutines at once", maxHolders)
	}
}

func TestStateTransitions(t *testing.T) {
	s := NewSystemState()
	if s.Mode() != ModeReady {
		t.Fatalf("initial mode = %s", s.Mode())
	}
	s.beginProcessing("abc123")
	snap := s.Snapshot()
	if snap.Mode != ModeProcessing || snap.ExecutionID != "abc123" {
		t.Fatalf("after beginProcessing: %+v", snap)
	}
	s.setWaitingForUser()
	if s.Mode() != ModeWaitingForUser {
		t.Fatalf("mode = %s, want waiting_for_user", s.Mode())
	}
	s.setReady()
	snap = s.Snapshot()
	if snap.Mode != ModeReady || snap.ExecutionID != "" {
		t.Fatalf("after setReady: %+v", snap)
	}
}

func TestSetReadyIfOwnerOnly(t *testing.T) {
	s := NewSystemState()
	s.beginProcessing("ex1")
	s.setWaitingForUser()

	if s.setReadyIf("ex0") {
		t.Fatal("reset by a non-owner must be refused")
	}
	if s.Mode() != ModeWaitingForUser {
		t.Fatalf("mode = %s, non-owner reset must not change it", s.Mode())
	}

	if !s.setReadyIf("ex1") {
		t.Fatal("reset by the owner must succeed")
	}
	snap := s.Snapshot()
	if snap.Mode != ModeReady || snap.ExecutionID != "" {
		t.Fatalf("after owner reset: %+v", snap)
	}
}
