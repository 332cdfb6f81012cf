package agent

import (
	"context"
	"testing"
	"time"

	"github.com/voxpilot/voxpilot/internal/platform"
)

func TestDeferredTriggerPlacesContent(t *testing.T) {
	a := newTestAgent(t, &fakeReader{}, agentOptions{})
	a.llm.reply = "Dear boss, I quit."

	content, err := a.deferred.Initiate(context.Background(), "ex1", "write a resignation email", "type")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if content != "Dear boss, I quit." {
		t.Fatalf("content = %q", content)
	}
	if !a.deferred.Active() {
		t.Fatal("expected active deferred action")
	}

	done := a.pendingDone(t)
	a.watcher.ch <- platform.ClickEvent{X: 300, Y: 400}
	waitClosed(t, done)

	if a.input.clickCount() != 1 {
		t.Fatalf("clicks = %d, want 1", a.input.clickCount())
	}
	if typed := a.input.typedTexts(); len(typed) != 1 || typed[0] != "Dear boss, I quit." {
		t.Fatalf("typed = %v", typed)
	}
	if !a.audio.played(platform.CueSuccess) {
		t.Fatal("expected success cue after placement")
	}
	if a.deferred.Active() {
		t.Fatal("deferred state must reset after placement")
	}
	if a.state.Mode() != ModeReady {
		t.Fatalf("mode = %s, want ready", a.state.Mode())
	}
	if !a.lock.TryAcquire() {
		t.Fatal("lock must be free after placement")
	}
	a.lock.Release()
}

func TestDeferredTriggerFiresOnce(t *testing.T) {
	a := newTestAgent(t, &fakeReader{}, agentOptions{})

	if _, err := a.deferred.Initiate(context.Background(), "ex1", "write a poem", "type"); err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	done := a.pendingDone(t)

	// Two rapid clicks; the placement must run exactly once.
	a.watcher.ch <- platform.ClickEvent{X: 10, Y: 10}
	a.watcher.ch <- platform.ClickEvent{X: 20, Y: 20}
	waitClosed(t, done)
	time.Sleep(20 * time.Millisecond)

	if n := a.input.clickCount(); n != 1 {
		t.Fatalf("placement clicks = %d, want 1", n)
	}
	if n := len(a.input.typedTexts()); n != 1 {
		t.Fatalf("typed texts = %d, want 1", n)
	}
}

func TestDeferredTimeout(t *testing.T) {
	a := newTestAgent(t, &fakeReader{}, agentOptions{waitTimeout: 30 * time.Millisecond})

	if _, err := a.deferred.Initiate(context.Background(), "ex1", "write a haiku", "type"); err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	done := a.pendingDone(t)
	waitClosed(t, done)

	if a.input.clickCount() != 0 {
		t.Fatal("no placement may execute on timeout")
	}
	if !a.audio.played(platform.CueFailure) {
		t.Fatal("expected failure cue on timeout")
	}
	if a.deferred.Active() {
		t.Fatal("deferred state must reset on timeout")
	}
	if a.state.Mode() != ModeReady {
		t.Fatalf("mode = %s, want ready", a.state.Mode())
	}

	// A click after the timeout must be ignored.
	a.watcher.ch <- platform.ClickEvent{X: 5, Y: 5}
	time.Sleep(20 * time.Millisecond)
	if a.input.clickCount() != 0 {
		t.Fatal("stale trigger executed after timeout")
	}
}

func TestLateTimeoutLeavesNewCommandState(t *testing.T) {
	a := newTestAgent(t, &fakeReader{}, agentOptions{waitTimeout: time.Minute})

	res := a.router.Route(context.Background(), "write an email to my boss")
	if res.Status != StatusWaitingForUser {
		t.Fatalf("setup: status = %s (%s)", res.Status, res.Message)
	}
	a.deferred.mu.Lock()
	first := a.deferred.st
	a.deferred.mu.Unlock()

	// A newer command owns the state by the time the first action's timeout
	// handler gets to run.
	a.state.beginProcessing("ex2")
	a.state.setWaitingForUser()

	a.deferred.onTimeout(first)
	first.cancel()

	if a.state.Mode() != ModeWaitingForUser {
		t.Fatalf("mode = %s, a late timeout must not reset a newer command", a.state.Mode())
	}
	if snap := a.state.Snapshot(); snap.ExecutionID != "ex2" {
		t.Fatalf("execution id = %q, want ex2", snap.ExecutionID)
	}
}

func TestDeferredCancelIsIdempotent(t *testing.T) {
	a := newTestAgent(t, &fakeReader{}, agentOptions{})

	if a.deferred.Cancel() {
		t.Fatal("cancel with nothing active must be a no-op")
	}
	if _, err := a.deferred.Initiate(context.Background(), "ex1", "write a note", "type"); err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if !a.deferred.Cancel() {
		t.Fatal("first cancel must report an active action")
	}
	if a.deferred.Cancel() {
		t.Fatal("second cancel must be a no-op")
	}
	if a.deferred.Active() {
		t.Fatal("state must be inactive after cancel")
	}
}

func TestDeferredSecondInitiateCancelsFirst(t *testing.T) {
	a := newTestAgent(t, &fakeReader{}, agentOptions{})

	if _, err := a.deferred.Initiate(context.Background(), "ex1", "first", "type"); err != nil {
		t.Fatalf("first Initiate: %v", err)
	}
	firstDone := a.pendingDone(t)

	a.llm.reply = "second content"
	if _, err := a.deferred.Initiate(context.Background(), "ex2", "second", "type"); err != nil {
		t.Fatalf("second Initiate: %v", err)
	}
	waitClosed(t, firstDone)

	if !a.deferred.Active() {
		t.Fatal("second action must be active")
	}
	st := a.deferred.Status()
	if !st.Active {
		t.Fatal("status must report active")
	}

	done := a.pendingDone(t)
	a.watcher.ch <- platform.ClickEvent{X: 1, Y: 2}
	waitClosed(t, done)

	if typed := a.input.typedTexts(); len(typed) != 1 || typed[0] != "second content" {
		t.Fatalf("typed = %v, want only the second content", typed)
	}
}

func TestDeferredGenerationFailure(t *testing.T) {
	a := newTestAgent(t, &fakeReader{}, agentOptions{})
	a.llm.err = context.DeadlineExceeded

	if _, err := a.deferred.Initiate(context.Background(), "ex1", "write a story", "type"); err == nil {
		t.Fatal("expected error when generation fails")
	}
	if a.deferred.Active() {
		t.Fatal("no state may remain after failed initiation")
	}
}

func TestDeferredStatusInactive(t *testing.T) {
	a := newTestAgent(t, &fakeReader{}, agentOptions{})
	if st := a.deferred.Status(); st.Active {
		t.Fatalf("expected inactive status, got %+v", st)
	}
}
