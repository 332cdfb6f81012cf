package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/voxpilot/voxpilot/internal/model"
	"github.com/voxpilot/voxpilot/internal/platform"
	"github.com/voxpilot/voxpilot/internal/vision"
)

func guiParams(target string) map[string]string {
	return map[string]string{"action": "click", "target": target}
}

func TestFastPathClicksMatch(t *testing.T) {
	reader := &fakeReader{elements: linkTree("Gmail link", "Drive", "Photos")}
	a := newTestAgent(t, reader, agentOptions{})

	out := a.fallback.ExecuteGUI(context.Background(), guiParams("Gmail link"))
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.FallbackTriggered {
		t.Fatal("fast path success must not report a fallback")
	}
	if a.input.clickCount() != 1 {
		t.Fatalf("clicks = %d, want 1", a.input.clickCount())
	}
	if a.vision.callCount() != 0 {
		t.Fatal("vision must not run when the fast path matches")
	}
}

func TestNoMatchEscalatesToVision(t *testing.T) {
	reader := &fakeReader{elements: linkTree("Drive", "Photos")}
	a := newTestAgent(t, reader, agentOptions{})
	a.vision.analysis = vision.Analysis{
		Description: "a browser window",
		Elements:    []vision.Element{{Label: "Gmail link", Bounds: [4]int{500, 100, 60, 20}}},
	}

	out := a.fallback.ExecuteGUI(context.Background(), guiParams("Gmail link"))
	if !out.Success {
		t.Fatalf("expected vision fallback success, got %+v", out)
	}
	if !out.FallbackTriggered {
		t.Fatal("vision success must set FallbackTriggered")
	}
	if out.Reason != "no-match" {
		t.Fatalf("reason = %q, want no-match", out.Reason)
	}
	if a.vision.callCount() != 1 {
		t.Fatalf("vision calls = %d, want 1", a.vision.callCount())
	}
	// Click lands at the vision element's center.
	a.input.mu.Lock()
	c := a.input.clicks[len(a.input.clicks)-1]
	a.input.mu.Unlock()
	if c.x != 530 || c.y != 110 {
		t.Fatalf("click at (%d,%d), want (530,110)", c.x, c.y)
	}
}

func TestVisionMissFails(t *testing.T) {
	reader := &fakeReader{elements: linkTree("Drive")}
	a := newTestAgent(t, reader, agentOptions{})
	a.vision.analysis = vision.Analysis{
		Elements: []vision.Element{{Label: "completely unrelated", Bounds: [4]int{0, 0, 10, 10}}},
	}

	out := a.fallback.ExecuteGUI(context.Background(), guiParams("Gmail link"))
	if out.Success {
		t.Fatal("expected failure when neither path finds the target")
	}
	if !out.FallbackTriggered {
		t.Fatal("escalation must be recorded even on failure")
	}
	if a.input.clickCount() != 0 {
		t.Fatal("no click may happen without a match")
	}
}

func TestPermissionErrorDisablesFastPath(t *testing.T) {
	reader := &fakeReader{err: platform.ErrPermissionDenied}
	a := newTestAgent(t, reader, agentOptions{noVision: true})

	out := a.fallback.ExecuteGUI(context.Background(), guiParams("anything"))
	if out.Success {
		t.Fatal("expected failure with no vision configured")
	}
	if out.Reason != "permission-error" {
		t.Fatalf("reason = %q, want permission-error", out.Reason)
	}
	if !a.fallback.FastPathDisabled() {
		t.Fatal("persistent permission error must disable the fast path")
	}
	if !strings.Contains(out.Message, "System Settings") {
		t.Fatalf("message must tell the user how to grant access, got %q", out.Message)
	}

	reads := reader.readCount()
	out = a.fallback.ExecuteGUI(context.Background(), guiParams("anything"))
	if out.Reason != "fast-path-disabled" {
		t.Fatalf("reason = %q, want fast-path-disabled", out.Reason)
	}
	if reader.readCount() != reads {
		t.Fatal("disabled fast path must not touch the tree again")
	}
}

func TestTransientErrorRetriesThenEscalates(t *testing.T) {
	reader := &fakeReader{err: platform.ErrTreeUnavailable}
	a := newTestAgent(t, reader, agentOptions{})
	a.vision.analysis = vision.Analysis{
		Elements: []vision.Element{{Label: "OK", Bounds: [4]int{10, 10, 20, 20}}},
	}

	out := a.fallback.ExecuteGUI(context.Background(), guiParams("OK"))
	if !out.Success || !out.FallbackTriggered {
		t.Fatalf("expected vision success after retries, got %+v", out)
	}
	if out.Reason != "search-error" {
		t.Fatalf("reason = %q, want search-error", out.Reason)
	}
	if reader.readCount() != 2 {
		t.Fatalf("snapshot attempts = %d, want 2 (max attempts)", reader.readCount())
	}
}

func TestAlternateStrategyAvoidsVision(t *testing.T) {
	// A "type" command narrows the role set to text inputs, which misses the
	// button; the relaxed-role alternate pass must find it without vision.
	reader := &fakeReader{elements: []model.Element{
		{ID: 1, Role: "btn", Title: "Search box", Bounds: [4]int{10, 10, 80, 20}},
	}}
	a := newTestAgent(t, reader, agentOptions{})

	out := a.fallback.ExecuteGUI(context.Background(), map[string]string{"action": "type", "target": "Search box"})
	if !out.Success {
		t.Fatalf("expected alternate-strategy success, got %+v", out)
	}
	if out.FallbackTriggered {
		t.Fatal("alternate strategies are still the fast path")
	}
	if a.vision.callCount() != 0 {
		t.Fatal("vision must not run when an alternate strategy matches")
	}
}

func TestBestCandidateClicked(t *testing.T) {
	reader := &fakeReader{elements: []model.Element{
		{ID: 1, Role: "btn", Title: "Cancel", Bounds: [4]int{0, 0, 50, 20}},
		{ID: 2, Role: "btn", Title: "Submit", Bounds: [4]int{200, 0, 50, 20}},
	}}
	a := newTestAgent(t, reader, agentOptions{})

	out := a.fallback.ExecuteGUI(context.Background(), guiParams("Submit"))
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	a.input.mu.Lock()
	c := a.input.clicks[0]
	a.input.mu.Unlock()
	if c.x != 225 || c.y != 10 {
		t.Fatalf("clicked (%d,%d), want the matching candidate at (225,10)", c.x, c.y)
	}
}

func TestMissingTargetFailsFast(t *testing.T) {
	a := newTestAgent(t, &fakeReader{}, agentOptions{})
	out := a.fallback.ExecuteGUI(context.Background(), map[string]string{"action": "click"})
	if out.Success || out.FallbackTriggered {
		t.Fatalf("expected plain failure for missing target, got %+v", out)
	}
}
