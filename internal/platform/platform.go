package platform

import (
	"context"

	"github.com/voxpilot/voxpilot/internal/model"
)

// TreeReader reads UI element snapshots from the OS accessibility layer.
type TreeReader interface {
	// Snapshot returns the element tree for the given scope. The tree is a
	// point-in-time copy; callers must not assume it stays valid.
	Snapshot(ctx context.Context, scope Scope) ([]model.Element, error)
}

// Inputter simulates mouse and keyboard input.
type Inputter interface {
	Click(x, y int, button MouseButton, count int) error
	MoveMouse(x, y int) error
	TypeText(text string, delayMs int) error
	KeyCombo(keys []string) error
}

// WindowManager reports and manipulates window focus.
type WindowManager interface {
	GetFrontmostApp() (name string, pid int, err error)
}

// Screenshotter captures screenshots for the vision fallback.
type Screenshotter interface {
	// Capture returns PNG bytes for the scoped window (or the full screen
	// when the scope is empty).
	Capture(ctx context.Context, scope Scope) ([]byte, error)
}

// ClickWatcher observes global pointer clicks, used as the placement trigger
// for deferred actions. The returned channel is closed when ctx is cancelled
// or the watcher shuts down.
type ClickWatcher interface {
	Watch(ctx context.Context) (<-chan ClickEvent, error)
}

// Audio plays spoken and non-spoken feedback. Both calls are fire-and-forget;
// implementations must not block command processing.
type Audio interface {
	Speak(text string)
	Play(cue Cue)
}
