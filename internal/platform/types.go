package platform

import (
	"errors"
	"fmt"
	"strings"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// ParseMouseButton converts a string value to MouseButton.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

// Scope limits a tree read or capture to one application.
type Scope struct {
	App string // Application name ("" = frontmost)
	PID int    // Process ID (0 = unset)
}

// ClickEvent is a global pointer click observed by a ClickWatcher.
type ClickEvent struct {
	X, Y   int
	Button MouseButton
}

// Cue identifies a non-spoken audio feedback sound.
type Cue int

const (
	CueSuccess Cue = iota
	CueFailure
	CueThinking
)

func (c Cue) String() string {
	switch c {
	case CueSuccess:
		return "success"
	case CueFailure:
		return "failure"
	case CueThinking:
		return "thinking"
	default:
		return "unknown"
	}
}

// Sentinel errors returned by platform backends. The retry layer treats
// ErrTreeUnavailable and ErrTimeout as transient; ErrPermissionDenied and
// ErrElementGone are permanent.
var (
	// ErrPermissionDenied means the OS rejected accessibility access.
	ErrPermissionDenied = errors.New("accessibility permission denied")
	// ErrTreeUnavailable means the element tree is temporarily unreadable,
	// e.g. the target application is busy or mid-transition.
	ErrTreeUnavailable = errors.New("element tree temporarily unavailable")
	// ErrTimeout means a platform call exceeded its deadline.
	ErrTimeout = errors.New("platform call timed out")
	// ErrElementGone means a previously resolved element no longer exists.
	ErrElementGone = errors.New("element no longer exists")
)

// IsTransient reports whether the error is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTreeUnavailable) || errors.Is(err, ErrTimeout)
}
