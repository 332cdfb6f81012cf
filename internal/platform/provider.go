package platform

import (
	"fmt"
	"runtime"
)

// Provider bundles all platform backends for the current OS. Any field may
// be nil when the backend is unavailable; callers check before use.
type Provider struct {
	Reader        TreeReader
	Inputter      Inputter
	WindowManager WindowManager
	Screenshotter Screenshotter
	Clicks        ClickWatcher
	Audio         Audio
}

// ErrUnsupported is returned on platforms without a registered backend.
var ErrUnsupported = fmt.Errorf("voxpilot has no platform backend for %s/%s", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by platform-specific packages via init().
var NewProviderFunc func() (*Provider, error)

// RequestPermissionsFunc is set by platform-specific packages via init().
// It triggers OS permission prompts (accessibility, screen recording) at
// startup.
var RequestPermissionsFunc func()

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}

// RequestPermissions triggers OS permission prompts if a backend registered
// a hook for it.
func RequestPermissions() {
	if RequestPermissionsFunc != nil {
		RequestPermissionsFunc()
	}
}
