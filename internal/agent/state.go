package agent

import (
	"sync"
	"time"
)

// Mode is the coarse system state visible to status queries.
type Mode int

const (
	ModeReady Mode = iota
	ModeProcessing
	ModeWaitingForUser
)

func (m Mode) String() string {
	switch m {
	case ModeReady:
		return "ready"
	case ModeProcessing:
		return "processing"
	case ModeWaitingForUser:
		return "waiting_for_user"
	default:
		return "unknown"
	}
}

// SystemState tracks the current command. There is exactly one instance per
// agent and all transitions go through the router, so readers see a
// consistent mode/execution-id pair.
type SystemState struct {
	mu          sync.Mutex
	mode        Mode
	executionID string
	startedAt   time.Time
}

// StateSnapshot is a point-in-time copy of the system state.
type StateSnapshot struct {
	Mode        Mode      `json:"mode" yaml:"mode"`
	ExecutionID string    `json:"execution_id,omitempty" yaml:"execution_id,omitempty"`
	StartedAt   time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
}

// NewSystemState returns a state in ready mode.
func NewSystemState() *SystemState {
	return &SystemState{mode: ModeReady}
}

func (s *SystemState) beginProcessing(executionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeProcessing
	s.executionID = executionID
	s.startedAt = time.Now()
}

func (s *SystemState) setWaitingForUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeWaitingForUser
}

func (s *SystemState) setReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeReady
	s.executionID = ""
	s.startedAt = time.Time{}
}

// setReadyIf resets to ready only while executionID still owns the state.
// Cleanup paths that run without the execution lock use this so a late
// reset cannot clobber a newer command's mode.
func (s *SystemState) setReadyIf(executionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.executionID != executionID {
		return false
	}
	s.mode = ModeReady
	s.executionID = ""
	s.startedAt = time.Time{}
	return true
}

// Snapshot returns a copy of the current state.
func (s *SystemState) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StateSnapshot{
		Mode:        s.mode,
		ExecutionID: s.executionID,
		StartedAt:   s.startedAt,
	}
}

// Mode returns the current mode.
func (s *SystemState) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}
