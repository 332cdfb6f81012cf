package agent

import (
	"time"

	"github.com/voxpilot/voxpilot/internal/intent"
)

// Status is the caller-visible outcome of routing one command.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusFailed         Status = "failed"
	StatusWaitingForUser Status = "waiting_for_user"
	StatusBusy           Status = "busy"
)

// Result is returned by Router.Route for every command.
type Result struct {
	ExecutionID string        `json:"execution_id" yaml:"execution_id"`
	Command     string        `json:"command" yaml:"command"`
	Intent      string        `json:"intent,omitempty" yaml:"intent,omitempty"`
	Status      Status        `json:"status" yaml:"status"`
	Message     string        `json:"message,omitempty" yaml:"message,omitempty"`
	// FallbackTriggered records that the slow vision path ran. Telemetry
	// only; a fallback success is still a success.
	FallbackTriggered bool          `json:"fallback_triggered,omitempty" yaml:"fallback_triggered,omitempty"`
	Duration          time.Duration `json:"duration" yaml:"duration"`
}

// Outcome is the internal result of a GUI handler attempt.
type Outcome struct {
	Success           bool
	FallbackTriggered bool
	// Reason records why escalation happened: no-match, permission-error,
	// timeout, or search-error.
	Reason  string
	Message string
}

func resultFromOutcome(cmd command, kind intent.Kind, out Outcome) Result {
	status := StatusFailed
	if out.Success {
		status = StatusSuccess
	}
	return Result{
		ExecutionID:       cmd.id,
		Command:           cmd.text,
		Intent:            kind.String(),
		Status:            status,
		Message:           out.Message,
		FallbackTriggered: out.FallbackTriggered,
		Duration:          time.Since(cmd.arrivedAt),
	}
}
