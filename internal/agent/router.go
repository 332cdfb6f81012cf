package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxpilot/voxpilot/internal/config"
	"github.com/voxpilot/voxpilot/internal/intent"
	"github.com/voxpilot/voxpilot/internal/llmclient"
	"github.com/voxpilot/voxpilot/internal/platform"
	"github.com/voxpilot/voxpilot/internal/recovery"
)

// Reasoner is the slice of the model client the agent needs.
type Reasoner interface {
	Generate(ctx context.Context, req llmclient.Request) (string, error)
}

// Classifier maps a command to an intent. Satisfied by intent.Classifier.
type Classifier interface {
	Classify(ctx context.Context, command string) intent.Result
}

// command is one routing cycle's immutable input.
type command struct {
	id        string
	text      string
	arrivedAt time.Time
}

// Router is the orchestrator core. It owns the execution lock and the system
// state; every command flows through Route, which classifies it and
// dispatches to the matching handler under the lock.
type Router struct {
	cfg        config.RouterConfig
	classifier Classifier
	fallback   *FallbackCoordinator
	deferred   *DeferredEngine
	llm        Reasoner
	reader     platform.TreeReader
	audio      platform.Audio
	lock       *ExecutionLock
	state      *SystemState
	policy     recovery.Policy
	log        *zap.Logger
}

// NewRouter wires the orchestrator. lock and state must be the same instances
// given to the DeferredEngine.
func NewRouter(
	cfg config.RouterConfig,
	classifier Classifier,
	fallback *FallbackCoordinator,
	deferred *DeferredEngine,
	llm Reasoner,
	reader platform.TreeReader,
	audio platform.Audio,
	lock *ExecutionLock,
	state *SystemState,
	pol recovery.Policy,
	log *zap.Logger,
) *Router {
	return &Router{
		cfg:        cfg,
		classifier: classifier,
		fallback:   fallback,
		deferred:   deferred,
		llm:        llm,
		reader:     reader,
		audio:      audio,
		lock:       lock,
		state:      state,
		policy:     pol,
		log:        log.Named("router"),
	}
}

// StatusReport combines system and deferred state for status queries.
type StatusReport struct {
	State    StateSnapshot  `json:"state" yaml:"state"`
	Deferred DeferredStatus `json:"deferred" yaml:"deferred"`
}

// Status returns the current system and deferred-action state.
func (r *Router) Status() StatusReport {
	return StatusReport{
		State:    r.state.Snapshot(),
		Deferred: r.deferred.Status(),
	}
}

// DeferredDone exposes the active deferred action's completion channel so
// one-shot callers can block until placement or timeout.
func (r *Router) DeferredDone() <-chan struct{} {
	return r.deferred.Done()
}

// CancelDeferred aborts any pending deferred action and reports whether one
// was active.
func (r *Router) CancelDeferred() bool {
	if r.deferred.Cancel() {
		r.state.setReady()
		return true
	}
	return false
}

// Route processes one command end to end. It never blocks indefinitely: lock
// acquisition is timeout-bounded, and a pending deferred action is cancelled
// before anything else so a suspended workflow can never stall new commands.
func (r *Router) Route(ctx context.Context, text string) Result {
	cmd := command{
		id:        shortID(),
		text:      strings.TrimSpace(text),
		arrivedAt: time.Now(),
	}
	if cmd.text == "" {
		return Result{
			ExecutionID: cmd.id,
			Status:      StatusFailed,
			Message:     "empty command",
		}
	}

	// A new command always wins over a pending placement.
	cancelled := r.deferred.Cancel()
	if cancelled {
		r.log.Info("pending deferred action superseded by new command",
			zap.String("execution_id", cmd.id))
	}

	if err := r.lock.Acquire(ctx); err != nil {
		if cancelled {
			// The cancelled action's waiting mode has no owner anymore.
			r.state.setReady()
		}
		return Result{
			ExecutionID: cmd.id,
			Command:     cmd.text,
			Status:      StatusBusy,
			Message:     "another command is still executing, try again",
			Duration:    time.Since(cmd.arrivedAt),
		}
	}

	r.state.beginProcessing(cmd.id)
	released := false
	defer func() {
		if !released {
			r.state.setReady()
			r.lock.Release()
		}
	}()

	res := r.classifier.Classify(ctx, cmd.text)
	r.log.Info("command classified",
		zap.String("execution_id", cmd.id),
		zap.String("intent", res.Kind.String()),
		zap.Float64("confidence", res.Confidence),
		zap.String("source", res.Source))

	var out Result
	switch res.Kind {
	case intent.ConversationalChat:
		out = r.handleChat(ctx, cmd, res)
	case intent.DeferredAction:
		out = r.handleDeferred(ctx, cmd, res)
	case intent.QuestionAnswering:
		out = r.handleQuestion(ctx, cmd, res)
	default:
		out = r.handleGUI(ctx, cmd, res)
	}

	if out.Status == StatusWaitingForUser {
		// The suspension must not hold the lock, or the trigger callback and
		// every later command would deadlock against it.
		r.state.setWaitingForUser()
		released = true
		r.lock.Release()
		return out
	}
	return out
}

func shortID() string {
	return uuid.NewString()[:8]
}
