package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/voxpilot/voxpilot/internal/config"
	"github.com/voxpilot/voxpilot/internal/llmclient"
	"github.com/voxpilot/voxpilot/internal/platform"
)

const generateSystemPrompt = `You generate content for a desktop automation
agent. Output only the requested content, ready to be typed verbatim into an
application. No preamble, no markdown fences, no commentary.`

// deferredState is one pending placement. fired guarantees the one-shot
// property: whichever of trigger, timeout, or cancel flips it first owns the
// state, and the losers become no-ops.
type deferredState struct {
	executionID string
	content     string
	actionType  string
	initiatedAt time.Time
	timeoutAt   time.Time
	cancel      context.CancelFunc
	fired       atomic.Bool
	// done closes when the listener goroutine has fully finished, including
	// any triggered placement. Tests synchronize on it.
	done chan struct{}
}

// DeferredStatus is the externally visible deferred-action state.
type DeferredStatus struct {
	Active     bool      `json:"active" yaml:"active"`
	ActionType string    `json:"action_type,omitempty" yaml:"action_type,omitempty"`
	TimeoutAt  time.Time `json:"timeout_at,omitempty" yaml:"timeout_at,omitempty"`
}

// DeferredEngine owns the deferred-action workflow: generate content now,
// wait in the background for a placement click, then execute the stored
// action at the click location. At most one deferred action is active at a
// time; initiating a second cancels the first.
type DeferredEngine struct {
	llm    Reasoner
	clicks platform.ClickWatcher
	input  platform.Inputter
	audio  platform.Audio
	lock   *ExecutionLock
	state  *SystemState
	cfg    config.DeferredConfig
	log    *zap.Logger

	mu sync.Mutex
	st *deferredState
}

// NewDeferredEngine creates the engine. lock and state are shared with the
// router: the trigger callback re-acquires the lock before acting and resets
// the system mode when it finishes.
func NewDeferredEngine(
	llm Reasoner,
	clicks platform.ClickWatcher,
	input platform.Inputter,
	audio platform.Audio,
	lock *ExecutionLock,
	state *SystemState,
	cfg config.DeferredConfig,
	log *zap.Logger,
) *DeferredEngine {
	return &DeferredEngine{
		llm:    llm,
		clicks: clicks,
		input:  input,
		audio:  audio,
		lock:   lock,
		state:  state,
		cfg:    cfg,
		log:    log.Named("deferred"),
	}
}

// Active reports whether a deferred action is waiting for its trigger.
func (e *DeferredEngine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st != nil && !e.st.fired.Load()
}

// Done returns a channel closed when the active deferred action fully
// finishes (placement, cancel, or timeout). Already closed when nothing is
// active.
func (e *DeferredEngine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return e.st.done
}

// Status returns the externally visible deferred state.
func (e *DeferredEngine) Status() DeferredStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st == nil || e.st.fired.Load() {
		return DeferredStatus{}
	}
	return DeferredStatus{
		Active:     true,
		ActionType: e.st.actionType,
		TimeoutAt:  e.st.timeoutAt,
	}
}

// Initiate generates the requested content and starts the background trigger
// listener. It returns as soon as content is ready; it never blocks waiting
// for the placement click. Any previously active deferred action is cancelled
// first.
func (e *DeferredEngine) Initiate(ctx context.Context, executionID, contentRequest, actionType string) (string, error) {
	if e.clicks == nil {
		return "", fmt.Errorf("no click watcher available on this platform")
	}
	e.Cancel()

	content, err := e.generate(ctx, contentRequest)
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}
	if actionType == "" {
		actionType = "type"
	}

	now := time.Now()
	lctx, cancel := context.WithDeadline(context.Background(), now.Add(e.cfg.WaitTimeout))

	events, err := e.clicks.Watch(lctx)
	if err != nil {
		cancel()
		return "", fmt.Errorf("could not start trigger listener: %w", err)
	}

	st := &deferredState{
		executionID: executionID,
		content:     content,
		actionType:  actionType,
		initiatedAt: now,
		timeoutAt:   now.Add(e.cfg.WaitTimeout),
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	e.mu.Lock()
	e.st = st
	e.mu.Unlock()

	go e.listen(lctx, events, st)

	e.log.Info("deferred action armed",
		zap.String("execution_id", executionID),
		zap.String("action_type", actionType),
		zap.Time("timeout_at", st.timeoutAt))
	return content, nil
}

// Cancel stops the active deferred action, if any, and reports whether one
// was actually cancelled. Safe to call at any time, any number of times.
func (e *DeferredEngine) Cancel() bool {
	e.mu.Lock()
	st := e.st
	e.st = nil
	e.mu.Unlock()
	if st == nil {
		return false
	}

	// If the trigger already won the race, the placement is running and will
	// clean up after itself; report nothing to cancel.
	won := st.fired.CompareAndSwap(false, true)
	st.cancel()
	if won {
		e.log.Info("deferred action cancelled", zap.String("execution_id", st.executionID))
	}
	return won
}

func (e *DeferredEngine) generate(ctx context.Context, contentRequest string) (string, error) {
	if e.llm == nil {
		return "", errors.New("reasoning model not configured")
	}
	return e.llm.Generate(ctx, llmclient.Request{
		System: generateSystemPrompt,
		Prompt: contentRequest,
	})
}

// listen waits for exactly one of: a trigger click, the timeout deadline, or
// cancellation. It runs on its own goroutine for the lifetime of one deferred
// action.
func (e *DeferredEngine) listen(ctx context.Context, events <-chan platform.ClickEvent, st *deferredState) {
	defer close(st.done)

	select {
	case ev, ok := <-events:
		if !ok {
			return
		}
		e.onTrigger(ev, st)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			e.onTimeout(st)
		}
	}
}

// onTrigger runs the stored placement at the click location. One-shot: a
// second event, a concurrent cancel, or the timeout all lose the fired race
// and do nothing.
func (e *DeferredEngine) onTrigger(ev platform.ClickEvent, st *deferredState) {
	if !st.fired.CompareAndSwap(false, true) {
		return
	}
	st.cancel()

	// The router released the lock before suspending; take it back so the
	// placement cannot interleave with a concurrent command.
	if err := e.lock.Acquire(context.Background()); err != nil {
		e.log.Warn("trigger fired but lock unavailable, dropping placement",
			zap.String("execution_id", st.executionID))
		e.clearState(st)
		e.audio.Play(platform.CueFailure)
		return
	}
	defer func() {
		e.clearState(st)
		e.state.setReady()
		e.lock.Release()
	}()

	e.log.Info("placement trigger received",
		zap.String("execution_id", st.executionID),
		zap.Int("x", ev.X),
		zap.Int("y", ev.Y))

	if err := e.place(ev, st); err != nil {
		e.log.Warn("deferred placement failed", zap.Error(err))
		e.audio.Play(platform.CueFailure)
		e.audio.Speak("Sorry, I couldn't place the content.")
		return
	}
	e.audio.Play(platform.CueSuccess)
}

func (e *DeferredEngine) place(ev platform.ClickEvent, st *deferredState) error {
	if err := e.input.Click(ev.X, ev.Y, platform.MouseLeft, 1); err != nil {
		return fmt.Errorf("focus click: %w", err)
	}
	switch st.actionType {
	case "type":
		return e.input.TypeText(st.content, e.cfg.TypeDelayMs)
	default:
		return fmt.Errorf("unknown deferred action type %q", st.actionType)
	}
}

// onTimeout fires when no trigger arrived within the window. Same cleanup as
// cancel, plus user-facing notification.
func (e *DeferredEngine) onTimeout(st *deferredState) {
	if !st.fired.CompareAndSwap(false, true) {
		return
	}
	e.clearState(st)
	// Runs without the execution lock, so a newer command may already own
	// the state; only reset the mode while this action's id is still there.
	e.state.setReadyIf(st.executionID)

	e.log.Info("deferred action timed out",
		zap.String("execution_id", st.executionID),
		zap.Duration("window", e.cfg.WaitTimeout))
	e.audio.Play(platform.CueFailure)
	e.audio.Speak("I didn't see a click, so I discarded the generated content.")
}

func (e *DeferredEngine) clearState(st *deferredState) {
	e.mu.Lock()
	if e.st == st {
		e.st = nil
	}
	e.mu.Unlock()
}
