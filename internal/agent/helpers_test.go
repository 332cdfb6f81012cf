package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/voxpilot/voxpilot/internal/config"
	"github.com/voxpilot/voxpilot/internal/intent"
	"github.com/voxpilot/voxpilot/internal/llmclient"
	"github.com/voxpilot/voxpilot/internal/model"
	"github.com/voxpilot/voxpilot/internal/platform"
	"github.com/voxpilot/voxpilot/internal/recovery"
	"github.com/voxpilot/voxpilot/internal/resolver"
	"github.com/voxpilot/voxpilot/internal/vision"
)

// Shared fakes for the agent tests.

type fakeReader struct {
	mu       sync.Mutex
	elements []model.Element
	err      error
	reads    int
}

func (f *fakeReader) Snapshot(_ context.Context, _ platform.Scope) ([]model.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	return f.elements, nil
}

func (f *fakeReader) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

type click struct {
	x, y int
}

type fakeInput struct {
	mu     sync.Mutex
	clicks []click
	typed  []string
	err    error
}

func (f *fakeInput) Click(x, y int, _ platform.MouseButton, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.clicks = append(f.clicks, click{x, y})
	return nil
}

func (f *fakeInput) MoveMouse(_, _ int) error { return nil }

func (f *fakeInput) TypeText(text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.typed = append(f.typed, text)
	return nil
}

func (f *fakeInput) KeyCombo(_ []string) error { return nil }

func (f *fakeInput) clickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clicks)
}

func (f *fakeInput) typedTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.typed...)
}

type fakeAudio struct {
	mu     sync.Mutex
	cues   []platform.Cue
	spoken []string
}

func (f *fakeAudio) Speak(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
}

func (f *fakeAudio) Play(cue platform.Cue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cues = append(f.cues, cue)
}

func (f *fakeAudio) played(cue platform.Cue) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cues {
		if c == cue {
			return true
		}
	}
	return false
}

type fakeWatcher struct {
	ch  chan platform.ClickEvent
	err error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{ch: make(chan platform.ClickEvent, 4)}
}

func (f *fakeWatcher) Watch(_ context.Context) (<-chan platform.ClickEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	lastReq llmclient.Request
}

func (f *fakeLLM) Generate(_ context.Context, req llmclient.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = req
	return f.reply, f.err
}

func (f *fakeLLM) last() llmclient.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

type fakeVision struct {
	mu       sync.Mutex
	analysis vision.Analysis
	err      error
	calls    int
}

func (f *fakeVision) Analyze(_ context.Context, _ platform.Scope) (vision.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.analysis, f.err
}

func (f *fakeVision) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// linkTree returns a tree with one link per title at staggered positions.
func linkTree(titles ...string) []model.Element {
	var els []model.Element
	for i, title := range titles {
		els = append(els, model.Element{
			ID:     i + 1,
			Role:   "lnk",
			Title:  title,
			Bounds: [4]int{100 * i, 50, 80, 20},
		})
	}
	return []model.Element{{ID: 0, Role: "win", Title: "Window", Children: els}}
}

func testResolverConfig() config.ResolverConfig {
	return config.ResolverConfig{
		Threshold:     85,
		AltThreshold:  70,
		Attributes:    []string{"title", "description", "value"},
		SearchTimeout: time.Second,
	}
}

func testPolicy() recovery.Policy {
	return recovery.Policy{
		MaxAttempts:   2,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// testAgent bundles a fully wired router and its fakes.
type testAgent struct {
	router   *Router
	fallback *FallbackCoordinator
	deferred *DeferredEngine
	lock     *ExecutionLock
	state    *SystemState
	reader   *fakeReader
	input    *fakeInput
	audio    *fakeAudio
	watcher  *fakeWatcher
	llm      *fakeLLM
	vision   *fakeVision
}

type agentOptions struct {
	waitTimeout time.Duration
	lockTimeout time.Duration
	noVision    bool
}

func newTestAgent(t *testing.T, reader *fakeReader, opt agentOptions) *testAgent {
	t.Helper()
	log := zap.NewNop()

	if opt.waitTimeout == 0 {
		opt.waitTimeout = time.Second
	}
	if opt.lockTimeout == 0 {
		opt.lockTimeout = 100 * time.Millisecond
	}

	routerCfg := config.RouterConfig{
		LockTimeout:      opt.lockTimeout,
		CommandBudget:    2 * time.Second,
		VisionRatePerMin: 600,
	}
	deferredCfg := config.DeferredConfig{WaitTimeout: opt.waitTimeout}

	a := &testAgent{
		reader:  reader,
		input:   &fakeInput{},
		audio:   &fakeAudio{},
		watcher: newFakeWatcher(),
		llm:     &fakeLLM{reply: "generated content"},
		vision:  &fakeVision{},
	}
	a.lock = NewExecutionLock(routerCfg.LockTimeout)
	a.state = NewSystemState()

	res := resolver.New(reader, testResolverConfig(), log)
	var vis VisionAnalyzer = a.vision
	if opt.noVision {
		vis = nil
	}
	a.fallback = NewFallbackCoordinator(res, vis, a.input, nil, testPolicy(), testResolverConfig(), routerCfg, log)
	a.deferred = NewDeferredEngine(a.llm, a.watcher, a.input, a.audio, a.lock, a.state, deferredCfg, log)
	a.router = NewRouter(routerCfg, intent.New(nil, log), a.fallback, a.deferred, a.llm, reader, a.audio, a.lock, a.state, testPolicy(), log)
	return a
}

// pendingDone returns the active deferred action's completion channel.
func (a *testAgent) pendingDone(t *testing.T) chan struct{} {
	t.Helper()
	a.deferred.mu.Lock()
	defer a.deferred.mu.Unlock()
	if a.deferred.st == nil {
		t.Fatal("no active deferred action")
	}
	return a.deferred.st.done
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for listener to finish")
	}
}
