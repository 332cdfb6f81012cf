package cmd

import (
	"go.uber.org/zap"

	"github.com/voxpilot/voxpilot/internal/agent"
	"github.com/voxpilot/voxpilot/internal/intent"
	"github.com/voxpilot/voxpilot/internal/llmclient"
	"github.com/voxpilot/voxpilot/internal/observability"
	"github.com/voxpilot/voxpilot/internal/platform"
	"github.com/voxpilot/voxpilot/internal/recovery"
	"github.com/voxpilot/voxpilot/internal/resolver"
	"github.com/voxpilot/voxpilot/internal/vision"
)

// noopAudio stands in when the platform has no audio backend.
type noopAudio struct{}

func (noopAudio) Speak(string)      {}
func (noopAudio) Play(platform.Cue) {}

// buildAgent wires the full orchestrator from the loaded config and the
// current platform's backends. Without an API key the agent still runs,
// classifying with heuristics and skipping vision.
func buildAgent() (*agent.Router, error) {
	log := observability.Logger()

	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}

	var llm agent.Reasoner
	var intentModel intent.Reasoner
	client, err := llmclient.New(cfg.Reasoning, log)
	if err != nil {
		log.Warn("reasoning model unavailable, running with heuristics only", zap.Error(err))
	} else {
		llm = client
		intentModel = client
	}

	var audio platform.Audio = noopAudio{}
	if provider.Audio != nil {
		audio = provider.Audio
	}

	pol := recovery.PolicyFromConfig(cfg.Recovery)
	res := resolver.New(provider.Reader, cfg.Resolver, log)

	var vis agent.VisionAnalyzer
	if client != nil && provider.Screenshotter != nil {
		vis = vision.New(client, provider.Screenshotter, cfg.Vision, log)
	}

	fallback := agent.NewFallbackCoordinator(res, vis, provider.Inputter, provider.WindowManager, pol, cfg.Resolver, cfg.Router, log)
	lock := agent.NewExecutionLock(cfg.Router.LockTimeout)
	state := agent.NewSystemState()
	deferred := agent.NewDeferredEngine(llm, provider.Clicks, provider.Inputter, audio, lock, state, cfg.Deferred, log)
	classifier := intent.New(intentModel, log)

	return agent.NewRouter(cfg.Router, classifier, fallback, deferred, llm, provider.Reader, audio, lock, state, pol, log), nil
}
