package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/voxpilot/voxpilot/internal/config"
	"github.com/voxpilot/voxpilot/internal/platform"
	"github.com/voxpilot/voxpilot/internal/recovery"
	"github.com/voxpilot/voxpilot/internal/resolver"
	"github.com/voxpilot/voxpilot/internal/vision"
)

// VisionAnalyzer is the slice of the vision package the coordinator needs.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, scope platform.Scope) (vision.Analysis, error)
}

// FallbackCoordinator runs GUI commands: accessibility-tree resolution first
// (with retries and relaxed secondary searches), then the vision slow path
// when the fast path cannot produce a match. A vision success is still a
// success from the caller's perspective; FallbackTriggered is telemetry.
type FallbackCoordinator struct {
	resolver *resolver.Resolver
	vision   VisionAnalyzer
	input    platform.Inputter
	windows  platform.WindowManager
	policy   recovery.Policy
	resCfg   config.ResolverConfig
	budget   config.RouterConfig
	limiter  *rate.Limiter
	log      *zap.Logger

	// Set after a persistent permission error; skips straight to vision for
	// the rest of the session instead of burning retries on a denied API.
	fastPathDisabled atomic.Bool
}

// NewFallbackCoordinator wires the GUI execution pipeline.
func NewFallbackCoordinator(
	res *resolver.Resolver,
	vis VisionAnalyzer,
	input platform.Inputter,
	windows platform.WindowManager,
	pol recovery.Policy,
	resCfg config.ResolverConfig,
	routerCfg config.RouterConfig,
	log *zap.Logger,
) *FallbackCoordinator {
	perMin := routerCfg.VisionRatePerMin
	if perMin <= 0 {
		perMin = 12
	}
	return &FallbackCoordinator{
		resolver: res,
		vision:   vis,
		input:    input,
		windows:  windows,
		policy:   pol,
		resCfg:   resCfg,
		budget:   routerCfg,
		limiter:  rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin),
		log:      log.Named("fallback"),
	}
}

// FastPathDisabled reports whether tree access has been abandoned for the
// session.
func (f *FallbackCoordinator) FastPathDisabled() bool {
	return f.fastPathDisabled.Load()
}

// ExecuteGUI runs one GUI command described by the classifier's parameters
// ("target", "action", optional "text"). The whole attempt, fast path
// included, is bounded by the command budget; exceeding it escalates rather
// than waiting.
func (f *FallbackCoordinator) ExecuteGUI(ctx context.Context, params map[string]string) Outcome {
	target := params["target"]
	if target == "" {
		return Outcome{Success: false, Message: "no target element in command"}
	}
	action := params["action"]
	if action == "" {
		action = "click"
	}

	if f.budget.CommandBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.budget.CommandBudget)
		defer cancel()
	}

	// Scope the search to the frontmost application when the platform can
	// tell us what it is; an empty scope means whole desktop.
	scope := platform.Scope{}
	if f.windows != nil {
		if app, pid, err := f.windows.GetFrontmostApp(); err == nil {
			scope = platform.Scope{App: app, PID: pid}
		}
	}
	query := resolver.Query{Roles: rolesForAction(action), Text: target, Scope: scope}

	reason := "fast-path-disabled"
	if !f.fastPathDisabled.Load() {
		out, escalation := f.tryFastPath(ctx, query, action, params["text"])
		if escalation == "" {
			return out
		}
		reason = escalation
	}

	return f.escalate(ctx, scope, target, action, params["text"], reason)
}

// tryFastPath attempts tree resolution plus the cheap relaxed searches. It
// returns a final Outcome when it acted (or failed permanently), or an
// escalation reason when the slow path should take over.
func (f *FallbackCoordinator) tryFastPath(ctx context.Context, query resolver.Query, action, text string) (Outcome, string) {
	match, err := recovery.Do(ctx, f.policy, f.log, func(ctx context.Context) (resolver.MatchResult, error) {
		return f.resolver.Resolve(ctx, query)
	})
	switch {
	case errors.Is(err, platform.ErrPermissionDenied):
		f.fastPathDisabled.Store(true)
		f.log.Warn("accessibility permission denied, disabling fast path for this session",
			zap.String("hint", "grant accessibility access in system settings"))
		return Outcome{}, "permission-error"
	case errors.Is(err, resolver.ErrSearchTimeout) || errors.Is(err, context.DeadlineExceeded):
		return Outcome{}, "timeout"
	case err != nil:
		f.log.Warn("element search failed after retries", zap.Error(err))
		return Outcome{}, "search-error"
	}

	if match.Element == nil {
		// Primary strategy exhausted. Relaxed role set and threshold are far
		// cheaper than a vision round trip, so try them first.
		for _, alt := range recovery.AlternateQueries(query, f.resCfg.AltThreshold) {
			altMatch, altErr := f.resolver.Resolve(ctx, alt)
			if altErr != nil || altMatch.Element == nil {
				continue
			}
			f.log.Info("alternate search strategy matched",
				zap.String("target", query.Text),
				zap.Int("score", altMatch.Confidence))
			match = altMatch
			break
		}
	}
	if match.Element == nil {
		return Outcome{}, "no-match"
	}

	x, y := match.Element.Center()
	if err := f.performAction(action, x, y, text); err != nil {
		return Outcome{Success: false, Message: fmt.Sprintf("action failed: %v", err)}, ""
	}
	f.resolver.Invalidate(query.Scope)

	f.log.Info("fast path executed",
		zap.String("target", query.Text),
		zap.String("attribute", match.MatchedAttribute),
		zap.Int("score", match.Confidence))
	return Outcome{
		Success: true,
		Message: fmt.Sprintf("%s %q", action, query.Text),
	}, ""
}

// escalate runs the vision slow path. Escalations are rate limited so a
// misbehaving loop cannot hammer the vision API.
func (f *FallbackCoordinator) escalate(ctx context.Context, scope platform.Scope, target, action, text, reason string) Outcome {
	f.log.Info("escalating to vision fallback",
		zap.String("target", target),
		zap.String("reason", reason))
	hint := remediationHint(reason)

	if f.vision == nil {
		return Outcome{
			FallbackTriggered: true,
			Reason:            reason,
			Message:           fmt.Sprintf("could not find %q (%s) and no vision fallback is configured%s", target, reason, hint),
		}
	}
	if !f.limiter.Allow() {
		return Outcome{
			FallbackTriggered: true,
			Reason:            reason,
			Message:           "vision fallback rate limit reached, try again shortly",
		}
	}

	analysis, err := f.vision.Analyze(ctx, scope)
	if err != nil {
		return Outcome{
			FallbackTriggered: true,
			Reason:            reason,
			Message:           fmt.Sprintf("vision fallback failed: %v%s", err, hint),
		}
	}

	best := -1
	bestScore := 0
	for i := range analysis.Elements {
		score := resolver.Score(target, analysis.Elements[i].Label)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	minScore := f.resCfg.AltThreshold
	if minScore <= 0 {
		minScore = 70
	}
	if best < 0 || bestScore < minScore {
		return Outcome{
			FallbackTriggered: true,
			Reason:            reason,
			Message:           fmt.Sprintf("could not find %q on screen%s", target, hint),
		}
	}

	x, y := analysis.Elements[best].Center()
	if err := f.performAction(action, x, y, text); err != nil {
		return Outcome{
			FallbackTriggered: true,
			Reason:            reason,
			Message:           fmt.Sprintf("action failed: %v", err),
		}
	}
	f.resolver.Invalidate(scope)

	f.log.Info("vision fallback executed",
		zap.String("target", target),
		zap.String("label", analysis.Elements[best].Label),
		zap.Int("score", bestScore))
	return Outcome{
		Success:           true,
		FallbackTriggered: true,
		Reason:            reason,
		Message:           fmt.Sprintf("%s %q via screen analysis", action, target),
	}
}

// remediationHint turns an escalation reason the user can act on into
// guidance appended to failure messages.
func remediationHint(reason string) string {
	switch reason {
	case "permission-error", "fast-path-disabled":
		return "; accessibility access is not granted, enable it for this app in System Settings > Privacy & Security > Accessibility"
	default:
		return ""
	}
}

// performAction injects the input for one resolved element.
func (f *FallbackCoordinator) performAction(action string, x, y int, text string) error {
	switch action {
	case "type", "enter":
		if err := f.input.Click(x, y, platform.MouseLeft, 1); err != nil {
			return err
		}
		if text != "" {
			return f.input.TypeText(text, 0)
		}
		return nil
	default:
		// click, press, tap, open, select, ... all reduce to a single left
		// click at the element center.
		return f.input.Click(x, y, platform.MouseLeft, 1)
	}
}

// rolesForAction narrows the role set when the verb implies one. An empty
// return means all interactive roles.
func rolesForAction(action string) []string {
	switch action {
	case "type", "enter":
		return []string{"input"}
	default:
		return nil
	}
}
