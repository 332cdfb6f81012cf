package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxpilot/voxpilot/internal/intent"
	"github.com/voxpilot/voxpilot/internal/llmclient"
	"github.com/voxpilot/voxpilot/internal/model"
	"github.com/voxpilot/voxpilot/internal/platform"
	"github.com/voxpilot/voxpilot/internal/recovery"
)

const chatSystemPrompt = `You are a friendly desktop voice assistant. Reply in
one or two short spoken sentences. No markdown.`

const questionSystemPrompt = `You answer questions about what is currently on
the user's screen, using the provided screen text. Reply in one or two short
spoken sentences. If the answer is not on screen, say so.`

// handleGUI delegates to the fallback coordinator and plays the outcome cue.
func (r *Router) handleGUI(ctx context.Context, cmd command, res intent.Result) Result {
	out := r.fallback.ExecuteGUI(ctx, res.Parameters)
	if out.Success {
		r.audio.Play(platform.CueSuccess)
	} else {
		r.audio.Play(platform.CueFailure)
		if out.Message != "" {
			r.audio.Speak(out.Message)
		}
	}
	return resultFromOutcome(cmd, res.Kind, out)
}

// handleChat answers small talk without touching the desktop.
func (r *Router) handleChat(ctx context.Context, cmd command, res intent.Result) Result {
	if r.llm == nil {
		return r.fail(cmd, res.Kind, "reasoning model not configured")
	}
	reply, err := r.llm.Generate(ctx, llmclient.Request{
		System: chatSystemPrompt,
		Prompt: cmd.text,
	})
	if err != nil {
		return r.fail(cmd, res.Kind, fmt.Sprintf("chat reply failed: %v", err))
	}
	r.audio.Speak(reply)
	return Result{
		ExecutionID: cmd.id,
		Command:     cmd.text,
		Intent:      res.Kind.String(),
		Status:      StatusSuccess,
		Message:     reply,
		Duration:    time.Since(cmd.arrivedAt),
	}
}

// handleQuestion answers a question about on-screen content by feeding the
// visible display text to the reasoning model.
func (r *Router) handleQuestion(ctx context.Context, cmd command, res intent.Result) Result {
	if r.llm == nil {
		return r.fail(cmd, res.Kind, "reasoning model not configured")
	}

	question := res.Parameters["question"]
	if question == "" {
		question = cmd.text
	}

	var screenText []string
	if r.reader != nil {
		elements, err := recovery.Do(ctx, r.policy, r.log, func(ctx context.Context) ([]model.Element, error) {
			return r.reader.Snapshot(ctx, platform.Scope{})
		})
		if err != nil {
			r.log.Warn("could not read screen for question", zap.Error(err))
		} else {
			screenText = model.CollectDisplayText(elements, 100)
		}
	}

	prompt := question
	if len(screenText) > 0 {
		prompt = fmt.Sprintf("Screen text:\n%s\n\nQuestion: %s", strings.Join(screenText, "\n"), question)
	}

	answer, err := r.llm.Generate(ctx, llmclient.Request{
		System: questionSystemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return r.fail(cmd, res.Kind, fmt.Sprintf("answer failed: %v", err))
	}
	r.audio.Speak(answer)
	return Result{
		ExecutionID: cmd.id,
		Command:     cmd.text,
		Intent:      res.Kind.String(),
		Status:      StatusSuccess,
		Message:     answer,
		Duration:    time.Since(cmd.arrivedAt),
	}
}

// handleDeferred generates content and arms the placement listener. The
// returned waiting status makes the router release the lock before the
// suspension begins.
func (r *Router) handleDeferred(ctx context.Context, cmd command, res intent.Result) Result {
	contentRequest := res.Parameters["content_request"]
	if contentRequest == "" {
		contentRequest = cmd.text
	}

	content, err := r.deferred.Initiate(ctx, cmd.id, contentRequest, res.Parameters["action_type"])
	if err != nil {
		r.audio.Play(platform.CueFailure)
		return r.fail(cmd, res.Kind, err.Error())
	}

	r.audio.Play(platform.CueSuccess)
	r.audio.Speak("Content is ready. Click where you want it placed.")
	return Result{
		ExecutionID: cmd.id,
		Command:     cmd.text,
		Intent:      res.Kind.String(),
		Status:      StatusWaitingForUser,
		Message:     fmt.Sprintf("generated %d characters, waiting for placement click", len(content)),
		Duration:    time.Since(cmd.arrivedAt),
	}
}

func (r *Router) fail(cmd command, kind intent.Kind, msg string) Result {
	return Result{
		ExecutionID: cmd.id,
		Command:     cmd.text,
		Intent:      kind.String(),
		Status:      StatusFailed,
		Message:     msg,
		Duration:    time.Since(cmd.arrivedAt),
	}
}
