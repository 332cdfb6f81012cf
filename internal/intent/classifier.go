package intent

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/voxpilot/voxpilot/internal/llmclient"
)

// classifySystemPrompt constrains the model to the known intents and a JSON
// reply the classifier can parse.
const classifySystemPrompt = `You classify desktop voice commands. Reply with JSON only:
{"intent": "<gui_interaction|conversational_chat|deferred_action|question_answering>",
 "confidence": <0.0-1.0>,
 "parameters": {...}}
For gui_interaction set parameters.target (the element text) and
parameters.action (click, type, open, ...). For deferred_action set
parameters.content_request and parameters.action_type. For
question_answering set parameters.question.`

// minModelConfidence is the floor below which a model classification is
// discarded in favor of the heuristic.
const minModelConfidence = 0.5

// Reasoner is the slice of the reasoning client the classifier needs.
type Reasoner interface {
	Generate(ctx context.Context, req llmclient.Request) (string, error)
}

// Classifier maps raw command text to an intent. It never returns an error:
// any failure of the reasoning call falls back to deterministic heuristics,
// and an unmatched heuristic falls back to low-confidence gui_interaction.
type Classifier struct {
	reasoner Reasoner
	log      *zap.Logger
}

// New creates a Classifier. A nil reasoner is allowed and skips straight to
// the heuristic path (offline mode).
func New(reasoner Reasoner, log *zap.Logger) *Classifier {
	return &Classifier{reasoner: reasoner, log: log.Named("intent")}
}

// modelReply mirrors the JSON contract in classifySystemPrompt.
type modelReply struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Parameters map[string]string `json:"parameters"`
}

// Classify returns the intent for a command.
func (c *Classifier) Classify(ctx context.Context, command string) Result {
	if c.reasoner == nil {
		return c.heuristic(command, "no reasoner configured")
	}

	raw, err := c.reasoner.Generate(ctx, llmclient.Request{
		System:       classifySystemPrompt,
		Prompt:       command,
		JSONResponse: true,
	})
	if err != nil {
		return c.heuristic(command, "reasoning call failed: "+err.Error())
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(stripFences(raw)), &reply); err != nil {
		return c.heuristic(command, "malformed model reply")
	}

	kind, ok := ParseKind(reply.Intent)
	if !ok {
		return c.heuristic(command, "unknown intent "+reply.Intent)
	}
	if reply.Confidence < minModelConfidence {
		return c.heuristic(command, "model confidence too low")
	}

	params := reply.Parameters
	if params == nil {
		params = map[string]string{}
	}
	c.log.Debug("intent classified by model",
		zap.String("intent", kind.String()),
		zap.Float64("confidence", reply.Confidence))
	return Result{
		Kind:       kind,
		Confidence: reply.Confidence,
		Parameters: params,
		Source:     "model",
	}
}

func (c *Classifier) heuristic(command, reason string) Result {
	res := classifyHeuristic(command)
	c.log.Debug("intent classified by heuristic",
		zap.String("intent", res.Kind.String()),
		zap.String("reason", reason))
	return res
}

// stripFences removes a markdown code fence around a JSON reply, which some
// models emit even when asked for raw JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
