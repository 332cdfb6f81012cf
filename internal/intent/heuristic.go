package intent

import (
	"regexp"
	"strings"
)

// Deterministic pattern fallback, used when the reasoning model is
// unavailable or low-confidence. Patterns are checked in a fixed order;
// the first hit wins.
var (
	chatRe = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|thanks|thank you|good (morning|afternoon|evening)|how are you)\b`)

	deferredRe = regexp.MustCompile(`(?i)\b(write|generate|compose|draft)\b.*\b(code|essay|email|text|letter|message|story|function|script|poem|reply|response|paragraph)\b`)

	guiVerbRe = regexp.MustCompile(`(?i)\b(click|press|tap|open|close|type|enter|select|choose|scroll|switch|focus|launch|quit|toggle|check|uncheck|maximize|minimize)\b`)

	questionRe = regexp.MustCompile(`(?i)^\s*(what|who|when|where|why|how|which)\b`)

	// Filler stripped from GUI targets: verbs, articles, prepositions.
	targetStripRe = regexp.MustCompile(`(?i)^\s*(please\s+)?(click|press|tap|select|choose|open|close|focus|toggle|check|uncheck)\s+(on\s+|at\s+)?(the\s+|a\s+|an\s+)?`)
)

// classifyHeuristic maps a command to an intent with keyword patterns. It
// always produces a result; commands matching nothing default to
// gui_interaction with low confidence, the least risky interpretation.
func classifyHeuristic(command string) Result {
	trimmed := strings.TrimSpace(command)

	switch {
	case chatRe.MatchString(trimmed):
		return Result{
			Kind:       ConversationalChat,
			Confidence: 0.8,
			Parameters: map[string]string{"message": trimmed},
			Source:     "heuristic",
		}
	case deferredRe.MatchString(trimmed):
		return Result{
			Kind:       DeferredAction,
			Confidence: 0.8,
			Parameters: map[string]string{
				"content_request": trimmed,
				"action_type":     "type",
			},
			Source: "heuristic",
		}
	case guiVerbRe.MatchString(trimmed):
		return Result{
			Kind:       GUIInteraction,
			Confidence: 0.75,
			Parameters: guiParameters(trimmed),
			Source:     "heuristic",
		}
	case questionRe.MatchString(trimmed) || strings.HasSuffix(trimmed, "?"):
		return Result{
			Kind:       QuestionAnswering,
			Confidence: 0.7,
			Parameters: map[string]string{"question": trimmed},
			Source:     "heuristic",
		}
	default:
		return Result{
			Kind:       GUIInteraction,
			Confidence: 0.3,
			Parameters: guiParameters(trimmed),
			Source:     "heuristic",
		}
	}
}

// guiParameters extracts the action verb and target phrase from a GUI command.
func guiParameters(command string) map[string]string {
	action := "click"
	if m := guiVerbRe.FindString(command); m != "" {
		action = strings.ToLower(m)
	}
	target := targetStripRe.ReplaceAllString(command, "")
	target = strings.TrimSpace(strings.Trim(target, `."'`))
	if target == "" {
		target = strings.TrimSpace(command)
	}
	return map[string]string{
		"action": action,
		"target": target,
	}
}
