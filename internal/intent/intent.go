package intent

// Kind is the fixed set of command intents.
type Kind int

const (
	// GUIInteraction is a direct UI action ("click the send button"). It is
	// also the safe default for unclassifiable commands.
	GUIInteraction Kind = iota
	// ConversationalChat is small talk with no desktop side effects.
	ConversationalChat
	// DeferredAction generates content now and places it on a later trigger
	// ("write an email declining the invite, I'll click where it goes").
	DeferredAction
	// QuestionAnswering answers a question about on-screen content.
	QuestionAnswering
)

var kindNames = map[Kind]string{
	GUIInteraction:     "gui_interaction",
	ConversationalChat: "conversational_chat",
	DeferredAction:     "deferred_action",
	QuestionAnswering:  "question_answering",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps an intent name to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return GUIInteraction, false
}

// Result is the classification outcome. Parameters carry intent-specific
// extracted values: "target" and "action" for GUI commands, "content_request"
// and "action_type" for deferred actions, "question" for QA.
type Result struct {
	Kind       Kind
	Confidence float64
	Parameters map[string]string
	// Source records which path produced the result: "model" or "heuristic".
	Source string
}
