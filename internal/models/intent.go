package models

import "strings"

// Action classifies what the user asked for.
type Action string

const (
	ActionCreateEvent Action = "create_event"
	ActionCreateTask  Action = "create_task"
	ActionSendMessage Action = "send_message"
	ActionSetReminder Action = "set_reminder"
	ActionSearchInfo  Action = "search_info"
	ActionUnknown     Action = "unknown"
)

// KnownActions lists every action the system understands.
var KnownActions = []Action{
	ActionCreateEvent,
	ActionCreateTask,
	ActionSendMessage,
	ActionSetReminder,
	ActionSearchInfo,
	ActionUnknown,
}

// IsKnown reports whether a is one of the supported action values.
func (a Action) IsKnown() bool {
	for _, known := range KnownActions {
		if a == known {
			return true
		}
	}
	return false
}

// Intent is the structured form of a spoken request.
type Intent struct {
	Action     Action  `json:"action"`
	Title      string  `json:"title"`
	Time       string  `json:"time,omitempty"`
	Details    string  `json:"details"`
	Confidence float64 `json:"confidence"`
}

// Normalize tidies model output in place: the action is lower-cased and
// trimmed, and confidence is clamped into [0, 1]. Unrecognized actions are
// kept verbatim so a configured webhook still sees what the model said;
// the mock dispatcher treats them as unknown.
func (i *Intent) Normalize() {
	i.Action = Action(strings.ToLower(strings.TrimSpace(string(i.Action))))
	if i.Confidence < 0 {
		i.Confidence = 0
	}
	if i.Confidence > 1 {
		i.Confidence = 1
	}
}
