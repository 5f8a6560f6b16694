package conversation

import (
	"encoding/json"
	"strings"
)

type Action string

const (
	ActionContinue Action = "chat"
	ActionUnlock   Action = "send_media"
)

type DecisionKind int

const (
	// DecisionMalformed means the backend ignored the reply format; the raw text is the reply.
	DecisionMalformed DecisionKind = iota
	DecisionContinue
	DecisionUnlock
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionContinue:
		return "continue"
	case DecisionUnlock:
		return "unlock"
	default:
		return "malformed"
	}
}

type Decision struct {
	Kind         DecisionKind
	ReplyText    string
	ContentLabel string
}

func (d Decision) Action() Action {
	if d.Kind == DecisionUnlock {
		return ActionUnlock
	}

	return ActionContinue
}

func continueWith(text string) Decision {
	return Decision{
		Kind:      DecisionContinue,
		ReplyText: text,
	}
}

type decisionPayload struct {
	Response    *string `json:"response"`
	Action      *string `json:"action"`
	ContentType *string `json:"content_type"`
}

// ParseDecision never fails: anything that is not the expected JSON object
// becomes a malformed decision carrying raw verbatim.
func ParseDecision(raw string) Decision {
	malformed := Decision{
		Kind:      DecisionMalformed,
		ReplyText: raw,
	}

	result := strings.TrimSpace(raw)
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")
	result = strings.TrimSpace(result)

	var payload decisionPayload
	if err := json.Unmarshal([]byte(result), &payload); err != nil {
		return malformed
	}

	if payload.Response == nil && payload.Action == nil && payload.ContentType == nil {
		return malformed
	}

	decision := Decision{
		Kind:      DecisionContinue,
		ReplyText: deref(payload.Response),
	}

	if Action(strings.ToLower(strings.TrimSpace(deref(payload.Action)))) == ActionUnlock {
		decision.Kind = DecisionUnlock
		decision.ContentLabel = strings.TrimSpace(deref(payload.ContentType))
	}

	return decision
}

func deref(value *string) string {
	if value == nil {
		return ""
	}

	return *value
}
