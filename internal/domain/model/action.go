package model

// Action is the closed set of recommendations the scoring service can return.
type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionDecline Action = "DECLINE"
	ActionReview  Action = "REVIEW"
	ActionUnknown Action = "UNKNOWN"
)

// ParseAction maps a wire string onto the closed Action set. Anything
// unrecognized becomes ActionUnknown so callers can handle it explicitly.
func ParseAction(s string) Action {
	switch s {
	case string(ActionApprove):
		return ActionApprove
	case string(ActionDecline):
		return ActionDecline
	case string(ActionReview):
		return ActionReview
	default:
		return ActionUnknown
	}
}

// Effective resolves ActionUnknown to the safe arm: a transaction the scorer
// could not classify goes to human review rather than being approved.
func (a Action) Effective() Action {
	if a == ActionApprove || a == ActionDecline || a == ActionReview {
		return a
	}
	return ActionReview
}
