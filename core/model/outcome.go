package model

// ExplanationAlreadySet is returned by the vehicle when a requested charge
// target already matches the current target. It is a recognized non-error for
// idempotent set operations.
const ExplanationAlreadySet = "already_set"

// Outcome is the result of one device call or dispatch attempt.
type Outcome struct {
	Success     bool   `json:"success"`
	Explanation string `json:"explanation,omitempty"`
}

// Succeeded is the canonical successful outcome.
var Succeeded = Outcome{Success: true}

// Failed builds a failed outcome with the given explanation.
func Failed(explanation string) Outcome {
	return Outcome{Success: false, Explanation: explanation}
}

// OKForSet reports whether the outcome should be treated as a success for an
// idempotent set operation.
func (o Outcome) OKForSet() bool {
	return o.Success || o.Explanation == ExplanationAlreadySet
}
