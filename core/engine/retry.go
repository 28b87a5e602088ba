package engine

import "github.com/evsched/evsched/core/model"

// attempt is the normalized result of one dispatch. ok drives the retry and
// logging decision; out is the raw outcome of the last device call issued.
type attempt struct {
	out model.Outcome
	ok  bool
}

// retryOnce runs f and, if the attempt failed, runs it exactly one more time
// with no delay. The second result is final regardless of its outcome. This is
// a best-effort mitigation for transient remote failures, not an idempotency
// guarantee.
func retryOnce(f func() attempt) (res attempt, retried bool) {
	res = f()
	if res.ok {
		return res, false
	}
	return f(), true
}
