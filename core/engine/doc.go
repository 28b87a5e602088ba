// Package engine executes scheduled vehicle commands. A single invocation
// sequences wake, safety gating, dispatch and one automatic retry, and records
// every terminal outcome in the activity log. RunCommand never returns an
// error to the scheduler: a scheduled background action has no synchronous
// caller, so failures are made durable and observable instead of thrown.
package engine
