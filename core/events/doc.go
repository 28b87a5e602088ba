// Package events defines the engine related events emitted on the event bus.
//
// Available event types:
//   - ActivityEvent: reportable activity entry
//   - CommandEvent: terminal command outcome
//   - WakeEvent: result of a wake attempt sequence
package events
