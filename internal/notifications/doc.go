// Package notifications delivers episode milestones to ntfy.
//
// NewService returns a no-op when no topic is configured. Per-event switches
// in [notifications] suppress started, completed, or failed messages.
package notifications
