// Package notify defines the notification collaborators consumed by the
// engine: a sender delivering messages to an address and a renderer expanding
// message templates. Both are opaque to the engine.
package notify

// Sender delivers a notification. It reports delivery success; transport
// details are the implementation's concern.
type Sender interface {
	Send(address, subject, body string) bool
}

// Renderer expands a message template into its final text.
type Renderer interface {
	Render(template string) (string, error)
}

// IdentityRenderer returns templates unchanged. Used when no templating
// collaborator is configured.
type IdentityRenderer struct{}

func (IdentityRenderer) Render(template string) (string, error) { return template, nil }
