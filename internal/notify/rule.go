// Package notify evaluates notification rules against newly submitted
// responses and fans matching events out to the configured channels.
package notify

// EventResponseCreated fires when a new response is stored.
const EventResponseCreated = "response.created"

// Rule describes a notification subscription: which form it watches,
// which events fire it, and an optional CEL condition over the
// response payload.
type Rule struct {
	ID     string `json:"id" yaml:"id"`
	FormID string `json:"formId" yaml:"formId"`

	// Events lists the event types the rule reacts to. Empty means
	// all events.
	Events []string `json:"events" yaml:"events"`

	// Condition is a CEL expression over `response` and `event`.
	// Empty means always match.
	Condition string `json:"condition" yaml:"condition"`

	// Channel names the delivery channel (email, webhook, slack).
	// Delivery itself happens downstream of the published event.
	Channel string `json:"channel" yaml:"channel"`
}

// MatchesEvent reports whether the rule subscribes to the event type.
func (r *Rule) MatchesEvent(eventType string) bool {
	if len(r.Events) == 0 {
		return true
	}
	for _, evt := range r.Events {
		if evt == eventType {
			return true
		}
	}
	return false
}
