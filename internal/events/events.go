// Package events carries scheduler lifecycle and delivery notifications out
// to subscribers: an in-process hub for the dashboard and an optional AMQP
// publisher for external consumers.
package events

import "time"

// Event types mirror the activity log entry types.
type Event struct {
	Type         string    `json:"type"`
	UserID       uint64    `json:"user_id"`
	CampaignID   uint64    `json:"campaign_id,omitempty"`
	InvitationID uint64    `json:"invitation_id,omitempty"`
	Message      string    `json:"message,omitempty"`
	At           time.Time `json:"at"`
}

// Notifier fans events out. Fire-and-forget; emitters never wait for
// acknowledgment.
type Notifier interface {
	Notify(userID uint64, ev Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(uint64, Event) {}

// Fanout notifies every child notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(userID uint64, ev Event) {
	for _, n := range f {
		n.Notify(userID, ev)
	}
}
