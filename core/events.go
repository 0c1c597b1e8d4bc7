package core

import (
	"context"
	"time"
)

// Event subjects
const (
	EventClassCreated        = "class.created"
	EventClassMemberAdded    = "class.member_added"
	EventMessageSent         = "message.sent"
	EventNotificationCreated = "notification.created"
	EventAbsenceReviewed     = "absence.reviewed"
)

// Event is a domain event published after a successful write.
type Event struct {
	Type       string      `json:"event_type"`
	Recipients []string    `json:"recipients,omitempty"` // user IDs the event is addressed to
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewEvent(typ string, data interface{}, recipients ...string) Event {
	return Event{
		Type:       typ,
		Recipients: recipients,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// EventPublisher is any service that can deliver domain events.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}
