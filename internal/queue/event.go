// Package queue defines the user lifecycle events exchanged over the message
// broker, the publisher used by the services and the audit consumer.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// UserEventsQueue is the durable queue carrying UserEvent messages.
const UserEventsQueue = "user.events"

// EventType names what happened to a user.
type EventType string

const (
	EventRegistered      EventType = "USER_REGISTERED"
	EventProfileUpdated  EventType = "USER_PROFILE_UPDATED"
	EventStatusChanged   EventType = "USER_STATUS_CHANGED"
	EventRoleChanged     EventType = "USER_ROLE_CHANGED"
	EventPasswordReset   EventType = "USER_PASSWORD_RESET"
	EventDeleted         EventType = "USER_DELETED"
	EventAddressesChange EventType = "USER_ADDRESSES_CHANGED"
)

// UserEvent is published after a user record changes. It carries
// identifiers only; credentials never leave the service.
type UserEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserName   string    `json:"user_name"`
	Actor      string    `json:"actor"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewUserEvent stamps a new event with a random id.
func NewUserEvent(t EventType, userName, actor string, at time.Time) UserEvent {
	return UserEvent{
		ID:         uuid.NewString(),
		Type:       t,
		UserName:   userName,
		Actor:      actor,
		OccurredAt: at.UTC(),
	}
}
