package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// IsTerminal reports whether no further transition is allowed.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationAccepted || s == InvitationDeclined
}

type Invitation struct {
	ID            uuid.UUID        `json:"id"`
	TripID        uuid.UUID        `json:"trip_id"`
	Email         string           `json:"email"`
	Status        InvitationStatus `json:"status"`
	SenderID      *uuid.UUID       `json:"sender_id,omitempty"`
	DeclineReason *string          `json:"decline_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	Trip   *Trip `json:"trip,omitempty"`
	Sender *User `json:"sender,omitempty"`
}
