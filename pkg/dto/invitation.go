package dto

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

type CreateInvitationRequest struct {
	Email string `json:"email"`
}

func (r *CreateInvitationRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if r.Email == "" {
		return errors.New("email is required")
	}
	if !validEmail(r.Email) {
		return errors.New("email is not a valid address")
	}
	return nil
}

type DeclineInvitationRequest struct {
	Reason *string `json:"reason"`
}

// Validate drops a blank reason.
func (r *DeclineInvitationRequest) Validate() error {
	if r.Reason == nil {
		return nil
	}
	reason := strings.TrimSpace(*r.Reason)
	if reason == "" {
		r.Reason = nil
		return nil
	}
	if len(reason) > 1000 {
		return errors.New("reason must be at most 1000 characters")
	}
	r.Reason = &reason
	return nil
}

type InvitationTripResponse struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	StartDate string        `json:"start_date"`
	EndDate   string        `json:"end_date"`
	Creator   *UserResponse `json:"creator,omitempty"`
}

type InvitationResponse struct {
	ID            uuid.UUID               `json:"id"`
	TripID        uuid.UUID               `json:"trip_id"`
	Email         string                  `json:"email"`
	Status        string                  `json:"status"`
	SenderID      *uuid.UUID              `json:"sender_id,omitempty"`
	DeclineReason *string                 `json:"decline_reason,omitempty"`
	CreatedAt     string                  `json:"created_at"`
	UpdatedAt     string                  `json:"updated_at"`
	Trip          *InvitationTripResponse `json:"trip,omitempty"`
	Sender        *UserResponse           `json:"sender,omitempty"`
}
