package dto

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Provider string    `json:"provider"`
}

type MeResponse struct {
	UserResponse
	HasPendingInvitations bool `json:"has_pending_invitations"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
}

func (r *UpdateUserRequest) Validate() error {
	if r.Name == nil && r.Username == nil {
		return errors.New("nothing to update")
	}
	if r.Username != nil {
		u := strings.TrimSpace(*r.Username)
		if len(u) < 3 || len(u) > 100 {
			return errors.New("username must be between 3 and 100 characters")
		}
		if err := checkText("username", u, 100); err != nil {
			return err
		}
		r.Username = &u
	}
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		if err := checkText("name", n, 255); err != nil {
			return err
		}
		r.Name = &n
	}
	return nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return errors.New("current_password is required")
	}
	if len(r.NewPassword) < 8 {
		return errors.New("new_password must be at least 8 characters")
	}
	return nil
}
