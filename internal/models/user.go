package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash *string   `json:"-"`
	Provider     string    `json:"provider"`
	ProviderID   *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
