package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// ErrEmailNotVerified is returned when the provider cannot vouch for the
// address. Invitations are addressed by email, so such sign-ins are refused.
var ErrEmailNotVerified = errors.New("email address is not verified by the provider")

type UserInfo struct {
	Email    string
	Name     string
	ID       string
	Provider string
}

type Provider interface {
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
	Name() string
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
