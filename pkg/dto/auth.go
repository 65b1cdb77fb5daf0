package dto

import (
	"errors"
	"strings"
)

type ConsentURLResponse struct {
	URL string `json:"url"`
}

type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user,omitempty"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ExchangeCodeRequest struct {
	Code string `json:"code"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r *RegisterRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	r.Name = strings.TrimSpace(r.Name)

	if !validEmail(r.Email) {
		return errors.New("a valid email is required")
	}
	if len(r.Username) < 3 || len(r.Username) > 100 {
		return errors.New("username must be between 3 and 100 characters")
	}
	if err := checkText("username", r.Username, 100); err != nil {
		return err
	}
	if err := checkText("name", r.Name, 255); err != nil {
		return err
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if r.Email == "" || r.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}
