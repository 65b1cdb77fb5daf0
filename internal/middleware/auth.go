package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/internal/services"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"

	// AccessTokenParam carries the token for clients that cannot set headers,
	// such as a browser EventSource.
	AccessTokenParam = "access_token"
)

type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

func Auth(tokens AccessTokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)

		c.Next()
	}
}

func bearerToken(c *drift.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.QueryParam(AccessTokenParam); token != "" {
			return token, true
		}
		c.Unauthorized("missing authorization header")
		return "", false
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		c.Unauthorized("invalid authorization header format")
		return "", false
	}
	return token, true
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if email, ok := c.Get(UserEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}
