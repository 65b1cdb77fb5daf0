package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/internal/config"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/planit-app/planit-api/internal/oauth"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/planit-app/planit-api/pkg/dto"
)

const (
	oauthStateTTL = 10 * time.Minute
	authCodeTTL   = 30 * time.Second
)

type AuthHandler struct {
	cfg               *config.Config
	google            oauth.Provider
	userService       UserServiceInterface
	tokenService      TokenServiceInterface
	jwtService        JWTServiceInterface
	invitationService InvitationServiceInterface
	states            sync.Map
	authCodes         sync.Map
}

type authCodeData struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func NewAuthHandler(
	cfg *config.Config,
	userService UserServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
	invitationService InvitationServiceInterface,
) *AuthHandler {
	h := &AuthHandler{
		cfg:               cfg,
		userService:       userService,
		tokenService:      tokenService,
		jwtService:        jwtService,
		invitationService: invitationService,
	}
	if cfg.Google.ClientID != "" {
		h.google = oauth.NewGoogleProvider(cfg.Google)
	}
	return h
}

// RunCleanup drops expired OAuth states and one-time codes until ctx ends.
func (h *AuthHandler) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.sweep(now)
		}
	}
}

func (h *AuthHandler) sweep(now time.Time) {
	h.states.Range(func(key, value any) bool {
		if exp, ok := value.(time.Time); ok && now.After(exp) {
			h.states.Delete(key)
		}
		return true
	})
	h.authCodes.Range(func(key, value any) bool {
		if acd, ok := value.(authCodeData); ok && now.After(acd.expiresAt) {
			h.authCodes.Delete(key)
		}
		return true
	})
}

// issueTokens mints an access/refresh pair and stores the refresh hash.
func (h *AuthHandler) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := h.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.StoreRefreshToken(ctx, user.ID, services.HashToken(pair.RefreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	u := userResponse(user)
	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         &u,
	}, nil
}

func (h *AuthHandler) Register(c *drift.Context) {
	var req dto.RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		c.BadRequest(err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.Register(ctx, req.Email, req.Username, req.Password, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := h.issueTokens(ctx, user)
	if err != nil {
		writeError(c, err)
		return
	}
	_ = c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		c.BadRequest(err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := h.issueTokens(ctx, user)
	if err != nil {
		writeError(c, err)
		return
	}
	_ = c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token. The presented token is consumed even if
// it is replayed concurrently; only one caller gets a new pair.
func (h *AuthHandler) Refresh(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Unauthorized("invalid refresh token")
		return
	}

	ctx := c.Request.Context()
	oldHash := services.HashToken(req.RefreshToken)

	storedUserID, err := h.tokenService.ValidateRefreshToken(ctx, oldHash)
	if err != nil || storedUserID != userID {
		c.Unauthorized("refresh token not found or expired")
		return
	}

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.RotateRefreshToken(ctx, user.ID, oldHash, services.HashToken(pair.RefreshToken), expiresAt); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.Unauthorized("refresh token already used")
			return
		}
		writeError(c, err)
		return
	}

	u := userResponse(user)
	_ = c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         &u,
	})
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken != "" {
		_ = h.tokenService.RevokeRefreshToken(c.Request.Context(), services.HashToken(req.RefreshToken))
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "all sessions logged out"})
}

// Me returns the caller and whether invitations are waiting for them.
func (h *AuthHandler) Me(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	pending, err := h.invitationService.CountPending(ctx, user.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.MeResponse{
		UserResponse:          userResponse(user),
		HasPendingInvitations: pending > 0,
	})
}

func (h *AuthHandler) GoogleConsent(c *drift.Context) {
	if h.google == nil {
		c.NotFound("google sign-in is not configured")
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}
	h.states.Store(state, time.Now().Add(oauthStateTTL))

	_ = c.JSON(http.StatusOK, dto.ConsentURLResponse{URL: h.google.GetConsentURL(state)})
}

// GoogleCallback completes the provider round trip and hands the frontend a
// short-lived one-time code, exchanged for tokens by ExchangeCode.
func (h *AuthHandler) GoogleCallback(c *drift.Context) {
	if h.google == nil {
		h.redirectWithError(c, "google sign-in is not configured")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.redirectWithError(c, "missing state parameter")
		return
	}
	exp, ok := h.states.LoadAndDelete(state)
	if !ok {
		h.redirectWithError(c, "invalid or expired state")
		return
	}
	if t, ok := exp.(time.Time); !ok || time.Now().After(t) {
		h.redirectWithError(c, "state expired")
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.redirectWithError(c, "missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	info, err := h.google.ExchangeCode(ctx, code)
	if err != nil {
		if errors.Is(err, oauth.ErrEmailNotVerified) {
			h.redirectWithError(c, err.Error())
			return
		}
		h.redirectWithError(c, "failed to exchange code")
		return
	}

	user, err := h.userService.FindOrCreateFromOAuth(ctx, info)
	if err != nil {
		h.redirectWithError(c, "failed to sign in")
		return
	}

	authCode, err := oauth.GenerateState()
	if err != nil {
		h.redirectWithError(c, "failed to generate auth code")
		return
	}
	h.authCodes.Store(authCode, authCodeData{userID: user.ID, expiresAt: time.Now().Add(authCodeTTL)})

	h.renderRedirect(c, http.StatusOK, h.callbackURL("code", authCode), "Signed in. Redirecting to Planit...")
}

func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Code == "" {
		c.BadRequest("code is required")
		return
	}

	v, ok := h.authCodes.LoadAndDelete(req.Code)
	if !ok {
		c.Unauthorized("invalid or expired code")
		return
	}
	acd, ok := v.(authCodeData)
	if !ok || time.Now().After(acd.expiresAt) {
		c.Unauthorized("code expired")
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetByID(ctx, acd.userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	resp, err := h.issueTokens(ctx, user)
	if err != nil {
		writeError(c, err)
		return
	}
	_ = c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) callbackURL(key, value string) string {
	return fmt.Sprintf("%s/auth/callback?%s=%s", h.cfg.FrontendURL, key, url.QueryEscape(value))
}

func (h *AuthHandler) redirectWithError(c *drift.Context, msg string) {
	h.renderRedirect(c, http.StatusBadRequest, h.callbackURL("error", msg), msg)
}

func (h *AuthHandler) renderRedirect(c *drift.Context, status int, target, message string) {
	escaped := html.EscapeString(target)
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta http-equiv="refresh" content="0;url=%s">
    <title>Planit</title>
</head>
<body style="font-family: system-ui, sans-serif; text-align: center; padding: 40px;">
    <p>%s</p>
    <p><a href="%s">Continue</a></p>
</body>
</html>`, escaped, html.EscapeString(message), escaped)

	_ = c.HTML(status, page)
}
