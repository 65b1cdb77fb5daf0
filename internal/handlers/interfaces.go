package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/planit-app/planit-api/internal/health"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/planit-app/planit-api/internal/oauth"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/planit-app/planit-api/internal/sse"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Register(ctx context.Context, email, username, password, name string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name, username *string) (*models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
	Search(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]models.User, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(tokenString string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// TripServiceInterface defines the methods used by handlers from TripService
type TripServiceInterface interface {
	Create(ctx context.Context, creatorID uuid.UUID, name string, start, end time.Time, budget *float64) (*models.Trip, error)
	GetForParticipant(ctx context.Context, tripID, userID uuid.UUID) (*models.Trip, error)
	GetUserTrips(ctx context.Context, userID uuid.UUID) ([]models.Trip, error)
	Update(ctx context.Context, tripID, userID uuid.UUID, upd services.TripUpdate) (*models.Trip, error)
	Delete(ctx context.Context, tripID, userID uuid.UUID) error
	RequireParticipant(ctx context.Context, tripID, userID uuid.UUID) (*models.Trip, error)
	GetParticipants(ctx context.Context, tripID uuid.UUID) ([]models.Participant, error)
	RemoveParticipant(ctx context.Context, tripID, userID, actorID uuid.UUID) error
	JoinByCode(ctx context.Context, code string, user *models.User) (*models.Trip, bool, error)
}

// InvitationServiceInterface defines the methods used by handlers from InvitationService
type InvitationServiceInterface interface {
	Create(ctx context.Context, tripID uuid.UUID, email string, actorID uuid.UUID) (*models.Invitation, error)
	Accept(ctx context.Context, invitationID uuid.UUID, callerEmail string) error
	Decline(ctx context.Context, invitationID uuid.UUID, callerEmail string, reason *string) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Invitation, error)
	ListForTrip(ctx context.Context, tripID, callerID uuid.UUID) ([]models.Invitation, error)
	Get(ctx context.Context, invitationID, callerID uuid.UUID, callerEmail string) (*models.Invitation, error)
	Cancel(ctx context.Context, invitationID, actorID uuid.UUID) error
	CountPending(ctx context.Context, email string) (int, error)
}

// ActivityServiceInterface defines the methods used by handlers from ActivityService
type ActivityServiceInterface interface {
	List(ctx context.Context, tripID, userID uuid.UUID) ([]models.Activity, error)
	Get(ctx context.Context, tripID, activityID, userID uuid.UUID) (*models.Activity, error)
	Create(ctx context.Context, tripID, userID uuid.UUID, a *models.Activity) (*models.Activity, error)
	Update(ctx context.Context, tripID, activityID, userID uuid.UUID, upd services.ActivityUpdate) (*models.Activity, error)
	Delete(ctx context.Context, tripID, activityID, userID uuid.UUID) error
	Vote(ctx context.Context, tripID, activityID, userID uuid.UUID, upvote bool) (*models.Activity, error)
	Unvote(ctx context.Context, tripID, activityID, userID uuid.UUID) (*models.Activity, error)
}

type DashboardServiceInterface interface {
	Get(ctx context.Context, userID uuid.UUID) (*services.Dashboard, error)
}

type PlannerServiceInterface interface {
	Enabled() bool
	Chat(ctx context.Context, prompt string) (string, error)
	Itinerary(ctx context.Context, conversation string) (*models.Itinerary, error)
}

// SSEHubInterface defines the methods used by handlers from sse.Hub
type SSEHubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	PublishTripEvent(tripID uuid.UUID, eventType string, data any)
}

type HealthMonitorInterface interface {
	Status() health.Status
	Trigger()
}

// Ensure concrete types implement interfaces
var (
	_ UserServiceInterface       = (*services.UserService)(nil)
	_ TokenServiceInterface      = (*services.TokenService)(nil)
	_ JWTServiceInterface        = (*services.JWTService)(nil)
	_ TripServiceInterface       = (*services.TripService)(nil)
	_ InvitationServiceInterface = (*services.InvitationService)(nil)
	_ ActivityServiceInterface   = (*services.ActivityService)(nil)
	_ DashboardServiceInterface  = (*services.DashboardService)(nil)
	_ PlannerServiceInterface    = (*services.PlannerService)(nil)
	_ SSEHubInterface            = (*sse.Hub)(nil)
	_ HealthMonitorInterface     = (*health.Monitor)(nil)
)
