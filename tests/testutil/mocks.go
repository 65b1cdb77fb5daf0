package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/planit-app/planit-api/internal/health"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/planit-app/planit-api/internal/oauth"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/planit-app/planit-api/internal/sse"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, username, password, name string) (*models.User, error) {
	args := m.Called(ctx, email, username, password, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, name, username *string) (*models.User, error) {
	args := m.Called(ctx, id, name, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	args := m.Called(ctx, id, current, next)
	return args.Error(0)
}

func (m *MockUserService) Search(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]models.User, error) {
	args := m.Called(ctx, query, excludeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, oldHash, newHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error) {
	args := m.Called(userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(tokenString string) (uuid.UUID, error) {
	args := m.Called(tokenString)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockTripService mocks the TripService
type MockTripService struct {
	mock.Mock
}

func (m *MockTripService) Create(ctx context.Context, creatorID uuid.UUID, name string, start, end time.Time, budget *float64) (*models.Trip, error) {
	args := m.Called(ctx, creatorID, name, start, end, budget)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripService) GetForParticipant(ctx context.Context, tripID, userID uuid.UUID) (*models.Trip, error) {
	args := m.Called(ctx, tripID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripService) GetUserTrips(ctx context.Context, userID uuid.UUID) ([]models.Trip, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Trip), args.Error(1)
}

func (m *MockTripService) Update(ctx context.Context, tripID, userID uuid.UUID, upd services.TripUpdate) (*models.Trip, error) {
	args := m.Called(ctx, tripID, userID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripService) Delete(ctx context.Context, tripID, userID uuid.UUID) error {
	args := m.Called(ctx, tripID, userID)
	return args.Error(0)
}

func (m *MockTripService) RequireParticipant(ctx context.Context, tripID, userID uuid.UUID) (*models.Trip, error) {
	args := m.Called(ctx, tripID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripService) GetParticipants(ctx context.Context, tripID uuid.UUID) ([]models.Participant, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Participant), args.Error(1)
}

func (m *MockTripService) RemoveParticipant(ctx context.Context, tripID, userID, actorID uuid.UUID) error {
	args := m.Called(ctx, tripID, userID, actorID)
	return args.Error(0)
}

func (m *MockTripService) JoinByCode(ctx context.Context, code string, user *models.User) (*models.Trip, bool, error) {
	args := m.Called(ctx, code, user)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Trip), args.Bool(1), args.Error(2)
}

// MockInvitationService mocks the InvitationService
type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) Create(ctx context.Context, tripID uuid.UUID, email string, actorID uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, tripID, email, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Accept(ctx context.Context, invitationID uuid.UUID, callerEmail string) error {
	args := m.Called(ctx, invitationID, callerEmail)
	return args.Error(0)
}

func (m *MockInvitationService) Decline(ctx context.Context, invitationID uuid.UUID, callerEmail string, reason *string) error {
	args := m.Called(ctx, invitationID, callerEmail, reason)
	return args.Error(0)
}

func (m *MockInvitationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *MockInvitationService) ListForTrip(ctx context.Context, tripID, callerID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, tripID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Get(ctx context.Context, invitationID, callerID uuid.UUID, callerEmail string) (*models.Invitation, error) {
	args := m.Called(ctx, invitationID, callerID, callerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Cancel(ctx context.Context, invitationID, actorID uuid.UUID) error {
	args := m.Called(ctx, invitationID, actorID)
	return args.Error(0)
}

func (m *MockInvitationService) CountPending(ctx context.Context, email string) (int, error) {
	args := m.Called(ctx, email)
	return args.Int(0), args.Error(1)
}

// MockActivityService mocks the ActivityService
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) List(ctx context.Context, tripID, userID uuid.UUID) ([]models.Activity, error) {
	args := m.Called(ctx, tripID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Activity), args.Error(1)
}

func (m *MockActivityService) Get(ctx context.Context, tripID, activityID, userID uuid.UUID) (*models.Activity, error) {
	args := m.Called(ctx, tripID, activityID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

func (m *MockActivityService) Create(ctx context.Context, tripID, userID uuid.UUID, a *models.Activity) (*models.Activity, error) {
	args := m.Called(ctx, tripID, userID, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

func (m *MockActivityService) Update(ctx context.Context, tripID, activityID, userID uuid.UUID, upd services.ActivityUpdate) (*models.Activity, error) {
	args := m.Called(ctx, tripID, activityID, userID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

func (m *MockActivityService) Delete(ctx context.Context, tripID, activityID, userID uuid.UUID) error {
	args := m.Called(ctx, tripID, activityID, userID)
	return args.Error(0)
}

func (m *MockActivityService) Vote(ctx context.Context, tripID, activityID, userID uuid.UUID, upvote bool) (*models.Activity, error) {
	args := m.Called(ctx, tripID, activityID, userID, upvote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

func (m *MockActivityService) Unvote(ctx context.Context, tripID, activityID, userID uuid.UUID) (*models.Activity, error) {
	args := m.Called(ctx, tripID, activityID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

// MockDashboardService mocks the DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Get(ctx context.Context, userID uuid.UUID) (*services.Dashboard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Dashboard), args.Error(1)
}

// MockPlannerService mocks the PlannerService
type MockPlannerService struct {
	mock.Mock
}

func (m *MockPlannerService) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockPlannerService) Chat(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockPlannerService) Itinerary(ctx context.Context, conversation string) (*models.Itinerary, error) {
	args := m.Called(ctx, conversation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Itinerary), args.Error(1)
}

// MockSSEHub mocks the SSE hub
type MockSSEHub struct {
	mock.Mock
}

func (m *MockSSEHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) PublishTripEvent(tripID uuid.UUID, eventType string, data any) {
	m.Called(tripID, eventType, data)
}

// MockHealthMonitor mocks the health monitor
type MockHealthMonitor struct {
	mock.Mock
}

func (m *MockHealthMonitor) Status() health.Status {
	args := m.Called()
	return args.Get(0).(health.Status)
}

func (m *MockHealthMonitor) Trigger() {
	m.Called()
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

// EventRecorder captures published trip events.
type EventRecorder struct {
	mu     sync.Mutex
	Events []sse.Event
}

func (r *EventRecorder) PublishTripEvent(tripID uuid.UUID, eventType string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, sse.Event{Type: eventType, TripID: tripID, Data: data})
}

func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}
