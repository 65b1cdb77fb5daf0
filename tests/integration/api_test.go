package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/planit-app/planit-api/internal/config"
	"github.com/planit-app/planit-api/internal/handlers"
	"github.com/planit-app/planit-api/internal/health"
	"github.com/planit-app/planit-api/internal/notify"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/planit-app/planit-api/internal/sse"
	"github.com/planit-app/planit-api/pkg/dto"
	"github.com/planit-app/planit-api/tests/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAPI wires the real router to a fresh database. Notifications are
// recorded and the planner is left unconfigured.
func newAPI(t *testing.T) (*testutil.HTTPTestClient, *testutil.EventRecorder) {
	t.Helper()
	tdb := setupTest(t)
	db := tdb.DB

	cfg := &config.Config{FrontendURL: "http://localhost:3000"}
	jwtService := testutil.TestJWTService()
	events := &testutil.EventRecorder{}
	dispatcher := notify.NewDispatcher(zerolog.Nop(), 5*time.Second, nil)

	users := services.NewUserService(db)
	tokens := services.NewTokenService(db)
	trips := services.NewTripService(db)
	invitations := services.NewInvitationService(db, trips, users, &recordingNotifier{}, dispatcher, events, zerolog.Nop())
	activities := services.NewActivityService(db, trips, events)
	dashboard := services.NewDashboardService(users, trips, activities, invitations)
	monitor := health.NewMonitor(db.Ping, time.Minute, time.Minute, zerolog.Nop())

	router := handlers.NewRouter(false, jwtService, handlers.Handlers{
		Auth:       handlers.NewAuthHandler(cfg, users, tokens, jwtService, invitations),
		User:       handlers.NewUserHandler(users),
		Trip:       handlers.NewTripHandler(trips, users, events),
		Invitation: handlers.NewInvitationHandler(invitations),
		Activity:   handlers.NewActivityHandler(activities),
		Dashboard:  handlers.NewDashboardHandler(dashboard),
		Planner:    handlers.NewPlannerHandler(services.NewPlannerService(config.OpenAIConfig{}, zerolog.Nop())),
		SSE:        handlers.NewSSEHandler(sse.NewHub(nil, zerolog.Nop()), trips),
		Health:     handlers.NewHealthHandler(monitor, db.Ping),
	})

	return testutil.NewHTTPTestClient(t, router), events
}

func register(t *testing.T, client *testutil.HTTPTestClient, email, username, name string) dto.TokenResponse {
	t.Helper()
	rec := client.POST("/api/v1/auth/register", dto.RegisterRequest{
		Email: email, Username: username, Password: "correct-horse", Name: name,
	})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var tokens dto.TokenResponse
	testutil.ParseJSON(t, rec, &tokens)
	require.NotEmpty(t, tokens.AccessToken)
	return tokens
}

func TestAPI_Integration_InviteAcceptAndVote(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client, events := newAPI(t)
	alice := client.As(register(t, client, "alice@example.com", "alice", "Alice").AccessToken)
	bob := client.As(register(t, client, "bob@example.com", "bob", "Bob").AccessToken)

	rec := alice.POST("/api/v1/trips", dto.CreateTripRequest{Name: "Lisbon", StartDate: "2026-11-01", EndDate: "2026-11-07"})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var trip dto.TripResponse
	testutil.ParseJSON(t, rec, &trip)
	tripPath := "/api/v1/trips/" + trip.ID.String()

	testutil.AssertStatus(t, bob.GET(tripPath), http.StatusForbidden)

	rec = alice.POST(tripPath+"/invitations", dto.CreateInvitationRequest{Email: "BOB@example.com"})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	testutil.AssertStatus(t, alice.POST(tripPath+"/invitations", dto.CreateInvitationRequest{Email: "bob@example.com"}), http.StatusConflict)

	rec = bob.GET("/api/v1/auth/me")
	testutil.AssertStatus(t, rec, http.StatusOK)
	var me dto.MeResponse
	testutil.ParseJSON(t, rec, &me)
	assert.True(t, me.HasPendingInvitations)

	rec = bob.GET("/api/v1/invitations")
	testutil.AssertStatus(t, rec, http.StatusOK)
	var mine []dto.InvitationResponse
	testutil.ParseJSON(t, rec, &mine)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Trip)
	assert.Equal(t, "Lisbon", mine[0].Trip.Name)

	invPath := "/api/v1/invitations/" + mine[0].ID.String()
	testutil.AssertStatus(t, alice.PUT(invPath+"/accept", nil), http.StatusForbidden)
	testutil.AssertStatus(t, bob.PUT(invPath+"/accept", nil), http.StatusOK)
	testutil.AssertStatus(t, bob.PUT(invPath+"/accept", nil), http.StatusConflict)
	assert.Contains(t, events.Types(), services.EventParticipantJoined)

	rec = bob.GET(tripPath)
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.ParseJSON(t, rec, &trip)
	assert.Len(t, trip.Participants, 2)

	rec = alice.POST(tripPath+"/activities", dto.CreateActivityRequest{Title: "Tram 28", Date: "2026-11-02", Category: "Sightseeing"})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var activity dto.ActivityResponse
	testutil.ParseJSON(t, rec, &activity)

	up := true
	rec = bob.POST(tripPath+"/activities/"+activity.ID.String()+"/votes", dto.VoteRequest{IsUpvote: &up})
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.ParseJSON(t, rec, &activity)
	assert.Equal(t, 1, activity.Score)

	rec = bob.GET("/api/v1/dashboard")
	testutil.AssertStatus(t, rec, http.StatusOK)
	var dash dto.DashboardResponse
	testutil.ParseJSON(t, rec, &dash)
	assert.Equal(t, 1, dash.Stats.TotalTrips)
	assert.Equal(t, 0, dash.Stats.PendingInvitations)
}

func TestAPI_Integration_AuthAndHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client, _ := newAPI(t)

	testutil.AssertStatus(t, client.GET("/api/v1/health"), http.StatusOK)
	testutil.AssertStatus(t, client.GET("/api/v1/trips"), http.StatusUnauthorized)

	tokens := register(t, client, "carol@example.com", "carol", "Carol")

	rec := client.POST("/api/v1/auth/refresh", dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var rotated dto.TokenResponse
	testutil.ParseJSON(t, rec, &rotated)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	rec = client.POST("/api/v1/auth/refresh", dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)

	testutil.AssertStatus(t, client.As(rotated.AccessToken).POST("/api/v1/planner/chat", dto.PlannerChatRequest{Prompt: "Rome"}), http.StatusServiceUnavailable)
}
