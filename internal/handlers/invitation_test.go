package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/planit-app/planit-api/pkg/dto"
	"github.com/planit-app/planit-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupInvitationTest(t *testing.T) (*testutil.MockInvitationService, http.Handler, *services.JWTService) {
	t.Helper()
	svc := new(testutil.MockInvitationService)
	h := NewInvitationHandler(svc)
	jwtSvc := testutil.TestJWTService()
	app := newTestApp(jwtSvc,
		route{http.MethodGet, "/invitations", h.ListMine},
		route{http.MethodGet, "/invitations/:id", h.Get},
		route{http.MethodPut, "/invitations/:id/accept", h.Accept},
		route{http.MethodPut, "/invitations/:id/decline", h.Decline},
		route{http.MethodDelete, "/invitations/:id", h.Cancel},
		route{http.MethodGet, "/trips/:id/invitations", h.ListForTrip},
		route{http.MethodPost, "/trips/:id/invitations", h.Create},
	)
	return svc, app, jwtSvc
}

func TestInvitationHandler_Create_Success(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	alice := newCaller(t, jwtSvc, "alice@example.com")
	tripID := uuid.New()

	inv := &models.Invitation{
		ID:        uuid.New(),
		TripID:    tripID,
		Email:     "bob@example.com",
		Status:    models.InvitationPending,
		SenderID:  &alice.id,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
	svc.On("Create", mock.Anything, tripID, "bob@example.com", alice.id).Return(inv, nil)

	rec := doRequest(t, app, http.MethodPost, "/trips/"+tripID.String()+"/invitations", alice.token,
		dto.CreateInvitationRequest{Email: "  Bob@Example.com "})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[dto.InvitationResponse](t, rec)
	assert.Equal(t, inv.ID, resp.ID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "bob@example.com", resp.Email)
	assert.Equal(t, fixedNow.Format(time.RFC3339), resp.CreatedAt)
	svc.AssertExpectations(t)
}

func TestInvitationHandler_Create_InvalidEmail(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	alice := newCaller(t, jwtSvc, "alice@example.com")

	rec := doRequest(t, app, http.MethodPost, "/trips/"+uuid.NewString()+"/invitations", alice.token,
		dto.CreateInvitationRequest{Email: "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is not a valid address")
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvitationHandler_Create_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "trip missing", err: services.ErrTripNotFound, status: http.StatusNotFound},
		{name: "not a participant", err: services.ErrNotParticipant, status: http.StatusForbidden},
		{name: "self invite", err: services.ErrSelfInvite, status: http.StatusConflict},
		{name: "duplicate", err: services.ErrDuplicateInvite, status: http.StatusConflict},
		{name: "already participant", err: services.ErrAlreadyParticipant, status: http.StatusConflict},
		{name: "database down", err: errors.New("connection refused"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, app, jwtSvc := setupInvitationTest(t)
			alice := newCaller(t, jwtSvc, "alice@example.com")
			tripID := uuid.New()
			svc.On("Create", mock.Anything, tripID, "bob@example.com", alice.id).Return(nil, tt.err)

			rec := doRequest(t, app, http.MethodPost, "/trips/"+tripID.String()+"/invitations", alice.token,
				dto.CreateInvitationRequest{Email: "bob@example.com"})

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "connection refused")
			} else {
				assert.Contains(t, rec.Body.String(), tt.err.Error())
			}
		})
	}
}

func TestInvitationHandler_Create_ConflictCarriesKind(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	alice := newCaller(t, jwtSvc, "alice@example.com")
	tripID := uuid.New()
	svc.On("Create", mock.Anything, tripID, "alice@example.com", alice.id).Return(nil, services.ErrSelfInvite)

	rec := doRequest(t, app, http.MethodPost, "/trips/"+tripID.String()+"/invitations", alice.token,
		dto.CreateInvitationRequest{Email: "alice@example.com"})

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "conflict", body["kind"])
	assert.Equal(t, services.ErrSelfInvite.Error(), body["error"])
}

func TestInvitationHandler_Accept_UsesTokenEmail(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "Bob@Example.com")
	invID := uuid.New()
	svc.On("Accept", mock.Anything, invID, "bob@example.com").Return(nil)

	rec := doRequest(t, app, http.MethodPut, "/invitations/"+invID.String()+"/accept", bob.token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invitation accepted")
	svc.AssertExpectations(t)
}

func TestInvitationHandler_Accept_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: services.ErrInvitationNotFound, status: http.StatusNotFound},
		{name: "addressed elsewhere", err: services.ErrInvitationNotAddressed, status: http.StatusForbidden},
		{name: "already processed", err: services.ErrInvitationProcessed, status: http.StatusConflict},
		{name: "no account", err: services.ErrUserNotFound, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, app, jwtSvc := setupInvitationTest(t)
			bob := newCaller(t, jwtSvc, "bob@example.com")
			invID := uuid.New()
			svc.On("Accept", mock.Anything, invID, "bob@example.com").Return(tt.err)

			rec := doRequest(t, app, http.MethodPut, "/invitations/"+invID.String()+"/accept", bob.token, nil)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestInvitationHandler_Accept_InvalidID(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "bob@example.com")

	rec := doRequest(t, app, http.MethodPut, "/invitations/not-a-uuid/accept", bob.token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid invitation id")
	svc.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvitationHandler_Accept_RequiresToken(t *testing.T) {
	_, app, _ := setupInvitationTest(t)

	rec := doRequest(t, app, http.MethodPut, "/invitations/"+uuid.NewString()+"/accept", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvitationHandler_Decline_TrimsReason(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "bob@example.com")
	invID := uuid.New()

	svc.On("Decline", mock.Anything, invID, "bob@example.com", mock.MatchedBy(func(r *string) bool {
		return r != nil && *r == "busy that week"
	})).Return(nil)

	reason := "  busy that week  "
	rec := doRequest(t, app, http.MethodPut, "/invitations/"+invID.String()+"/decline", bob.token,
		dto.DeclineInvitationRequest{Reason: &reason})

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestInvitationHandler_Decline_WithoutBody(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "bob@example.com")
	invID := uuid.New()
	svc.On("Decline", mock.Anything, invID, "bob@example.com", (*string)(nil)).Return(nil)

	rec := doRequest(t, app, http.MethodPut, "/invitations/"+invID.String()+"/decline", bob.token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestInvitationHandler_Decline_ChunkedBody(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "bob@example.com")
	invID := uuid.New()
	svc.On("Decline", mock.Anything, invID, "bob@example.com", mock.MatchedBy(func(r *string) bool {
		return r != nil && *r == "flights too expensive"
	})).Return(nil)

	// MultiReader hides the length, as with Transfer-Encoding: chunked.
	body := io.MultiReader(strings.NewReader(`{"reason":"flights too expensive"}`))
	req := httptest.NewRequest(http.MethodPut, "/invitations/"+invID.String()+"/decline", body)
	require.EqualValues(t, -1, req.ContentLength)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bob.token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestInvitationHandler_Decline_MalformedBody(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "bob@example.com")

	req := httptest.NewRequest(http.MethodPut, "/invitations/"+uuid.NewString()+"/decline", strings.NewReader(`{"reason":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bob.token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Decline", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvitationHandler_Decline_AfterAccept(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "bob@example.com")
	invID := uuid.New()
	svc.On("Decline", mock.Anything, invID, "bob@example.com", (*string)(nil)).Return(services.ErrInvitationProcessed)

	rec := doRequest(t, app, http.MethodPut, "/invitations/"+invID.String()+"/decline", bob.token, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already been processed")
}

func TestInvitationHandler_ListMine(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "bob@example.com")
	creator := testUser("alice@example.com", "Alice")
	trip := testTrip(creator.ID)
	trip.Creator = creator

	svc.On("ListForUser", mock.Anything, bob.id).Return([]models.Invitation{{
		ID:        uuid.New(),
		TripID:    trip.ID,
		Email:     bob.email,
		Status:    models.InvitationPending,
		SenderID:  &creator.ID,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
		Trip:      trip,
		Sender:    creator,
	}}, nil)

	rec := doRequest(t, app, http.MethodGet, "/invitations", bob.token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[[]dto.InvitationResponse](t, rec)
	require.Len(t, resp, 1)
	require.NotNil(t, resp[0].Trip)
	assert.Equal(t, "Lisbon", resp[0].Trip.Name)
	assert.Equal(t, "2026-11-01", resp[0].Trip.StartDate)
	assert.Equal(t, "Alice", resp[0].Trip.Creator.Name)
	assert.Equal(t, "Alice", resp[0].Sender.Name)
}

func TestInvitationHandler_ListMine_Empty(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "bob@example.com")
	svc.On("ListForUser", mock.Anything, bob.id).Return([]models.Invitation{}, nil)

	rec := doRequest(t, app, http.MethodGet, "/invitations", bob.token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestInvitationHandler_ListForTrip_CreatorOnly(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "bob@example.com")
	tripID := uuid.New()
	svc.On("ListForTrip", mock.Anything, tripID, bob.id).Return(nil, services.ErrNotTripCreator)

	rec := doRequest(t, app, http.MethodGet, "/trips/"+tripID.String()+"/invitations", bob.token, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInvitationHandler_Get_PassesIdentity(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	bob := newCaller(t, jwtSvc, "bob@example.com")
	invID := uuid.New()
	svc.On("Get", mock.Anything, invID, bob.id, "bob@example.com").Return(nil, services.ErrInvitationNotFound)

	rec := doRequest(t, app, http.MethodGet, "/invitations/"+invID.String(), bob.token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	svc.AssertExpectations(t)
}

func TestInvitationHandler_Cancel(t *testing.T) {
	svc, app, jwtSvc := setupInvitationTest(t)
	alice := newCaller(t, jwtSvc, "alice@example.com")
	invID := uuid.New()
	svc.On("Cancel", mock.Anything, invID, alice.id).Return(nil)

	rec := doRequest(t, app, http.MethodDelete, "/invitations/"+invID.String(), alice.token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
