package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/planit-app/planit-api/internal/middleware"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/planit-app/planit-api/tests/testutil"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type route struct {
	method string
	path   string
	handle drift.HandlerFunc
}

// newTestApp serves routes behind BodyParser and, unless jwtSvc is nil, the
// auth middleware.
func newTestApp(jwtSvc *services.JWTService, routes ...route) http.Handler {
	app := drift.New()
	app.Use(driftmw.BodyParser())
	if jwtSvc != nil {
		app.Use(middleware.Auth(jwtSvc))
	}
	for _, r := range routes {
		switch r.method {
		case http.MethodGet:
			app.Get(r.path, r.handle)
		case http.MethodPost:
			app.Post(r.path, r.handle)
		case http.MethodPut:
			app.Put(r.path, r.handle)
		case http.MethodPatch:
			app.Patch(r.path, r.handle)
		case http.MethodDelete:
			app.Delete(r.path, r.handle)
		}
	}
	return app
}

type testCaller struct {
	id    uuid.UUID
	email string
	token string
}

func newCaller(t *testing.T, jwtSvc *services.JWTService, email string) testCaller {
	t.Helper()
	id := uuid.New()
	return testCaller{id: id, email: email, token: testutil.GenerateTestToken(t, jwtSvc, id, email)}
}

func doRequest(t *testing.T, app http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func testUser(email, name string) *models.User {
	now := fixedNow.Add(-24 * time.Hour)
	return &models.User{
		ID:        uuid.New(),
		Email:     email,
		Username:  name,
		Name:      name,
		Provider:  models.ProviderLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testTrip(creatorID uuid.UUID) *models.Trip {
	return &models.Trip{
		ID:        uuid.New(),
		Name:      "Lisbon",
		StartDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 11, 7, 0, 0, 0, 0, time.UTC),
		JoinCode:  "A1B2C3",
		CreatorID: creatorID,
	}
}
