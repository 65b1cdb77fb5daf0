package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/planit-app/planit-api/internal/services"
)

// TestJWTService creates a JWTService with test configuration
func TestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key-for-testing-only", 15*time.Minute, 24*time.Hour)
}

// GenerateTestToken signs an access token with jwtSvc, or with
// TestJWTService when jwtSvc is nil.
func GenerateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email string) string {
	t.Helper()
	if jwtSvc == nil {
		jwtSvc = TestJWTService()
	}
	pair, err := jwtSvc.GenerateTokenPair(userID, email)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return pair.AccessToken
}

// HTTPTestClient sends JSON requests straight into a handler.
type HTTPTestClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func NewHTTPTestClient(t *testing.T, handler http.Handler) *HTTPTestClient {
	return &HTTPTestClient{t: t, handler: handler}
}

// As returns a client that authenticates every request with token.
func (c *HTTPTestClient) As(token string) *HTTPTestClient {
	return &HTTPTestClient{t: c.t, handler: c.handler, token: token}
}

func (c *HTTPTestClient) Request(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *HTTPTestClient) GET(path string) *httptest.ResponseRecorder {
	return c.Request(http.MethodGet, path, nil)
}

func (c *HTTPTestClient) POST(path string, body any) *httptest.ResponseRecorder {
	return c.Request(http.MethodPost, path, body)
}

func (c *HTTPTestClient) PUT(path string, body any) *httptest.ResponseRecorder {
	return c.Request(http.MethodPut, path, body)
}

func (c *HTTPTestClient) PATCH(path string, body any) *httptest.ResponseRecorder {
	return c.Request(http.MethodPatch, path, body)
}

func (c *HTTPTestClient) DELETE(path string) *httptest.ResponseRecorder {
	return c.Request(http.MethodDelete, path, nil)
}

// ParseJSON decodes the response body into v.
func ParseJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response JSON: %v (body: %s)", err, rec.Body.String())
	}
}

// AssertStatus fails the test with the body when the status differs.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rec.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rec.Code, rec.Body.String())
	}
}
