package handlers

import (
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	authmw "github.com/planit-app/planit-api/internal/middleware"
	"github.com/planit-app/planit-api/internal/services"
)

// Handlers groups every resource handler served under /api/v1.
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Trip       *TripHandler
	Invitation *InvitationHandler
	Activity   *ActivityHandler
	Dashboard  *DashboardHandler
	Planner    *PlannerHandler
	SSE        *SSEHandler
	Health     *HealthHandler
}

// NewRouter registers the API routes. Everything except sign-in, token
// refresh and health requires a bearer access token.
func NewRouter(production bool, jwtService *services.JWTService, h Handlers) http.Handler {
	app := drift.New()

	if production {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", h.Auth.Logout)
	auth.Get("/google/consent", h.Auth.GoogleConsent)
	auth.Get("/google/callback", h.Auth.GoogleCallback)
	auth.Post("/google/exchange", h.Auth.ExchangeCode)

	api.Get("/health", h.Health.Check)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Get("/auth/me", h.Auth.Me)
	protected.Post("/auth/logout-all", h.Auth.LogoutAll)

	protected.Get("/users/:id", byParam("id", map[string]drift.HandlerFunc{
		"me":     h.User.GetMe,
		"search": h.User.Search,
	}, h.User.Get))
	protected.Patch("/users/me", h.User.UpdateMe)
	protected.Put("/users/me/password", h.User.ChangePassword)

	protected.Get("/dashboard", h.Dashboard.Get)

	protected.Get("/trips", h.Trip.List)
	protected.Post("/trips", h.Trip.Create)
	protected.Post("/trips/:id", byParam("id", map[string]drift.HandlerFunc{
		"join": h.Trip.Join,
	}, routeNotFound))
	protected.Get("/trips/:id", h.Trip.Get)
	protected.Put("/trips/:id", h.Trip.Update)
	protected.Delete("/trips/:id", h.Trip.Delete)
	protected.Get("/trips/:id/participants", h.Trip.Participants)
	protected.Delete("/trips/:id/participants/:userId", h.Trip.RemoveParticipant)
	protected.Get("/trips/:id/events", h.SSE.Events)

	protected.Get("/trips/:id/invitations", h.Invitation.ListForTrip)
	protected.Post("/trips/:id/invitations", h.Invitation.Create)

	protected.Get("/trips/:id/activities", h.Activity.List)
	protected.Post("/trips/:id/activities", h.Activity.Create)
	protected.Get("/trips/:id/activities/:activityId", h.Activity.Get)
	protected.Put("/trips/:id/activities/:activityId", h.Activity.Update)
	protected.Delete("/trips/:id/activities/:activityId", h.Activity.Delete)
	protected.Post("/trips/:id/activities/:activityId/votes", h.Activity.Vote)
	protected.Delete("/trips/:id/activities/:activityId/votes", h.Activity.Unvote)

	protected.Get("/invitations", h.Invitation.ListMine)
	protected.Get("/invitations/:id", h.Invitation.Get)
	protected.Put("/invitations/:id/accept", h.Invitation.Accept)
	protected.Put("/invitations/:id/decline", h.Invitation.Decline)
	protected.Delete("/invitations/:id", h.Invitation.Cancel)

	protected.Post("/planner/chat", h.Planner.Chat)
	protected.Post("/planner/itinerary", h.Planner.Itinerary)

	return app
}

// byParam serves the handler registered for a literal value of a path
// parameter and falls back to def otherwise. The router cannot hold a static
// segment beside a parameter at the same depth, so /users/me and /users/:id
// share one route.
func byParam(name string, literals map[string]drift.HandlerFunc, def drift.HandlerFunc) drift.HandlerFunc {
	return func(c *drift.Context) {
		if handle, ok := literals[c.Param(name)]; ok {
			handle(c)
			return
		}
		def(c)
	}
}

func routeNotFound(c *drift.Context) {
	_ = c.JSON(http.StatusNotFound, map[string]string{"error": "Not Found"})
}
