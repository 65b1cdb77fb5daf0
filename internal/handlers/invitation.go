package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/internal/middleware"
	"github.com/planit-app/planit-api/pkg/dto"
)

// InvitationHandler exposes the invitation engine. The caller's identity
// comes from the access token; acceptance and decline are matched on the
// token's email.
type InvitationHandler struct {
	invitationService InvitationServiceInterface
}

func NewInvitationHandler(invitationService InvitationServiceInterface) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

func (h *InvitationHandler) Create(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	tripID, ok := parseIDParam(c, "id", "trip")
	if !ok {
		return
	}

	var req dto.CreateInvitationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		c.BadRequest(err.Error())
		return
	}

	inv, err := h.invitationService.Create(c.Request.Context(), tripID, req.Email, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusCreated, invitationResponse(inv))
}

func (h *InvitationHandler) ListMine(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	invs, err := h.invitationService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, invitationResponses(invs))
}

func (h *InvitationHandler) ListForTrip(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	tripID, ok := parseIDParam(c, "id", "trip")
	if !ok {
		return
	}

	invs, err := h.invitationService.ListForTrip(c.Request.Context(), tripID, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, invitationResponses(invs))
}

func (h *InvitationHandler) Get(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	invitationID, ok := parseIDParam(c, "id", "invitation")
	if !ok {
		return
	}

	inv, err := h.invitationService.Get(c.Request.Context(), invitationID, userID, middleware.GetUserEmail(c))
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, invitationResponse(inv))
}

func (h *InvitationHandler) Accept(c *drift.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	invitationID, ok := parseIDParam(c, "id", "invitation")
	if !ok {
		return
	}

	if err := h.invitationService.Accept(c.Request.Context(), invitationID, middleware.GetUserEmail(c)); err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "invitation accepted"})
}

// Decline takes an optional body with a reason.
func (h *InvitationHandler) Decline(c *drift.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	invitationID, ok := parseIDParam(c, "id", "invitation")
	if !ok {
		return
	}

	var req dto.DeclineInvitationRequest
	if err := c.BindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.BadRequest("invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		c.BadRequest(err.Error())
		return
	}

	if err := h.invitationService.Decline(c.Request.Context(), invitationID, middleware.GetUserEmail(c), req.Reason); err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "invitation declined"})
}

func (h *InvitationHandler) Cancel(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	invitationID, ok := parseIDParam(c, "id", "invitation")
	if !ok {
		return
	}

	if err := h.invitationService.Cancel(c.Request.Context(), invitationID, userID); err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "invitation cancelled"})
}
