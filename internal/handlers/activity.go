package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/planit-app/planit-api/pkg/dto"
)

type ActivityHandler struct {
	activityService ActivityServiceInterface
}

func NewActivityHandler(activityService ActivityServiceInterface) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// scope parses the caller, trip and (when withActivity) activity ids.
func (h *ActivityHandler) scope(c *drift.Context, withActivity bool) (userID, tripID, activityID uuid.UUID, ok bool) {
	if userID, ok = requireUser(c); !ok {
		return
	}
	if tripID, ok = parseIDParam(c, "id", "trip"); !ok {
		return
	}
	if withActivity {
		activityID, ok = parseIDParam(c, "activityId", "activity")
	}
	return
}

func (h *ActivityHandler) List(c *drift.Context) {
	userID, tripID, _, ok := h.scope(c, false)
	if !ok {
		return
	}

	activities, err := h.activityService.List(c.Request.Context(), tripID, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, activityResponses(activities, userID))
}

func (h *ActivityHandler) Get(c *drift.Context) {
	userID, tripID, activityID, ok := h.scope(c, true)
	if !ok {
		return
	}

	a, err := h.activityService.Get(c.Request.Context(), tripID, activityID, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, activityResponse(a, userID))
}

func (h *ActivityHandler) Create(c *drift.Context) {
	userID, tripID, _, ok := h.scope(c, false)
	if !ok {
		return
	}

	var req dto.CreateActivityRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	in, err := req.Validate()
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	a, err := h.activityService.Create(c.Request.Context(), tripID, userID, &models.Activity{
		Title:         in.Title,
		Date:          in.Date,
		Time:          in.Time,
		Category:      in.Category,
		EstimatedCost: in.EstimatedCost,
		Notes:         in.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusCreated, activityResponse(a, userID))
}

func (h *ActivityHandler) Update(c *drift.Context) {
	userID, tripID, activityID, ok := h.scope(c, true)
	if !ok {
		return
	}

	var req dto.UpdateActivityRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	patch, err := req.Validate()
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	a, err := h.activityService.Update(c.Request.Context(), tripID, activityID, userID, services.ActivityUpdate{
		Title:         patch.Title,
		Date:          patch.Date,
		Time:          patch.Time,
		Category:      patch.Category,
		EstimatedCost: patch.EstimatedCost,
		Notes:         patch.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, activityResponse(a, userID))
}

func (h *ActivityHandler) Delete(c *drift.Context) {
	userID, tripID, activityID, ok := h.scope(c, true)
	if !ok {
		return
	}

	if err := h.activityService.Delete(c.Request.Context(), tripID, activityID, userID); err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "activity deleted"})
}

// Vote casts or replaces the caller's vote and returns the new tally.
func (h *ActivityHandler) Vote(c *drift.Context) {
	userID, tripID, activityID, ok := h.scope(c, true)
	if !ok {
		return
	}

	var req dto.VoteRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		c.BadRequest(err.Error())
		return
	}

	a, err := h.activityService.Vote(c.Request.Context(), tripID, activityID, userID, *req.IsUpvote)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, activityResponse(a, userID))
}

func (h *ActivityHandler) Unvote(c *drift.Context) {
	userID, tripID, activityID, ok := h.scope(c, true)
	if !ok {
		return
	}

	a, err := h.activityService.Unvote(c.Request.Context(), tripID, activityID, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, activityResponse(a, userID))
}
