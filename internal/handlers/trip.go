package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/planit-app/planit-api/pkg/dto"
)

type TripHandler struct {
	tripService TripServiceInterface
	userService UserServiceInterface
	events      services.EventPublisher
	now         func() time.Time
}

func NewTripHandler(tripService TripServiceInterface, userService UserServiceInterface, events services.EventPublisher) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		userService: userService,
		events:      events,
		now:         time.Now,
	}
}

func (h *TripHandler) List(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	trips, err := h.tripService.GetUserTrips(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, tripResponses(trips, h.now()))
}

func (h *TripHandler) Create(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.CreateTripRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	in, err := req.Validate()
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	trip, err := h.tripService.Create(c.Request.Context(), userID, in.Name, in.StartDate, in.EndDate, in.Budget)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusCreated, tripResponse(trip, h.now()))
}

func (h *TripHandler) Get(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	tripID, ok := parseIDParam(c, "id", "trip")
	if !ok {
		return
	}

	trip, err := h.tripService.GetForParticipant(c.Request.Context(), tripID, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, tripResponse(trip, h.now()))
}

func (h *TripHandler) Update(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	tripID, ok := parseIDParam(c, "id", "trip")
	if !ok {
		return
	}

	var req dto.UpdateTripRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	patch, err := req.Validate()
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	trip, err := h.tripService.Update(c.Request.Context(), tripID, userID, services.TripUpdate{
		Name:      patch.Name,
		StartDate: patch.StartDate,
		EndDate:   patch.EndDate,
		Budget:    patch.Budget,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, tripResponse(trip, h.now()))
}

func (h *TripHandler) Delete(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	tripID, ok := parseIDParam(c, "id", "trip")
	if !ok {
		return
	}

	if err := h.tripService.Delete(c.Request.Context(), tripID, userID); err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "trip deleted"})
}

// Join adds the caller to the trip behind a join code. Joining twice
// returns the trip without error.
func (h *TripHandler) Join(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.JoinTripRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		c.BadRequest(err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	trip, joined, err := h.tripService.JoinByCode(ctx, req.TripCode, user)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if joined {
		status = http.StatusCreated
		h.events.PublishTripEvent(trip.ID, services.EventParticipantJoined, map[string]any{
			"user_id": user.ID,
			"name":    user.DisplayName(),
		})
	}

	_ = c.JSON(status, tripResponse(trip, h.now()))
}

func (h *TripHandler) Participants(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	tripID, ok := parseIDParam(c, "id", "trip")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.tripService.RequireParticipant(ctx, tripID, userID); err != nil {
		writeError(c, err)
		return
	}

	participants, err := h.tripService.GetParticipants(ctx, tripID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, participantResponses(participants))
}

// RemoveParticipant lets the creator remove a participant, or a participant
// leave the trip.
func (h *TripHandler) RemoveParticipant(c *drift.Context) {
	actorID, ok := requireUser(c)
	if !ok {
		return
	}
	tripID, ok := parseIDParam(c, "id", "trip")
	if !ok {
		return
	}
	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	if err := h.tripService.RemoveParticipant(c.Request.Context(), tripID, targetID, actorID); err != nil {
		writeError(c, err)
		return
	}

	h.events.PublishTripEvent(tripID, services.EventParticipantLeft, map[string]any{
		"user_id":    targetID,
		"removed_by": actorID,
	})

	_ = c.JSON(http.StatusOK, map[string]string{"message": "participant removed"})
}
