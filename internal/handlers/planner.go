package handlers

import (
	"errors"
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/planit-app/planit-api/pkg/dto"
)

type PlannerHandler struct {
	plannerService PlannerServiceInterface
}

func NewPlannerHandler(plannerService PlannerServiceInterface) *PlannerHandler {
	return &PlannerHandler{plannerService: plannerService}
}

func (h *PlannerHandler) Chat(c *drift.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	if !h.plannerService.Enabled() {
		plannerUnavailable(c)
		return
	}

	var req dto.PlannerChatRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		c.BadRequest(err.Error())
		return
	}

	content, err := h.plannerService.Chat(c.Request.Context(), req.Prompt)
	if err != nil {
		plannerError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.PlannerChatResponse{Content: content})
}

func (h *PlannerHandler) Itinerary(c *drift.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	if !h.plannerService.Enabled() {
		plannerUnavailable(c)
		return
	}

	var req dto.PlannerItineraryRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		c.BadRequest(err.Error())
		return
	}

	itinerary, err := h.plannerService.Itinerary(c.Request.Context(), req.Conversation)
	if err != nil {
		plannerError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.PlannerItineraryResponse{Trip: *itinerary})
}

func plannerUnavailable(c *drift.Context) {
	_ = c.JSON(http.StatusServiceUnavailable, map[string]string{"error": services.ErrPlannerDisabled.Error()})
}

func plannerError(c *drift.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPlannerDisabled):
		plannerUnavailable(c)
	case errors.Is(err, services.ErrPlannerBadResponse):
		c.BadGateway(err.Error())
	default:
		writeError(c, err)
	}
}
