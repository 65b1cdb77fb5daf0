package handlers

import (
	"net/http"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/pkg/dto"
)

type DashboardHandler struct {
	dashboardService DashboardServiceInterface
	now              func() time.Time
}

func NewDashboardHandler(dashboardService DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, now: time.Now}
}

func (h *DashboardHandler) Get(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	d, err := h.dashboardService.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.DashboardResponse{
		Stats: dto.DashboardStats{
			TotalTrips:         d.Stats.TotalTrips,
			UpcomingTrips:      d.Stats.UpcomingTrips,
			OngoingTrips:       d.Stats.OngoingTrips,
			PastTrips:          d.Stats.PastTrips,
			TotalActivities:    d.Stats.TotalActivities,
			PendingInvitations: d.Stats.PendingInvitations,
		},
		RecentTrips:        tripResponses(d.RecentTrips, h.now()),
		UpcomingActivities: activityResponses(d.UpcomingActivities, userID),
	})
}
