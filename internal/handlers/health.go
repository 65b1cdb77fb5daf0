package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/internal/health"
)

type HealthHandler struct {
	monitor HealthMonitorInterface
	ping    func(ctx context.Context) error
}

func NewHealthHandler(monitor HealthMonitorInterface, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{monitor: monitor, ping: ping}
}

type healthResponse struct {
	Status   string        `json:"status"`
	Database string        `json:"database"`
	Monitor  health.Status `json:"monitor"`
}

// Check pings the database directly and reports the monitor's view. A
// failed ping also asks the monitor for an immediate re-check.
func (h *HealthHandler) Check(c *drift.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "up", Monitor: h.monitor.Status()}
	status := http.StatusOK
	if err := h.ping(ctx); err != nil {
		h.monitor.Trigger()
		resp.Status = "degraded"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}

	_ = c.JSON(status, resp)
}
