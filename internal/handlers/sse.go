package handlers

import (
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/internal/sse"
)

const sseHeartbeat = 30 * time.Second

type SSEHandler struct {
	hub         SSEHubInterface
	tripService TripServiceInterface
}

func NewSSEHandler(hub SSEHubInterface, tripService TripServiceInterface) *SSEHandler {
	return &SSEHandler{hub: hub, tripService: tripService}
}

// Events streams a trip's live events to one of its participants until the
// client disconnects or the hub shuts down.
func (h *SSEHandler) Events(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	tripID, ok := parseIDParam(c, "id", "trip")
	if !ok {
		return
	}

	if _, err := h.tripService.RequireParticipant(c.Request.Context(), tripID, userID); err != nil {
		writeError(c, err)
		return
	}

	stream := c.SSE()

	client := sse.NewClient(userID, tripID)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := stream.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": client.ID,
		"trip_id":   tripID.String(),
	}, "system", ""); err != nil {
		return
	}

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := stream.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := stream.Send("ping", "heartbeat", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
