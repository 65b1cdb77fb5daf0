package dto

import (
	"errors"
	"strings"

	"github.com/planit-app/planit-api/internal/models"
)

type PlannerChatRequest struct {
	Prompt string `json:"prompt"`
}

func (r *PlannerChatRequest) Validate() error {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		return errors.New("prompt is required")
	}
	if len(r.Prompt) > 4000 {
		return errors.New("prompt must be at most 4000 characters")
	}
	return nil
}

type PlannerChatResponse struct {
	Content string `json:"content"`
}

type PlannerItineraryRequest struct {
	Conversation string `json:"conversation"`
}

func (r *PlannerItineraryRequest) Validate() error {
	r.Conversation = strings.TrimSpace(r.Conversation)
	if r.Conversation == "" {
		return errors.New("conversation is required")
	}
	return nil
}

type PlannerItineraryResponse struct {
	Trip models.Itinerary `json:"trip"`
}
