package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/planit-app/planit-api/pkg/dto"
)

func userResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Name:     u.Name,
		Provider: u.Provider,
	}
}

func optionalUser(u *models.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	r := userResponse(u)
	return &r
}

func tripResponse(t *models.Trip, today time.Time) dto.TripResponse {
	r := dto.TripResponse{
		ID:        t.ID,
		Name:      t.Name,
		StartDate: t.StartDate.Format(models.DateLayout),
		EndDate:   t.EndDate.Format(models.DateLayout),
		Budget:    t.Budget,
		TripCode:  t.JoinCode,
		CreatorID: t.CreatorID,
		Phase:     string(t.Phase(today)),
		Creator:   optionalUser(t.Creator),
	}
	for i := range t.Participants {
		r.Participants = append(r.Participants, userResponse(&t.Participants[i]))
	}
	return r
}

func tripResponses(trips []models.Trip, today time.Time) []dto.TripResponse {
	out := make([]dto.TripResponse, 0, len(trips))
	for i := range trips {
		out = append(out, tripResponse(&trips[i], today))
	}
	return out
}

func participantResponses(participants []models.Participant) []dto.ParticipantResponse {
	out := make([]dto.ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		r := dto.ParticipantResponse{
			UserID:   p.UserID,
			JoinedAt: p.JoinedAt.Format(time.RFC3339),
		}
		if p.User != nil {
			r.User = userResponse(p.User)
		}
		out = append(out, r)
	}
	return out
}

func invitationResponse(inv *models.Invitation) dto.InvitationResponse {
	r := dto.InvitationResponse{
		ID:            inv.ID,
		TripID:        inv.TripID,
		Email:         inv.Email,
		Status:        string(inv.Status),
		SenderID:      inv.SenderID,
		DeclineReason: inv.DeclineReason,
		CreatedAt:     inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     inv.UpdatedAt.Format(time.RFC3339),
		Sender:        optionalUser(inv.Sender),
	}
	if inv.Trip != nil {
		r.Trip = &dto.InvitationTripResponse{
			ID:        inv.Trip.ID,
			Name:      inv.Trip.Name,
			StartDate: inv.Trip.StartDate.Format(models.DateLayout),
			EndDate:   inv.Trip.EndDate.Format(models.DateLayout),
			Creator:   optionalUser(inv.Trip.Creator),
		}
	}
	return r
}

func invitationResponses(invs []models.Invitation) []dto.InvitationResponse {
	out := make([]dto.InvitationResponse, 0, len(invs))
	for i := range invs {
		out = append(out, invitationResponse(&invs[i]))
	}
	return out
}

// activityResponse renders an activity with its vote tally as seen by viewer.
func activityResponse(a *models.Activity, viewer uuid.UUID) dto.ActivityResponse {
	tally := a.Tally(viewer)
	return dto.ActivityResponse{
		ID:            a.ID,
		TripID:        a.TripID,
		Title:         a.Title,
		Date:          a.Date.Format(models.DateLayout),
		Time:          a.Time,
		Category:      a.Category,
		EstimatedCost: a.EstimatedCost,
		Notes:         a.Notes,
		CreatorID:     a.CreatorID,
		Creator:       optionalUser(a.Creator),
		Upvotes:       tally.Upvotes,
		Downvotes:     tally.Downvotes,
		Score:         tally.Score,
		MyVote:        tally.MyVote,
	}
}

func activityResponses(activities []models.Activity, viewer uuid.UUID) []dto.ActivityResponse {
	out := make([]dto.ActivityResponse, 0, len(activities))
	for i := range activities {
		out = append(out, activityResponse(&activities[i], viewer))
	}
	return out
}
