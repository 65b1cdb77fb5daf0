package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type Trip struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Budget    *float64  `json:"budget,omitempty"`
	JoinCode  string    `json:"join_code"`
	CreatorID uuid.UUID `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Creator      *User  `json:"creator,omitempty"`
	Participants []User `json:"participants,omitempty"`
}

type Participant struct {
	TripID   uuid.UUID `json:"trip_id"`
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
	User     *User     `json:"user,omitempty"`
}

type TripPhase string

const (
	TripUpcoming TripPhase = "upcoming"
	TripOngoing  TripPhase = "ongoing"
	TripPast     TripPhase = "past"
)

// Phase places the trip relative to the calendar day of today. Both the
// start and end dates are inclusive.
func (t *Trip) Phase(today time.Time) TripPhase {
	day := truncateDay(today)
	switch {
	case truncateDay(t.StartDate).After(day):
		return TripUpcoming
	case truncateDay(t.EndDate).Before(day):
		return TripPast
	default:
		return TripOngoing
	}
}

func (t *Trip) IsCreator(userID uuid.UUID) bool {
	return t.CreatorID == userID
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
