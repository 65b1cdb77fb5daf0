package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxTripName = 255

type CreateTripRequest struct {
	Name      string   `json:"name"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Budget    *float64 `json:"budget"`
}

// TripInput is the validated form of a trip create or update.
type TripInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Budget    *float64
}

func (r *CreateTripRequest) Validate() (*TripInput, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	if err := checkText("name", name, maxTripName); err != nil {
		return nil, err
	}
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, errors.New("start_date must not be after end_date")
	}
	if r.Budget != nil && *r.Budget < 0 {
		return nil, errors.New("budget must not be negative")
	}
	return &TripInput{Name: name, StartDate: start, EndDate: end, Budget: r.Budget}, nil
}

type UpdateTripRequest struct {
	Name      *string  `json:"name"`
	StartDate *string  `json:"start_date"`
	EndDate   *string  `json:"end_date"`
	Budget    *float64 `json:"budget"`
}

// TripPatch carries only the fields present in an update request.
type TripPatch struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	Budget    *float64
}

func (r *UpdateTripRequest) Validate() (*TripPatch, error) {
	p := &TripPatch{Budget: r.Budget}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return nil, errors.New("name must not be empty")
		}
		if err := checkText("name", name, maxTripName); err != nil {
			return nil, err
		}
		p.Name = &name
	}
	if r.StartDate != nil {
		d, err := parseDate("start_date", *r.StartDate)
		if err != nil {
			return nil, err
		}
		p.StartDate = &d
	}
	if r.EndDate != nil {
		d, err := parseDate("end_date", *r.EndDate)
		if err != nil {
			return nil, err
		}
		p.EndDate = &d
	}
	if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
		return nil, errors.New("start_date must not be after end_date")
	}
	if r.Budget != nil && *r.Budget < 0 {
		return nil, errors.New("budget must not be negative")
	}
	return p, nil
}

type JoinTripRequest struct {
	TripCode string `json:"trip_code"`
}

func (r *JoinTripRequest) Validate() error {
	r.TripCode = strings.ToUpper(strings.TrimSpace(r.TripCode))
	if r.TripCode == "" {
		return errors.New("trip_code is required")
	}
	return nil
}

type TripResponse struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	StartDate    string         `json:"start_date"`
	EndDate      string         `json:"end_date"`
	Budget       *float64       `json:"budget,omitempty"`
	TripCode     string         `json:"trip_code"`
	CreatorID    uuid.UUID      `json:"creator_id"`
	Phase        string         `json:"phase"`
	Creator      *UserResponse  `json:"creator,omitempty"`
	Participants []UserResponse `json:"participants,omitempty"`
}

type ParticipantResponse struct {
	UserID   uuid.UUID    `json:"user_id"`
	JoinedAt string       `json:"joined_at"`
	User     UserResponse `json:"user"`
}
