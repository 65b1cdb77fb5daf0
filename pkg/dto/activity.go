package dto

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/planit-app/planit-api/internal/models"
)

type CreateActivityRequest struct {
	Title         string   `json:"title"`
	Date          string   `json:"date"`
	Time          *string  `json:"time"`
	Category      string   `json:"category"`
	EstimatedCost *float64 `json:"estimated_cost"`
	Notes         *string  `json:"notes"`
}

type ActivityInput struct {
	Title         string
	Date          time.Time
	Time          *string
	Category      string
	EstimatedCost *float64
	Notes         *string
}

func (r *CreateActivityRequest) Validate() (*ActivityInput, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	date, err := parseDate("date", r.Date)
	if err != nil {
		return nil, err
	}
	category := r.Category
	if category == "" {
		category = models.CategoryOther
	}
	if err := validCategory(category); err != nil {
		return nil, err
	}
	if r.EstimatedCost != nil && *r.EstimatedCost < 0 {
		return nil, errors.New("estimated_cost must not be negative")
	}
	return &ActivityInput{
		Title:         title,
		Date:          date,
		Time:          r.Time,
		Category:      category,
		EstimatedCost: r.EstimatedCost,
		Notes:         r.Notes,
	}, nil
}

type UpdateActivityRequest struct {
	Title         *string  `json:"title"`
	Date          *string  `json:"date"`
	Time          *string  `json:"time"`
	Category      *string  `json:"category"`
	EstimatedCost *float64 `json:"estimated_cost"`
	Notes         *string  `json:"notes"`
}

type ActivityPatch struct {
	Title         *string
	Date          *time.Time
	Time          *string
	Category      *string
	EstimatedCost *float64
	Notes         *string
}

func (r *UpdateActivityRequest) Validate() (*ActivityPatch, error) {
	p := &ActivityPatch{Time: r.Time, Category: r.Category, EstimatedCost: r.EstimatedCost, Notes: r.Notes}
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return nil, errors.New("title must not be empty")
		}
		p.Title = &title
	}
	if r.Date != nil {
		d, err := parseDate("date", *r.Date)
		if err != nil {
			return nil, err
		}
		p.Date = &d
	}
	if r.Category != nil {
		if err := validCategory(*r.Category); err != nil {
			return nil, err
		}
	}
	if r.EstimatedCost != nil && *r.EstimatedCost < 0 {
		return nil, errors.New("estimated_cost must not be negative")
	}
	return p, nil
}

func validCategory(c string) error {
	if !slices.Contains(models.ActivityCategories, c) {
		return fmt.Errorf("category must be one of %s", strings.Join(models.ActivityCategories, ", "))
	}
	return nil
}

type VoteRequest struct {
	IsUpvote *bool `json:"is_upvote"`
}

func (r *VoteRequest) Validate() error {
	if r.IsUpvote == nil {
		return errors.New("is_upvote is required")
	}
	return nil
}

type ActivityResponse struct {
	ID            uuid.UUID     `json:"id"`
	TripID        uuid.UUID     `json:"trip_id"`
	Title         string        `json:"title"`
	Date          string        `json:"date"`
	Time          *string       `json:"time,omitempty"`
	Category      string        `json:"category"`
	EstimatedCost *float64      `json:"estimated_cost,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	CreatorID     uuid.UUID     `json:"creator_id"`
	Creator       *UserResponse `json:"creator,omitempty"`
	Upvotes       int           `json:"upvotes"`
	Downvotes     int           `json:"downvotes"`
	Score         int           `json:"score"`
	MyVote        *bool         `json:"my_vote,omitempty"`
}
