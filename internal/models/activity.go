package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CategoryAdventure   = "Adventure"
	CategoryFood        = "Food"
	CategorySightseeing = "Sightseeing"
	CategoryOther       = "Other"
)

var ActivityCategories = []string{CategoryAdventure, CategoryFood, CategorySightseeing, CategoryOther}

type Activity struct {
	ID            uuid.UUID `json:"id"`
	TripID        uuid.UUID `json:"trip_id"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	Time          *string   `json:"time,omitempty"`
	Category      string    `json:"category"`
	EstimatedCost *float64  `json:"estimated_cost,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	CreatorID     uuid.UUID `json:"creator_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Creator *User  `json:"creator,omitempty"`
	Votes   []Vote `json:"votes,omitempty"`
}

type Vote struct {
	ID         uuid.UUID `json:"id"`
	ActivityID uuid.UUID `json:"activity_id"`
	UserID     uuid.UUID `json:"user_id"`
	IsUpvote   bool      `json:"is_upvote"`
	CreatedAt  time.Time `json:"created_at"`
}

type VoteTally struct {
	Upvotes   int   `json:"upvotes"`
	Downvotes int   `json:"downvotes"`
	Score     int   `json:"score"`
	MyVote    *bool `json:"my_vote,omitempty"`
}

// Tally sums the activity's votes from the point of view of userID.
func (a *Activity) Tally(userID uuid.UUID) VoteTally {
	var t VoteTally
	for _, v := range a.Votes {
		if v.IsUpvote {
			t.Upvotes++
		} else {
			t.Downvotes++
		}
		if v.UserID == userID {
			up := v.IsUpvote
			t.MyVote = &up
		}
	}
	t.Score = t.Upvotes - t.Downvotes
	return t
}
