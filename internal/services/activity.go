package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/planit-app/planit-api/internal/database"
	"github.com/planit-app/planit-api/internal/models"
)

const (
	activityColumns = `a.id, a.trip_id, a.title, a.date, a.time, a.category, a.estimated_cost, a.notes, a.creator_id, a.created_at, a.updated_at`
	activityOrder   = `ORDER BY a.date, a.time NULLS LAST, a.created_at`

	EventActivityChanged = "activity_changed"
	EventVoteChanged     = "vote_changed"
)

// ActivityService manages a trip's activities and the votes on them. Every
// operation requires the caller to participate in the trip.
type ActivityService struct {
	db     *database.DB
	trips  *TripService
	events EventPublisher
}

func NewActivityService(db *database.DB, trips *TripService, events EventPublisher) *ActivityService {
	return &ActivityService{db: db, trips: trips, events: events}
}

// ActivityUpdate holds the fields to change; nil leaves a field untouched.
type ActivityUpdate struct {
	Title         *string
	Date          *time.Time
	Time          *string
	Category      *string
	EstimatedCost *float64
	Notes         *string
}

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var a models.Activity
	err := row.Scan(
		&a.ID, &a.TripID, &a.Title, &a.Date, &a.Time, &a.Category,
		&a.EstimatedCost, &a.Notes, &a.CreatorID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ActivityService) publish(tripID uuid.UUID, eventType string, data any) {
	if s.events != nil {
		s.events.PublishTripEvent(tripID, eventType, data)
	}
}

func (s *ActivityService) queryActivities(ctx context.Context, sql string, args ...any) ([]models.Activity, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (s *ActivityService) queryVotes(ctx context.Context, sql string, args ...any) (map[uuid.UUID][]models.Vote, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := map[uuid.UUID][]models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.ActivityID, &v.UserID, &v.IsUpvote, &v.CreatedAt); err != nil {
			return nil, err
		}
		votes[v.ActivityID] = append(votes[v.ActivityID], v)
	}
	return votes, rows.Err()
}

// List returns the trip's activities in calendar order with their votes.
func (s *ActivityService) List(ctx context.Context, tripID, userID uuid.UUID) ([]models.Activity, error) {
	if _, err := s.trips.RequireParticipant(ctx, tripID, userID); err != nil {
		return nil, err
	}

	activities, err := s.queryActivities(ctx, `
		SELECT `+activityColumns+` FROM activities a WHERE a.trip_id = $1 `+activityOrder,
		tripID,
	)
	if err != nil {
		return nil, err
	}

	votes, err := s.queryVotes(ctx, `
		SELECT v.id, v.activity_id, v.user_id, v.is_upvote, v.created_at
		FROM votes v
		JOIN activities a ON a.id = v.activity_id
		WHERE a.trip_id = $1
	`, tripID)
	if err != nil {
		return nil, err
	}
	for i := range activities {
		activities[i].Votes = votes[activities[i].ID]
	}
	return activities, nil
}

func (s *ActivityService) get(ctx context.Context, tripID, activityID uuid.UUID) (*models.Activity, error) {
	a, err := scanActivity(s.db.Pool.QueryRow(ctx, `
		SELECT `+activityColumns+` FROM activities a WHERE a.id = $1 AND a.trip_id = $2
	`, activityID, tripID))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}

	votes, err := s.queryVotes(ctx, `
		SELECT v.id, v.activity_id, v.user_id, v.is_upvote, v.created_at
		FROM votes v WHERE v.activity_id = $1
	`, activityID)
	if err != nil {
		return nil, err
	}
	a.Votes = votes[activityID]
	return a, nil
}

func (s *ActivityService) Get(ctx context.Context, tripID, activityID, userID uuid.UUID) (*models.Activity, error) {
	if _, err := s.trips.RequireParticipant(ctx, tripID, userID); err != nil {
		return nil, err
	}
	return s.get(ctx, tripID, activityID)
}

// Create stores a for the trip with userID as its creator.
func (s *ActivityService) Create(ctx context.Context, tripID, userID uuid.UUID, a *models.Activity) (*models.Activity, error) {
	if _, err := s.trips.RequireParticipant(ctx, tripID, userID); err != nil {
		return nil, err
	}

	created, err := scanActivity(s.db.Pool.QueryRow(ctx, `
		INSERT INTO activities AS a (trip_id, title, date, time, category, estimated_cost, notes, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+activityColumns,
		tripID, a.Title, a.Date, a.Time, a.Category, a.EstimatedCost, a.Notes, userID,
	))
	if err != nil {
		return nil, wrap("failed to create activity", err)
	}

	s.publish(tripID, EventActivityChanged, map[string]any{"activity_id": created.ID, "action": "created"})
	return created, nil
}

func (s *ActivityService) ownedActivity(ctx context.Context, tripID, activityID, userID uuid.UUID) (*models.Activity, error) {
	if _, err := s.trips.RequireParticipant(ctx, tripID, userID); err != nil {
		return nil, err
	}
	a, err := s.get(ctx, tripID, activityID)
	if err != nil {
		return nil, err
	}
	if a.CreatorID != userID {
		return nil, ErrNotActivityOwner
	}
	return a, nil
}

// Update changes an activity. Only its creator may do so.
func (s *ActivityService) Update(ctx context.Context, tripID, activityID, userID uuid.UUID, upd ActivityUpdate) (*models.Activity, error) {
	a, err := s.ownedActivity(ctx, tripID, activityID, userID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		a.Title = *upd.Title
	}
	if upd.Date != nil {
		a.Date = *upd.Date
	}
	if upd.Time != nil {
		a.Time = upd.Time
	}
	if upd.Category != nil {
		a.Category = *upd.Category
	}
	if upd.EstimatedCost != nil {
		a.EstimatedCost = upd.EstimatedCost
	}
	if upd.Notes != nil {
		a.Notes = upd.Notes
	}

	updated, err := scanActivity(s.db.Pool.QueryRow(ctx, `
		UPDATE activities AS a SET
			title = $1, date = $2, time = $3, category = $4, estimated_cost = $5, notes = $6, updated_at = NOW()
		WHERE a.id = $7
		RETURNING `+activityColumns,
		a.Title, a.Date, a.Time, a.Category, a.EstimatedCost, a.Notes, activityID,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	updated.Votes = a.Votes

	s.publish(tripID, EventActivityChanged, map[string]any{"activity_id": activityID, "action": "updated"})
	return updated, nil
}

// Delete removes an activity and its votes. Only its creator may do so.
func (s *ActivityService) Delete(ctx context.Context, tripID, activityID, userID uuid.UUID) error {
	if _, err := s.ownedActivity(ctx, tripID, activityID, userID); err != nil {
		return err
	}

	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, activityID); err != nil {
		return wrap("failed to delete activity", err)
	}

	s.publish(tripID, EventActivityChanged, map[string]any{"activity_id": activityID, "action": "deleted"})
	return nil
}

// Vote records or replaces the user's vote and returns the activity with its
// updated votes.
func (s *ActivityService) Vote(ctx context.Context, tripID, activityID, userID uuid.UUID, upvote bool) (*models.Activity, error) {
	if _, err := s.trips.RequireParticipant(ctx, tripID, userID); err != nil {
		return nil, err
	}

	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM activities WHERE id = $1 AND trip_id = $2)
	`, activityID, tripID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrActivityNotFound
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO votes (activity_id, user_id, is_upvote)
		VALUES ($1, $2, $3)
		ON CONFLICT (activity_id, user_id) DO UPDATE SET is_upvote = EXCLUDED.is_upvote
	`, activityID, userID, upvote)
	if err != nil {
		return nil, wrap("failed to record vote", err)
	}

	s.publish(tripID, EventVoteChanged, map[string]any{"activity_id": activityID})
	return s.get(ctx, tripID, activityID)
}

// Unvote removes the user's vote.
func (s *ActivityService) Unvote(ctx context.Context, tripID, activityID, userID uuid.UUID) (*models.Activity, error) {
	if _, err := s.trips.RequireParticipant(ctx, tripID, userID); err != nil {
		return nil, err
	}

	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM votes v USING activities a
		WHERE v.activity_id = a.id AND a.id = $1 AND a.trip_id = $2 AND v.user_id = $3
	`, activityID, tripID, userID)
	if err != nil {
		return nil, wrap("failed to remove vote", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrVoteNotFound
	}

	s.publish(tripID, EventVoteChanged, map[string]any{"activity_id": activityID})
	return s.get(ctx, tripID, activityID)
}

// Upcoming returns activities dated from today on across the user's trips,
// soonest first.
func (s *ActivityService) Upcoming(ctx context.Context, userID uuid.UUID, today time.Time, limit int) ([]models.Activity, error) {
	return s.queryActivities(ctx, `
		SELECT `+activityColumns+`
		FROM activities a
		JOIN trip_participants tp ON tp.trip_id = a.trip_id
		WHERE tp.user_id = $1 AND a.date >= $2
		`+activityOrder+`
		LIMIT $3
	`, userID, today, limit)
}

// CountForUser counts activities across the user's trips.
func (s *ActivityService) CountForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM activities a
		JOIN trip_participants tp ON tp.trip_id = a.trip_id
		WHERE tp.user_id = $1
	`, userID).Scan(&n)
	return n, err
}
