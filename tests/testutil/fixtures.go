package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/planit-app/planit-api/internal/database"
	"github.com/planit-app/planit-api/internal/models"
)

// Fixtures inserts rows directly, bypassing the services under test.
type Fixtures struct {
	db      *database.DB
	counter int
}

func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a local user without a password.
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:    fmt.Sprintf("user%d@example.com", f.counter),
		Username: fmt.Sprintf("user%d", f.counter),
		Name:     fmt.Sprintf("Test User %d", f.counter),
		Provider: models.ProviderLocal,
	}

	for _, opt := range opts {
		opt(user)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (email, username, name, provider)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Username, user.Name, user.Provider).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

func WithUsername(username string) UserOption {
	return func(u *models.User) {
		u.Username = username
	}
}

// CreateTrip creates a trip starting a month from now and adds the creator
// as its first participant.
func (f *Fixtures) CreateTrip(t *testing.T, creator *models.User, opts ...TripOption) *models.Trip {
	t.Helper()
	f.counter++

	start := time.Now().UTC().AddDate(0, 1, 0).Truncate(24 * time.Hour)
	trip := &models.Trip{
		Name:      fmt.Sprintf("Test Trip %d", f.counter),
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 6),
		JoinCode:  fmt.Sprintf("T%05d", f.counter),
		CreatorID: creator.ID,
	}

	for _, opt := range opts {
		opt(trip)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO trips (name, start_date, end_date, budget, join_code, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, trip.Name, trip.StartDate, trip.EndDate, trip.Budget, trip.JoinCode, trip.CreatorID).Scan(
		&trip.ID, &trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO trip_participants (trip_id, user_id) VALUES ($1, $2)
	`, trip.ID, creator.ID); err != nil {
		t.Fatalf("failed to add creator as participant: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return trip
}

type TripOption func(*models.Trip)

func WithTripName(name string) TripOption {
	return func(t *models.Trip) {
		t.Name = name
	}
}

func WithJoinCode(code string) TripOption {
	return func(t *models.Trip) {
		t.JoinCode = code
	}
}

func WithDates(start, end time.Time) TripOption {
	return func(t *models.Trip) {
		t.StartDate = start
		t.EndDate = end
	}
}

func (f *Fixtures) AddParticipant(t *testing.T, trip *models.Trip, user *models.User) {
	t.Helper()

	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO trip_participants (trip_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (trip_id, user_id) DO NOTHING
	`, trip.ID, user.ID)
	if err != nil {
		t.Fatalf("failed to add participant: %v", err)
	}
}

// CreateInvitation inserts a pending invitation from sender.
func (f *Fixtures) CreateInvitation(t *testing.T, trip *models.Trip, sender *models.User, email string) *models.Invitation {
	t.Helper()

	inv := &models.Invitation{
		TripID:   trip.ID,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Status:   models.InvitationPending,
		SenderID: &sender.ID,
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO invitations (trip_id, email, status, sender_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, inv.TripID, inv.Email, inv.Status, inv.SenderID).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create invitation: %v", err)
	}

	return inv
}

func (f *Fixtures) CreateActivity(t *testing.T, trip *models.Trip, creator *models.User) *models.Activity {
	t.Helper()
	f.counter++

	a := &models.Activity{
		TripID:    trip.ID,
		Title:     fmt.Sprintf("Test Activity %d", f.counter),
		Date:      trip.StartDate,
		Category:  models.CategoryOther,
		CreatorID: creator.ID,
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO activities (trip_id, title, date, category, creator_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, a.TripID, a.Title, a.Date, a.Category, a.CreatorID).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create activity: %v", err)
	}

	return a
}
