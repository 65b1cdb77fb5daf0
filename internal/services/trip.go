package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/planit-app/planit-api/internal/database"
	"github.com/planit-app/planit-api/internal/models"
)

const (
	tripColumns = `t.id, t.name, t.start_date, t.end_date, t.budget, t.join_code, t.creator_id, t.created_at, t.updated_at`

	joinCodeBytes    = 3
	joinCodeAttempts = 5

	foreignKeyViolation = "23503"
)

// TripService owns trips and their participant sets. It is the only code
// that writes trip_participants.
type TripService struct {
	db      *database.DB
	newCode func() (string, error)
}

func NewTripService(db *database.DB) *TripService {
	return &TripService{db: db, newCode: generateJoinCode}
}

// TripUpdate holds the fields to change; nil leaves a field untouched.
type TripUpdate struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	Budget    *float64
}

func generateJoinCode() (string, error) {
	b := make([]byte, joinCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

func scanTrip(row pgx.Row) (*models.Trip, error) {
	var trip models.Trip
	err := row.Scan(
		&trip.ID, &trip.Name, &trip.StartDate, &trip.EndDate, &trip.Budget,
		&trip.JoinCode, &trip.CreatorID, &trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// Create stores the trip with a fresh join code and makes the creator its
// first participant. A code that is live or was retired by a deleted trip is
// never handed out again; such a collision is retried with a new code.
func (s *TripService) Create(ctx context.Context, creatorID uuid.UUID, name string, start, end time.Time, budget *float64) (*models.Trip, error) {
	if start.After(end) {
		return nil, ErrInvalidTripDates
	}

	for range joinCodeAttempts {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate join code: %w", err)
		}

		var trip *models.Trip
		err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
			var err error
			trip, err = scanTrip(tx.QueryRow(ctx, `
				INSERT INTO trips AS t (name, start_date, end_date, budget, join_code, creator_id)
				SELECT $1::varchar, $2::date, $3::date, $4::numeric, $5::varchar, $6::uuid
				WHERE NOT EXISTS (SELECT 1 FROM retired_join_codes WHERE code = $5::varchar)
				RETURNING `+tripColumns,
				name, start, end, budget, code, creatorID,
			))
			if err != nil {
				return err
			}
			_, err = s.addParticipant(ctx, tx, trip.ID, creatorID)
			return err
		})
		if isNoRows(err) || isUniqueViolation(err, "trips_join_code_key") {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create trip: %w", err)
		}
		return trip, nil
	}
	return nil, ErrJoinCodeExhausted
}

func (s *TripService) GetByID(ctx context.Context, tripID uuid.UUID) (*models.Trip, error) {
	trip, err := scanTrip(s.db.Pool.QueryRow(ctx, `
		SELECT `+tripColumns+` FROM trips t WHERE t.id = $1
	`, tripID))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return trip, nil
}

func (s *TripService) GetByJoinCode(ctx context.Context, code string) (*models.Trip, error) {
	trip, err := scanTrip(s.db.Pool.QueryRow(ctx, `
		SELECT `+tripColumns+` FROM trips t WHERE t.join_code = $1
	`, strings.ToUpper(strings.TrimSpace(code))))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrJoinCodeNotFound
		}
		return nil, err
	}
	return trip, nil
}

// GetForParticipant loads a trip with its participants, visible only to them.
func (s *TripService) GetForParticipant(ctx context.Context, tripID, userID uuid.UUID) (*models.Trip, error) {
	trip, err := s.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	participants, err := s.GetParticipants(ctx, tripID)
	if err != nil {
		return nil, err
	}

	member := false
	for _, p := range participants {
		trip.Participants = append(trip.Participants, *p.User)
		if p.UserID == userID {
			member = true
		}
		if p.UserID == trip.CreatorID {
			trip.Creator = p.User
		}
	}
	if !member {
		return nil, ErrNotParticipant
	}
	return trip, nil
}

// GetUserTrips lists the trips the user participates in, soonest first.
func (s *TripService) GetUserTrips(ctx context.Context, userID uuid.UUID) ([]models.Trip, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+tripColumns+`
		FROM trips t
		JOIN trip_participants tp ON tp.trip_id = t.id
		WHERE tp.user_id = $1
		ORDER BY t.start_date, t.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []models.Trip{}
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *trip)
	}
	return trips, rows.Err()
}

func (s *TripService) Update(ctx context.Context, tripID, userID uuid.UUID, upd TripUpdate) (*models.Trip, error) {
	trip, err := s.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsCreator(userID) {
		return nil, ErrNotTripCreator
	}

	if upd.Name != nil {
		trip.Name = *upd.Name
	}
	if upd.StartDate != nil {
		trip.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		trip.EndDate = *upd.EndDate
	}
	if upd.Budget != nil {
		trip.Budget = upd.Budget
	}
	if trip.StartDate.After(trip.EndDate) {
		return nil, ErrInvalidTripDates
	}

	updated, err := scanTrip(s.db.Pool.QueryRow(ctx, `
		UPDATE trips AS t SET name = $1, start_date = $2, end_date = $3, budget = $4, updated_at = NOW()
		WHERE t.id = $5
		RETURNING `+tripColumns,
		trip.Name, trip.StartDate, trip.EndDate, trip.Budget, tripID,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes the trip and retires its join code. Participants,
// invitations and activities cascade.
func (s *TripService) Delete(ctx context.Context, tripID, userID uuid.UUID) error {
	trip, err := s.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if !trip.IsCreator(userID) {
		return ErrNotTripCreator
	}

	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO retired_join_codes (code) VALUES ($1) ON CONFLICT DO NOTHING
		`, trip.JoinCode); err != nil {
			return fmt.Errorf("failed to retire join code: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM trips WHERE id = $1`, tripID); err != nil {
			return fmt.Errorf("failed to delete trip: %w", err)
		}
		return nil
	})
}

func (s *TripService) IsParticipant(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM trip_participants WHERE trip_id = $1 AND user_id = $2)
	`, tripID, userID).Scan(&exists)
	return exists, err
}

// RequireParticipant fails with ErrTripNotFound or ErrNotParticipant.
func (s *TripService) RequireParticipant(ctx context.Context, tripID, userID uuid.UUID) (*models.Trip, error) {
	trip, err := s.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	ok, err := s.IsParticipant(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	return trip, nil
}

// AddParticipant is idempotent. It reports whether a row was added.
func (s *TripService) AddParticipant(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	return s.addParticipant(ctx, s.db.Pool, tripID, userID)
}

// AddParticipantTx is AddParticipant inside the caller's transaction.
func (s *TripService) AddParticipantTx(ctx context.Context, tx pgx.Tx, tripID, userID uuid.UUID) (bool, error) {
	return s.addParticipant(ctx, tx, tripID, userID)
}

func (s *TripService) addParticipant(ctx context.Context, q database.Querier, tripID, userID uuid.UUID) (bool, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO trip_participants (trip_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (trip_id, user_id) DO NOTHING
	`, tripID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return false, ErrTripNotFound
		}
		return false, fmt.Errorf("failed to add participant: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *TripService) GetParticipants(ctx context.Context, tripID uuid.UUID) ([]models.Participant, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT tp.trip_id, tp.user_id, tp.joined_at,
			u.id, u.email, u.username, u.name, u.password_hash, u.provider, u.provider_id, u.created_at, u.updated_at
		FROM trip_participants tp
		JOIN users u ON u.id = tp.user_id
		WHERE tp.trip_id = $1
		ORDER BY tp.joined_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		var u models.User
		if err := rows.Scan(
			&p.TripID, &p.UserID, &p.JoinedAt,
			&u.ID, &u.Email, &u.Username, &u.Name, &u.PasswordHash, &u.Provider, &u.ProviderID, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		p.User = &u
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ParticipantEmails returns the addresses of every participant except the
// excluded user. Pass uuid.Nil to include everyone.
func (s *TripService) ParticipantEmails(ctx context.Context, tripID, exclude uuid.UUID) ([]string, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT u.email
		FROM trip_participants tp
		JOIN users u ON u.id = tp.user_id
		WHERE tp.trip_id = $1 AND tp.user_id <> $2
		ORDER BY tp.joined_at
	`, tripID, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// RemoveParticipant lets the creator remove anyone but themselves, and any
// participant leave.
func (s *TripService) RemoveParticipant(ctx context.Context, tripID, userID, actorID uuid.UUID) error {
	trip, err := s.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if !trip.IsCreator(actorID) && userID != actorID {
		return ErrNotTripCreator
	}
	if trip.IsCreator(userID) {
		return ErrCannotRemoveCreator
	}

	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM trip_participants WHERE trip_id = $1 AND user_id = $2
	`, tripID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// JoinByCode adds the user to the trip behind the code. A pending invitation
// for the user's email is settled as accepted in the same transaction.
// Joining a trip twice is not an error; joined reports whether a row was added.
func (s *TripService) JoinByCode(ctx context.Context, code string, user *models.User) (trip *models.Trip, joined bool, err error) {
	trip, err = s.GetByJoinCode(ctx, code)
	if err != nil {
		return nil, false, err
	}

	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		joined, err = s.addParticipant(ctx, tx, trip.ID, user.ID)
		if err != nil || !joined {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE invitations SET status = $1, updated_at = NOW()
			WHERE trip_id = $2 AND email = $3 AND status = $4
		`, models.InvitationAccepted, trip.ID, normalizeEmail(user.Email), models.InvitationPending)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return trip, joined, nil
}
