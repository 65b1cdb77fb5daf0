package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/planit-app/planit-api/internal/database"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTripService(t *testing.T, codes ...string) (*TripService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	svc := NewTripService(&database.DB{Pool: mock})
	if len(codes) > 0 {
		next := 0
		svc.newCode = func() (string, error) {
			code := codes[next%len(codes)]
			next++
			return code, nil
		}
	}
	return svc, mock
}

func TestGenerateJoinCode(t *testing.T) {
	code, err := generateJoinCode()

	require.NoError(t, err)
	assert.Regexp(t, `^[0-9A-F]{6}$`, code)
}

func TestTripService_Create(t *testing.T) {
	svc, mock := setupTripService(t, "ABC123")
	creatorID := uuid.New()
	trip := newTestTrip(creatorID)
	trip.JoinCode = "ABC123"

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(trip.Name, trip.StartDate, trip.EndDate, (*float64)(nil), "ABC123", creatorID).
		WillReturnRows(tripRows(trip))
	mock.ExpectExec(`INSERT INTO trip_participants`).
		WithArgs(trip.ID, creatorID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	got, err := svc.Create(context.Background(), creatorID, trip.Name, trip.StartDate, trip.EndDate, nil)

	require.NoError(t, err)
	assert.Equal(t, trip.ID, got.ID)
	assert.Equal(t, "ABC123", got.JoinCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripService_Create_SkipsRetiredAndTakenCodes(t *testing.T) {
	svc, mock := setupTripService(t, "DEAD01", "LIVE02", "FRESH3")
	creatorID := uuid.New()
	trip := newTestTrip(creatorID)
	trip.JoinCode = "FRESH3"

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(trip.Name, trip.StartDate, trip.EndDate, (*float64)(nil), "DEAD01", creatorID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(trip.Name, trip.StartDate, trip.EndDate, (*float64)(nil), "LIVE02", creatorID).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "trips_join_code_key"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(trip.Name, trip.StartDate, trip.EndDate, (*float64)(nil), "FRESH3", creatorID).
		WillReturnRows(tripRows(trip))
	mock.ExpectExec(`INSERT INTO trip_participants`).
		WithArgs(trip.ID, creatorID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	got, err := svc.Create(context.Background(), creatorID, trip.Name, trip.StartDate, trip.EndDate, nil)

	require.NoError(t, err)
	assert.Equal(t, "FRESH3", got.JoinCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripService_Create_InvalidDates(t *testing.T) {
	svc, mock := setupTripService(t)
	start := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), uuid.New(), "Oops", start, start.AddDate(0, 0, -1), nil)

	assert.ErrorIs(t, err, ErrInvalidTripDates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripService_GetForParticipant(t *testing.T) {
	svc, mock := setupTripService(t)
	alice := newTestUser("alice@example.com", "Alice")
	bob := newTestUser("bob@example.com", "Bob")
	trip := newTestTrip(alice.ID)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.id`).
		WithArgs(trip.ID).
		WillReturnRows(tripRows(trip))
	rows := pgxmock.NewRows(append([]string{"trip_id", "user_id", "joined_at"}, userCols...))
	for _, u := range []*models.User{alice, bob} {
		rows.AddRow(trip.ID, u.ID, now, u.ID, u.Email, u.Username, u.Name, u.PasswordHash, u.Provider, u.ProviderID, u.CreatedAt, u.UpdatedAt)
	}
	mock.ExpectQuery(`FROM trip_participants tp`).
		WithArgs(trip.ID).
		WillReturnRows(rows)

	got, err := svc.GetForParticipant(context.Background(), trip.ID, bob.ID)

	require.NoError(t, err)
	assert.Len(t, got.Participants, 2)
	require.NotNil(t, got.Creator)
	assert.Equal(t, alice.ID, got.Creator.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripService_GetForParticipant_Outsider(t *testing.T) {
	svc, mock := setupTripService(t)
	alice := newTestUser("alice@example.com", "Alice")
	trip := newTestTrip(alice.ID)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.id`).
		WithArgs(trip.ID).
		WillReturnRows(tripRows(trip))
	mock.ExpectQuery(`FROM trip_participants tp`).
		WithArgs(trip.ID).
		WillReturnRows(pgxmock.NewRows(append([]string{"trip_id", "user_id", "joined_at"}, userCols...)).
			AddRow(trip.ID, alice.ID, now, alice.ID, alice.Email, alice.Username, alice.Name, alice.PasswordHash, alice.Provider, alice.ProviderID, alice.CreatedAt, alice.UpdatedAt))

	_, err := svc.GetForParticipant(context.Background(), trip.ID, uuid.New())

	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripService_Update(t *testing.T) {
	svc, mock := setupTripService(t)
	creatorID := uuid.New()
	trip := newTestTrip(creatorID)
	newEnd := trip.EndDate.AddDate(0, 0, 3)
	budget := 1500.0

	updated := *trip
	updated.EndDate = newEnd
	updated.Budget = &budget

	mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.id`).
		WithArgs(trip.ID).
		WillReturnRows(tripRows(trip))
	mock.ExpectQuery(`UPDATE trips AS t SET`).
		WithArgs(trip.Name, trip.StartDate, newEnd, &budget, trip.ID).
		WillReturnRows(tripRows(&updated))

	got, err := svc.Update(context.Background(), trip.ID, creatorID, TripUpdate{EndDate: &newEnd, Budget: &budget})

	require.NoError(t, err)
	assert.Equal(t, newEnd, got.EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripService_Update_Rejections(t *testing.T) {
	creatorID := uuid.New()

	t.Run("not creator", func(t *testing.T) {
		svc, mock := setupTripService(t)
		trip := newTestTrip(creatorID)
		mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.id`).
			WithArgs(trip.ID).
			WillReturnRows(tripRows(trip))

		name := "Mine now"
		_, err := svc.Update(context.Background(), trip.ID, uuid.New(), TripUpdate{Name: &name})
		assert.ErrorIs(t, err, ErrNotTripCreator)
	})

	t.Run("start after merged end", func(t *testing.T) {
		svc, mock := setupTripService(t)
		trip := newTestTrip(creatorID)
		mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.id`).
			WithArgs(trip.ID).
			WillReturnRows(tripRows(trip))

		start := trip.EndDate.AddDate(0, 0, 1)
		_, err := svc.Update(context.Background(), trip.ID, creatorID, TripUpdate{StartDate: &start})
		assert.ErrorIs(t, err, ErrInvalidTripDates)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTripService_Delete_RetiresCode(t *testing.T) {
	svc, mock := setupTripService(t)
	creatorID := uuid.New()
	trip := newTestTrip(creatorID)

	mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.id`).
		WithArgs(trip.ID).
		WillReturnRows(tripRows(trip))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO retired_join_codes`).
		WithArgs(trip.JoinCode).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM trips`).
		WithArgs(trip.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := svc.Delete(context.Background(), trip.ID, creatorID)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripService_AddParticipant_Idempotent(t *testing.T) {
	svc, mock := setupTripService(t)
	tripID, userID := uuid.New(), uuid.New()

	mock.ExpectExec(`INSERT INTO trip_participants`).
		WithArgs(tripID, userID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO trip_participants`).
		WithArgs(tripID, userID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	first, err := svc.AddParticipant(context.Background(), tripID, userID)
	require.NoError(t, err)
	second, err := svc.AddParticipant(context.Background(), tripID, userID)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripService_AddParticipant_MissingTrip(t *testing.T) {
	svc, mock := setupTripService(t)
	tripID, userID := uuid.New(), uuid.New()

	mock.ExpectExec(`INSERT INTO trip_participants`).
		WithArgs(tripID, userID).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := svc.AddParticipant(context.Background(), tripID, userID)

	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestTripService_RemoveParticipant(t *testing.T) {
	creatorID := uuid.New()

	t.Run("participant leaves", func(t *testing.T) {
		svc, mock := setupTripService(t)
		trip := newTestTrip(creatorID)
		bobID := uuid.New()
		mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.id`).
			WithArgs(trip.ID).
			WillReturnRows(tripRows(trip))
		mock.ExpectExec(`DELETE FROM trip_participants`).
			WithArgs(trip.ID, bobID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, svc.RemoveParticipant(context.Background(), trip.ID, bobID, bobID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creator stays", func(t *testing.T) {
		svc, mock := setupTripService(t)
		trip := newTestTrip(creatorID)
		mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.id`).
			WithArgs(trip.ID).
			WillReturnRows(tripRows(trip))

		err := svc.RemoveParticipant(context.Background(), trip.ID, creatorID, creatorID)
		assert.ErrorIs(t, err, ErrCannotRemoveCreator)
	})

	t.Run("others cannot remove", func(t *testing.T) {
		svc, mock := setupTripService(t)
		trip := newTestTrip(creatorID)
		mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.id`).
			WithArgs(trip.ID).
			WillReturnRows(tripRows(trip))

		err := svc.RemoveParticipant(context.Background(), trip.ID, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ErrNotTripCreator)
	})
}

func TestTripService_JoinByCode(t *testing.T) {
	svc, mock := setupTripService(t)
	alice := newTestUser("alice@example.com", "Alice")
	bob := newTestUser("bob@example.com", "Bob")
	trip := newTestTrip(alice.ID)

	mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.join_code`).
		WithArgs("A1B2C3").
		WillReturnRows(tripRows(trip))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO trip_participants`).
		WithArgs(trip.ID, bob.ID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE invitations SET status`).
		WithArgs(models.InvitationAccepted, trip.ID, "bob@example.com", models.InvitationPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	got, joined, err := svc.JoinByCode(context.Background(), " a1b2c3 ", bob)

	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, trip.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripService_JoinByCode_AlreadyMember(t *testing.T) {
	svc, mock := setupTripService(t)
	alice := newTestUser("alice@example.com", "Alice")
	trip := newTestTrip(alice.ID)

	mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.join_code`).
		WithArgs("A1B2C3").
		WillReturnRows(tripRows(trip))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO trip_participants`).
		WithArgs(trip.ID, alice.ID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	_, joined, err := svc.JoinByCode(context.Background(), "A1B2C3", alice)

	require.NoError(t, err)
	assert.False(t, joined)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripService_JoinByCode_Unknown(t *testing.T) {
	svc, mock := setupTripService(t)

	mock.ExpectQuery(`SELECT .+ FROM trips t WHERE t.join_code`).
		WithArgs("ZZZZZZ").
		WillReturnError(pgx.ErrNoRows)

	_, _, err := svc.JoinByCode(context.Background(), "zzzzzz", newTestUser("bob@example.com", "Bob"))

	assert.ErrorIs(t, err, ErrJoinCodeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
