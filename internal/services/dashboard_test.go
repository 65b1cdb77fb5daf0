package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/planit-app/planit-api/internal/database"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	users := NewUserService(db)
	trips := NewTripService(db)
	activities := NewActivityService(db, trips, nil)
	invitations := NewInvitationService(db, trips, users, &recordingNotifier{}, &syncDispatcher{}, nil, zerolog.Nop())
	svc := NewDashboardService(users, trips, activities, invitations)
	today := time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return today }

	user := newTestUser("alice@example.com", "Alice")
	day := func(m time.Month, d int) time.Time { return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC) }
	span := func(name string, start, end time.Time) *models.Trip {
		trip := newTestTrip(user.ID)
		trip.Name, trip.StartDate, trip.EndDate = name, start, end
		return trip
	}
	all := []*models.Trip{
		span("past-1", day(1, 1), day(1, 5)),
		span("past-2", day(3, 1), day(3, 3)),
		span("ends-today", day(6, 10), day(6, 15)),
		span("starts-today", day(6, 15), day(6, 20)),
		span("soon", day(7, 1), day(7, 4)),
		span("later", day(9, 1), day(9, 9)),
		span("much-later", day(12, 1), day(12, 2)),
	}

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(user.ID).
		WillReturnRows(userRows(user))
	mock.ExpectQuery(`JOIN trip_participants tp ON tp.trip_id = t.id`).
		WithArgs(user.ID).
		WillReturnRows(tripRows(all...))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(user.ID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invitations`).
		WithArgs("alice@example.com", models.InvitationPending).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`a.date >= \$2`).
		WithArgs(user.ID, day(6, 15), upcomingActivitiesLimit).
		WillReturnRows(activityRows(newTestActivity(all[4].ID, user.ID)))

	d, err := svc.Get(context.Background(), user.ID)

	require.NoError(t, err)
	assert.Equal(t, DashboardStats{
		TotalTrips:         7,
		UpcomingTrips:      3,
		OngoingTrips:       2,
		PastTrips:          2,
		TotalActivities:    12,
		PendingInvitations: 1,
	}, d.Stats)
	require.Len(t, d.RecentTrips, recentTripsLimit)
	assert.Equal(t, "much-later", d.RecentTrips[0].Name)
	assert.Equal(t, "past-2", d.RecentTrips[5].Name)
	assert.Len(t, d.UpcomingActivities, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardService_Get_UnknownUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	users := NewUserService(db)
	trips := NewTripService(db)
	svc := NewDashboardService(users, trips, NewActivityService(db, trips, nil), nil)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err = svc.Get(context.Background(), id)

	assert.ErrorIs(t, err, ErrUserNotFound)
}
