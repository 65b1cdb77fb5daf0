package services

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/planit-app/planit-api/internal/models"
)

const (
	recentTripsLimit        = 6
	upcomingActivitiesLimit = 10
)

type DashboardStats struct {
	TotalTrips         int
	UpcomingTrips      int
	OngoingTrips       int
	PastTrips          int
	TotalActivities    int
	PendingInvitations int
}

type Dashboard struct {
	Stats              DashboardStats
	RecentTrips        []models.Trip
	UpcomingActivities []models.Activity
}

// DashboardService summarises a user's trips. It only reads.
type DashboardService struct {
	users       *UserService
	trips       *TripService
	activities  *ActivityService
	invitations *InvitationService
	now         func() time.Time
}

func NewDashboardService(users *UserService, trips *TripService, activities *ActivityService, invitations *InvitationService) *DashboardService {
	return &DashboardService{
		users:       users,
		trips:       trips,
		activities:  activities,
		invitations: invitations,
		now:         time.Now,
	}
}

func (s *DashboardService) Get(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	trips, err := s.trips.GetUserTrips(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC()
	d := &Dashboard{Stats: DashboardStats{TotalTrips: len(trips)}}
	for i := range trips {
		switch trips[i].Phase(today) {
		case models.TripUpcoming:
			d.Stats.UpcomingTrips++
		case models.TripOngoing:
			d.Stats.OngoingTrips++
		case models.TripPast:
			d.Stats.PastTrips++
		}
	}

	recent := slices.Clone(trips)
	slices.SortStableFunc(recent, func(a, b models.Trip) int {
		return b.StartDate.Compare(a.StartDate)
	})
	if len(recent) > recentTripsLimit {
		recent = recent[:recentTripsLimit]
	}
	d.RecentTrips = recent

	if d.Stats.TotalActivities, err = s.activities.CountForUser(ctx, userID); err != nil {
		return nil, err
	}
	if d.Stats.PendingInvitations, err = s.invitations.CountPending(ctx, user.Email); err != nil {
		return nil, err
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if d.UpcomingActivities, err = s.activities.Upcoming(ctx, userID, day, upcomingActivitiesLimit); err != nil {
		return nil, err
	}
	return d, nil
}
