package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/planit-app/planit-api/internal/models"
)

var (
	userCols = []string{"id", "email", "username", "name", "password_hash", "provider", "provider_id", "created_at", "updated_at"}
	tripCols = []string{"id", "name", "start_date", "end_date", "budget", "join_code", "creator_id", "created_at", "updated_at"}
	invCols  = []string{"id", "trip_id", "email", "status", "sender_id", "decline_reason", "created_at", "updated_at"}
)

func userRows(users ...*models.User) *pgxmock.Rows {
	rows := pgxmock.NewRows(userCols)
	for _, u := range users {
		rows.AddRow(u.ID, u.Email, u.Username, u.Name, u.PasswordHash, u.Provider, u.ProviderID, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

func tripRows(trips ...*models.Trip) *pgxmock.Rows {
	rows := pgxmock.NewRows(tripCols)
	for _, t := range trips {
		rows.AddRow(t.ID, t.Name, t.StartDate, t.EndDate, t.Budget, t.JoinCode, t.CreatorID, t.CreatedAt, t.UpdatedAt)
	}
	return rows
}

func invitationRows(invs ...*models.Invitation) *pgxmock.Rows {
	rows := pgxmock.NewRows(invCols)
	for _, i := range invs {
		rows.AddRow(i.ID, i.TripID, i.Email, i.Status, i.SenderID, i.DeclineReason, i.CreatedAt, i.UpdatedAt)
	}
	return rows
}

func newTestUser(email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        uuid.New(),
		Email:     email,
		Username:  email[:len(email)-len("@example.com")],
		Name:      name,
		Provider:  models.ProviderLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestTrip(creatorID uuid.UUID) *models.Trip {
	now := time.Now()
	return &models.Trip{
		ID:        uuid.New(),
		Name:      "Lisbon",
		StartDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 11, 7, 0, 0, 0, 0, time.UTC),
		JoinCode:  "A1B2C3",
		CreatorID: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newPendingInvitation(tripID uuid.UUID, email string, senderID uuid.UUID) *models.Invitation {
	now := time.Now()
	return &models.Invitation{
		ID:        uuid.New(),
		TripID:    tripID,
		Email:     email,
		Status:    models.InvitationPending,
		SenderID:  &senderID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// syncDispatcher runs notifications inline so their queries are ordered.
type syncDispatcher struct {
	mu    sync.Mutex
	kinds []string
	errs  []error
}

func (d *syncDispatcher) Dispatch(kind string, _ uuid.UUID, fn func(ctx context.Context) error) {
	err := fn(context.Background())
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kinds = append(d.kinds, kind)
	d.errs = append(d.errs, err)
}

type notifiedMail struct {
	kind       string
	recipients []string
	name       string
	tripName   string
	reason     *string
}

type recordingNotifier struct {
	sent []notifiedMail
}

func (n *recordingNotifier) SendInvitation(_ context.Context, to, inviterName, tripName string, _, _ time.Time) error {
	n.sent = append(n.sent, notifiedMail{kind: NotifyInvitation, recipients: []string{to}, name: inviterName, tripName: tripName})
	return nil
}

func (n *recordingNotifier) SendInvitationAccepted(_ context.Context, recipients []string, participantName, tripName string, _ uuid.UUID) error {
	n.sent = append(n.sent, notifiedMail{kind: NotifyAccepted, recipients: recipients, name: participantName, tripName: tripName})
	return nil
}

func (n *recordingNotifier) SendInvitationDeclined(_ context.Context, recipients []string, declinerName, tripName string, _ uuid.UUID, reason *string) error {
	n.sent = append(n.sent, notifiedMail{kind: NotifyDeclined, recipients: recipients, name: declinerName, tripName: tripName, reason: reason})
	return nil
}

type publishedEvent struct {
	tripID    uuid.UUID
	eventType string
}

type recordingEvents struct {
	events []publishedEvent
}

func (e *recordingEvents) PublishTripEvent(tripID uuid.UUID, eventType string, _ any) {
	e.events = append(e.events, publishedEvent{tripID: tripID, eventType: eventType})
}
