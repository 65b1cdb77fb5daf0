package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/planit-app/planit-api/internal/database"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/rs/zerolog"
)

const (
	invitationColumns = `i.id, i.trip_id, i.email, i.status, i.sender_id, i.decline_reason, i.created_at, i.updated_at`

	pendingInviteIndex = "idx_invitations_pending_unique"

	NotifyInvitation = "invitation"
	NotifyAccepted   = "accepted"
	NotifyDeclined   = "declined"

	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventInvitationDecline = "invitation_declined"
)

// Notifier delivers invitation emails.
type Notifier interface {
	SendInvitation(ctx context.Context, to, inviterName, tripName string, start, end time.Time) error
	SendInvitationAccepted(ctx context.Context, recipients []string, participantName, tripName string, tripID uuid.UUID) error
	SendInvitationDeclined(ctx context.Context, recipients []string, declinerName, tripName string, tripID uuid.UUID, reason *string) error
}

// Dispatcher runs fn detached from the caller. Failures are its concern.
type Dispatcher interface {
	Dispatch(kind string, subject uuid.UUID, fn func(ctx context.Context) error)
}

// EventPublisher pushes live updates to clients watching a trip.
type EventPublisher interface {
	PublishTripEvent(tripID uuid.UUID, eventType string, data any)
}

// InvitationService owns invitations and their transitions. pending moves to
// accepted or declined exactly once; both are terminal.
type InvitationService struct {
	db         *database.DB
	trips      *TripService
	users      *UserService
	notifier   Notifier
	dispatcher Dispatcher
	events     EventPublisher
	log        zerolog.Logger
}

func NewInvitationService(
	db *database.DB,
	trips *TripService,
	users *UserService,
	notifier Notifier,
	dispatcher Dispatcher,
	events EventPublisher,
	log zerolog.Logger,
) *InvitationService {
	return &InvitationService{
		db:         db,
		trips:      trips,
		users:      users,
		notifier:   notifier,
		dispatcher: dispatcher,
		events:     events,
		log:        log,
	}
}

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	err := row.Scan(
		&inv.ID, &inv.TripID, &inv.Email, &inv.Status, &inv.SenderID,
		&inv.DeclineReason, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *InvitationService) publish(tripID uuid.UUID, eventType string, data any) {
	if s.events != nil {
		s.events.PublishTripEvent(tripID, eventType, data)
	}
}

// Create invites email to the trip on behalf of a participant. The email is
// sent after the invitation is stored; its outcome does not affect the result.
func (s *InvitationService) Create(ctx context.Context, tripID uuid.UUID, email string, actorID uuid.UUID) (*models.Invitation, error) {
	email = normalizeEmail(email)

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	member, err := s.trips.IsParticipant(ctx, tripID, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotParticipant
	}

	if strings.EqualFold(email, actor.Email) {
		return nil, ErrSelfInvite
	}

	var pending bool
	err = s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM invitations WHERE trip_id = $1 AND email = $2 AND status = $3)
	`, tripID, email, models.InvitationPending).Scan(&pending)
	if err != nil {
		return nil, wrap("failed to check pending invitations", err)
	}
	if pending {
		return nil, ErrDuplicateInvite
	}

	invitee, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		already, err := s.trips.IsParticipant(ctx, tripID, invitee.ID)
		if err != nil {
			return nil, err
		}
		if already {
			return nil, ErrAlreadyParticipant
		}
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	// The partial unique index settles a race with a concurrent create.
	inv, err := scanInvitation(s.db.Pool.QueryRow(ctx, `
		INSERT INTO invitations AS i (trip_id, email, status, sender_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+invitationColumns,
		tripID, email, models.InvitationPending, actorID,
	))
	if err != nil {
		if isUniqueViolation(err, pendingInviteIndex) {
			return nil, ErrDuplicateInvite
		}
		return nil, wrap("failed to create invitation", err)
	}

	s.log.Info().Stringer("invitation_id", inv.ID).Stringer("trip_id", tripID).Msg("invitation created")

	inviterName, tripName, start, end := actor.DisplayName(), trip.Name, trip.StartDate, trip.EndDate
	s.dispatcher.Dispatch(NotifyInvitation, inv.ID, func(ctx context.Context) error {
		return s.notifier.SendInvitation(ctx, email, inviterName, tripName, start, end)
	})

	return inv, nil
}

// load fetches an invitation and checks it is addressed to callerEmail and
// still pending.
func (s *InvitationService) load(ctx context.Context, invitationID uuid.UUID, callerEmail string) (*models.Invitation, error) {
	inv, err := scanInvitation(s.db.Pool.QueryRow(ctx, `
		SELECT `+invitationColumns+` FROM invitations i WHERE i.id = $1
	`, invitationID))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	if !strings.EqualFold(inv.Email, strings.TrimSpace(callerEmail)) {
		return nil, ErrInvitationNotAddressed
	}
	if inv.Status != models.InvitationPending {
		return nil, ErrInvitationProcessed
	}
	return inv, nil
}

// transition moves a pending invitation to status. It affects no row when a
// concurrent call got there first, which is reported as ErrInvitationProcessed.
func transition(ctx context.Context, q database.Querier, invitationID uuid.UUID, status models.InvitationStatus, reason *string) error {
	tag, err := q.Exec(ctx, `
		UPDATE invitations SET status = $1, decline_reason = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, status, reason, invitationID, models.InvitationPending)
	if err != nil {
		return wrap("failed to update invitation", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvitationProcessed
	}
	return nil
}

// Accept settles the invitation and adds the caller to the trip in one
// transaction. When the address has no account yet only the status changes.
// The other participants are notified after commit, and only if membership
// actually changed.
func (s *InvitationService) Accept(ctx context.Context, invitationID uuid.UUID, callerEmail string) error {
	inv, err := s.load(ctx, invitationID, callerEmail)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, inv.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}

	added := false
	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := transition(ctx, tx, inv.ID, models.InvitationAccepted, nil); err != nil {
			return err
		}
		if user == nil {
			return nil
		}
		added, err = s.trips.AddParticipantTx(ctx, tx, inv.TripID, user.ID)
		return err
	})
	if err != nil {
		return err
	}

	log := s.log.With().Stringer("invitation_id", inv.ID).Stringer("trip_id", inv.TripID).Logger()
	if user == nil {
		log.Warn().Msg("invitation accepted by an address without an account")
		return nil
	}
	log.Info().Bool("added", added).Msg("invitation accepted")
	if !added {
		return nil
	}

	s.publish(inv.TripID, EventParticipantJoined, map[string]any{
		"user_id": user.ID,
		"name":    user.DisplayName(),
	})

	tripID, userID, name := inv.TripID, user.ID, user.DisplayName()
	s.dispatcher.Dispatch(NotifyAccepted, inv.ID, func(ctx context.Context) error {
		trip, err := s.trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		recipients, err := s.trips.ParticipantEmails(ctx, tripID, userID)
		if err != nil {
			return err
		}
		if len(recipients) == 0 {
			return nil
		}
		return s.notifier.SendInvitationAccepted(ctx, recipients, name, trip.Name, tripID)
	})
	return nil
}

// Decline settles the invitation with an optional reason. Membership never
// changes. Every participant, the creator included, is notified.
func (s *InvitationService) Decline(ctx context.Context, invitationID uuid.UUID, callerEmail string, reason *string) error {
	inv, err := s.load(ctx, invitationID, callerEmail)
	if err != nil {
		return err
	}

	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		if trimmed == "" {
			reason = nil
		} else {
			reason = &trimmed
		}
	}

	if err := transition(ctx, s.db.Pool, inv.ID, models.InvitationDeclined, reason); err != nil {
		return err
	}

	s.log.Info().Stringer("invitation_id", inv.ID).Stringer("trip_id", inv.TripID).Bool("with_reason", reason != nil).Msg("invitation declined")

	s.publish(inv.TripID, EventInvitationDecline, map[string]any{
		"invitation_id": inv.ID,
		"email":         inv.Email,
	})

	tripID, email := inv.TripID, inv.Email
	s.dispatcher.Dispatch(NotifyDeclined, inv.ID, func(ctx context.Context) error {
		name := email
		if u, err := s.users.GetByEmail(ctx, email); err == nil {
			name = u.DisplayName()
		}
		trip, err := s.trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		recipients, err := s.trips.ParticipantEmails(ctx, tripID, uuid.Nil)
		if err != nil {
			return err
		}
		if len(recipients) == 0 {
			return nil
		}
		return s.notifier.SendInvitationDeclined(ctx, recipients, name, trip.Name, tripID, reason)
	})
	return nil
}

const invitationDetailQuery = `
	SELECT ` + invitationColumns + `,
		t.id, t.name, t.start_date, t.end_date,
		c.id, c.email, c.username, c.name,
		s.id, s.email, s.username, s.name
	FROM invitations i
	JOIN trips t ON t.id = i.trip_id
	JOIN users c ON c.id = t.creator_id
	LEFT JOIN users s ON s.id = i.sender_id
`

func scanInvitationDetail(row pgx.Row) (*models.Invitation, error) {
	var (
		inv     models.Invitation
		trip    models.Trip
		creator models.User

		senderID                              *uuid.UUID
		senderEmail, senderUsername, senderNm *string
	)
	err := row.Scan(
		&inv.ID, &inv.TripID, &inv.Email, &inv.Status, &inv.SenderID,
		&inv.DeclineReason, &inv.CreatedAt, &inv.UpdatedAt,
		&trip.ID, &trip.Name, &trip.StartDate, &trip.EndDate,
		&creator.ID, &creator.Email, &creator.Username, &creator.Name,
		&senderID, &senderEmail, &senderUsername, &senderNm,
	)
	if err != nil {
		return nil, err
	}

	trip.CreatorID = creator.ID
	trip.Creator = &creator
	inv.Trip = &trip
	if senderID != nil {
		inv.Sender = &models.User{
			ID:       *senderID,
			Email:    deref(senderEmail),
			Username: deref(senderUsername),
			Name:     deref(senderNm),
		}
	}
	return &inv, nil
}

func (s *InvitationService) queryDetails(ctx context.Context, where string, args ...any) ([]models.Invitation, error) {
	rows, err := s.db.Pool.Query(ctx, invitationDetailQuery+where+` ORDER BY i.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		inv, err := scanInvitationDetail(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

// ListForUser returns every invitation addressed to the user's email,
// including ones issued before the account existed. Newest first.
func (s *InvitationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Invitation, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.queryDetails(ctx, `WHERE i.email = $1`, normalizeEmail(user.Email))
}

// ListForTrip returns all invitations of a trip in any status. Creator only.
func (s *InvitationService) ListForTrip(ctx context.Context, tripID, callerID uuid.UUID) ([]models.Invitation, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsCreator(callerID) {
		return nil, ErrNotTripCreator
	}
	return s.queryDetails(ctx, `WHERE i.trip_id = $1`, tripID)
}

// Get returns an invitation to its addressee or to a participant of its trip.
// Anyone else gets ErrInvitationNotFound.
func (s *InvitationService) Get(ctx context.Context, invitationID uuid.UUID, callerID uuid.UUID, callerEmail string) (*models.Invitation, error) {
	inv, err := scanInvitationDetail(s.db.Pool.QueryRow(ctx, invitationDetailQuery+`WHERE i.id = $1`, invitationID))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	if strings.EqualFold(inv.Email, strings.TrimSpace(callerEmail)) {
		return inv, nil
	}

	member, err := s.trips.IsParticipant(ctx, inv.TripID, callerID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrInvitationNotFound
	}
	return inv, nil
}

// Cancel withdraws a pending invitation. Allowed for the trip creator and the
// participant who sent it.
func (s *InvitationService) Cancel(ctx context.Context, invitationID, actorID uuid.UUID) error {
	inv, err := scanInvitation(s.db.Pool.QueryRow(ctx, `
		SELECT `+invitationColumns+` FROM invitations i WHERE i.id = $1
	`, invitationID))
	if err != nil {
		if isNoRows(err) {
			return ErrInvitationNotFound
		}
		return err
	}

	trip, err := s.trips.GetByID(ctx, inv.TripID)
	if err != nil {
		return err
	}
	sender := inv.SenderID != nil && *inv.SenderID == actorID
	if !trip.IsCreator(actorID) && !sender {
		return ErrCannotCancelInvite
	}

	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM invitations WHERE id = $1 AND status = $2
	`, invitationID, models.InvitationPending)
	if err != nil {
		return fmt.Errorf("failed to cancel invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvitationProcessed
	}
	return nil
}

// CountPending counts pending invitations addressed to email.
func (s *InvitationService) CountPending(ctx context.Context, email string) (int, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM invitations WHERE email = $1 AND status = $2
	`, normalizeEmail(email), models.InvitationPending).Scan(&n)
	return n, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
