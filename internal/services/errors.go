package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalid
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is a domain failure the caller can act on.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrUserNotFound       = newError(KindNotFound, "user not found")
	ErrEmailTaken         = newError(KindConflict, "email is already registered")
	ErrUsernameTaken      = newError(KindConflict, "username is already taken")
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid email or password")
	ErrNoPassword         = newError(KindInvalid, "account has no password set")

	ErrTripNotFound        = newError(KindNotFound, "trip not found")
	ErrNotParticipant      = newError(KindForbidden, "you are not a participant of this trip")
	ErrNotTripCreator      = newError(KindForbidden, "only the trip creator can do this")
	ErrCannotRemoveCreator = newError(KindForbidden, "the trip creator cannot be removed")
	ErrParticipantNotFound = newError(KindNotFound, "participant not found")
	ErrJoinCodeNotFound    = newError(KindNotFound, "no trip with that code")
	ErrInvalidTripDates    = newError(KindInvalid, "start date must not be after end date")
	ErrJoinCodeExhausted   = errors.New("could not generate a unique join code")

	ErrInvitationNotFound     = newError(KindNotFound, "invitation not found")
	ErrInvitationNotAddressed = newError(KindForbidden, "this invitation is not for you")
	ErrInvitationProcessed    = newError(KindConflict, "this invitation has already been processed")
	ErrSelfInvite             = newError(KindConflict, "you cannot invite yourself to the trip")
	ErrDuplicateInvite        = newError(KindConflict, "this email has already been invited to the trip")
	ErrAlreadyParticipant     = newError(KindConflict, "this user is already a participant in the trip")
	ErrCannotCancelInvite     = newError(KindForbidden, "only the trip creator or the sender can cancel an invitation")

	ErrActivityNotFound = newError(KindNotFound, "activity not found")
	ErrNotActivityOwner = newError(KindForbidden, "only the activity creator can do this")
	ErrVoteNotFound     = newError(KindNotFound, "vote not found")

	ErrPlannerDisabled    = errors.New("planner is not configured")
	ErrPlannerBadResponse = errors.New("planner returned an unusable response")
)

// KindOf classifies err. Anything that is not a domain error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique violation, optionally on
// the named constraint or index.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
