package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/planit-app/planit-api/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTokenService(t *testing.T) (*TokenService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewTokenService(&database.DB{Pool: mock}), mock
}

func TestTokenService_StoreAndValidate(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	userID := uuid.New()
	expiresAt := time.Now().Add(24 * time.Hour)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(userID, "hash", expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT user_id FROM refresh_tokens`).
		WithArgs("hash").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(userID))

	require.NoError(t, svc.StoreRefreshToken(ctx, userID, "hash", expiresAt))
	got, err := svc.ValidateRefreshToken(ctx, "hash")

	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_RotateRefreshToken(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	userID := uuid.New()
	expiresAt := time.Now().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
		WithArgs("old", userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(userID, "new", expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := svc.RotateRefreshToken(ctx, userID, "old", "new", expiresAt)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_RotateRefreshToken_Replayed(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
		WithArgs("old", userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := svc.RotateRefreshToken(ctx, userID, "old", "new", time.Now())

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_CleanupExpired(t *testing.T) {
	svc, mock := setupTokenService(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < NOW\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := svc.CleanupExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
