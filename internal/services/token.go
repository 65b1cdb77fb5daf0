package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/planit-app/planit-api/internal/database"
)

// TokenService persists hashed refresh tokens.
type TokenService struct {
	db *database.DB
}

func NewTokenService(db *database.DB) *TokenService {
	return &TokenService{db: db}
}

func (s *TokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	return err
}

func (s *TokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		SELECT user_id FROM refresh_tokens
		WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash).Scan(&userID)
	return userID, err
}

// RotateRefreshToken swaps an old refresh token for a new one. A token that
// was already rotated away is rejected, so a replayed token cannot mint a
// second session.
func (s *TokenService) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM refresh_tokens WHERE token_hash = $1 AND user_id = $2
		`, oldHash, userID)
		if err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrInvalidCredentials
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
			VALUES ($1, $2, $3)
		`, userID, newHash, expiresAt); err != nil {
			return fmt.Errorf("failed to store refresh token: %w", err)
		}
		return nil
	})
}

func (s *TokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	return err
}

func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

func (s *TokenService) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
