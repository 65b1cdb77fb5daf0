package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/planit-app/planit-api/internal/database"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/planit-app/planit-api/internal/oauth"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, email, username, name, password_hash, provider, provider_id, created_at, updated_at`

// UserService is the directory: it resolves user ids and email addresses.
type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.Name, &user.PasswordHash,
		&user.Provider, &user.ProviderID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Register(ctx context.Context, email, username, password, name string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, username, name, password_hash, provider)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		normalizeEmail(email), username, name, string(hash), models.ProviderLocal,
	))
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_email_key"):
			return nil, ErrEmailTaken
		case isUniqueViolation(err, "users_username_key"):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE provider = $1 AND provider_id = $2
	`, info.Provider, info.ID))
	if err == nil {
		return user, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("failed to look up oauth user: %w", err)
	}

	// A local account with the same address is linked rather than duplicated.
	user, err = scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET provider_id = $1, updated_at = NOW()
		WHERE email = $2 AND provider_id IS NULL
		RETURNING `+userColumns,
		info.ID, normalizeEmail(info.Email),
	))
	if err == nil {
		return user, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("failed to link oauth user: %w", err)
	}

	user, err = scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, username, name, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		normalizeEmail(info.Email), usernameFromEmail(info.Email), info.Name, info.Provider, info.ID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetByEmail matches case-insensitively; stored addresses are lower-case.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, normalizeEmail(email)))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, name, username *string) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET
			name = COALESCE($1, name),
			username = COALESCE($2, username),
			updated_at = NOW()
		WHERE id = $3
		RETURNING `+userColumns,
		name, username, id,
	))
	if err != nil {
		switch {
		case isNoRows(err):
			return nil, ErrUserNotFound
		case isUniqueViolation(err, "users_username_key"):
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil {
		return ErrNoPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, string(hash), id)
	return err
}

// Search matches email, username or name and never returns the caller.
func (s *UserService) Search(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	if limit <= 0 || limit > 10 {
		limit = 10
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id <> $1 AND (email ILIKE $2 OR username ILIKE $2 OR name ILIKE $2)
		ORDER BY username
		LIMIT $3
	`, excludeID, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(normalizeEmail(email), "@")
	if local == "" {
		local = "user"
	}
	return local + "-" + uuid.NewString()[:6]
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
