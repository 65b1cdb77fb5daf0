package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		username VARCHAR(100) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255),
		provider VARCHAR(50) NOT NULL DEFAULT 'local',
		provider_id VARCHAR(255),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		budget NUMERIC(10, 2),
		join_code VARCHAR(16) UNIQUE NOT NULL,
		creator_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (start_date <= end_date)
	)`,

	`CREATE TABLE IF NOT EXISTS retired_join_codes (
		code VARCHAR(16) PRIMARY KEY,
		retired_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS trip_participants (
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (trip_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS invitations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		email VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		sender_id UUID REFERENCES users(id) ON DELETE SET NULL,
		decline_reason TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (status IN ('pending', 'accepted', 'declined'))
	)`,

	// At most one pending invitation per (trip, email).
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_pending_unique
		ON invitations(trip_id, email) WHERE status = 'pending'`,

	`CREATE TABLE IF NOT EXISTS activities (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		date DATE NOT NULL,
		time VARCHAR(20),
		category VARCHAR(50) NOT NULL DEFAULT 'Other',
		estimated_cost NUMERIC(10, 2),
		notes TEXT,
		creator_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS votes (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		activity_id UUID NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_upvote BOOLEAN NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(activity_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_trips_creator_id ON trips(creator_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trip_participants_user_id ON trip_participants(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_trip_id ON invitations(trip_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_email ON invitations(email)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_trip_id ON activities(trip_id)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_activity_id ON votes(activity_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
