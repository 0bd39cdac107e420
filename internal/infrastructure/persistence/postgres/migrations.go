package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: COMMUNITY SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

const migration001 = `
-- Migration: community settings
-- Version: 001

CREATE TABLE IF NOT EXISTS community_settings (
    community_id VARCHAR(20) PRIMARY KEY,
    leveling_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    level_channel_id VARCHAR(20),
    log_channel_id VARCHAR(20),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: LEVEL REWARDS
// ══════════════════════════════════════════════════════════════════════════════

const migration002 = `
-- Migration: ordered level reward catalog
-- Version: 002

CREATE TABLE IF NOT EXISTS level_rewards (
    id SERIAL PRIMARY KEY,
    community_id VARCHAR(20) NOT NULL,
    level INTEGER NOT NULL,
    role_id VARCHAR(20) NOT NULL,
    position INTEGER NOT NULL,

    CONSTRAINT valid_level CHECK (level >= 0),
    UNIQUE (community_id, position),
    UNIQUE (community_id, role_id)
);

-- Catalog reads are always per community, in position order.
CREATE INDEX IF NOT EXISTS idx_level_rewards_community
    ON level_rewards(community_id, position);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: MODERATION WARNINGS
// ══════════════════════════════════════════════════════════════════════════════

const migration003 = `
-- Migration: moderation warnings
-- Version: 003

CREATE TABLE IF NOT EXISTS warnings (
    id UUID PRIMARY KEY,
    community_id VARCHAR(20) NOT NULL,
    user_id VARCHAR(20) NOT NULL,
    moderator_id VARCHAR(20) NOT NULL,
    reason TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_warnings_community_user
    ON warnings(community_id, user_id, created_at DESC);
`

// migrations lists all migrations in order.
var migrations = []struct {
	version int
	sql     string
}{
	{1, migration001},
	{2, migration002},
	{3, migration003},
}

// Migrate applies all pending migrations. Statements are idempotent
// (IF NOT EXISTS) so re-running on startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("%w: version %03d: %v", ErrMigrationFailed, m.version, err)
		}
	}
	return nil
}
