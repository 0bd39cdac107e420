package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nebula-bot/nebula-hub/internal/domain/moderation"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
)

// ModerationRepository is the PostgreSQL implementation of
// moderation.Repository.
type ModerationRepository struct {
	pool *pgxpool.Pool
}

// NewModerationRepository creates a moderation repository.
func NewModerationRepository(pool *pgxpool.Pool) *ModerationRepository {
	return &ModerationRepository{pool: pool}
}

var _ moderation.Repository = (*ModerationRepository)(nil)

// Add persists a warning.
func (r *ModerationRepository) Add(ctx context.Context, w moderation.Warning) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO warnings (id, community_id, user_id, moderator_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.CommunityID.String(), w.UserID.String(), w.ModeratorID.String(), w.Reason, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("moderation: insert warning: %w", err)
	}
	return nil
}

// ListByUser returns a user's warnings in a community, newest first.
func (r *ModerationRepository) ListByUser(ctx context.Context, community shared.CommunityID, user shared.UserID) ([]moderation.Warning, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, community_id, user_id, moderator_id, reason, created_at
		FROM warnings
		WHERE community_id = $1 AND user_id = $2
		ORDER BY created_at DESC`,
		community.String(), user.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("moderation: query warnings: %w", err)
	}
	defer rows.Close()

	var warnings []moderation.Warning
	for rows.Next() {
		var w moderation.Warning
		var communityID, userID, moderatorID string
		if err := rows.Scan(&w.ID, &communityID, &userID, &moderatorID, &w.Reason, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("moderation: scan warning: %w", err)
		}
		w.CommunityID = shared.CommunityID(communityID)
		w.UserID = shared.UserID(userID)
		w.ModeratorID = shared.UserID(moderatorID)
		warnings = append(warnings, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("moderation: iterate warnings: %w", err)
	}

	return warnings, nil
}
