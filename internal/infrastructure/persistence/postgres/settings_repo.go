package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nebula-bot/nebula-hub/internal/domain/reward"
	"github.com/nebula-bot/nebula-hub/internal/domain/settings"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	"github.com/nebula-bot/nebula-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS REPOSITORY
// Implements settings.Provider over community_settings and level_rewards.
// A community without a settings row resolves to the zero settings (leveling
// disabled, no channels, empty catalog). Rows with malformed reward role IDs
// are dropped at this boundary so the core never sees an invalid catalog.
// ══════════════════════════════════════════════════════════════════════════════

// SettingsRepository is the PostgreSQL implementation of settings.Provider.
type SettingsRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewSettingsRepository creates a settings repository.
func NewSettingsRepository(pool *pgxpool.Pool, log *logger.Logger) *SettingsRepository {
	if log == nil {
		log = logger.Default()
	}
	return &SettingsRepository{
		pool:   pool,
		logger: log.Named("settings_repo"),
	}
}

var _ settings.Provider = (*SettingsRepository)(nil)

// IsLevelingEnabled reports whether progression is enabled for the community.
func (r *SettingsRepository) IsLevelingEnabled(ctx context.Context, community shared.CommunityID) (bool, error) {
	var enabled bool
	err := r.pool.QueryRow(ctx,
		`SELECT leveling_enabled FROM community_settings WHERE community_id = $1`,
		community.String(),
	).Scan(&enabled)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("settings: query leveling flag: %w", err)
	}
	return enabled, nil
}

// LevelChannel returns the level-up announcement channel, zero when unset.
func (r *SettingsRepository) LevelChannel(ctx context.Context, community shared.CommunityID) (shared.ChannelID, error) {
	return r.channel(ctx, community, "level_channel_id")
}

// LogChannel returns the moderation log channel, zero when unset.
func (r *SettingsRepository) LogChannel(ctx context.Context, community shared.CommunityID) (shared.ChannelID, error) {
	return r.channel(ctx, community, "log_channel_id")
}

func (r *SettingsRepository) channel(ctx context.Context, community shared.CommunityID, column string) (shared.ChannelID, error) {
	var channel *string
	err := r.pool.QueryRow(ctx,
		`SELECT `+column+` FROM community_settings WHERE community_id = $1`,
		community.String(),
	).Scan(&channel)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("settings: query %s: %w", column, err)
	}
	if channel == nil {
		return "", nil
	}

	id := shared.ChannelID(*channel)
	if !id.IsValid() {
		r.logger.Warn("ignoring malformed channel id",
			logger.F("community_id", community.String()),
			logger.F("column", column),
		)
		return "", nil
	}
	return id, nil
}

// RewardCatalog returns the community's reward rules in catalog order.
func (r *SettingsRepository) RewardCatalog(ctx context.Context, community shared.CommunityID) (reward.Catalog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT level, role_id FROM level_rewards WHERE community_id = $1 ORDER BY position`,
		community.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("settings: query reward catalog: %w", err)
	}
	defer rows.Close()

	var catalog reward.Catalog
	for rows.Next() {
		var level int
		var roleID string
		if err := rows.Scan(&level, &roleID); err != nil {
			return nil, fmt.Errorf("settings: scan reward rule: %w", err)
		}

		rule := reward.Rule{Level: shared.Level(level), RoleID: shared.RoleID(roleID)}
		if !rule.Level.IsValid() || !rule.RoleID.IsValid() {
			r.logger.Warn("dropping malformed reward rule",
				logger.F("community_id", community.String()),
				logger.F("role_id", roleID),
				logger.F("level", level),
			)
			continue
		}
		catalog = append(catalog, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("settings: iterate reward catalog: %w", err)
	}

	return catalog, nil
}

// Community returns the full settings snapshot for one community. A missing
// row resolves to the zero snapshot.
func (r *SettingsRepository) Community(ctx context.Context, community shared.CommunityID) (settings.Community, error) {
	snapshot := settings.Community{CommunityID: community}

	var levelChannel, logChannel *string
	err := r.pool.QueryRow(ctx,
		`SELECT leveling_enabled, level_channel_id, log_channel_id
		 FROM community_settings WHERE community_id = $1`,
		community.String(),
	).Scan(&snapshot.LevelingEnabled, &levelChannel, &logChannel)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return snapshot, nil
		}
		return settings.Community{}, fmt.Errorf("settings: query community snapshot: %w", err)
	}

	if levelChannel != nil && shared.ChannelID(*levelChannel).IsValid() {
		snapshot.LevelChannel = shared.ChannelID(*levelChannel)
	}
	if logChannel != nil && shared.ChannelID(*logChannel).IsValid() {
		snapshot.LogChannel = shared.ChannelID(*logChannel)
	}
	return snapshot, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN WRITES
// ══════════════════════════════════════════════════════════════════════════════

// SetLevelingEnabled toggles the progression feature for a community.
func (r *SettingsRepository) SetLevelingEnabled(ctx context.Context, community shared.CommunityID, enabled bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO community_settings (community_id, leveling_enabled)
		VALUES ($1, $2)
		ON CONFLICT (community_id)
		DO UPDATE SET leveling_enabled = $2, updated_at = NOW()`,
		community.String(), enabled,
	)
	if err != nil {
		return fmt.Errorf("settings: set leveling flag: %w", err)
	}
	return nil
}

// SetLevelChannel configures the level-up announcement channel.
func (r *SettingsRepository) SetLevelChannel(ctx context.Context, community shared.CommunityID, channel shared.ChannelID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO community_settings (community_id, level_channel_id)
		VALUES ($1, $2)
		ON CONFLICT (community_id)
		DO UPDATE SET level_channel_id = $2, updated_at = NOW()`,
		community.String(), channel.String(),
	)
	if err != nil {
		return fmt.Errorf("settings: set level channel: %w", err)
	}
	return nil
}

// AppendRewardRule appends a rule at the end of a community's catalog.
func (r *SettingsRepository) AppendRewardRule(ctx context.Context, community shared.CommunityID, rule reward.Rule) error {
	if !rule.Level.IsValid() || !rule.RoleID.IsValid() {
		return shared.ErrInvalidRoleID
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO level_rewards (community_id, level, role_id, position)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM level_rewards WHERE community_id = $1))`,
		community.String(), rule.Level.Int(), rule.RoleID.String(),
	)
	if err != nil {
		return fmt.Errorf("settings: append reward rule: %w", err)
	}
	return nil
}
