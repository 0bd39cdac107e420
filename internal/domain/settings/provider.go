// Package settings defines the per-community configuration boundary consumed
// by the progression core. Implementations live in infrastructure; the core
// fetches a fresh snapshot per invocation and never caches it.
package settings

import (
	"context"

	"github.com/nebula-bot/nebula-hub/internal/domain/reward"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
)

// Community holds the settings snapshot for one community.
type Community struct {
	CommunityID shared.CommunityID

	// LevelingEnabled gates the whole progression feature.
	LevelingEnabled bool

	// LevelChannel receives level-up announcements (zero when unset).
	LevelChannel shared.ChannelID

	// LogChannel receives moderation log messages (zero when unset).
	LogChannel shared.ChannelID
}

// Provider is the settings collaborator interface. A missing community
// resolves to the zero settings (leveling disabled, no channels, empty
// catalog) rather than an error.
type Provider interface {
	// IsLevelingEnabled reports whether progression is enabled for the
	// community.
	IsLevelingEnabled(ctx context.Context, community shared.CommunityID) (bool, error)

	// LevelChannel returns the channel for level-up announcements, or a
	// zero ChannelID when none is configured.
	LevelChannel(ctx context.Context, community shared.CommunityID) (shared.ChannelID, error)

	// LogChannel returns the moderation log channel, or a zero ChannelID
	// when none is configured.
	LogChannel(ctx context.Context, community shared.CommunityID) (shared.ChannelID, error)

	// RewardCatalog returns the community's ordered reward rules. The
	// returned catalog is validated; rules with malformed role IDs or
	// negative levels never reach the core.
	RewardCatalog(ctx context.Context, community shared.CommunityID) (reward.Catalog, error)
}
