// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"

	"github.com/nebula-bot/nebula-hub/internal/domain/platform"
	"github.com/nebula-bot/nebula-hub/internal/domain/progression"
	"github.com/nebula-bot/nebula-hub/internal/domain/settings"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	"github.com/nebula-bot/nebula-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// HANDLE ACTIVITY COMMAND
// Orchestrates one qualifying activity event: gates on the community's
// leveling flag, advances the local and global progression tracks with the
// same gain, persists both, and on a local level-up announces the new level
// and synchronizes reward roles. Announcement and reward failures never roll
// back the persisted exp.
// ═══════════════════════════════════════════════════════════════════════════

// HandleActivityConfig contains the handler's tunables.
type HandleActivityConfig struct {
	// ExpPerEvent is the exp awarded per qualifying activity event.
	ExpPerEvent shared.XP
}

// DefaultHandleActivityConfig returns the default configuration.
func DefaultHandleActivityConfig() HandleActivityConfig {
	return HandleActivityConfig{
		ExpPerEvent: progression.DefaultExpPerEvent,
	}
}

// ActivityResult reports the outcome of one processed activity event.
type ActivityResult struct {
	// Local is the persisted community-scope record.
	Local progression.Record

	// Global is the persisted global-scope record.
	Global progression.Record

	// LocalLeveledUp reports a level-up on the community track.
	LocalLeveledUp bool

	// GlobalLeveledUp reports a level-up on the global track.
	GlobalLeveledUp bool

	// Events carries the domain events raised while handling the activity.
	Events []shared.Event
}

// HandleActivityHandler processes inbound activity events.
type HandleActivityHandler struct {
	store    progression.Store
	settings settings.Provider
	gateway  platform.Gateway
	rewards  *SyncRewardsHandler
	logger   *logger.Logger
	config   HandleActivityConfig
}

// NewHandleActivityHandler creates an activity event handler.
func NewHandleActivityHandler(
	store progression.Store,
	provider settings.Provider,
	gateway platform.Gateway,
	rewards *SyncRewardsHandler,
	log *logger.Logger,
	config HandleActivityConfig,
) *HandleActivityHandler {
	if log == nil {
		log = logger.Default()
	}
	if config.ExpPerEvent <= 0 {
		config = DefaultHandleActivityConfig()
	}
	return &HandleActivityHandler{
		store:    store,
		settings: provider,
		gateway:  gateway,
		rewards:  rewards,
		logger:   log.Named("handle_activity"),
		config:   config,
	}
}

// Handle processes one qualifying activity event for a community member.
// Returns shared.ErrLevelingDisabled without touching the store when the
// community has leveling off, and shared.ErrStoreUnavailable when either
// scope write fails (the event then counts as not-yet-processed; at-least-once
// redelivery simply awards exp again).
func (h *HandleActivityHandler) Handle(
	ctx context.Context,
	community shared.CommunityID,
	user shared.UserID,
) (*ActivityResult, error) {
	enabled, err := h.settings.IsLevelingEnabled(ctx, community)
	if err != nil {
		return nil, shared.WrapError("progression", "Handle", shared.ErrServiceUnavailable,
			"failed to read leveling settings", err)
	}
	if !enabled {
		return nil, shared.ErrLevelingDisabled
	}

	result := &ActivityResult{}

	result.Local, result.LocalLeveledUp, err = h.advance(ctx, progression.Local(community), user)
	if err != nil {
		return nil, err
	}

	result.Global, result.GlobalLeveledUp, err = h.advance(ctx, progression.Global(), user)
	if err != nil {
		return nil, err
	}

	// Both scopes are persisted at this point. Everything below is local
	// recovery: log and continue.
	if result.LocalLeveledUp {
		event := shared.NewLevelUpEvent(
			community, user,
			result.Local.Level,
			progression.Threshold(result.Local.Level),
		)
		result.Events = append(result.Events, event)

		h.announceLevelUp(ctx, community, user, event)
		h.syncRewards(ctx, community, user, result.Local.Level)
	}

	return result, nil
}

// advance atomically applies the event's exp gain to one scope.
func (h *HandleActivityHandler) advance(
	ctx context.Context,
	scope progression.Scope,
	user shared.UserID,
) (progression.Record, bool, error) {
	var leveled bool

	rec, err := h.store.Update(ctx, scope, user, func(current progression.Record) (progression.Record, error) {
		next, up, err := progression.Advance(current, h.config.ExpPerEvent)
		leveled = up
		return next, err
	})
	if err != nil {
		return progression.Record{}, false, shared.WrapError("progression", "Handle",
			shared.ErrStoreUnavailable, "failed to advance "+scope.String()+" record", err)
	}

	return rec, leveled, nil
}

// announceLevelUp posts the level-up message to the configured channel, if
// any. Delivery failure is logged and dropped.
func (h *HandleActivityHandler) announceLevelUp(
	ctx context.Context,
	community shared.CommunityID,
	user shared.UserID,
	event shared.LevelUpEvent,
) {
	channel, err := h.settings.LevelChannel(ctx, community)
	if err != nil {
		h.logger.Warn("failed to read level-up channel",
			logger.F("community_id", community.String()),
			logger.Err(err),
		)
		return
	}
	if channel.IsZero() {
		return
	}

	content := fmt.Sprintf(
		"<@%s> reached level %d! You need %d exp to level up again.",
		user.String(), event.NewLevel.Int(), event.ExpToNext.Int(),
	)

	if err := h.gateway.SendMessage(ctx, channel, content); err != nil {
		h.logger.Error("level-up announcement failed",
			logger.F("community_id", community.String()),
			logger.F("user_id", user.String()),
			logger.F("channel_id", channel.String()),
			logger.Err(shared.WrapError("notification", "Send", shared.ErrNotificationFailed, "send message", err)),
		)
	}
}

// syncRewards reconciles reward roles after a level-up. A fresh catalog
// snapshot is fetched per invocation; sync failures are logged and dropped.
func (h *HandleActivityHandler) syncRewards(
	ctx context.Context,
	community shared.CommunityID,
	user shared.UserID,
	level shared.Level,
) {
	if h.rewards == nil {
		return
	}

	catalog, err := h.settings.RewardCatalog(ctx, community)
	if err != nil {
		h.logger.Warn("failed to read reward catalog",
			logger.F("community_id", community.String()),
			logger.Err(err),
		)
		return
	}

	if _, err := h.rewards.Sync(ctx, community, user, level, catalog); err != nil {
		h.logger.Error("reward synchronization failed",
			logger.F("community_id", community.String()),
			logger.F("user_id", user.String()),
			logger.F("level", level.Int()),
			logger.Err(err),
		)
	}
}
