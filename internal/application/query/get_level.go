// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"

	"github.com/nebula-bot/nebula-hub/internal/domain/progression"
	"github.com/nebula-bot/nebula-hub/internal/domain/reward"
	"github.com/nebula-bot/nebula-hub/internal/domain/settings"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	"github.com/nebula-bot/nebula-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// GET LEVEL QUERY
// Read path for the "view level" command: loads the community-scope record
// and derives display quantities without mutating state. A user with no
// record gets the in-memory default; the persisted record is created only by
// the activity path, never by a query.
// ═══════════════════════════════════════════════════════════════════════════

// LevelView is the read model returned to the presentation layer.
type LevelView struct {
	CommunityID shared.CommunityID
	UserID      shared.UserID

	// Level and Exp are the user's current community-track state.
	Level shared.Level
	Exp   shared.XP

	// ExpNeeded is the exp required to complete the current level.
	ExpNeeded shared.XP

	// RewardsHeld lists the reward roles unlocked at this level, in
	// catalog order.
	RewardsHeld []shared.RoleID

	// NextReward is the first reward rule above the current level, by
	// ascending level, or nil when everything is claimed.
	NextReward *reward.Rule
}

// GetLevelHandler serves level view queries.
type GetLevelHandler struct {
	store    progression.Store
	settings settings.Provider
	logger   *logger.Logger
}

// NewGetLevelHandler creates a level query handler.
func NewGetLevelHandler(store progression.Store, provider settings.Provider, log *logger.Logger) *GetLevelHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetLevelHandler{
		store:    store,
		settings: provider,
		logger:   log.Named("get_level"),
	}
}

// Handle returns the level view for a community member. Fails with
// shared.ErrLevelingDisabled when the community has leveling off.
func (h *GetLevelHandler) Handle(
	ctx context.Context,
	community shared.CommunityID,
	user shared.UserID,
) (*LevelView, error) {
	enabled, err := h.settings.IsLevelingEnabled(ctx, community)
	if err != nil {
		return nil, shared.WrapError("progression", "View", shared.ErrServiceUnavailable,
			"failed to read leveling settings", err)
	}
	if !enabled {
		return nil, shared.ErrLevelingDisabled
	}

	scope := progression.Local(community)
	rec, err := h.store.Get(ctx, scope, user)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, shared.WrapError("progression", "View", shared.ErrStoreUnavailable,
				"failed to load record", err)
		}
		rec = progression.NewRecord(scope, user)
	}

	view := &LevelView{
		CommunityID: community,
		UserID:      user,
		Level:       rec.Level,
		Exp:         rec.Exp,
		ExpNeeded:   rec.ExpToNext(),
	}

	catalog, err := h.settings.RewardCatalog(ctx, community)
	if err != nil {
		// The level itself is still displayable without the catalog.
		h.logger.Warn("failed to read reward catalog",
			logger.F("community_id", community.String()),
			logger.Err(err),
		)
		return view, nil
	}

	for _, rule := range catalog.Held(rec.Level) {
		view.RewardsHeld = append(view.RewardsHeld, rule.RoleID)
	}
	if next, ok := catalog.Next(rec.Level); ok {
		view.NextReward = &next
	}

	return view, nil
}
