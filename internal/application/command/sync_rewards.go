package command

import (
	"context"
	"errors"

	"github.com/nebula-bot/nebula-hub/internal/domain/platform"
	"github.com/nebula-bot/nebula-hub/internal/domain/reward"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	"github.com/nebula-bot/nebula-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// SYNC REWARDS COMMAND
// Reconciles a member's role set with the reward catalog for their level:
// every rule at or below the level is a grant candidate, every rule above it
// a revoke candidate. Candidates are diffed against the roles the member
// actually holds so only the minimal mutations reach the platform.
// ═══════════════════════════════════════════════════════════════════════════

// SyncRewardsResult reports the mutations performed by one sync.
type SyncRewardsResult struct {
	// Granted are the roles added to the member.
	Granted []shared.RoleID

	// Revoked are the roles removed from the member.
	Revoked []shared.RoleID

	// Skipped are roles whose rules were skipped because the role no
	// longer resolves on the platform.
	Skipped []shared.RoleID
}

// Changed reports whether any mutation was performed.
func (r SyncRewardsResult) Changed() bool {
	return len(r.Granted) > 0 || len(r.Revoked) > 0
}

// SyncRewardsHandler synchronizes reward roles with a member's level.
type SyncRewardsHandler struct {
	gateway platform.Gateway
	logger  *logger.Logger
}

// NewSyncRewardsHandler creates a reward synchronizer.
func NewSyncRewardsHandler(gateway platform.Gateway, log *logger.Logger) *SyncRewardsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &SyncRewardsHandler{
		gateway: gateway,
		logger:  log.Named("sync_rewards"),
	}
}

// Sync reconciles the member's roles with the catalog at the given level.
// An unresolvable role skips that rule only; platform mutation failures abort
// the sync and surface to the caller.
func (h *SyncRewardsHandler) Sync(
	ctx context.Context,
	community shared.CommunityID,
	user shared.UserID,
	level shared.Level,
	catalog reward.Catalog,
) (SyncRewardsResult, error) {
	var result SyncRewardsResult

	if len(catalog) == 0 {
		return result, nil
	}

	heldRoles, err := h.gateway.MemberRoles(ctx, community, user)
	if err != nil {
		return result, shared.WrapError("reward", "Sync", shared.ErrExternalService,
			"failed to fetch member roles", err)
	}
	held := make(map[shared.RoleID]bool, len(heldRoles))
	for _, id := range heldRoles {
		held[id] = true
	}

	grant, revoke := catalog.Partition(level)

	for _, rule := range grant {
		if held[rule.RoleID] {
			continue
		}
		if skipped := h.resolveRule(ctx, community, rule, &result); skipped {
			continue
		}
		if err := h.gateway.AddRole(ctx, community, user, rule.RoleID); err != nil {
			return result, shared.WrapError("reward", "Sync", shared.ErrRewardSyncFailed,
				"failed to grant role "+rule.RoleID.String(), err)
		}
		result.Granted = append(result.Granted, rule.RoleID)
	}

	for _, rule := range revoke {
		if !held[rule.RoleID] {
			continue
		}
		if skipped := h.resolveRule(ctx, community, rule, &result); skipped {
			continue
		}
		if err := h.gateway.RemoveRole(ctx, community, user, rule.RoleID); err != nil {
			return result, shared.WrapError("reward", "Sync", shared.ErrRewardSyncFailed,
				"failed to revoke role "+rule.RoleID.String(), err)
		}
		result.Revoked = append(result.Revoked, rule.RoleID)
	}

	if result.Changed() {
		h.logger.Info("reward roles synchronized",
			logger.F("community_id", community.String()),
			logger.F("user_id", user.String()),
			logger.F("level", level.Int()),
			logger.F("granted", len(result.Granted)),
			logger.F("revoked", len(result.Revoked)),
		)
	}

	return result, nil
}

// resolveRule verifies the rule's role still exists. A missing role is
// recorded as skipped and must not abort the remaining rules; any other
// resolution failure is also skipped but logged at error level.
func (h *SyncRewardsHandler) resolveRule(
	ctx context.Context,
	community shared.CommunityID,
	rule reward.Rule,
	result *SyncRewardsResult,
) bool {
	_, err := h.gateway.ResolveRole(ctx, community, rule.RoleID)
	if err == nil {
		return false
	}

	result.Skipped = append(result.Skipped, rule.RoleID)
	if errors.Is(err, shared.ErrRoleUnresolvable) {
		h.logger.Warn("reward role no longer exists, skipping rule",
			logger.F("community_id", community.String()),
			logger.F("role_id", rule.RoleID.String()),
			logger.F("rule_level", rule.Level.Int()),
		)
	} else {
		h.logger.Error("reward role resolution failed, skipping rule",
			logger.F("community_id", community.String()),
			logger.F("role_id", rule.RoleID.String()),
			logger.Err(err),
		)
	}
	return true
}
