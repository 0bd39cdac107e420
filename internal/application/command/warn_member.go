package command

import (
	"context"
	"fmt"

	"github.com/nebula-bot/nebula-hub/internal/domain/moderation"
	"github.com/nebula-bot/nebula-hub/internal/domain/platform"
	"github.com/nebula-bot/nebula-hub/internal/domain/settings"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	"github.com/nebula-bot/nebula-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// WARN MEMBER COMMAND
// Records a moderation warning, posts it to the community log channel when
// one is configured, and notifies the warned member by direct message. Only
// the persistence step is mandatory; both notifications are best-effort.
// ═══════════════════════════════════════════════════════════════════════════

// WarnMemberCommand contains the data for one warning.
type WarnMemberCommand struct {
	CommunityID shared.CommunityID
	UserID      shared.UserID
	ModeratorID shared.UserID
	Reason      string
}

// WarnMemberHandler processes warn commands.
type WarnMemberHandler struct {
	warnings moderation.Repository
	settings settings.Provider
	gateway  platform.Gateway
	logger   *logger.Logger
}

// NewWarnMemberHandler creates a warn command handler.
func NewWarnMemberHandler(
	warnings moderation.Repository,
	provider settings.Provider,
	gateway platform.Gateway,
	log *logger.Logger,
) *WarnMemberHandler {
	if log == nil {
		log = logger.Default()
	}
	return &WarnMemberHandler{
		warnings: warnings,
		settings: provider,
		gateway:  gateway,
		logger:   log.Named("warn_member"),
	}
}

// Handle records the warning and dispatches notifications. The returned
// event carries the warning ID for audit purposes.
func (h *WarnMemberHandler) Handle(ctx context.Context, cmd WarnMemberCommand) (shared.MemberWarnedEvent, error) {
	warning, err := moderation.NewWarning(cmd.CommunityID, cmd.UserID, cmd.ModeratorID, cmd.Reason)
	if err != nil {
		return shared.MemberWarnedEvent{}, err
	}

	if err := h.warnings.Add(ctx, warning); err != nil {
		return shared.MemberWarnedEvent{}, shared.WrapError("moderation", "Warn",
			shared.ErrServiceUnavailable, "failed to persist warning", err)
	}

	summary := fmt.Sprintf(
		"Warned <@%s> | Moderator: <@%s> | Reason: %s",
		warning.UserID.String(), warning.ModeratorID.String(), warning.Reason,
	)

	logChannel, err := h.settings.LogChannel(ctx, cmd.CommunityID)
	switch {
	case err != nil:
		h.logger.Warn("failed to read moderation log channel",
			logger.F("community_id", cmd.CommunityID.String()),
			logger.Err(err),
		)
	case !logChannel.IsZero():
		if err := h.gateway.SendMessage(ctx, logChannel, summary); err != nil {
			h.logger.Error("moderation log delivery failed",
				logger.F("community_id", cmd.CommunityID.String()),
				logger.F("channel_id", logChannel.String()),
				logger.Err(err),
			)
		}
	}

	dm := fmt.Sprintf(
		"You were warned | Moderator: <@%s> | Reason: %s",
		warning.ModeratorID.String(), warning.Reason,
	)
	if err := h.gateway.SendDirectMessage(ctx, warning.UserID, dm); err != nil {
		h.logger.Warn("warn DM delivery failed",
			logger.F("user_id", warning.UserID.String()),
			logger.Err(err),
		)
	}

	h.logger.Info("member warned",
		logger.F("community_id", warning.CommunityID.String()),
		logger.F("user_id", warning.UserID.String()),
		logger.F("moderator_id", warning.ModeratorID.String()),
		logger.F("warning_id", warning.ID),
	)

	return shared.NewMemberWarnedEvent(warning.CommunityID, warning.UserID, warning.ModeratorID, warning.ID), nil
}
