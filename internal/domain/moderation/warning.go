// Package moderation contains the warning entity and its repository boundary.
package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
)

// DefaultReason is recorded when a moderator gives no reason.
const DefaultReason = "No reason provided"

// Warning is a moderation warning issued to a community member.
type Warning struct {
	ID          string
	CommunityID shared.CommunityID
	UserID      shared.UserID
	ModeratorID shared.UserID
	Reason      string
	CreatedAt   time.Time
}

// NewWarning creates a warning with a generated ID. A moderator cannot warn
// themselves; an empty reason falls back to DefaultReason.
func NewWarning(community shared.CommunityID, user, moderator shared.UserID, reason string) (Warning, error) {
	if user == moderator {
		return Warning{}, shared.ErrSelfWarn
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultReason
	}

	return Warning{
		ID:          uuid.NewString(),
		CommunityID: community,
		UserID:      user,
		ModeratorID: moderator,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Repository is the persistence boundary for warnings.
type Repository interface {
	// Add persists a warning.
	Add(ctx context.Context, w Warning) error

	// ListByUser returns a user's warnings in a community, newest first.
	ListByUser(ctx context.Context, community shared.CommunityID, user shared.UserID) ([]Warning, error)
}
