package shared

import (
	"time"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// Domain Events
// ═══════════════════════════════════════════════════════════════════════════

// Event is the interface implemented by all domain events.
type Event interface {
	// EventID returns the unique identifier of this event instance.
	EventID() string

	// EventType returns the event type name, e.g. "progression.level_up".
	EventType() string

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent carries the fields common to all events.
type BaseEvent struct {
	ID        string
	Type      string
	Timestamp time.Time
}

// EventID returns the unique identifier of this event instance.
func (e BaseEvent) EventID() string {
	return e.ID
}

// EventType returns the event type name.
func (e BaseEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent creates the common event fields for the given type.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// Event type names.
const (
	EventTypeLevelUp      = "progression.level_up"
	EventTypeMemberWarned = "moderation.member_warned"
)

// LevelUpEvent is emitted when a user's local progression crosses a level
// threshold.
type LevelUpEvent struct {
	BaseEvent

	CommunityID CommunityID
	UserID      UserID

	// NewLevel is the level the user just reached.
	NewLevel Level

	// ExpToNext is the exp required to complete the new level.
	ExpToNext XP
}

// NewLevelUpEvent creates a LevelUpEvent.
func NewLevelUpEvent(community CommunityID, user UserID, newLevel Level, expToNext XP) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent:   NewBaseEvent(EventTypeLevelUp),
		CommunityID: community,
		UserID:      user,
		NewLevel:    newLevel,
		ExpToNext:   expToNext,
	}
}

// MemberWarnedEvent is emitted when a moderator warns a member.
type MemberWarnedEvent struct {
	BaseEvent

	CommunityID CommunityID
	UserID      UserID
	ModeratorID UserID
	WarningID   string
}

// NewMemberWarnedEvent creates a MemberWarnedEvent.
func NewMemberWarnedEvent(community CommunityID, user, moderator UserID, warningID string) MemberWarnedEvent {
	return MemberWarnedEvent{
		BaseEvent:   NewBaseEvent(EventTypeMemberWarned),
		CommunityID: community,
		UserID:      user,
		ModeratorID: moderator,
		WarningID:   warningID,
	}
}
