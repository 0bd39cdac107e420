// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies
// beyond uuid for event identity.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Snowflake-style identifier: a non-empty string of 1-20 digits, as issued by
// the chat platform for communities, users, channels, and roles.
var snowflakeRegex = regexp.MustCompile(`^[0-9]{1,20}$`)

// CommunityID identifies a chat community (guild/server).
type CommunityID string

// IsValid checks if the community ID has the platform snowflake format.
func (c CommunityID) IsValid() bool {
	return snowflakeRegex.MatchString(string(c))
}

// String returns the string representation.
func (c CommunityID) String() string {
	return string(c)
}

// NewCommunityID creates a CommunityID with validation.
func NewCommunityID(id string) (CommunityID, error) {
	c := CommunityID(strings.TrimSpace(id))
	if !c.IsValid() {
		return "", ErrInvalidCommunityID
	}
	return c, nil
}

// UserID identifies a member of the chat platform.
type UserID string

// IsValid checks if the user ID has the platform snowflake format.
func (u UserID) IsValid() bool {
	return snowflakeRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// NewUserID creates a UserID with validation.
func NewUserID(id string) (UserID, error) {
	u := UserID(strings.TrimSpace(id))
	if !u.IsValid() {
		return "", ErrInvalidUserID
	}
	return u, nil
}

// ChannelID identifies a channel within a community.
type ChannelID string

// IsValid checks if the channel ID has the platform snowflake format.
func (c ChannelID) IsValid() bool {
	return snowflakeRegex.MatchString(string(c))
}

// IsZero reports whether no channel is configured.
func (c ChannelID) IsZero() bool {
	return c == ""
}

// String returns the string representation.
func (c ChannelID) String() string {
	return string(c)
}

// RoleID identifies a role within a community.
type RoleID string

// IsValid checks if the role ID has the platform snowflake format.
func (r RoleID) IsValid() bool {
	return snowflakeRegex.MatchString(string(r))
}

// String returns the string representation.
func (r RoleID) String() string {
	return string(r)
}

// ═══════════════════════════════════════════════════════════════════════════
// XP / Level Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points accumulated within the current level.
type XP int

// IsValid checks if the XP value is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add returns the XP increased by the given amount.
func (x XP) Add(amount XP) XP {
	return x + amount
}

// String returns the string representation.
func (x XP) String() string {
	return fmt.Sprintf("%d", int(x))
}

// NewXP creates an XP value with validation.
func NewXP(amount int) (XP, error) {
	if amount < 0 {
		return 0, ErrNegativeValue
	}
	return XP(amount), nil
}

// Level represents a progression level. Levels start at 0 and only advance.
type Level int

// IsValid checks if the level is non-negative.
func (l Level) IsValid() bool {
	return l >= 0
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// Next returns the following level.
func (l Level) Next() Level {
	return l + 1
}

// String returns the string representation.
func (l Level) String() string {
	return fmt.Sprintf("%d", int(l))
}

// NewLevel creates a Level with validation.
func NewLevel(level int) (Level, error) {
	if level < 0 {
		return 0, ErrNegativeValue
	}
	return Level(level), nil
}
