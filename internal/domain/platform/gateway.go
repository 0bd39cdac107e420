// Package platform defines the chat-platform collaborator boundary: message
// delivery, role membership reads and mutations, and role resolution. The
// REST implementation lives in infrastructure/external/platform.
package platform

import (
	"context"

	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
)

// Role describes a community role as resolved from the platform.
type Role struct {
	ID   shared.RoleID
	Name string
}

// Gateway is the chat-platform collaborator interface.
type Gateway interface {
	// SendMessage delivers a message to a community channel.
	SendMessage(ctx context.Context, channel shared.ChannelID, content string) error

	// SendDirectMessage delivers a message to a user's direct channel.
	SendDirectMessage(ctx context.Context, user shared.UserID, content string) error

	// MemberRoles returns the roles currently held by a community member.
	MemberRoles(ctx context.Context, community shared.CommunityID, user shared.UserID) ([]shared.RoleID, error)

	// AddRole grants a role to a community member.
	AddRole(ctx context.Context, community shared.CommunityID, user shared.UserID, role shared.RoleID) error

	// RemoveRole revokes a role from a community member.
	RemoveRole(ctx context.Context, community shared.CommunityID, user shared.UserID, role shared.RoleID) error

	// ResolveRole looks a role up by ID. Returns shared.ErrRoleUnresolvable
	// when the role no longer exists.
	ResolveRole(ctx context.Context, community shared.CommunityID, role shared.RoleID) (Role, error)
}
