package command

import (
	"context"
	"errors"
	"sync"

	"github.com/nebula-bot/nebula-hub/internal/domain/moderation"
	"github.com/nebula-bot/nebula-hub/internal/domain/platform"
	"github.com/nebula-bot/nebula-hub/internal/domain/reward"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
)

// fakeSettings is an in-memory settings.Provider.
type fakeSettings struct {
	enabled      bool
	levelChannel shared.ChannelID
	logChannel   shared.ChannelID
	catalog      reward.Catalog
	err          error
}

func (f *fakeSettings) IsLevelingEnabled(ctx context.Context, community shared.CommunityID) (bool, error) {
	return f.enabled, f.err
}

func (f *fakeSettings) LevelChannel(ctx context.Context, community shared.CommunityID) (shared.ChannelID, error) {
	return f.levelChannel, f.err
}

func (f *fakeSettings) LogChannel(ctx context.Context, community shared.CommunityID) (shared.ChannelID, error) {
	return f.logChannel, f.err
}

func (f *fakeSettings) RewardCatalog(ctx context.Context, community shared.CommunityID) (reward.Catalog, error) {
	return f.catalog, f.err
}

// sentMessage records one SendMessage call.
type sentMessage struct {
	Channel shared.ChannelID
	Content string
}

// fakeGateway is an in-memory platform.Gateway tracking role mutations.
type fakeGateway struct {
	mu sync.Mutex

	roles       map[shared.UserID]map[shared.RoleID]bool
	brokenRoles map[shared.RoleID]bool // roles that no longer resolve

	messages []sentMessage
	dms      map[shared.UserID][]string

	sendErr   error
	rolesErr  error
	mutateErr error

	addCalls    int
	removeCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		roles:       make(map[shared.UserID]map[shared.RoleID]bool),
		brokenRoles: make(map[shared.RoleID]bool),
		dms:         make(map[shared.UserID][]string),
	}
}

func (f *fakeGateway) SendMessage(ctx context.Context, channel shared.ChannelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.messages = append(f.messages, sentMessage{Channel: channel, Content: content})
	return nil
}

func (f *fakeGateway) SendDirectMessage(ctx context.Context, user shared.UserID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.dms[user] = append(f.dms[user], content)
	return nil
}

func (f *fakeGateway) MemberRoles(ctx context.Context, community shared.CommunityID, user shared.UserID) ([]shared.RoleID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	var held []shared.RoleID
	for id, ok := range f.roles[user] {
		if ok {
			held = append(held, id)
		}
	}
	return held, nil
}

func (f *fakeGateway) AddRole(ctx context.Context, community shared.CommunityID, user shared.UserID, role shared.RoleID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.mutateErr != nil {
		return f.mutateErr
	}
	if f.roles[user] == nil {
		f.roles[user] = make(map[shared.RoleID]bool)
	}
	f.roles[user][role] = true
	return nil
}

func (f *fakeGateway) RemoveRole(ctx context.Context, community shared.CommunityID, user shared.UserID, role shared.RoleID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	if f.mutateErr != nil {
		return f.mutateErr
	}
	delete(f.roles[user], role)
	return nil
}

func (f *fakeGateway) ResolveRole(ctx context.Context, community shared.CommunityID, role shared.RoleID) (platform.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.brokenRoles[role] {
		return platform.Role{}, shared.ErrRoleUnresolvable
	}
	return platform.Role{ID: role, Name: "role-" + role.String()}, nil
}

func (f *fakeGateway) heldBy(user shared.UserID) map[shared.RoleID]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	held := make(map[shared.RoleID]bool, len(f.roles[user]))
	for id, ok := range f.roles[user] {
		if ok {
			held[id] = true
		}
	}
	return held
}

// fakeWarningRepo is an in-memory moderation.Repository.
type fakeWarningRepo struct {
	mu       sync.Mutex
	warnings []moderation.Warning
	err      error
}

func (f *fakeWarningRepo) Add(ctx context.Context, w moderation.Warning) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.warnings = append(f.warnings, w)
	return nil
}

func (f *fakeWarningRepo) ListByUser(ctx context.Context, community shared.CommunityID, user shared.UserID) ([]moderation.Warning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []moderation.Warning
	for i := len(f.warnings) - 1; i >= 0; i-- {
		w := f.warnings[i]
		if w.CommunityID == community && w.UserID == user {
			out = append(out, w)
		}
	}
	return out, nil
}

var errCollaboratorDown = errors.New("collaborator down")
