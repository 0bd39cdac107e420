package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
)

const testModerator = shared.UserID("2002")

func TestWarn_PersistsAndNotifies(t *testing.T) {
	repo := &fakeWarningRepo{}
	gateway := newFakeGateway()
	provider := &fakeSettings{logChannel: "777"}
	h := NewWarnMemberHandler(repo, provider, gateway, nil)

	event, err := h.Handle(context.Background(), WarnMemberCommand{
		CommunityID: testCommunity,
		UserID:      testUser,
		ModeratorID: testModerator,
		Reason:      "spamming",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, event.WarningID)

	require.Len(t, repo.warnings, 1)
	assert.Equal(t, "spamming", repo.warnings[0].Reason)
	assert.Equal(t, event.WarningID, repo.warnings[0].ID)

	require.Len(t, gateway.messages, 1)
	assert.Equal(t, shared.ChannelID("777"), gateway.messages[0].Channel)
	assert.Contains(t, gateway.messages[0].Content, "spamming")

	require.Len(t, gateway.dms[testUser], 1)
	assert.Contains(t, gateway.dms[testUser][0], "spamming")
}

func TestWarn_EmptyReasonDefaults(t *testing.T) {
	repo := &fakeWarningRepo{}
	h := NewWarnMemberHandler(repo, &fakeSettings{}, newFakeGateway(), nil)

	_, err := h.Handle(context.Background(), WarnMemberCommand{
		CommunityID: testCommunity,
		UserID:      testUser,
		ModeratorID: testModerator,
	})
	require.NoError(t, err)
	require.Len(t, repo.warnings, 1)
	assert.Equal(t, "No reason provided", repo.warnings[0].Reason)
}

func TestWarn_SelfWarnRejected(t *testing.T) {
	repo := &fakeWarningRepo{}
	h := NewWarnMemberHandler(repo, &fakeSettings{}, newFakeGateway(), nil)

	_, err := h.Handle(context.Background(), WarnMemberCommand{
		CommunityID: testCommunity,
		UserID:      testUser,
		ModeratorID: testUser,
		Reason:      "self",
	})
	assert.ErrorIs(t, err, shared.ErrSelfWarn)
	assert.Empty(t, repo.warnings)
}

func TestWarn_RepositoryFailure(t *testing.T) {
	repo := &fakeWarningRepo{err: errCollaboratorDown}
	gateway := newFakeGateway()
	h := NewWarnMemberHandler(repo, &fakeSettings{logChannel: "777"}, gateway, nil)

	_, err := h.Handle(context.Background(), WarnMemberCommand{
		CommunityID: testCommunity,
		UserID:      testUser,
		ModeratorID: testModerator,
		Reason:      "spamming",
	})
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Empty(t, gateway.messages, "no notifications when persistence fails")
	assert.Empty(t, gateway.dms)
}

func TestWarn_NotificationFailureIsBestEffort(t *testing.T) {
	repo := &fakeWarningRepo{}
	gateway := newFakeGateway()
	gateway.sendErr = errCollaboratorDown
	h := NewWarnMemberHandler(repo, &fakeSettings{logChannel: "777"}, gateway, nil)

	event, err := h.Handle(context.Background(), WarnMemberCommand{
		CommunityID: testCommunity,
		UserID:      testUser,
		ModeratorID: testModerator,
		Reason:      "spamming",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, event.WarningID)
	require.Len(t, repo.warnings, 1)
}

func TestWarn_NoLogChannelConfigured(t *testing.T) {
	repo := &fakeWarningRepo{}
	gateway := newFakeGateway()
	h := NewWarnMemberHandler(repo, &fakeSettings{}, gateway, nil)

	_, err := h.Handle(context.Background(), WarnMemberCommand{
		CommunityID: testCommunity,
		UserID:      testUser,
		ModeratorID: testModerator,
		Reason:      "spamming",
	})
	require.NoError(t, err)
	assert.Empty(t, gateway.messages)
	require.Len(t, gateway.dms[testUser], 1)
}
