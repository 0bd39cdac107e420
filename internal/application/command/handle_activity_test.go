package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebula-bot/nebula-hub/internal/domain/progression"
	"github.com/nebula-bot/nebula-hub/internal/domain/reward"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	"github.com/nebula-bot/nebula-hub/internal/infrastructure/persistence/memory"
)

const (
	testCommunity = shared.CommunityID("903852579837059113")
	testUser      = shared.UserID("1001")
)

func newActivityHandler(store progression.Store, provider *fakeSettings, gateway *fakeGateway) *HandleActivityHandler {
	rewards := NewSyncRewardsHandler(gateway, nil)
	return NewHandleActivityHandler(store, provider, gateway, rewards, nil, DefaultHandleActivityConfig())
}

func TestHandle_Disabled_NoStoreWrites(t *testing.T) {
	store := memory.NewProgressionStore()
	h := newActivityHandler(store, &fakeSettings{enabled: false}, newFakeGateway())

	_, err := h.Handle(context.Background(), testCommunity, testUser)
	assert.ErrorIs(t, err, shared.ErrLevelingDisabled)
	assert.Equal(t, 0, store.Len())
}

func TestHandle_AwardsBothScopes(t *testing.T) {
	store := memory.NewProgressionStore()
	h := newActivityHandler(store, &fakeSettings{enabled: true}, newFakeGateway())

	result, err := h.Handle(context.Background(), testCommunity, testUser)
	require.NoError(t, err)

	assert.False(t, result.LocalLeveledUp)
	assert.Equal(t, shared.XP(2), result.Local.Exp)
	assert.Equal(t, shared.XP(2), result.Global.Exp)
	assert.Equal(t, 2, store.Len(), "one record per scope")
	assert.Empty(t, result.Events)
}

func TestHandle_ScopesEvolveIndependently(t *testing.T) {
	store := memory.NewProgressionStore()
	ctx := context.Background()

	// Local sits one event short of level 1; global is at level 2.
	require.NoError(t, store.Save(ctx, progression.Record{
		Scope: progression.Local(testCommunity), UserID: testUser, Exp: 123, Level: 0,
	}))
	require.NoError(t, store.Save(ctx, progression.Record{
		Scope: progression.Global(), UserID: testUser, Exp: 0, Level: 2,
	}))

	h := newActivityHandler(store, &fakeSettings{enabled: true}, newFakeGateway())
	result, err := h.Handle(ctx, testCommunity, testUser)
	require.NoError(t, err)

	assert.True(t, result.LocalLeveledUp)
	assert.Equal(t, shared.Level(1), result.Local.Level)
	assert.Equal(t, shared.XP(0), result.Local.Exp)

	assert.False(t, result.GlobalLeveledUp)
	assert.Equal(t, shared.Level(2), result.Global.Level)
	assert.Equal(t, shared.XP(2), result.Global.Exp)
}

func TestHandle_LevelUpAnnouncement(t *testing.T) {
	store := memory.NewProgressionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, progression.Record{
		Scope: progression.Local(testCommunity), UserID: testUser, Exp: 123, Level: 0,
	}))

	gateway := newFakeGateway()
	provider := &fakeSettings{enabled: true, levelChannel: "555"}
	h := newActivityHandler(store, provider, gateway)

	result, err := h.Handle(ctx, testCommunity, testUser)
	require.NoError(t, err)
	require.True(t, result.LocalLeveledUp)

	require.Len(t, gateway.messages, 1)
	assert.Equal(t, shared.ChannelID("555"), gateway.messages[0].Channel)
	// The announced requirement is the threshold of the new level.
	assert.Contains(t, gateway.messages[0].Content, "level 1")
	assert.Contains(t, gateway.messages[0].Content, "250 exp")

	require.Len(t, result.Events, 1)
	event, ok := result.Events[0].(shared.LevelUpEvent)
	require.True(t, ok)
	assert.Equal(t, shared.Level(1), event.NewLevel)
	assert.Equal(t, shared.XP(250), event.ExpToNext)
}

func TestHandle_NoChannelConfigured_NoAnnouncement(t *testing.T) {
	store := memory.NewProgressionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, progression.Record{
		Scope: progression.Local(testCommunity), UserID: testUser, Exp: 123, Level: 0,
	}))

	gateway := newFakeGateway()
	h := newActivityHandler(store, &fakeSettings{enabled: true}, gateway)

	result, err := h.Handle(ctx, testCommunity, testUser)
	require.NoError(t, err)
	assert.True(t, result.LocalLeveledUp)
	assert.Empty(t, gateway.messages)
}

func TestHandle_NotificationFailureDoesNotRollBack(t *testing.T) {
	store := memory.NewProgressionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, progression.Record{
		Scope: progression.Local(testCommunity), UserID: testUser, Exp: 123, Level: 0,
	}))

	gateway := newFakeGateway()
	gateway.sendErr = errCollaboratorDown
	provider := &fakeSettings{enabled: true, levelChannel: "555"}
	h := newActivityHandler(store, provider, gateway)

	result, err := h.Handle(ctx, testCommunity, testUser)
	require.NoError(t, err, "notification failure is local recovery")
	assert.True(t, result.LocalLeveledUp)

	persisted, err := store.Get(ctx, progression.Local(testCommunity), testUser)
	require.NoError(t, err)
	assert.Equal(t, shared.Level(1), persisted.Level)
}

func TestHandle_LevelUpSyncsRewards(t *testing.T) {
	store := memory.NewProgressionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, progression.Record{
		Scope: progression.Local(testCommunity), UserID: testUser, Exp: 123, Level: 0,
	}))

	gateway := newFakeGateway()
	provider := &fakeSettings{
		enabled: true,
		catalog: reward.Catalog{
			{Level: 1, RoleID: "100"},
			{Level: 5, RoleID: "500"},
		},
	}
	h := newActivityHandler(store, provider, gateway)

	_, err := h.Handle(ctx, testCommunity, testUser)
	require.NoError(t, err)

	held := gateway.heldBy(testUser)
	assert.True(t, held["100"], "level 1 reward granted")
	assert.False(t, held["500"], "level 5 reward not granted")
}

func TestHandle_SettingsFailure(t *testing.T) {
	store := memory.NewProgressionStore()
	provider := &fakeSettings{err: errCollaboratorDown}
	h := newActivityHandler(store, provider, newFakeGateway())

	_, err := h.Handle(context.Background(), testCommunity, testUser)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Equal(t, 0, store.Len())
}

func TestHandle_DuplicateEventsAwardTwice(t *testing.T) {
	store := memory.NewProgressionStore()
	ctx := context.Background()
	h := newActivityHandler(store, &fakeSettings{enabled: true}, newFakeGateway())

	// At-least-once delivery: the same event replayed awards exp again.
	_, err := h.Handle(ctx, testCommunity, testUser)
	require.NoError(t, err)
	result, err := h.Handle(ctx, testCommunity, testUser)
	require.NoError(t, err)

	assert.Equal(t, shared.XP(4), result.Local.Exp)
	assert.Equal(t, shared.XP(4), result.Global.Exp)
}
