package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	"github.com/nebula-bot/nebula-hub/pkg/retry"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig("test-token")
	cfg.BaseURL = srv.URL
	cfg.Retry = retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
	return NewClient(cfg, nil)
}

func TestSendMessage(t *testing.T) {
	var gotAuth, gotPath, gotContent string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		var payload struct {
			Content string `json:"content"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotContent = payload.Content
		w.WriteHeader(http.StatusOK)
	}))

	err := client.SendMessage(context.Background(), "555", "hello")
	require.NoError(t, err)

	assert.Equal(t, "Bot test-token", gotAuth)
	assert.Equal(t, "/channels/555/messages", gotPath)
	assert.Equal(t, "hello", gotContent)
}

func TestSendDirectMessage_OpensChannelFirst(t *testing.T) {
	var paths []string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/users/1001/channels" {
			json.NewEncoder(w).Encode(map[string]string{"channel_id": "9000"})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	err := client.SendDirectMessage(context.Background(), "1001", "you were warned")
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, "POST /users/1001/channels", paths[0])
	assert.Equal(t, "POST /channels/9000/messages", paths[1])
}

func TestMemberRoles(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/communities/42/members/1001", r.URL.Path)
		json.NewEncoder(w).Encode(map[string][]string{"roles": {"100", "300"}})
	}))

	roles, err := client.MemberRoles(context.Background(), "42", "1001")
	require.NoError(t, err)
	assert.Equal(t, []shared.RoleID{"100", "300"}, roles)
}

func TestAddRemoveRole(t *testing.T) {
	var methods []string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/communities/42/members/1001/roles/100", r.URL.Path)
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx := context.Background()
	require.NoError(t, client.AddRole(ctx, "42", "1001", "100"))
	require.NoError(t, client.RemoveRole(ctx, "42", "1001", "100"))
	assert.Equal(t, []string{http.MethodPut, http.MethodDelete}, methods)
}

func TestResolveRole_NotFound(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.ResolveRole(context.Background(), "42", "999")
	assert.ErrorIs(t, err, shared.ErrRoleUnresolvable)
}

func TestResolveRole(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "100", "name": "Veteran"})
	}))

	role, err := client.ResolveRole(context.Background(), "42", "100")
	require.NoError(t, err)
	assert.Equal(t, shared.RoleID("100"), role.ID)
	assert.Equal(t, "Veteran", role.Name)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	err := client.SendMessage(context.Background(), "555", "eventually delivered")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_ClientErrorsArePermanent(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))

	err := client.SendMessage(context.Background(), "555", "rejected")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}
