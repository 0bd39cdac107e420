// Package platform implements the chat-platform gateway over the platform's
// REST API. This package provides a clean interface for message delivery and
// role membership management; transient failures are retried with backoff.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/nebula-bot/nebula-hub/internal/domain/platform"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	"github.com/nebula-bot/nebula-hub/pkg/logger"
	"github.com/nebula-bot/nebula-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the platform REST client.
type ClientConfig struct {
	// Token is the bot token used for Authorization.
	Token string

	// BaseURL is the platform API base URL.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Retry controls backoff for transient failures (5xx, network).
	Retry retry.Config
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:   token,
		BaseURL: "https://api.nebula.chat/v1",
		Timeout: 15 * time.Second,
		Retry:   retry.DefaultConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// API TYPES
// ══════════════════════════════════════════════════════════════════════════════

type messagePayload struct {
	Content string `json:"content"`
}

type rolePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type memberPayload struct {
	Roles []string `json:"roles"`
}

type dmChannelPayload struct {
	ChannelID string `json:"channel_id"`
}

// apiError carries a non-2xx response.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("platform: API status %d: %s", e.Status, e.Body)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the REST implementation of the platform gateway.
type Client struct {
	config ClientConfig
	http   *http.Client
	logger *logger.Logger
}

// NewClient creates a platform client.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: log.Named("platform_client"),
	}
}

var _ domain.Gateway = (*Client)(nil)

// SendMessage delivers a message to a community channel.
func (c *Client) SendMessage(ctx context.Context, channel shared.ChannelID, content string) error {
	path := fmt.Sprintf("/channels/%s/messages", channel.String())
	return c.do(ctx, http.MethodPost, path, messagePayload{Content: content}, nil)
}

// SendDirectMessage opens the user's DM channel and delivers a message to it.
func (c *Client) SendDirectMessage(ctx context.Context, user shared.UserID, content string) error {
	var dm dmChannelPayload
	path := fmt.Sprintf("/users/%s/channels", user.String())
	if err := c.do(ctx, http.MethodPost, path, nil, &dm); err != nil {
		return err
	}
	return c.SendMessage(ctx, shared.ChannelID(dm.ChannelID), content)
}

// MemberRoles returns the roles currently held by a community member.
func (c *Client) MemberRoles(ctx context.Context, community shared.CommunityID, user shared.UserID) ([]shared.RoleID, error) {
	var member memberPayload
	path := fmt.Sprintf("/communities/%s/members/%s", community.String(), user.String())
	if err := c.do(ctx, http.MethodGet, path, nil, &member); err != nil {
		return nil, err
	}

	roles := make([]shared.RoleID, 0, len(member.Roles))
	for _, id := range member.Roles {
		roles = append(roles, shared.RoleID(id))
	}
	return roles, nil
}

// AddRole grants a role to a community member.
func (c *Client) AddRole(ctx context.Context, community shared.CommunityID, user shared.UserID, role shared.RoleID) error {
	path := fmt.Sprintf("/communities/%s/members/%s/roles/%s",
		community.String(), user.String(), role.String())
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// RemoveRole revokes a role from a community member.
func (c *Client) RemoveRole(ctx context.Context, community shared.CommunityID, user shared.UserID, role shared.RoleID) error {
	path := fmt.Sprintf("/communities/%s/members/%s/roles/%s",
		community.String(), user.String(), role.String())
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ResolveRole looks a role up by ID. A 404 maps to shared.ErrRoleUnresolvable.
func (c *Client) ResolveRole(ctx context.Context, community shared.CommunityID, role shared.RoleID) (domain.Role, error) {
	var payload rolePayload
	path := fmt.Sprintf("/communities/%s/roles/%s", community.String(), role.String())
	err := c.do(ctx, http.MethodGet, path, nil, &payload)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return domain.Role{}, shared.ErrRoleUnresolvable
		}
		return domain.Role{}, err
	}

	return domain.Role{ID: shared.RoleID(payload.ID), Name: payload.Name}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSPORT
// ══════════════════════════════════════════════════════════════════════════════

// do performs one API call with retry on transient failures. Client errors
// (4xx) are permanent; 5xx and transport errors are retried per config.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("platform: marshal request: %w", err)
		}
	}

	return retry.Do(ctx, c.config.Retry, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Authorization", "Bot "+c.config.Token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					return retry.Permanent(fmt.Errorf("platform: decode response: %w", err))
				}
			}
			return nil
		case resp.StatusCode >= 500:
			return &apiError{Status: resp.StatusCode, Body: string(respBody)}
		default:
			return retry.Permanent(&apiError{Status: resp.StatusCode, Body: string(respBody)})
		}
	})
}
