package remote

import (
	"bytes"
	"context"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/providers"
	"guildsnap/internal/structures"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	auditReason  = "guild snapshot restore"
	maxErrorBody = 64 << 10
)

// ResourceClientInterface is the typed surface of the remote resource API:
// roles, channels and per-channel permission grants, plus the metadata reads
// needed to capture a server and to work out the caller's authority.
type ResourceClientInterface interface {
	GetGuild(ctx context.Context, guildID string) (*models.Guild, error)
	GetSelf(ctx context.Context) (*models.User, error)
	GetMember(ctx context.Context, guildID, userID string) (*models.Member, error)

	ListRoles(ctx context.Context, guildID string) ([]models.Role, error)
	CreateRole(ctx context.Context, guildID string, params models.RoleParams) (*models.Role, error)
	UpdateRole(ctx context.Context, guildID, roleID string, params models.RoleParams) (*models.Role, error)
	DeleteRole(ctx context.Context, guildID, roleID string) error

	ListChannels(ctx context.Context, guildID string) ([]models.Channel, error)
	CreateChannel(ctx context.Context, guildID string, params models.ChannelParams) (*models.Channel, error)
	UpdateChannel(ctx context.Context, channelID string, params models.ChannelParams) (*models.Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error

	EditChannelPermission(ctx context.Context, channelID string, overwrite models.Overwrite) error
	DeleteChannelPermission(ctx context.Context, channelID, principalID string) error
}

type Client struct {
	baseURL       string
	authorization string
	http          *http.Client
	logger        providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) ResourceClientInterface {
	timeout := conf.Remote.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	scheme := conf.Remote.AuthScheme
	if scheme == "" {
		scheme = "Bot"
	}
	return &Client{
		baseURL:       strings.TrimRight(conf.Remote.BaseURL, "/"),
		authorization: scheme + " " + conf.Remote.Token,
		http:          &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

func (c *Client) GetGuild(ctx context.Context, guildID string) (*models.Guild, error) {
	var guild models.Guild
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID, nil, &guild); err != nil {
		return nil, err
	}
	return &guild, nil
}

func (c *Client) GetSelf(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/users/@me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetMember(ctx context.Context, guildID, userID string) (*models.Member, error) {
	var member models.Member
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID+"/members/"+userID, nil, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *Client) ListRoles(ctx context.Context, guildID string) ([]models.Role, error) {
	var roles []models.Role
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID+"/roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (c *Client) CreateRole(ctx context.Context, guildID string, params models.RoleParams) (*models.Role, error) {
	var role models.Role
	if err := c.do(ctx, http.MethodPost, "/guilds/"+guildID+"/roles", params, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

func (c *Client) UpdateRole(ctx context.Context, guildID, roleID string, params models.RoleParams) (*models.Role, error) {
	var role models.Role
	if err := c.do(ctx, http.MethodPatch, "/guilds/"+guildID+"/roles/"+roleID, params, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

func (c *Client) DeleteRole(ctx context.Context, guildID, roleID string) error {
	return c.do(ctx, http.MethodDelete, "/guilds/"+guildID+"/roles/"+roleID, nil, nil)
}

func (c *Client) ListChannels(ctx context.Context, guildID string) ([]models.Channel, error) {
	var channels []models.Channel
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID+"/channels", nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func (c *Client) CreateChannel(ctx context.Context, guildID string, params models.ChannelParams) (*models.Channel, error) {
	var channel models.Channel
	if err := c.do(ctx, http.MethodPost, "/guilds/"+guildID+"/channels", params, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

func (c *Client) UpdateChannel(ctx context.Context, channelID string, params models.ChannelParams) (*models.Channel, error) {
	var channel models.Channel
	if err := c.do(ctx, http.MethodPatch, "/channels/"+channelID, params, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+channelID, nil, nil)
}

func (c *Client) EditChannelPermission(ctx context.Context, channelID string, overwrite models.Overwrite) error {
	body := struct {
		Type  models.OverwriteType `json:"type"`
		Allow models.Permissions   `json:"allow"`
		Deny  models.Permissions   `json:"deny"`
	}{Type: overwrite.Type, Allow: overwrite.Allow, Deny: overwrite.Deny}
	return c.do(ctx, http.MethodPut, "/channels/"+channelID+"/permissions/"+overwrite.ID, body, nil)
}

func (c *Client) DeleteChannelPermission(ctx context.Context, channelID, principalID string) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+channelID+"/permissions/"+principalID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("X-Audit-Log-Reason", url.PathEscape(auditReason))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debugf(providers.TypeApi, "remote %s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(method, path string, resp *http.Response) error {
	apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}

	var payload struct {
		Code       int     `json:"code"`
		Message    string  `json:"message"`
		RetryAfter float64 `json:"retry_after"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(data) > 0 && json.Unmarshal(data, &payload) == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		apiErr.RetryAfter = time.Duration(payload.RetryAfter * float64(time.Second))
	}
	if apiErr.RetryAfter == 0 {
		if secs, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil {
			apiErr.RetryAfter = time.Duration(secs * float64(time.Second))
		}
	}
	return apiErr
}
