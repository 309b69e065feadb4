package testutil

import (
	"context"
	"guildsnap/internal/models"
	"guildsnap/internal/remote"
	"net/http"
	"strconv"
	"sync"
)

// FakeGuild is the server-side state of one guild in FakeRemote.
type FakeGuild struct {
	Guild    models.Guild
	Roles    []models.Role
	Channels []models.Channel
	Members  map[string]models.Member
}

// FakeRemote is an in-memory remote.ResourceClientInterface. Failures are
// injected per call key: "<op>:<name>" for creates, "<op>:<id>" for deletes
// and "<op>:<guild>" for reads, e.g. "create_channel:General",
// "delete_role:7", "list_roles:42".
type FakeRemote struct {
	mu     sync.Mutex
	guilds map[string]*FakeGuild
	failOn map[string]error
	calls  []string
	nextID int
	SelfID string
}

func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		guilds: make(map[string]*FakeGuild),
		failOn: make(map[string]error),
		nextID: 1000,
		SelfID: "self",
	}
}

// AddGuild registers a guild. An @everyone role with the guild's id is
// added when roles does not contain one.
func (f *FakeRemote) AddGuild(guild models.Guild, roles []models.Role, channels []models.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hasDefault := false
	for _, r := range roles {
		if r.Name == models.DefaultRoleName {
			hasDefault = true
		}
	}
	if !hasDefault {
		roles = append([]models.Role{{ID: guild.ID, Name: models.DefaultRoleName, Permissions: models.PermViewChannel | models.PermSendMessages}}, roles...)
	}
	f.guilds[guild.ID] = &FakeGuild{
		Guild:    guild,
		Roles:    append([]models.Role(nil), roles...),
		Channels: append([]models.Channel(nil), channels...),
		Members:  make(map[string]models.Member),
	}
}

func (f *FakeRemote) SetMember(guildID, userID string, roleIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.guilds[guildID]
	g.Members[userID] = models.Member{User: &models.User{ID: userID}, Roles: roleIDs}
}

func (f *FakeRemote) Fail(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[key] = err
}

func (f *FakeRemote) Roles(guildID string) []models.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Role(nil), f.guilds[guildID].Roles...)
}

func (f *FakeRemote) Channels(guildID string) []models.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Channel(nil), f.guilds[guildID].Channels...)
}

// ChannelByName returns the first live channel with the given name.
func (f *FakeRemote) ChannelByName(guildID, name string) (models.Channel, bool) {
	for _, ch := range f.Channels(guildID) {
		if ch.Name == name {
			return ch, true
		}
	}
	return models.Channel{}, false
}

func (f *FakeRemote) RoleByName(guildID, name string) (models.Role, bool) {
	for _, r := range f.Roles(guildID) {
		if r.Name == name {
			return r, true
		}
	}
	return models.Role{}, false
}

func (f *FakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// call records the call and returns the injected failure for key, if any.
// Must be called under f.mu.
func (f *FakeRemote) call(key string) error {
	f.calls = append(f.calls, key)
	return f.failOn[key]
}

func (f *FakeRemote) newID() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func notFound(path string) error {
	return &remote.APIError{Method: "GET", Path: path, Status: http.StatusNotFound, Message: "Unknown Guild"}
}

func (f *FakeRemote) guild(guildID string) (*FakeGuild, error) {
	g, ok := f.guilds[guildID]
	if !ok {
		return nil, notFound("/guilds/" + guildID)
	}
	return g, nil
}

func (f *FakeRemote) GetGuild(_ context.Context, guildID string) (*models.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("get_guild:" + guildID); err != nil {
		return nil, err
	}
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	guild := g.Guild
	return &guild, nil
}

func (f *FakeRemote) GetSelf(_ context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("get_self:"); err != nil {
		return nil, err
	}
	return &models.User{ID: f.SelfID, Bot: true}, nil
}

func (f *FakeRemote) GetMember(_ context.Context, guildID, userID string) (*models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("get_member:" + guildID); err != nil {
		return nil, err
	}
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	m, ok := g.Members[userID]
	if !ok {
		return nil, notFound("/guilds/" + guildID + "/members/" + userID)
	}
	return &m, nil
}

func (f *FakeRemote) ListRoles(_ context.Context, guildID string) ([]models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("list_roles:" + guildID); err != nil {
		return nil, err
	}
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	return append([]models.Role(nil), g.Roles...), nil
}

// CreateRole places the new role directly above @everyone, shifting the
// others up, the way the real API does.
func (f *FakeRemote) CreateRole(_ context.Context, guildID string, params models.RoleParams) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("create_role:" + params.Name); err != nil {
		return nil, err
	}
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	role := models.Role{ID: f.newID(), Name: params.Name, Position: 1}
	if params.Color != nil {
		role.Color = *params.Color
	}
	if params.Hoist != nil {
		role.Hoist = *params.Hoist
	}
	if params.Mentionable != nil {
		role.Mentionable = *params.Mentionable
	}
	if params.Permissions != nil {
		role.Permissions = *params.Permissions
	}
	for i := range g.Roles {
		if g.Roles[i].Position >= 1 {
			g.Roles[i].Position++
		}
	}
	g.Roles = append(g.Roles, role)
	return &role, nil
}

func (f *FakeRemote) UpdateRole(_ context.Context, guildID, roleID string, params models.RoleParams) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("update_role:" + roleID); err != nil {
		return nil, err
	}
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	for i := range g.Roles {
		if g.Roles[i].ID == roleID {
			if params.Name != "" {
				g.Roles[i].Name = params.Name
			}
			if params.Permissions != nil {
				g.Roles[i].Permissions = *params.Permissions
			}
			role := g.Roles[i]
			return &role, nil
		}
	}
	return nil, notFound("/roles/" + roleID)
}

func (f *FakeRemote) DeleteRole(_ context.Context, guildID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("delete_role:" + roleID); err != nil {
		return err
	}
	g, err := f.guild(guildID)
	if err != nil {
		return err
	}
	for i := range g.Roles {
		if g.Roles[i].ID == roleID {
			g.Roles = append(g.Roles[:i], g.Roles[i+1:]...)
			return nil
		}
	}
	return notFound("/roles/" + roleID)
}

func (f *FakeRemote) ListChannels(_ context.Context, guildID string) ([]models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("list_channels:" + guildID); err != nil {
		return nil, err
	}
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	return append([]models.Channel(nil), g.Channels...), nil
}

func (f *FakeRemote) CreateChannel(_ context.Context, guildID string, params models.ChannelParams) (*models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("create_channel:" + params.Name); err != nil {
		return nil, err
	}
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	if params.ParentID != "" {
		ok := false
		for _, ch := range g.Channels {
			if ch.ID == params.ParentID && ch.Type == models.ChannelTypeCategory {
				ok = true
			}
		}
		if !ok {
			return nil, &remote.APIError{Method: "POST", Path: "/guilds/" + guildID + "/channels", Status: http.StatusBadRequest, Message: "Invalid Form Body"}
		}
	}
	ch := models.Channel{
		ID:                   f.newID(),
		GuildID:              guildID,
		Name:                 params.Name,
		Topic:                params.Topic,
		ParentID:             params.ParentID,
		Bitrate:              params.Bitrate,
		UserLimit:            params.UserLimit,
		PermissionOverwrites: append([]models.Overwrite(nil), params.PermissionOverwrites...),
	}
	if params.Type != nil {
		ch.Type = *params.Type
	}
	if params.NSFW != nil {
		ch.NSFW = *params.NSFW
	}
	if params.Position != nil {
		ch.Position = *params.Position
	}
	if params.RateLimitPerUser != nil {
		ch.RateLimitPerUser = *params.RateLimitPerUser
	}
	g.Channels = append(g.Channels, ch)
	return &ch, nil
}

func (f *FakeRemote) UpdateChannel(_ context.Context, channelID string, params models.ChannelParams) (*models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("update_channel:" + channelID); err != nil {
		return nil, err
	}
	for _, g := range f.guilds {
		for i := range g.Channels {
			if g.Channels[i].ID == channelID {
				if params.Name != "" {
					g.Channels[i].Name = params.Name
				}
				if params.Topic != "" {
					g.Channels[i].Topic = params.Topic
				}
				ch := g.Channels[i]
				return &ch, nil
			}
		}
	}
	return nil, notFound("/channels/" + channelID)
}

// DeleteChannel removes the channel; deleting a category leaves its
// children in place without a parent.
func (f *FakeRemote) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("delete_channel:" + channelID); err != nil {
		return err
	}
	for _, g := range f.guilds {
		for i := range g.Channels {
			if g.Channels[i].ID == channelID {
				g.Channels = append(g.Channels[:i], g.Channels[i+1:]...)
				for j := range g.Channels {
					if g.Channels[j].ParentID == channelID {
						g.Channels[j].ParentID = ""
					}
				}
				return nil
			}
		}
	}
	return notFound("/channels/" + channelID)
}

func (f *FakeRemote) EditChannelPermission(_ context.Context, channelID string, overwrite models.Overwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("edit_permission:" + channelID); err != nil {
		return err
	}
	ch := f.findChannel(channelID)
	if ch == nil {
		return notFound("/channels/" + channelID)
	}
	for i := range ch.PermissionOverwrites {
		if ch.PermissionOverwrites[i].ID == overwrite.ID {
			ch.PermissionOverwrites[i] = overwrite
			return nil
		}
	}
	ch.PermissionOverwrites = append(ch.PermissionOverwrites, overwrite)
	return nil
}

func (f *FakeRemote) DeleteChannelPermission(_ context.Context, channelID, principalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("delete_permission:" + channelID); err != nil {
		return err
	}
	ch := f.findChannel(channelID)
	if ch == nil {
		return notFound("/channels/" + channelID)
	}
	for i := range ch.PermissionOverwrites {
		if ch.PermissionOverwrites[i].ID == principalID {
			ch.PermissionOverwrites = append(ch.PermissionOverwrites[:i], ch.PermissionOverwrites[i+1:]...)
			return nil
		}
	}
	return notFound("/channels/" + channelID + "/permissions/" + principalID)
}

func (f *FakeRemote) findChannel(channelID string) *models.Channel {
	for _, g := range f.guilds {
		for i := range g.Channels {
			if g.Channels[i].ID == channelID {
				return &g.Channels[i]
			}
		}
	}
	return nil
}

var _ remote.ResourceClientInterface = (*FakeRemote)(nil)
