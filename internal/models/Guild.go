package models

// ChannelType is the remote API's numeric channel type.
type ChannelType int

const (
	ChannelTypeText         ChannelType = 0
	ChannelTypeVoice        ChannelType = 2
	ChannelTypeCategory     ChannelType = 4
	ChannelTypeAnnouncement ChannelType = 5
	ChannelTypeStage        ChannelType = 13
	ChannelTypeForum        ChannelType = 15
)

// OverwriteType tells whether a permission overwrite targets a role or a member.
type OverwriteType int

const (
	OverwriteRole   OverwriteType = 0
	OverwriteMember OverwriteType = 1
)

type Guild struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
	Icon    string `json:"icon,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

type Member struct {
	User  *User    `json:"user,omitempty"`
	Nick  string   `json:"nick,omitempty"`
	Roles []string `json:"roles"`
}

type Role struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Color       int         `json:"color"`
	Hoist       bool        `json:"hoist"`
	Mentionable bool        `json:"mentionable"`
	Permissions Permissions `json:"permissions"`
	Managed     bool        `json:"managed"`
	Position    int         `json:"position"`
}

type Overwrite struct {
	ID    string        `json:"id"`
	Type  OverwriteType `json:"type"`
	Allow Permissions   `json:"allow"`
	Deny  Permissions   `json:"deny"`
}

type Channel struct {
	ID                   string      `json:"id"`
	GuildID              string      `json:"guild_id,omitempty"`
	Type                 ChannelType `json:"type"`
	Name                 string      `json:"name"`
	ParentID             string      `json:"parent_id,omitempty"`
	Topic                string      `json:"topic,omitempty"`
	NSFW                 bool        `json:"nsfw"`
	Position             int         `json:"position"`
	RateLimitPerUser     int         `json:"rate_limit_per_user"`
	Bitrate              int         `json:"bitrate,omitempty"`
	UserLimit            int         `json:"user_limit,omitempty"`
	PermissionOverwrites []Overwrite `json:"permission_overwrites"`
}

// RoleParams is the body of a role create or update call. Nil fields are
// left untouched by the remote side.
type RoleParams struct {
	Name        string       `json:"name,omitempty"`
	Color       *int         `json:"color,omitempty"`
	Hoist       *bool        `json:"hoist,omitempty"`
	Mentionable *bool        `json:"mentionable,omitempty"`
	Permissions *Permissions `json:"permissions,omitempty"`
}

// ChannelParams is the body of a channel create or update call.
type ChannelParams struct {
	Name                 string       `json:"name,omitempty"`
	Type                 *ChannelType `json:"type,omitempty"`
	Topic                string       `json:"topic,omitempty"`
	NSFW                 *bool        `json:"nsfw,omitempty"`
	Position             *int         `json:"position,omitempty"`
	RateLimitPerUser     *int         `json:"rate_limit_per_user,omitempty"`
	Bitrate              int          `json:"bitrate,omitempty"`
	UserLimit            int          `json:"user_limit,omitempty"`
	ParentID             string       `json:"parent_id,omitempty"`
	PermissionOverwrites []Overwrite  `json:"permission_overwrites,omitempty"`
}
