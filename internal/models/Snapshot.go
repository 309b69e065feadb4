package models

import (
	"strings"
	"time"
)

// DefaultRoleName is the reserved name of the role every member holds.
const DefaultRoleName = "@everyone"

const displayNameLayout = "2006-01-02 15:04:05 UTC"

// ChannelKind is the closed set of channel shapes the restore engine
// distinguishes. Anything that is neither a category nor a plain text or
// voice channel is KindOther; its exact remote type is kept in ChannelRecord.Type.
type ChannelKind string

const (
	KindCategory ChannelKind = "category"
	KindText     ChannelKind = "text"
	KindVoice    ChannelKind = "voice"
	KindOther    ChannelKind = "other"
)

func KindOf(t ChannelType) ChannelKind {
	switch t {
	case ChannelTypeCategory:
		return KindCategory
	case ChannelTypeText:
		return KindText
	case ChannelTypeVoice:
		return KindVoice
	default:
		return KindOther
	}
}

func (k *ChannelKind) UnmarshalText(text []byte) error {
	switch ChannelKind(strings.ToLower(string(text))) {
	case KindCategory:
		*k = KindCategory
	case KindText:
		*k = KindText
	case KindVoice:
		*k = KindVoice
	default:
		*k = KindOther
	}
	return nil
}

type PrincipalKind string

const (
	PrincipalRole   PrincipalKind = "role"
	PrincipalMember PrincipalKind = "member"
)

type PermissionOverwriteRecord struct {
	PrincipalSourceID string        `json:"principalSourceId"`
	PrincipalKind     PrincipalKind `json:"principalKind"`
	Allow             Permissions   `json:"allow"`
	Deny              Permissions   `json:"deny"`
}

type RoleRecord struct {
	SourceID    string      `json:"sourceId"`
	Name        string      `json:"name"`
	Color       int         `json:"color"`
	Hoist       bool        `json:"hoist"`
	Mentionable bool        `json:"mentionable"`
	Permissions Permissions `json:"permissions"`
	Managed     bool        `json:"managed"`
	Position    int         `json:"position"`
}

func (r *RoleRecord) IsDefault() bool {
	return r.Name == DefaultRoleName
}

type ChannelRecord struct {
	SourceID             string                      `json:"sourceId"`
	Name                 string                      `json:"name"`
	Kind                 ChannelKind                 `json:"kind"`
	Type                 ChannelType                 `json:"type"`
	ParentSourceID       string                      `json:"parentSourceId,omitempty"`
	Topic                string                      `json:"topic,omitempty"`
	NSFW                 bool                        `json:"nsfw"`
	Position             int                         `json:"position"`
	RateLimitSeconds     int                         `json:"rateLimitSeconds"`
	Bitrate              int                         `json:"bitrate,omitempty"`
	UserLimit            int                         `json:"userLimit,omitempty"`
	PermissionOverwrites []PermissionOverwriteRecord `json:"permissionOverwrites"`
}

func (c *ChannelRecord) IsCategory() bool {
	return c.Kind == KindCategory
}

type GuildInfo struct {
	Name    string `json:"name"`
	OwnerID string `json:"ownerId,omitempty"`
}

// Snapshot is a complete, immutable copy of a server's role and channel
// structure at CapturedAt.
type Snapshot struct {
	ID           string          `json:"id"`
	OwnerScopeID string          `json:"ownerScopeId"`
	CapturedAt   time.Time       `json:"capturedAt"`
	DisplayName  string          `json:"displayName"`
	Guild        GuildInfo       `json:"guild"`
	Roles        []RoleRecord    `json:"roles"`
	Channels     []ChannelRecord `json:"channels"`
}

type SnapshotSummary struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"displayName"`
	CapturedAt   time.Time `json:"capturedAt"`
	RoleCount    int       `json:"roleCount"`
	ChannelCount int       `json:"channelCount"`
}

func DefaultDisplayName(capturedAt time.Time) string {
	return capturedAt.UTC().Format(displayNameLayout)
}

func (s *Snapshot) Summary() SnapshotSummary {
	return SnapshotSummary{
		ID:           s.ID,
		DisplayName:  s.DisplayName,
		CapturedAt:   s.CapturedAt,
		RoleCount:    len(s.Roles),
		ChannelCount: len(s.Channels),
	}
}

// DefaultRole returns the snapshot's @everyone record, or nil for a
// malformed snapshot that lacks one.
func (s *Snapshot) DefaultRole() *RoleRecord {
	for i := range s.Roles {
		if s.Roles[i].IsDefault() {
			return &s.Roles[i]
		}
	}
	return nil
}

func NewRoleRecord(r Role) RoleRecord {
	return RoleRecord{
		SourceID:    r.ID,
		Name:        r.Name,
		Color:       r.Color,
		Hoist:       r.Hoist,
		Mentionable: r.Mentionable,
		Permissions: r.Permissions,
		Managed:     r.Managed,
		Position:    r.Position,
	}
}

func NewChannelRecord(c Channel) ChannelRecord {
	overwrites := make([]PermissionOverwriteRecord, 0, len(c.PermissionOverwrites))
	for _, ow := range c.PermissionOverwrites {
		kind := PrincipalRole
		if ow.Type == OverwriteMember {
			kind = PrincipalMember
		}
		overwrites = append(overwrites, PermissionOverwriteRecord{
			PrincipalSourceID: ow.ID,
			PrincipalKind:     kind,
			Allow:             ow.Allow,
			Deny:              ow.Deny,
		})
	}
	return ChannelRecord{
		SourceID:             c.ID,
		Name:                 c.Name,
		Kind:                 KindOf(c.Type),
		Type:                 c.Type,
		ParentSourceID:       c.ParentID,
		Topic:                c.Topic,
		NSFW:                 c.NSFW,
		Position:             c.Position,
		RateLimitSeconds:     c.RateLimitPerUser,
		Bitrate:              c.Bitrate,
		UserLimit:            c.UserLimit,
		PermissionOverwrites: overwrites,
	}
}
