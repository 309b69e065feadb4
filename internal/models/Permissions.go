package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Permissions is the remote API's 64-bit permission bitmask. On the wire it
// travels as a decimal string.
type Permissions uint64

const (
	PermCreateInstantInvite Permissions = 1 << 0
	PermKickMembers         Permissions = 1 << 1
	PermBanMembers          Permissions = 1 << 2
	PermAdministrator       Permissions = 1 << 3
	PermManageChannels      Permissions = 1 << 4
	PermManageGuild         Permissions = 1 << 5
	PermAddReactions        Permissions = 1 << 6
	PermViewAuditLog        Permissions = 1 << 7
	PermViewChannel         Permissions = 1 << 10
	PermSendMessages        Permissions = 1 << 11
	PermManageMessages      Permissions = 1 << 13
	PermMentionEveryone     Permissions = 1 << 17
	PermConnect             Permissions = 1 << 20
	PermSpeak               Permissions = 1 << 21
	PermManageRoles         Permissions = 1 << 28
	PermManageWebhooks      Permissions = 1 << 29
)

func (p Permissions) Has(bits Permissions) bool {
	return p&bits == bits
}

func (p Permissions) Administrator() bool  { return p.Has(PermAdministrator) }
func (p Permissions) ManageChannels() bool { return p.Has(PermManageChannels) }
func (p Permissions) ManageRoles() bool    { return p.Has(PermManageRoles) }
func (p Permissions) ManageGuild() bool    { return p.Has(PermManageGuild) }
func (p Permissions) ViewChannel() bool    { return p.Has(PermViewChannel) }
func (p Permissions) SendMessages() bool   { return p.Has(PermSendMessages) }
func (p Permissions) Connect() bool        { return p.Has(PermConnect) }

func (p Permissions) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

func (p Permissions) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts the quoted decimal form as well as a bare number,
// which older snapshot documents used.
func (p *Permissions) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid permissions value %s: %w", data, err)
	}
	*p = Permissions(v)
	return nil
}
