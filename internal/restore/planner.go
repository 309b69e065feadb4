package restore

import (
	"fmt"
	"guildsnap/internal/models"
	"sort"
)

// Operation is one remote call of a restore. Deletes carry the live id of
// their target; creates carry the snapshot record to recreate.
type Operation struct {
	Op       models.OpKind
	Resource models.ResourceKind
	Name     string
	LiveID   string
	Role     *models.RoleRecord
	Channel  *models.ChannelRecord
}

// Item names the operation's target for logs and failure reports.
func (o Operation) Item() string {
	switch {
	case o.LiveID != "":
		return fmt.Sprintf("%s (%s)", o.Name, o.LiveID)
	case o.Role != nil:
		return fmt.Sprintf("%s (%s)", o.Name, o.Role.SourceID)
	case o.Channel != nil:
		return fmt.Sprintf("%s (%s)", o.Name, o.Channel.SourceID)
	default:
		return o.Name
	}
}

// Skip is an entity the plan deliberately leaves alone.
type Skip struct {
	Resource models.ResourceKind
	Name     string
	ID       string
	Reason   string
}

const (
	skipDefaultRole = "default role"
	skipManaged     = "managed by an integration"
	skipAuthority   = "at or above acting authority"
)

// Plan is the ordered operation list of one restore. It performs no I/O.
type Plan struct {
	SnapshotID    string
	TargetGuildID string
	Authority     int
	// DefaultRoleSourceID and DefaultRoleLiveID tie the snapshot's
	// @everyone to the target's, which differ when restoring onto another
	// server.
	DefaultRoleSourceID string
	DefaultRoleLiveID   string
	Operations          []Operation
	Skipped             []Skip
}

// NewPlan builds the five-phase plan: delete live channels, then live
// categories, then live roles the actor may touch; create snapshot roles,
// then categories, then the remaining channels.
func NewPlan(snapshot *models.Snapshot, live *LiveState, authority int) *Plan {
	p := &Plan{
		SnapshotID:        snapshot.ID,
		TargetGuildID:     live.GuildID,
		Authority:         authority,
		DefaultRoleLiveID: live.DefaultRoleID,
	}
	if def := snapshot.DefaultRole(); def != nil {
		p.DefaultRoleSourceID = def.SourceID
	}

	p.deleteChannels(live.Channels)
	p.deleteRoles(live)
	p.createRoles(snapshot.Roles)
	p.createChannels(snapshot.Channels)
	return p
}

func (p *Plan) deleteChannels(channels []models.Channel) {
	live := append([]models.Channel(nil), channels...)
	sortChannels(live)

	for _, ch := range live {
		if ch.Type != models.ChannelTypeCategory {
			p.add(Operation{Op: models.OpDeleteChannel, Resource: models.ResourceChannel, Name: ch.Name, LiveID: ch.ID})
		}
	}
	for _, ch := range live {
		if ch.Type == models.ChannelTypeCategory {
			p.add(Operation{Op: models.OpDeleteCategory, Resource: models.ResourceCategory, Name: ch.Name, LiveID: ch.ID})
		}
	}
}

// deleteRoles targets live roles lowest rank first. Roles the remote would
// refuse on authority grounds are skipped here rather than attempted.
func (p *Plan) deleteRoles(live *LiveState) {
	roles := append([]models.Role(nil), live.Roles...)
	sort.SliceStable(roles, func(i, j int) bool {
		if roles[i].Position != roles[j].Position {
			return roles[i].Position < roles[j].Position
		}
		return roles[i].ID < roles[j].ID
	})

	for _, r := range roles {
		switch {
		case r.ID == live.DefaultRoleID || r.Name == models.DefaultRoleName:
			p.skip(models.ResourceRole, r.Name, r.ID, skipDefaultRole)
		case r.Managed:
			p.skip(models.ResourceRole, r.Name, r.ID, skipManaged)
		case r.Position >= p.Authority:
			p.skip(models.ResourceRole, r.Name, r.ID, skipAuthority)
		default:
			p.add(Operation{Op: models.OpDeleteRole, Resource: models.ResourceRole, Name: r.Name, LiveID: r.ID})
		}
	}
}

// createRoles emits snapshot roles highest first. The remote inserts every
// new role at the bottom of the hierarchy, so this order rebuilds the
// original ranking.
func (p *Plan) createRoles(records []models.RoleRecord) {
	roles := append([]models.RoleRecord(nil), records...)
	sort.SliceStable(roles, func(i, j int) bool {
		if roles[i].Position != roles[j].Position {
			return roles[i].Position > roles[j].Position
		}
		return roles[i].SourceID < roles[j].SourceID
	})

	for i := range roles {
		r := &roles[i]
		switch {
		case r.IsDefault():
			p.skip(models.ResourceRole, r.Name, r.SourceID, skipDefaultRole)
		case r.Managed:
			p.skip(models.ResourceRole, r.Name, r.SourceID, skipManaged)
		default:
			p.add(Operation{Op: models.OpCreateRole, Resource: models.ResourceRole, Name: r.Name, Role: r})
		}
	}
}

func (p *Plan) createChannels(records []models.ChannelRecord) {
	channels := append([]models.ChannelRecord(nil), records...)
	sort.SliceStable(channels, func(i, j int) bool {
		if channels[i].Position != channels[j].Position {
			return channels[i].Position < channels[j].Position
		}
		return channels[i].SourceID < channels[j].SourceID
	})

	for i := range channels {
		if ch := &channels[i]; ch.IsCategory() {
			p.add(Operation{Op: models.OpCreateCategory, Resource: models.ResourceCategory, Name: ch.Name, Channel: ch})
		}
	}
	for i := range channels {
		if ch := &channels[i]; !ch.IsCategory() {
			p.add(Operation{Op: models.OpCreateChannel, Resource: models.ResourceChannel, Name: ch.Name, Channel: ch})
		}
	}
}

func (p *Plan) add(op Operation) {
	p.Operations = append(p.Operations, op)
}

func (p *Plan) skip(kind models.ResourceKind, name, id, reason string) {
	p.Skipped = append(p.Skipped, Skip{Resource: kind, Name: name, ID: id, Reason: reason})
}

// Count returns how many operations of the given kind the plan holds.
func (p *Plan) Count(op models.OpKind) int {
	n := 0
	for _, o := range p.Operations {
		if o.Op == op {
			n++
		}
	}
	return n
}

func sortChannels(channels []models.Channel) {
	sort.SliceStable(channels, func(i, j int) bool {
		if channels[i].Position != channels[j].Position {
			return channels[i].Position < channels[j].Position
		}
		return channels[i].ID < channels[j].ID
	})
}

// RemapOverwrites converts snapshot overwrites into live ones. Role
// principals go through the remap; a role without a mapping, and every
// member principal, keeps its raw id.
func RemapOverwrites(records []models.PermissionOverwriteRecord, remap *IdentifierRemap) []models.Overwrite {
	overwrites := make([]models.Overwrite, 0, len(records))
	for _, rec := range records {
		ow := models.Overwrite{
			ID:    rec.PrincipalSourceID,
			Type:  models.OverwriteRole,
			Allow: rec.Allow,
			Deny:  rec.Deny,
		}
		if rec.PrincipalKind == models.PrincipalMember {
			ow.Type = models.OverwriteMember
		} else if id, ok := remap.Role(rec.PrincipalSourceID); ok {
			ow.ID = id
		}
		overwrites = append(overwrites, ow)
	}
	return overwrites
}

// ResolveParent returns the live id of a channel's parent category, or ""
// when the category was never created and the channel goes top-level.
func ResolveParent(parentSourceID string, remap *IdentifierRemap) string {
	if parentSourceID == "" {
		return ""
	}
	id, _ := remap.Category(parentSourceID)
	return id
}
