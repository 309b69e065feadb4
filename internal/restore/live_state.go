package restore

import (
	"context"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/remote"
	"math"

	"golang.org/x/sync/errgroup"
)

// UnboundedAuthority is the authority of the server owner, who may modify
// every role.
const UnboundedAuthority = math.MaxInt

// LiveState is the target server as it is right before a restore.
type LiveState struct {
	GuildID  string
	Roles    []models.Role
	Channels []models.Channel
	// DefaultRoleID is the live id of the target's @everyone role.
	DefaultRoleID string
	// Authority is the highest role position held by the acting principal.
	Authority int
}

// FetchLiveState reads the target server and works out the acting
// principal's authority: the owner is unbounded, everyone else is bounded by
// the highest position among their roles.
func FetchLiveState(ctx context.Context, client remote.ResourceClientInterface, guildID string) (*LiveState, error) {
	var (
		guild *models.Guild
		self  *models.User
		state = &LiveState{GuildID: guildID}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		state.Roles, err = client.ListRoles(gctx, guildID)
		return wrap("list roles", err)
	})
	g.Go(func() (err error) {
		state.Channels, err = client.ListChannels(gctx, guildID)
		return wrap("list channels", err)
	})
	g.Go(func() (err error) {
		guild, err = client.GetGuild(gctx, guildID)
		return wrap("get guild", err)
	})
	g.Go(func() (err error) {
		self, err = client.GetSelf(gctx)
		return wrap("get self", err)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch live state of %s: %w", guildID, err)
	}

	for _, r := range state.Roles {
		if r.Name == models.DefaultRoleName || r.ID == guildID {
			state.DefaultRoleID = r.ID
			break
		}
	}

	if guild.OwnerID != "" && guild.OwnerID == self.ID {
		state.Authority = UnboundedAuthority
		return state, nil
	}

	member, err := client.GetMember(ctx, guildID, self.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch live state of %s: get member: %w", guildID, err)
	}
	state.Authority = authorityOf(member.Roles, state.Roles)
	return state, nil
}

func authorityOf(memberRoles []string, roles []models.Role) int {
	held := make(map[string]struct{}, len(memberRoles))
	for _, id := range memberRoles {
		held[id] = struct{}{}
	}
	authority := 0
	for _, r := range roles {
		if _, ok := held[r.ID]; ok && r.Position > authority {
			authority = r.Position
		}
	}
	return authority
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
