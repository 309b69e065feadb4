package restore

import (
	"context"
	"errors"
	"guildsnap/internal/models"
	"guildsnap/internal/remote"
	"guildsnap/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchLiveState_MemberAuthorityIsHighestRole(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddGuild(models.Guild{ID: "77", OwnerID: "owner"}, []models.Role{
		{ID: "a", Name: "guildsnap", Position: 6, Managed: true},
		{ID: "b", Name: "Helper", Position: 9},
		{ID: "c", Name: "Top", Position: 12},
	}, []models.Channel{{ID: "ch", Name: "chat"}})
	fake.SetMember("77", "self", "a", "b")

	live, err := FetchLiveState(context.Background(), fake, "77")
	require.NoError(t, err)
	assert.Equal(t, 9, live.Authority)
	assert.Equal(t, "77", live.DefaultRoleID)
	assert.Len(t, live.Roles, 4)
	assert.Len(t, live.Channels, 1)
}

func TestFetchLiveState_OwnerIsUnbounded(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddGuild(models.Guild{ID: "77", OwnerID: "self"}, nil, nil)

	live, err := FetchLiveState(context.Background(), fake, "77")
	require.NoError(t, err)
	assert.Equal(t, UnboundedAuthority, live.Authority)
	assert.NotContains(t, fake.Calls(), "get_member:77")
}

func TestFetchLiveState_MemberWithoutRoles(t *testing.T) {
	fake := testutil.NewFakeRemote()
	fake.AddGuild(models.Guild{ID: "77", OwnerID: "owner"}, nil, nil)
	fake.SetMember("77", "self")

	live, err := FetchLiveState(context.Background(), fake, "77")
	require.NoError(t, err)
	assert.Equal(t, 0, live.Authority)
}

func TestFetchLiveState_Errors(t *testing.T) {
	t.Run("unknown guild", func(t *testing.T) {
		_, err := FetchLiveState(context.Background(), testutil.NewFakeRemote(), "404")
		require.Error(t, err)
		assert.True(t, remote.IsNotFound(err))
	})

	t.Run("self lookup fails", func(t *testing.T) {
		fake := testutil.NewFakeRemote()
		fake.AddGuild(models.Guild{ID: "77"}, nil, nil)
		fake.Fail("get_self:", errors.New("unauthorized"))

		_, err := FetchLiveState(context.Background(), fake, "77")
		assert.ErrorContains(t, err, "unauthorized")
	})

	t.Run("not a member", func(t *testing.T) {
		fake := testutil.NewFakeRemote()
		fake.AddGuild(models.Guild{ID: "77", OwnerID: "owner"}, nil, nil)

		_, err := FetchLiveState(context.Background(), fake, "77")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "get member")
	})
}
