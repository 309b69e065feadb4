package models

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissions_NamedAccessors(t *testing.T) {
	p := PermViewChannel | PermSendMessages | PermManageRoles

	assert.True(t, p.ViewChannel())
	assert.True(t, p.SendMessages())
	assert.True(t, p.ManageRoles())
	assert.False(t, p.Administrator())
	assert.False(t, p.ManageChannels())
	assert.False(t, p.Connect())
	assert.True(t, p.Has(PermViewChannel|PermSendMessages))
	assert.False(t, p.Has(PermViewChannel|PermAdministrator))
}

func TestPermissions_MarshalAsDecimalString(t *testing.T) {
	data, err := json.Marshal(struct {
		P Permissions `json:"p"`
	}{P: PermAdministrator | PermManageRoles})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"268435464"}`, string(data))
}

func TestPermissions_UnmarshalStringNumberAndNull(t *testing.T) {
	var v struct {
		A Permissions `json:"a"`
		B Permissions `json:"b"`
		C Permissions `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1024","b":2048,"c":null}`), &v))
	assert.Equal(t, PermViewChannel, v.A)
	assert.Equal(t, PermSendMessages, v.B)
	assert.Equal(t, Permissions(0), v.C)
}

func TestPermissions_UnmarshalInvalid(t *testing.T) {
	var p Permissions
	assert.Error(t, p.UnmarshalJSON([]byte(`"abc"`)))
}

func TestPermissions_FullWidth(t *testing.T) {
	var p Permissions
	require.NoError(t, p.UnmarshalJSON([]byte(`"18446744073709551615"`)))
	assert.Equal(t, Permissions(^uint64(0)), p)
	assert.Equal(t, "18446744073709551615", p.String())
}
