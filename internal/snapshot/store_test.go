package snapshot

import (
	"context"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/snapshot/interfaces"
	"guildsnap/internal/structures"
	"guildsnap/internal/testutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(owner, id string, capturedAt time.Time) *models.Snapshot {
	return &models.Snapshot{
		ID:           id,
		OwnerScopeID: owner,
		CapturedAt:   capturedAt,
		DisplayName:  models.DefaultDisplayName(capturedAt),
		Guild:        models.GuildInfo{Name: "Home", OwnerID: "owner"},
		Roles: []models.RoleRecord{
			{SourceID: owner, Name: models.DefaultRoleName, Permissions: models.PermViewChannel},
			{SourceID: "r1", Name: "Mod", Position: 5, Permissions: models.PermKickMembers | models.PermBanMembers, Hoist: true},
		},
		Channels: []models.ChannelRecord{
			{SourceID: "c1", Name: "General", Kind: models.KindCategory, Type: models.ChannelTypeCategory, PermissionOverwrites: []models.PermissionOverwriteRecord{}},
			{SourceID: "c2", Name: "chat", Kind: models.KindText, ParentSourceID: "c1", PermissionOverwrites: []models.PermissionOverwriteRecord{
				{PrincipalSourceID: "r1", PrincipalKind: models.PrincipalRole, Allow: models.PermSendMessages},
			}},
		},
	}
}

type storeFactory func(t *testing.T) interfaces.StoreInterface

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"file": func(t *testing.T) interfaces.StoreInterface {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "snapshots"), &testutil.MockCompressor{}, &testutil.MockLogger{})
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) interfaces.StoreInterface {
			db, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return NewSQLiteStore(db, &testutil.MockCompressor{})
		},
	}
}

func TestStore_PutGetRoundtrip(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()
			original := sampleSnapshot("42", "s1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

			require.NoError(t, store.Put(ctx, original))

			loaded, err := store.Get(ctx, "42", "s1")
			require.NoError(t, err)
			assert.Equal(t, original.Roles, loaded.Roles)
			assert.Equal(t, original.Channels, loaded.Channels)
			assert.Equal(t, original.Guild, loaded.Guild)
			assert.True(t, original.CapturedAt.Equal(loaded.CapturedAt))
		})
	}
}

func TestStore_GetMissingIsNotFound(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			_, err := store.Get(context.Background(), "42", "missing")
			assert.ErrorIs(t, err, interfaces.ErrNotFound)
		})
	}
}

func TestStore_PutIsAppendOnly(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()
			s := sampleSnapshot("42", "s1", time.Now())

			require.NoError(t, store.Put(ctx, s))
			assert.ErrorIs(t, store.Put(ctx, s), interfaces.ErrExists)
		})
	}
}

func TestStore_ListNewestFirstAndScopedByOwner(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

			require.NoError(t, store.Put(ctx, sampleSnapshot("42", "old", base)))
			require.NoError(t, store.Put(ctx, sampleSnapshot("42", "new", base.Add(time.Hour))))
			require.NoError(t, store.Put(ctx, sampleSnapshot("43", "other", base.Add(2*time.Hour))))

			list, err := store.List(ctx, "42")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "new", list[0].ID)
			assert.Equal(t, "old", list[1].ID)
			assert.Equal(t, 2, list[0].RoleCount)
			assert.Equal(t, 2, list[0].ChannelCount)

			empty, err := store.List(ctx, "99")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, sampleSnapshot("42", "s1", time.Now())))

			require.NoError(t, store.Delete(ctx, "42", "s1"))
			_, err := store.Get(ctx, "42", "s1")
			assert.ErrorIs(t, err, interfaces.ErrNotFound)

			list, err := store.List(ctx, "42")
			require.NoError(t, err)
			assert.Empty(t, list)

			assert.ErrorIs(t, store.Delete(ctx, "42", "s1"), interfaces.ErrNotFound)
		})
	}
}

func TestStore_RejectsPathLikeKeys(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			_, err := store.Get(context.Background(), "..", "x")
			assert.ErrorIs(t, err, interfaces.ErrInvalidKey)
			err = store.Put(context.Background(), sampleSnapshot("42", "../../etc", time.Now()))
			assert.ErrorIs(t, err, interfaces.ErrInvalidKey)
		})
	}
}

func TestStore_FirstPutListedOnce(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, sampleSnapshot("42", "s1", time.Now())))

			list, err := store.List(ctx, "42")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "s1", list[0].ID)
		})
	}
}

func TestFileStore_PutAfterLostIndexDoesNotDuplicate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	store, err := NewFileStore(dir, &testutil.MockCompressor{}, &testutil.MockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Put(ctx, sampleSnapshot("42", "s1", now)))
	require.NoError(t, os.Remove(filepath.Join(dir, "42", indexFileName)))
	require.NoError(t, store.Put(ctx, sampleSnapshot("42", "s2", now.Add(time.Minute))))

	list, err := store.List(ctx, "42")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s2", list[0].ID)
	assert.Equal(t, "s1", list[1].ID)
}

func TestAppendSummary_SkipsKnownID(t *testing.T) {
	summaries := []models.SnapshotSummary{{ID: "s1"}}
	summaries = appendSummary(summaries, models.SnapshotSummary{ID: "s1"})
	summaries = appendSummary(summaries, models.SnapshotSummary{ID: "s2"})
	require.Len(t, summaries, 2)
	assert.Equal(t, "s2", summaries[1].ID)
}

func TestFileStore_RebuildsMissingIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	store, err := NewFileStore(dir, &testutil.MockCompressor{}, &testutil.MockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(ctx, sampleSnapshot("42", fmt.Sprintf("s%d", i), time.Now().Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, os.Remove(filepath.Join(dir, "42", indexFileName)))

	list, err := store.List(ctx, "42")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "s2", list[0].ID)

	_, err = os.Stat(filepath.Join(dir, "42", indexFileName))
	assert.NoError(t, err, "index should be rewritten after rebuild")
}

func TestFileStore_CorruptIndexIsRebuilt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	logger := &testutil.MockLogger{}
	store, err := NewFileStore(dir, &testutil.MockCompressor{}, logger)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleSnapshot("42", "s1", time.Now())))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "42", indexFileName), []byte("{broken"), 0644))

	list, err := store.List(ctx, "42")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0].ID)
}

func TestFileStore_NoTmpFilesLeftBehind(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	store, err := NewFileStore(dir, &testutil.MockCompressor{}, &testutil.MockLogger{})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), sampleSnapshot("42", "s1", time.Now())))

	tmp, err := filepath.Glob(filepath.Join(dir, "42", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmp)
}

func TestFileStore_WithZstd(t *testing.T) {
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()

	dir := filepath.Join(t.TempDir(), "snapshots")
	store, err := NewFileStore(dir, comp, &testutil.MockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	original := sampleSnapshot("42", "s1", time.Now().UTC())
	require.NoError(t, store.Put(ctx, original))

	raw, err := os.ReadFile(filepath.Join(dir, "42", "s1"+snapshotExt))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 4)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4], "document should carry the zstd frame magic")

	loaded, err := store.Get(ctx, "42", "s1")
	require.NoError(t, err)
	assert.Equal(t, original.Channels, loaded.Channels)
}

func TestDecodeSnapshot_NormalizesOldDocuments(t *testing.T) {
	doc := []byte(`{"id":"s","ownerScopeId":"42","capturedAt":"2026-01-01T00:00:00Z","channels":[{"sourceId":"1","name":"cat","type":4},{"sourceId":"2","name":"vc","kind":"voice"}]}`)

	s, err := decodeSnapshot(&testutil.MockCompressor{}, doc)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01 00:00:00 UTC", s.DisplayName)
	assert.NotNil(t, s.Roles)
	assert.Equal(t, models.KindCategory, s.Channels[0].Kind)
	assert.Equal(t, models.ChannelTypeVoice, s.Channels[1].Type)
	assert.NotNil(t, s.Channels[1].PermissionOverwrites)
}

func TestNewStore_SelectsDriver(t *testing.T) {
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			conf := &structures.Config{Store: structures.StoreConfig{Driver: driver, Dir: t.TempDir()}}
			store, cleanup, err := NewStore(conf, &testutil.MockCompressor{}, &testutil.MockLogger{})
			require.NoError(t, err)
			defer cleanup()

			switch driver {
			case "file":
				assert.IsType(t, &FileStore{}, store)
			case "sqlite":
				assert.IsType(t, &SQLiteStore{}, store)
			}
		})
	}

	_, _, err := NewStore(&structures.Config{Store: structures.StoreConfig{Driver: "mongo"}}, &testutil.MockCompressor{}, &testutil.MockLogger{})
	assert.Error(t, err)
}
