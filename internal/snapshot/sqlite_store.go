package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/snapshot/interfaces"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
    owner_scope_id TEXT    NOT NULL,
    id             TEXT    NOT NULL,
    display_name   TEXT    NOT NULL,
    captured_at    INTEGER NOT NULL, -- milliseconds since epoch
    role_count     INTEGER NOT NULL,
    channel_count  INTEGER NOT NULL,
    document       BLOB    NOT NULL,
    PRIMARY KEY (owner_scope_id, id)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_recency ON snapshots (owner_scope_id, captured_at DESC);
`

// SQLiteStore keeps the same compressed documents as FileStore in one
// SQLite table; summary columns are duplicated so List never reads the blob.
type SQLiteStore struct {
	db         *sql.DB
	compressor interfaces.CompressorInterface
}

// OpenSQLite opens (or creates) the database at path and ensures the schema
// exists. Pragmas go through the DSN so every pooled connection gets them.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite store: mkdir: %w", err)
		}
	}
	dsn := path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	if path == ":memory:" {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: schema: %w", err)
	}
	return db, nil
}

func NewSQLiteStore(db *sql.DB, compressor interfaces.CompressorInterface) *SQLiteStore {
	return &SQLiteStore{db: db, compressor: compressor}
}

func (s *SQLiteStore) Put(ctx context.Context, snap *models.Snapshot) error {
	if err := validateKey(snap.OwnerScopeID, snap.ID); err != nil {
		return err
	}
	doc, err := encodeSnapshot(s.compressor, snap)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (owner_scope_id, id, display_name, captured_at, role_count, channel_count, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_scope_id, id) DO NOTHING`,
		snap.OwnerScopeID, snap.ID, snap.DisplayName, snap.CapturedAt.UnixMilli(), len(snap.Roles), len(snap.Channels), doc)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s/%s", interfaces.ErrExists, snap.OwnerScopeID, snap.ID)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, ownerScopeID, id string) (*models.Snapshot, error) {
	if err := validateKey(ownerScopeID, id); err != nil {
		return nil, err
	}
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM snapshots WHERE owner_scope_id = ? AND id = ?`, ownerScopeID, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", interfaces.ErrNotFound, ownerScopeID, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return decodeSnapshot(s.compressor, doc)
}

func (s *SQLiteStore) List(ctx context.Context, ownerScopeID string) ([]models.SnapshotSummary, error) {
	if err := validateKey(ownerScopeID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, captured_at, role_count, channel_count
		 FROM snapshots WHERE owner_scope_id = ?
		 ORDER BY captured_at DESC, id DESC`, ownerScopeID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.SnapshotSummary, 0)
	for rows.Next() {
		var sum models.SnapshotSummary
		var capturedAt int64
		if err := rows.Scan(&sum.ID, &sum.DisplayName, &capturedAt, &sum.RoleCount, &sum.ChannelCount); err != nil {
			return nil, err
		}
		sum.CapturedAt = time.UnixMilli(capturedAt).UTC()
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, ownerScopeID, id string) error {
	if err := validateKey(ownerScopeID, id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE owner_scope_id = ? AND id = ?`, ownerScopeID, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s/%s", interfaces.ErrNotFound, ownerScopeID, id)
	}
	return nil
}

var _ interfaces.StoreInterface = (*SQLiteStore)(nil)
