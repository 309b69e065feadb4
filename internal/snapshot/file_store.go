package snapshot

import (
	"context"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/providers"
	"guildsnap/internal/snapshot/interfaces"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
)

const (
	snapshotExt   = ".snap.zst"
	indexFileName = "index.json"
)

// indexFile is the per-owner summary index. It lets List answer without
// decompressing every snapshot document.
type indexFile struct {
	Version   int                      `json:"version"`
	Summaries []models.SnapshotSummary `json:"summaries"`
}

// FileStore keeps one compressed JSON document per snapshot under
// <dir>/<owner>/<id>.snap.zst next to a per-owner index.json.
type FileStore struct {
	mu         sync.RWMutex
	dir        string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileStore(dir string, compressor interfaces.CompressorInterface, logger providers.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}
	return &FileStore{
		dir:        dir,
		compressor: compressor,
		logger:     logger,
	}, nil
}

func (fs *FileStore) Put(_ context.Context, s *models.Snapshot) error {
	if err := validateKey(s.OwnerScopeID, s.ID); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	path := fs.snapshotPath(s.OwnerScopeID, s.ID)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s/%s", interfaces.ErrExists, s.OwnerScopeID, s.ID)
	}

	data, err := encodeSnapshot(fs.compressor, s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	// loaded before the write so a rebuild from disk cannot see the new document
	idx := fs.loadIndex(s.OwnerScopeID)
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}

	idx.Summaries = appendSummary(idx.Summaries, s.Summary())
	if err := fs.writeIndex(s.OwnerScopeID, idx); err != nil {
		// the document is durable; the index is rebuilt from documents on next read
		fs.logger.Errorf(providers.TypeApp, "Failed to update snapshot index for %s: %s", s.OwnerScopeID, err)
	}
	return nil
}

func (fs *FileStore) Get(_ context.Context, ownerScopeID, id string) (*models.Snapshot, error) {
	if err := validateKey(ownerScopeID, id); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.snapshotPath(ownerScopeID, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", interfaces.ErrNotFound, ownerScopeID, id)
		}
		return nil, err
	}
	return decodeSnapshot(fs.compressor, data)
}

func (fs *FileStore) List(_ context.Context, ownerScopeID string) ([]models.SnapshotSummary, error) {
	if err := validateKey(ownerScopeID); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	idx := fs.loadIndex(ownerScopeID)
	summaries := append([]models.SnapshotSummary(nil), idx.Summaries...)
	sortSummaries(summaries)
	return summaries, nil
}

func (fs *FileStore) Delete(_ context.Context, ownerScopeID, id string) error {
	if err := validateKey(ownerScopeID, id); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	err := os.Remove(fs.snapshotPath(ownerScopeID, id))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s/%s", interfaces.ErrNotFound, ownerScopeID, id)
		}
		return err
	}

	idx := fs.loadIndex(ownerScopeID)
	kept := idx.Summaries[:0]
	for _, sum := range idx.Summaries {
		if sum.ID != id {
			kept = append(kept, sum)
		}
	}
	idx.Summaries = kept
	if err := fs.writeIndex(ownerScopeID, idx); err != nil {
		fs.logger.Errorf(providers.TypeApp, "Failed to update snapshot index for %s: %s", ownerScopeID, err)
	}
	return nil
}

func sortSummaries(summaries []models.SnapshotSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].CapturedAt.Equal(summaries[j].CapturedAt) {
			return summaries[i].ID > summaries[j].ID
		}
		return summaries[i].CapturedAt.After(summaries[j].CapturedAt)
	})
}

// loadIndex reads the owner's index, rebuilding it from the documents on
// disk when it is missing or unreadable. Must be called under fs.mu.
func (fs *FileStore) loadIndex(ownerScopeID string) *indexFile {
	data, err := os.ReadFile(fs.indexPath(ownerScopeID))
	if err == nil {
		var idx indexFile
		if err := json.Unmarshal(data, &idx); err == nil {
			return &idx
		}
		fs.logger.Warnf(providers.TypeApp, "Corrupt snapshot index for %s, rebuilding", ownerScopeID)
	} else if !os.IsNotExist(err) {
		fs.logger.Errorf(providers.TypeApp, "Failed to read snapshot index for %s: %s", ownerScopeID, err)
	}
	return fs.rebuildIndex(ownerScopeID)
}

func (fs *FileStore) rebuildIndex(ownerScopeID string) *indexFile {
	idx := &indexFile{Version: 1, Summaries: make([]models.SnapshotSummary, 0)}

	files, err := filepath.Glob(filepath.Join(fs.dir, ownerScopeID, "*"+snapshotExt))
	if err != nil || len(files) == 0 {
		return idx
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			fs.logger.Errorf(providers.TypeApp, "Failed to read snapshot %s: %s", file, err)
			continue
		}
		s, err := decodeSnapshot(fs.compressor, data)
		if err != nil {
			fs.logger.Errorf(providers.TypeApp, "Failed to decode snapshot %s: %s", file, err)
			continue
		}
		if id := snapshotIDFromPath(file); s.ID != id {
			fs.logger.Warnf(providers.TypeApp, "Snapshot file %s carries id %s, indexing under file name", file, s.ID)
			s.ID = id
		}
		idx.Summaries = append(idx.Summaries, s.Summary())
	}
	if err := fs.writeIndex(ownerScopeID, idx); err != nil {
		fs.logger.Errorf(providers.TypeApp, "Failed to write rebuilt index for %s: %s", ownerScopeID, err)
	}
	return idx
}

func (fs *FileStore) writeIndex(ownerScopeID string, idx *indexFile) error {
	idx.Version = 1
	data, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	path := fs.indexPath(ownerScopeID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func (fs *FileStore) snapshotPath(ownerScopeID, id string) string {
	return filepath.Join(fs.dir, ownerScopeID, id+snapshotExt)
}

func (fs *FileStore) indexPath(ownerScopeID string) string {
	return filepath.Join(fs.dir, ownerScopeID, indexFileName)
}

// snapshotIDFromPath extracts the snapshot id from a document path.
// "<dir>/42/0190.snap.zst" → "0190"
func snapshotIDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), snapshotExt)
}

// writeFileAtomic writes through a synced temporary file and renames it
// over the destination.
func writeFileAtomic(fileName string, data []byte) error {
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

var _ interfaces.StoreInterface = (*FileStore)(nil)

func appendSummary(summaries []models.SnapshotSummary, sum models.SnapshotSummary) []models.SnapshotSummary {
	for _, existing := range summaries {
		if existing.ID == sum.ID {
			return summaries
		}
	}
	return append(summaries, sum)
}
