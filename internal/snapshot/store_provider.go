package snapshot

import (
	"fmt"
	"guildsnap/internal/providers"
	"guildsnap/internal/snapshot/interfaces"
	"guildsnap/internal/structures"
	"path/filepath"
)

const sqliteFileName = "snapshots.db"

// NewStore builds the snapshot store selected by conf.Store.Driver. The
// returned cleanup releases the backend and the compressor.
func NewStore(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) (interfaces.StoreInterface, func(), error) {
	switch conf.Store.Driver {
	case "sqlite":
		path := filepath.Join(conf.Store.Dir, sqliteFileName)
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof(providers.TypeApp, "Snapshot store: sqlite at %s", path)
		return NewSQLiteStore(db, compressor), func() {
			db.Close()
			compressor.Close()
		}, nil
	case "file", "":
		store, err := NewFileStore(conf.Store.Dir, compressor, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof(providers.TypeApp, "Snapshot store: files under %s", conf.Store.Dir)
		return store, compressor.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot store driver %q", conf.Store.Driver)
	}
}
