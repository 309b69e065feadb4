package interfaces

import (
	"context"
	"errors"
	"guildsnap/internal/models"
)

var (
	ErrNotFound   = errors.New("snapshot not found")
	ErrExists     = errors.New("snapshot already exists")
	ErrInvalidKey = errors.New("invalid snapshot key")
)

// StoreInterface persists snapshot documents keyed by (owner scope, id).
// Documents are written once and never updated in place.
type StoreInterface interface {
	Put(ctx context.Context, snapshot *models.Snapshot) error
	Get(ctx context.Context, ownerScopeID, id string) (*models.Snapshot, error)
	List(ctx context.Context, ownerScopeID string) ([]models.SnapshotSummary, error)
	Delete(ctx context.Context, ownerScopeID, id string) error
}
