package services

import (
	"context"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/providers"
	restoreInterfaces "guildsnap/internal/restore/interfaces"
	"guildsnap/internal/snapshot"
	"guildsnap/internal/snapshot/interfaces"
	"time"
)

type SnapshotServiceInterface interface {
	Capture(ctx context.Context, guildID, displayName string) (*models.Snapshot, error)
	List(ctx context.Context, guildID string) ([]models.SnapshotSummary, error)
	Get(ctx context.Context, guildID, snapshotID string) (*models.Snapshot, error)
	Delete(ctx context.Context, guildID, snapshotID string) error
	InitiateRestore(ctx context.Context, guildID, snapshotID, targetGuildID string) (*models.RestoreJob, error)
	GetJob(jobID string) (*models.RestoreJob, error)
	ListJobs() []*models.RestoreJob
}

type SnapshotService struct {
	capturer snapshot.CapturerInterface
	store    interfaces.StoreInterface
	runner   restoreInterfaces.RunnerInterface
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewSnapshotService(capturer snapshot.CapturerInterface, store interfaces.StoreInterface, runner restoreInterfaces.RunnerInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) SnapshotServiceInterface {
	return &SnapshotService{
		capturer: capturer,
		store:    store,
		runner:   runner,
		logger:   logger,
		metrics:  metrics,
	}
}

// Capture reads the guild and persists the snapshot. Nothing is stored
// when any read fails.
func (ss *SnapshotService) Capture(ctx context.Context, guildID, displayName string) (*models.Snapshot, error) {
	start := time.Now()
	s, err := ss.capturer.Capture(ctx, guildID, displayName)
	if err == nil {
		err = ss.store.Put(ctx, s)
	}
	ss.metrics.ObserveCapture(time.Since(start), err == nil)
	if err != nil {
		ss.logger.Errorf(providers.TypeApp, "Capture of guild %s failed: %s", guildID, err)
		return nil, err
	}

	ss.logger.Infof(providers.TypeApp, "Captured snapshot %s of guild %s (%d roles, %d channels)", s.ID, guildID, len(s.Roles), len(s.Channels))
	return s, nil
}

func (ss *SnapshotService) List(ctx context.Context, guildID string) ([]models.SnapshotSummary, error) {
	return ss.store.List(ctx, guildID)
}

func (ss *SnapshotService) Get(ctx context.Context, guildID, snapshotID string) (*models.Snapshot, error) {
	return ss.store.Get(ctx, guildID, snapshotID)
}

func (ss *SnapshotService) Delete(ctx context.Context, guildID, snapshotID string) error {
	if err := ss.store.Delete(ctx, guildID, snapshotID); err != nil {
		return err
	}
	ss.logger.Infof(providers.TypeApp, "Deleted snapshot %s of guild %s", snapshotID, guildID)
	return nil
}

// InitiateRestore loads the snapshot and hands it to the runner. A missing
// snapshot is reported here and nothing is submitted; the restore itself
// is only observable through the returned job.
func (ss *SnapshotService) InitiateRestore(ctx context.Context, guildID, snapshotID, targetGuildID string) (*models.RestoreJob, error) {
	s, err := ss.store.Get(ctx, guildID, snapshotID)
	if err != nil {
		return nil, err
	}
	job, err := ss.runner.Submit(s, targetGuildID)
	if err != nil {
		return nil, fmt.Errorf("submit restore of %s: %w", snapshotID, err)
	}
	return job, nil
}

func (ss *SnapshotService) GetJob(jobID string) (*models.RestoreJob, error) {
	return ss.runner.Get(jobID)
}

func (ss *SnapshotService) ListJobs() []*models.RestoreJob {
	return ss.runner.List()
}
