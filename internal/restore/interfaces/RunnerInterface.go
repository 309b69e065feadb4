package interfaces

import (
	"context"
	"errors"
	"guildsnap/internal/models"
)

var (
	ErrRestoreInFlight = errors.New("a restore is already in flight for this guild")
	ErrQueueFull       = errors.New("restore queue is full")
	ErrRunnerStopped   = errors.New("restore runner is stopped")
	ErrJobNotFound     = errors.New("restore job not found")
)

type RunnerInterface interface {
	Init()
	Submit(snapshot *models.Snapshot, targetGuildID string) (*models.RestoreJob, error)
	Get(jobID string) (*models.RestoreJob, error)
	List() []*models.RestoreJob
	Stop(ctx context.Context) error
}
