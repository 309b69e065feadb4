package testutil

import (
	"context"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/restore/interfaces"
	"sync"
	"time"
)

// MockRunner implements interfaces.RunnerInterface without running
// anything. Submitted jobs stay queued unless SubmitErr is set.
type MockRunner struct {
	mu        sync.Mutex
	Jobs      map[string]*models.RestoreJob
	Submitted []*models.Snapshot
	SubmitErr error
	Stopped   bool
	seq       int
}

func NewMockRunner() *MockRunner {
	return &MockRunner{Jobs: make(map[string]*models.RestoreJob)}
}

func (m *MockRunner) Init() {}

func (m *MockRunner) Submit(snapshot *models.Snapshot, targetGuildID string) (*models.RestoreJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubmitErr != nil {
		return nil, m.SubmitErr
	}
	if targetGuildID == "" {
		targetGuildID = snapshot.OwnerScopeID
	}
	m.seq++
	job := &models.RestoreJob{
		ID:            fmt.Sprintf("job-%d", m.seq),
		SnapshotID:    snapshot.ID,
		OwnerScopeID:  snapshot.OwnerScopeID,
		TargetGuildID: targetGuildID,
		Status:        models.JobQueued,
		SubmittedAt:   time.Now().UTC(),
	}
	m.Jobs[job.ID] = job
	m.Submitted = append(m.Submitted, snapshot)
	return job, nil
}

func (m *MockRunner) Get(jobID string) (*models.RestoreJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.Jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrJobNotFound, jobID)
	}
	return job, nil
}

func (m *MockRunner) List() []*models.RestoreJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := make([]*models.RestoreJob, 0, len(m.Jobs))
	for _, job := range m.Jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

func (m *MockRunner) Stop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stopped = true
	return nil
}

func (m *MockRunner) SubmittedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Submitted)
}

var _ interfaces.RunnerInterface = (*MockRunner)(nil)
