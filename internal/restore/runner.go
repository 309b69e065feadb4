package restore

import (
	"context"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/providers"
	"guildsnap/internal/remote"
	"guildsnap/internal/restore/interfaces"
	"guildsnap/internal/structures"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roylee0704/gron"
)

const maxPruneInterval = time.Minute

type task struct {
	job      *models.RestoreJob
	snapshot *models.Snapshot
}

// Runner executes restores on a fixed pool of workers fed by a bounded
// queue. At most one restore per target guild is queued or running.
type Runner struct {
	config   *structures.Config
	client   remote.ResourceClientInterface
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	executor *Executor

	mu      sync.Mutex
	jobs    map[string]*models.RestoreJob
	active  map[string]string
	queue   chan task
	stopped bool
	started bool

	wg   sync.WaitGroup
	cron *gron.Cron
	now  func() time.Time
}

func NewRunner(config *structures.Config, client remote.ResourceClientInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) interfaces.RunnerInterface {
	return newRunner(config, client, logger, metrics)
}

func newRunner(config *structures.Config, client remote.ResourceClientInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *Runner {
	queueSize := config.Restore.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}
	return &Runner{
		config:   config,
		client:   client,
		logger:   logger,
		metrics:  metrics,
		executor: NewExecutor(client, logger, metrics, config.Restore.Pacing),
		jobs:     make(map[string]*models.RestoreJob),
		active:   make(map[string]string),
		queue:    make(chan task, queueSize),
		now:      time.Now,
	}
}

// Init starts the workers and the pruning of finished jobs.
func (r *Runner) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true

	workers := r.config.Restore.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	if r.config.Restore.JobTTL > 0 {
		r.cron = gron.New()
		r.cron.AddFunc(gron.Every(r.pruneInterval()), func() {
			r.prune(r.now())
		})
		r.cron.Start()
	}
	r.logger.Infof(providers.TypeRestore, "Restore runner started with %d workers", workers)
}

// Submit queues a restore of snapshot onto targetGuildID, or onto the
// snapshot's own guild when targetGuildID is empty, and returns at once.
func (r *Runner) Submit(snapshot *models.Snapshot, targetGuildID string) (*models.RestoreJob, error) {
	if targetGuildID == "" {
		targetGuildID = snapshot.OwnerScopeID
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate job id: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return nil, interfaces.ErrRunnerStopped
	}
	if running, ok := r.active[targetGuildID]; ok {
		return nil, fmt.Errorf("%w: guild %s, job %s", interfaces.ErrRestoreInFlight, targetGuildID, running)
	}

	job := &models.RestoreJob{
		ID:            id.String(),
		SnapshotID:    snapshot.ID,
		OwnerScopeID:  snapshot.OwnerScopeID,
		TargetGuildID: targetGuildID,
		Status:        models.JobQueued,
		SubmittedAt:   r.now().UTC(),
	}
	select {
	case r.queue <- task{job: job, snapshot: snapshot}:
	default:
		return nil, interfaces.ErrQueueFull
	}

	r.jobs[job.ID] = job
	r.active[targetGuildID] = job.ID
	r.metrics.SetRestoresInFlight(len(r.active))
	r.logger.Infof(providers.TypeRestore, "Restore job %s queued: snapshot %s onto guild %s", job.ID, snapshot.ID, targetGuildID)

	clone := *job
	return &clone, nil
}

func (r *Runner) Get(jobID string) (*models.RestoreJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrJobNotFound, jobID)
	}
	clone := *job
	return &clone, nil
}

// List returns every retained job, newest first.
func (r *Runner) List() []*models.RestoreJob {
	r.mu.Lock()
	jobs := make([]*models.RestoreJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		clone := *job
		jobs = append(jobs, &clone)
	}
	r.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].SubmittedAt.Equal(jobs[j].SubmittedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].SubmittedAt.After(jobs[j].SubmittedAt)
	})
	return jobs
}

// Stop refuses new jobs and waits for queued and running ones to finish,
// or for ctx to expire. Jobs queued on a runner that was never started
// are failed.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.queue)
	if r.cron != nil {
		r.cron.Stop()
	}
	var abandoned []task
	if !r.started {
		for t := range r.queue {
			abandoned = append(abandoned, t)
		}
	}
	r.mu.Unlock()

	for _, t := range abandoned {
		outcome := models.NewRestoreOutcome(t.snapshot.ID, t.job.TargetGuildID)
		outcome.Fatal = interfaces.ErrRunnerStopped.Error()
		r.finish(t.job, outcome, r.now())
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Infof(providers.TypeRestore, "Restore runner stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("restore runner stop: %w", ctx.Err())
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for t := range r.queue {
		r.run(t)
	}
}

// run drives one job through planning and execution. Only a failure to
// read the target or a panic marks the job failed; per-operation failures
// leave it completed with the failures listed in the outcome.
func (r *Runner) run(t task) {
	job := t.job
	outcome := models.NewRestoreOutcome(t.snapshot.ID, job.TargetGuildID)
	started := r.now()

	r.mu.Lock()
	startedAt := started.UTC()
	job.Status = models.JobRunning
	job.StartedAt = &startedAt
	r.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			outcome.Fatal = fmt.Sprintf("panic: %v", rec)
			r.logger.Errorf(providers.TypeRestore, "Restore job %s panicked: %v\n%s", job.ID, rec, debug.Stack())
		}
		r.finish(job, outcome, started)
	}()

	// a restore is not cancelled mid-way, so the job gets its own context
	ctx := context.Background()

	live, err := FetchLiveState(ctx, r.client, job.TargetGuildID)
	if err != nil {
		outcome.Fatal = err.Error()
		r.logger.Errorf(providers.TypeRestore, "Restore job %s: %s", job.ID, err)
		return
	}

	plan := NewPlan(t.snapshot, live, live.Authority)
	r.logger.Infof(providers.TypeRestore, "Restore job %s running: %d operations, %d skipped, authority %d",
		job.ID, len(plan.Operations), len(plan.Skipped), plan.Authority)

	r.executor.ExecuteInto(ctx, plan, outcome)
}

func (r *Runner) finish(job *models.RestoreJob, outcome *models.RestoreOutcome, started time.Time) {
	if outcome.FinishedAt.IsZero() {
		outcome.Finish()
	}
	status := models.JobCompleted
	if outcome.Fatal != "" {
		status = models.JobFailed
	}

	r.mu.Lock()
	finishedAt := r.now().UTC()
	job.Status = status
	job.FinishedAt = &finishedAt
	job.Outcome = outcome
	if r.active[job.TargetGuildID] == job.ID {
		delete(r.active, job.TargetGuildID)
	}
	inFlight := len(r.active)
	r.mu.Unlock()

	r.metrics.SetRestoresInFlight(inFlight)
	r.metrics.IncRestoreJobs(string(status))
	r.metrics.ObserveRestoreDuration(r.now().Sub(started))

	if status == models.JobFailed {
		r.logger.Errorf(providers.TypeRestore, "Restore job %s failed: %s", job.ID, outcome)
		return
	}
	for _, f := range outcome.Failures {
		r.logger.Warnf(providers.TypeRestore, "Restore job %s: %s %s: %s", job.ID, f.Op, f.Item, f.Reason)
	}
	r.logger.Infof(providers.TypeRestore, "Restore job %s completed: %s", job.ID, outcome)
}

func (r *Runner) pruneInterval() time.Duration {
	interval := r.config.Restore.JobTTL / 2
	if interval > maxPruneInterval {
		interval = maxPruneInterval
	}
	if interval <= 0 {
		interval = r.config.Restore.JobTTL
	}
	return interval
}

// prune forgets finished jobs older than the configured TTL.
func (r *Runner) prune(now time.Time) int {
	ttl := r.config.Restore.JobTTL
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, job := range r.jobs {
		if job.Done() && job.FinishedAt != nil && now.Sub(*job.FinishedAt) > ttl {
			delete(r.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debugf(providers.TypeRestore, "Pruned %d finished restore jobs", removed)
	}
	return removed
}
