package models

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// RestoreJob is the handle of one submitted restore. Outcome is set once
// the job reaches a terminal status.
type RestoreJob struct {
	ID            string          `json:"id"`
	SnapshotID    string          `json:"snapshotId"`
	OwnerScopeID  string          `json:"ownerScopeId"`
	TargetGuildID string          `json:"targetGuildId"`
	Status        JobStatus       `json:"status"`
	SubmittedAt   time.Time       `json:"submittedAt"`
	StartedAt     *time.Time      `json:"startedAt,omitempty"`
	FinishedAt    *time.Time      `json:"finishedAt,omitempty"`
	Outcome       *RestoreOutcome `json:"outcome,omitempty"`
}

func (j *RestoreJob) Done() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
