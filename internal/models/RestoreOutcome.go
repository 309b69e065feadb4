package models

import (
	"fmt"
	"time"
)

type ResourceKind string

const (
	ResourceRole     ResourceKind = "role"
	ResourceCategory ResourceKind = "category"
	ResourceChannel  ResourceKind = "channel"
)

type OpKind string

const (
	OpDeleteChannel  OpKind = "delete_channel"
	OpDeleteCategory OpKind = "delete_category"
	OpDeleteRole     OpKind = "delete_role"
	OpCreateRole     OpKind = "create_role"
	OpCreateCategory OpKind = "create_category"
	OpCreateChannel  OpKind = "create_channel"
)

type KindCounts struct {
	Deleted int `json:"deleted"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type RestoreFailure struct {
	Op          OpKind       `json:"op"`
	Resource    ResourceKind `json:"resource"`
	Item        string       `json:"item"`
	Reason      string       `json:"reason"`
	RateLimited bool         `json:"rateLimited,omitempty"`
}

// RestoreOutcome is the terminal report of one restore execution.
// Fatal is set only when the run could not proceed at all; per-operation
// failures live in Failures.
type RestoreOutcome struct {
	SnapshotID    string           `json:"snapshotId"`
	TargetGuildID string           `json:"targetGuildId"`
	StartedAt     time.Time        `json:"startedAt"`
	FinishedAt    time.Time        `json:"finishedAt"`
	Roles         KindCounts       `json:"roles"`
	Categories    KindCounts       `json:"categories"`
	Channels      KindCounts       `json:"channels"`
	Failures      []RestoreFailure `json:"failures"`
	RateLimited   int              `json:"rateLimited"`
	Fatal         string           `json:"fatal,omitempty"`
}

func NewRestoreOutcome(snapshotID, targetGuildID string) *RestoreOutcome {
	return &RestoreOutcome{
		SnapshotID:    snapshotID,
		TargetGuildID: targetGuildID,
		StartedAt:     time.Now().UTC(),
		Failures:      make([]RestoreFailure, 0),
	}
}

func (o *RestoreOutcome) Counts(kind ResourceKind) *KindCounts {
	switch kind {
	case ResourceRole:
		return &o.Roles
	case ResourceCategory:
		return &o.Categories
	default:
		return &o.Channels
	}
}

func (o *RestoreOutcome) RecordDeleted(kind ResourceKind) { o.Counts(kind).Deleted++ }
func (o *RestoreOutcome) RecordCreated(kind ResourceKind) { o.Counts(kind).Created++ }
func (o *RestoreOutcome) RecordSkipped(kind ResourceKind) { o.Counts(kind).Skipped++ }

func (o *RestoreOutcome) RecordFailure(op OpKind, kind ResourceKind, item string, reason string, rateLimited bool) {
	o.Counts(kind).Failed++
	if rateLimited {
		o.RateLimited++
	}
	o.Failures = append(o.Failures, RestoreFailure{
		Op:          op,
		Resource:    kind,
		Item:        item,
		Reason:      reason,
		RateLimited: rateLimited,
	})
}

func (o *RestoreOutcome) Finish() {
	o.FinishedAt = time.Now().UTC()
}

func (o *RestoreOutcome) Succeeded() bool {
	return o.Fatal == "" && len(o.Failures) == 0
}

func (o *RestoreOutcome) String() string {
	if o.Fatal != "" {
		return fmt.Sprintf("restore of %s onto %s aborted: %s", o.SnapshotID, o.TargetGuildID, o.Fatal)
	}
	return fmt.Sprintf("restore of %s onto %s: roles %+v, categories %+v, channels %+v, failures=%d (rate limited %d)",
		o.SnapshotID, o.TargetGuildID, o.Roles, o.Categories, o.Channels, len(o.Failures), o.RateLimited)
}
