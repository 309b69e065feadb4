package restore

import (
	"context"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/providers"
	"guildsnap/internal/remote"
	"time"

	"golang.org/x/time/rate"
)

const (
	resultOK          = "ok"
	resultFailed      = "failed"
	resultRateLimited = "rate_limited"
)

// Executor runs a Plan against the remote, one call at a time.
type Executor struct {
	client  remote.ResourceClientInterface
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	pacing  time.Duration
}

func NewExecutor(client remote.ResourceClientInterface, logger providers.Logger, metrics providers.MetricsProviderInterface, pacing time.Duration) *Executor {
	return &Executor{client: client, logger: logger, metrics: metrics, pacing: pacing}
}

// Execute walks the plan in order. A failed operation is recorded and the
// run moves on; nothing is retried or rolled back. Consecutive remote calls
// are spaced by the fixed pacing interval. The remap built during the run
// is returned alongside the outcome.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (*models.RestoreOutcome, *IdentifierRemap) {
	outcome := models.NewRestoreOutcome(plan.SnapshotID, plan.TargetGuildID)
	remap := e.ExecuteInto(ctx, plan, outcome)
	return outcome, remap
}

// ExecuteInto is Execute recording into a caller-owned outcome, so the
// counts gathered so far survive a panic in the middle of the run.
func (e *Executor) ExecuteInto(ctx context.Context, plan *Plan, outcome *models.RestoreOutcome) *IdentifierRemap {
	remap := NewIdentifierRemap()

	if plan.DefaultRoleSourceID != "" && plan.DefaultRoleLiveID != "" && plan.DefaultRoleSourceID != plan.DefaultRoleLiveID {
		remap.MapRole(plan.DefaultRoleSourceID, plan.DefaultRoleLiveID)
	}
	for _, s := range plan.Skipped {
		outcome.RecordSkipped(s.Resource)
		e.logger.Debugf(providers.TypeRestore, "[%s] skip %s %s (%s): %s", plan.TargetGuildID, s.Resource, s.Name, s.ID, s.Reason)
	}

	limiter := e.newLimiter()
	for i, op := range plan.Operations {
		err := limiter.Wait(ctx)
		if err == nil {
			err = e.apply(ctx, plan.TargetGuildID, op, remap)
		}
		if err != nil {
			rateLimited := remote.IsRateLimited(err)
			outcome.RecordFailure(op.Op, op.Resource, op.Item(), err.Error(), rateLimited)
			e.report(op.Op, rateLimited)
			e.logger.Warnf(providers.TypeRestore, "[%s] %d/%d %s %s failed: %s", plan.TargetGuildID, i+1, len(plan.Operations), op.Op, op.Item(), err)
			continue
		}

		switch op.Op {
		case models.OpDeleteChannel, models.OpDeleteCategory, models.OpDeleteRole:
			outcome.RecordDeleted(op.Resource)
		default:
			outcome.RecordCreated(op.Resource)
		}
		e.metrics.IncRestoreOperations(string(op.Op), resultOK)
		e.logger.Debugf(providers.TypeRestore, "[%s] %d/%d %s %s", plan.TargetGuildID, i+1, len(plan.Operations), op.Op, op.Item())
	}

	outcome.Finish()
	return remap
}

func (e *Executor) newLimiter() *rate.Limiter {
	if e.pacing <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(e.pacing), 1)
}

func (e *Executor) report(op models.OpKind, rateLimited bool) {
	result := resultFailed
	if rateLimited {
		result = resultRateLimited
	}
	e.metrics.IncRestoreOperations(string(op), result)
}

func (e *Executor) apply(ctx context.Context, guildID string, op Operation, remap *IdentifierRemap) error {
	switch op.Op {
	case models.OpDeleteChannel, models.OpDeleteCategory:
		return e.client.DeleteChannel(ctx, op.LiveID)

	case models.OpDeleteRole:
		return e.client.DeleteRole(ctx, guildID, op.LiveID)

	case models.OpCreateRole:
		role, err := e.client.CreateRole(ctx, guildID, roleParams(op.Role))
		if err != nil {
			return err
		}
		remap.MapRole(op.Role.SourceID, role.ID)
		return nil

	case models.OpCreateCategory:
		ch, err := e.client.CreateChannel(ctx, guildID, channelParams(op.Channel, "", remap))
		if err != nil {
			return err
		}
		remap.MapCategory(op.Channel.SourceID, ch.ID)
		return nil

	case models.OpCreateChannel:
		parent := ResolveParent(op.Channel.ParentSourceID, remap)
		if parent == "" && op.Channel.ParentSourceID != "" {
			e.logger.Infof(providers.TypeRestore, "[%s] parent %s of %s was not recreated, creating it top-level", guildID, op.Channel.ParentSourceID, op.Item())
		}
		_, err := e.client.CreateChannel(ctx, guildID, channelParams(op.Channel, parent, remap))
		return err

	default:
		return fmt.Errorf("unknown operation %q", op.Op)
	}
}

func roleParams(r *models.RoleRecord) models.RoleParams {
	color, hoist, mentionable, perms := r.Color, r.Hoist, r.Mentionable, r.Permissions
	return models.RoleParams{
		Name:        r.Name,
		Color:       &color,
		Hoist:       &hoist,
		Mentionable: &mentionable,
		Permissions: &perms,
	}
}

func channelParams(c *models.ChannelRecord, parentID string, remap *IdentifierRemap) models.ChannelParams {
	chType, nsfw, position, slowmode := channelType(c), c.NSFW, c.Position, c.RateLimitSeconds
	params := models.ChannelParams{
		Name:                 c.Name,
		Type:                 &chType,
		Topic:                c.Topic,
		NSFW:                 &nsfw,
		Position:             &position,
		ParentID:             parentID,
		PermissionOverwrites: RemapOverwrites(c.PermissionOverwrites, remap),
	}
	switch c.Kind {
	case models.KindText:
		params.RateLimitPerUser = &slowmode
	case models.KindVoice:
		params.Bitrate = c.Bitrate
		params.UserLimit = c.UserLimit
	}
	return params
}

// channelType prefers the recorded remote type and falls back to the kind
// for documents that predate it.
func channelType(c *models.ChannelRecord) models.ChannelType {
	switch c.Kind {
	case models.KindCategory:
		return models.ChannelTypeCategory
	case models.KindVoice:
		if c.Type == models.ChannelTypeText {
			return models.ChannelTypeVoice
		}
	case models.KindText:
		return models.ChannelTypeText
	}
	return c.Type
}
