package snapshot

import (
	"context"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/providers"
	"guildsnap/internal/remote"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type CapturerInterface interface {
	Capture(ctx context.Context, guildID, displayName string) (*models.Snapshot, error)
}

// Capturer reads a guild's roles, channels and metadata and assembles a
// Snapshot. It never persists anything itself.
type Capturer struct {
	client remote.ResourceClientInterface
	logger providers.Logger
	now    func() time.Time
}

func NewCapturer(client remote.ResourceClientInterface, logger providers.Logger) *Capturer {
	return &Capturer{client: client, logger: logger, now: time.Now}
}

// Capture issues the three reads concurrently. Any failed read fails the
// whole capture and no snapshot is returned.
func (c *Capturer) Capture(ctx context.Context, guildID, displayName string) (*models.Snapshot, error) {
	var (
		guild    *models.Guild
		roles    []models.Role
		channels []models.Channel
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		channels, err = c.client.ListChannels(gctx, guildID)
		if err != nil {
			return fmt.Errorf("list channels: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		roles, err = c.client.ListRoles(gctx, guildID)
		if err != nil {
			return fmt.Errorf("list roles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		guild, err = c.client.GetGuild(gctx, guildID)
		if err != nil {
			return fmt.Errorf("get guild: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("capture guild %s: %w", guildID, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate snapshot id: %w", err)
	}

	capturedAt := c.now().UTC()
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = models.DefaultDisplayName(capturedAt)
	}

	s := &models.Snapshot{
		ID:           id.String(),
		OwnerScopeID: guildID,
		CapturedAt:   capturedAt,
		DisplayName:  displayName,
		Guild:        models.GuildInfo{Name: guild.Name, OwnerID: guild.OwnerID},
		Roles:        roleRecords(roles),
		Channels:     channelRecords(channels),
	}

	if s.DefaultRole() == nil {
		c.logger.Warnf(providers.TypeApp, "Guild %s returned no %s role", guildID, models.DefaultRoleName)
	}
	c.logger.Debugf(providers.TypeApp, "Captured guild %s: %d roles, %d channels", guildID, len(s.Roles), len(s.Channels))
	return s, nil
}

func roleRecords(roles []models.Role) []models.RoleRecord {
	records := make([]models.RoleRecord, 0, len(roles))
	for _, r := range roles {
		records = append(records, models.NewRoleRecord(r))
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Position != records[j].Position {
			return records[i].Position < records[j].Position
		}
		return records[i].SourceID < records[j].SourceID
	})
	return records
}

// channelRecords converts and orders channels. A parent reference that
// does not name a category from the same read is dropped, so every
// recorded parent resolves to a category record.
func channelRecords(channels []models.Channel) []models.ChannelRecord {
	categories := make(map[string]struct{})
	for _, ch := range channels {
		if ch.Type == models.ChannelTypeCategory {
			categories[ch.ID] = struct{}{}
		}
	}

	records := make([]models.ChannelRecord, 0, len(channels))
	for _, ch := range channels {
		rec := models.NewChannelRecord(ch)
		if rec.IsCategory() {
			rec.ParentSourceID = ""
		} else if _, ok := categories[rec.ParentSourceID]; !ok {
			rec.ParentSourceID = ""
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Position != records[j].Position {
			return records[i].Position < records[j].Position
		}
		return records[i].SourceID < records[j].SourceID
	})
	return records
}

var _ CapturerInterface = (*Capturer)(nil)
