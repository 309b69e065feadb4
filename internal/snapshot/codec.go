package snapshot

import (
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/snapshot/interfaces"
	"regexp"

	json "github.com/goccy/go-json"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func validateKey(parts ...string) error {
	for _, p := range parts {
		if !keyPattern.MatchString(p) {
			return fmt.Errorf("%w: %q", interfaces.ErrInvalidKey, p)
		}
	}
	return nil
}

func encodeSnapshot(compressor interfaces.CompressorInterface, s *models.Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return compressor.Compress(data)
}

func decodeSnapshot(compressor interfaces.CompressorInterface, data []byte) (*models.Snapshot, error) {
	raw, err := compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var s models.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	normalize(&s)
	return &s, nil
}

// normalize fills fields that older documents did not carry.
func normalize(s *models.Snapshot) {
	if s.Roles == nil {
		s.Roles = make([]models.RoleRecord, 0)
	}
	if s.Channels == nil {
		s.Channels = make([]models.ChannelRecord, 0)
	}
	if s.DisplayName == "" && !s.CapturedAt.IsZero() {
		s.DisplayName = models.DefaultDisplayName(s.CapturedAt)
	}
	for i := range s.Channels {
		ch := &s.Channels[i]
		if ch.Kind == "" {
			ch.Kind = models.KindOf(ch.Type)
		}
		if ch.Kind == models.KindCategory && ch.Type == 0 {
			ch.Type = models.ChannelTypeCategory
		}
		if ch.Kind == models.KindVoice && ch.Type == 0 {
			ch.Type = models.ChannelTypeVoice
		}
		if ch.PermissionOverwrites == nil {
			ch.PermissionOverwrites = make([]models.PermissionOverwriteRecord, 0)
		}
	}
}
