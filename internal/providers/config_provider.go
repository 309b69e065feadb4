package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"guildsnap/internal/structures"
	"path/filepath"
	"strings"
	"time"
)

const AppName = "GuildSnapshotDaemon"

// Version is set at build time with -ldflags "-X guildsnap/internal/providers.Version=...".
var Version = "dev"

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("remote.authScheme", "Bot")
	v.SetDefault("remote.timeout", 15*time.Second)
	v.SetDefault("restore.pacing", time.Second)
	v.SetDefault("restore.workers", 2)
	v.SetDefault("restore.queueSize", 16)
	v.SetDefault("restore.jobTTL", 24*time.Hour)
	v.SetDefault("restore.shutdownGrace", 30*time.Second)
	v.SetDefault("store.driver", "file")
	v.SetDefault("cache.ttl", 30*time.Second)

	v.BindEnv("logger.level", "GUILDSNAP_LOG_LEVEL")
	v.BindEnv("remote.baseURL", "GUILDSNAP_REMOTE_URL")
	v.BindEnv("remote.token", "GUILDSNAP_REMOTE_TOKEN")
	v.BindEnv("restore.pacing", "GUILDSNAP_RESTORE_PACING")
	v.BindEnv("store.driver", "GUILDSNAP_STORE_DRIVER")
	v.BindEnv("store.dir", "GUILDSNAP_STORE_DIR")
	v.BindEnv("cache.enabled", "GUILDSNAP_CACHE_ENABLED")
	v.BindEnv("api.key", "GUILDSNAP_API_KEY")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = AppName
	conf.Version = Version
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
