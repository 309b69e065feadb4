package providers

import (
	"guildsnap/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
		Remote: structures.RemoteConfig{
			BaseURL: "https://discord.com/api/v10",
			Token:   "secret",
		},
		Restore: structures.RestoreConfig{
			Pacing:    time.Second,
			Workers:   2,
			QueueSize: 8,
		},
		Store: structures.StoreConfig{
			Driver: "file",
			Dir:    "/tmp/snapshots",
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_MissingToken(t *testing.T) {
	c := validConfig()
	c.Remote.Token = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_UnknownStoreDriver(t *testing.T) {
	c := validConfig()
	c.Store.Driver = "postgres"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroWorkers(t *testing.T) {
	c := validConfig()
	c.Restore.Workers = 0
	assert.Error(t, NewCnfValidator(c).Validate())
}
