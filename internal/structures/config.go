package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type RemoteConfig struct {
	BaseURL    string        `yaml:"baseURL" validate:"required|fullUrl"`
	Token      string        `yaml:"token" validate:"required"`
	AuthScheme string        `yaml:"authScheme"`
	Timeout    time.Duration `yaml:"timeout"`
}

type RestoreConfig struct {
	Pacing        time.Duration `yaml:"pacing" validate:"required|min:1"`
	Workers       int           `yaml:"workers" validate:"required|min:1"`
	QueueSize     int           `yaml:"queueSize" validate:"required|min:1"`
	JobTTL        time.Duration `yaml:"jobTTL"`
	ShutdownGrace time.Duration `yaml:"shutdownGrace"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" validate:"required|in:file,sqlite"`
	Dir    string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type ApiConfig struct {
	Key string `yaml:"key"`
}

type Config struct {
	AppName   string
	Version   string
	Debug     bool
	Path      string
	WebServer Server        `yaml:"webServer"`
	Logger    LoggerConfig  `yaml:"logger"`
	Remote    RemoteConfig  `yaml:"remote"`
	Restore   RestoreConfig `yaml:"restore"`
	Store     StoreConfig   `yaml:"store"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
	Api       ApiConfig     `yaml:"api"`
}
