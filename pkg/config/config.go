package config

import (
	"AapdaMitra/pkg/cache"
	"AapdaMitra/pkg/logger"
	"AapdaMitra/pkg/util"
	"log"
	"os"
	"time"
)

type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`
	DBDriver  string `env:"DB_DRIVER"`
	DSN       string `env:"DSN"`
	Log       logger.LogConfig

	LLMProvider string `env:"LLM_PROVIDER"`
	LLMApiKey   string `env:"LLM_API_KEY"`
	LLMBaseURL  string `env:"LLM_BASE_URL"`
	LLMModel    string `env:"LLM_MODEL"`

	Cache         cache.Config
	GuideCacheTTL time.Duration `env:"GUIDE_CACHE_TTL"`

	MeshDelayUnit      time.Duration `env:"MESH_DELAY_UNIT"`
	MeshDiscoveryDelay time.Duration `env:"MESH_DISCOVERY_DELAY"`

	RateLimit       string `env:"RATE_LIMIT"`
	LanguageDefault string `env:"LANGUAGE_DEFAULT"`

	BackupEnabled  bool   `env:"BACKUP_ENABLED"`
	BackupPath     string `env:"BACKUP_PATH"`
	BackupSchedule string `env:"BACKUP_SCHEDULE"`
	BackupKeep     int    `env:"BACKUP_KEEP"`
}

// Load reads .env files for APP_ENV and builds the configuration from the environment.
func Load() (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg := &Config{
		Addr:      util.GetEnv("ADDR"),
		Mode:      util.GetEnvOr("MODE", env),
		APIPrefix: util.GetEnv("API_PREFIX"),
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		LLMProvider: util.GetEnv("LLM_PROVIDER"),
		LLMApiKey:   util.GetEnv("LLM_API_KEY"),
		LLMBaseURL:  util.GetEnv("LLM_BASE_URL"),
		LLMModel:    util.GetEnv("LLM_MODEL"),
		Cache: cache.Config{
			Type: util.GetEnv("CACHE_TYPE"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnv("REDIS_ADDR"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
			},
			Local: cache.LocalConfig{
				MaxSize: int(util.GetIntEnv("LOCAL_CACHE_MAX_SIZE")),
			},
		},
		GuideCacheTTL:      util.GetDurationEnv("GUIDE_CACHE_TTL", 0),
		MeshDelayUnit:      util.GetDurationEnv("MESH_DELAY_UNIT", 0),
		MeshDiscoveryDelay: util.GetDurationEnv("MESH_DISCOVERY_DELAY", 0),
		RateLimit:          util.GetEnv("RATE_LIMIT"),
		LanguageDefault:    util.GetEnv("LANGUAGE_DEFAULT"),
		BackupEnabled:      util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:         util.GetEnv("BACKUP_PATH"),
		BackupSchedule:     util.GetEnv("BACKUP_SCHEDULE"),
		BackupKeep:         int(util.GetIntEnv("BACKUP_KEEP")),
	}
	cfg.Defaults()
	return cfg, nil
}

// Defaults fills every unset field.
func (c *Config) Defaults() {
	if c.Addr == "" {
		c.Addr = ":3001"
	}
	if c.Mode == "" {
		c.Mode = "development"
	}
	if c.APIPrefix == "" {
		c.APIPrefix = "/api"
	}
	if c.DBDriver == "" {
		c.DBDriver = "sqlite"
	}
	if c.DSN == "" && c.DBDriver == "sqlite" {
		c.DSN = "aapdaMitra.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.LLMProvider == "" {
		c.LLMProvider = "gemini"
	}
	if c.LLMModel == "" {
		if c.LLMProvider == "gemini" {
			c.LLMModel = "gemini-2.5-flash"
		} else {
			c.LLMModel = "gpt-4o-mini"
		}
	}
	if c.Cache.Type == "" {
		c.Cache.Type = "local"
	}
	if c.Cache.Local.MaxSize <= 0 {
		c.Cache.Local.MaxSize = 64
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.GuideCacheTTL <= 0 {
		c.GuideCacheTTL = 30 * time.Minute
	}
	c.Cache.Local.DefaultExpiration = c.GuideCacheTTL
	if c.Cache.Local.CleanupInterval <= 0 {
		c.Cache.Local.CleanupInterval = 10 * time.Minute
	}
	if c.MeshDelayUnit <= 0 {
		c.MeshDelayUnit = 1500 * time.Millisecond
	}
	if c.MeshDiscoveryDelay <= 0 {
		c.MeshDiscoveryDelay = 2 * time.Second
	}
	if c.RateLimit == "" {
		c.RateLimit = "30-M"
	}
	if c.LanguageDefault == "" {
		c.LanguageDefault = "en"
	}
	if c.BackupPath == "" {
		c.BackupPath = "backups"
	}
	if c.BackupSchedule == "" {
		c.BackupSchedule = "@daily"
	}
	if c.BackupKeep <= 0 {
		c.BackupKeep = 7
	}
}
