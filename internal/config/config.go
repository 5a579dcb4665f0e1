package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pders01/feedsync/internal/records"
	"github.com/spf13/viper"
)

const (
	BackendNotion = "notion"
	BackendBolt   = "bolt"
)

type Config struct {
	Notion   NotionConfig   `mapstructure:"notion"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Server   ServerConfig   `mapstructure:"server"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Log      LogConfig      `mapstructure:"log"`
}

type NotionConfig struct {
	Token   string `mapstructure:"token"`
	FeedsDB string `mapstructure:"feeds_db"`
	PostsDB string `mapstructure:"posts_db"`
}

type BackendConfig struct {
	Kind string `mapstructure:"kind"`
	Path string `mapstructure:"path"`
}

type FeedConfig struct {
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	AllowPrivateHosts bool          `mapstructure:"allow_private_hosts"`
}

type SyncConfig struct {
	DefaultLookback time.Duration `mapstructure:"default_lookback"`
	DryRun          bool          `mapstructure:"dry_run"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Backend: BackendConfig{
			Kind: BackendNotion,
			Path: filepath.Join(homeDir, ".feedsync.db"),
		},
		Feed: FeedConfig{
			HTTPTimeout:       30 * time.Second,
			UserAgent:         "feedsync/1.0 (https://github.com/pders01/feedsync)",
			AllowPrivateHosts: true,
		},
		Sync: SyncConfig{
			DefaultLookback: 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Schedule: ScheduleConfig{
			Cron: "0 * * * *",
		},
		Log: LogConfig{
			Level:  "info",
			Output: "stderr",
		},
	}
}

// Databases returns the feeds and posts database ids.
func (c *Config) Databases() records.Databases {
	return records.Databases{Feeds: c.Notion.FeedsDB, Posts: c.Notion.PostsDB}
}

// Validate checks the settings a sync run cannot do without.
func (c *Config) Validate() error {
	if c.Notion.FeedsDB == "" || c.Notion.PostsDB == "" {
		return fmt.Errorf("%w: you must provide the database ids for the feeds and posts (NOTION_FEEDS_DB_ID, NOTION_POSTS_DB_ID)", records.ErrConfiguration)
	}
	switch c.Backend.Kind {
	case BackendNotion:
		if c.Notion.Token == "" {
			return fmt.Errorf("%w: NOTION_TOKEN is not set", records.ErrConfiguration)
		}
	case BackendBolt:
		if c.Backend.Path == "" {
			return fmt.Errorf("%w: backend.path is empty", records.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", records.ErrConfiguration, c.Backend.Kind)
	}
	return nil
}

// LoadEnvFiles loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are ignored and existing variables win.
func LoadEnvFiles(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading env file %s: %w", file, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("notion.token", cfg.Notion.Token)
	v.SetDefault("notion.feeds_db", cfg.Notion.FeedsDB)
	v.SetDefault("notion.posts_db", cfg.Notion.PostsDB)
	v.SetDefault("backend.kind", cfg.Backend.Kind)
	v.SetDefault("backend.path", cfg.Backend.Path)
	v.SetDefault("feed.http_timeout", cfg.Feed.HTTPTimeout)
	v.SetDefault("feed.user_agent", cfg.Feed.UserAgent)
	v.SetDefault("feed.allow_private_hosts", cfg.Feed.AllowPrivateHosts)
	v.SetDefault("sync.default_lookback", cfg.Sync.DefaultLookback)
	v.SetDefault("sync.dry_run", cfg.Sync.DryRun)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("schedule.cron", cfg.Schedule.Cron)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.output", cfg.Log.Output)
}

func Load(configPath string) (*Config, error) {
	if err := LoadEnvFiles(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "feedsync")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FEEDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The Notion variables keep the names used by existing deployments.
	bindings := map[string]string{
		"notion.token":    "NOTION_TOKEN",
		"notion.feeds_db": "NOTION_FEEDS_DB_ID",
		"notion.posts_db": "NOTION_POSTS_DB_ID",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "FEEDSYNC_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.Backend.Path = expandPath(config.Backend.Path)
	config.Backend.Kind = strings.ToLower(strings.TrimSpace(config.Backend.Kind))

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

// Save writes config as TOML. The token is never written to disk.
func Save(config *Config, path string) error {
	v := viper.New()

	v.Set("notion", map[string]interface{}{
		"feeds_db": config.Notion.FeedsDB,
		"posts_db": config.Notion.PostsDB,
	})
	v.Set("backend", map[string]interface{}{
		"kind": config.Backend.Kind,
		"path": config.Backend.Path,
	})
	// Durations as strings for TOML readability
	v.Set("feed", map[string]interface{}{
		"http_timeout":        config.Feed.HTTPTimeout.String(),
		"user_agent":          config.Feed.UserAgent,
		"allow_private_hosts": config.Feed.AllowPrivateHosts,
	})
	v.Set("sync", map[string]interface{}{
		"default_lookback": config.Sync.DefaultLookback.String(),
		"dry_run":          config.Sync.DryRun,
	})
	v.Set("server", map[string]interface{}{"addr": config.Server.Addr})
	v.Set("schedule", map[string]interface{}{"cron": config.Schedule.Cron})
	v.Set("log", map[string]interface{}{
		"level":  config.Log.Level,
		"output": config.Log.Output,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
