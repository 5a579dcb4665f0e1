package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		Notion: NotionConfig{
			FeedsDB: "feeds-test",
			PostsDB: "posts-test",
		},
		Backend: BackendConfig{
			Kind: BackendBolt,
			Path: ":memory:",
		},
		Feed: FeedConfig{
			HTTPTimeout:       5 * time.Second,
			UserAgent:         "feedsync-test/1.0",
			AllowPrivateHosts: true,
		},
		Sync: SyncConfig{
			DefaultLookback: 24 * time.Hour,
		},
		Server:   defaultConfig().Server,
		Schedule: defaultConfig().Schedule,
		Log: LogConfig{
			Level: "off",
		},
	}
}
