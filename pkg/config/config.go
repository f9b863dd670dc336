/*
Package config loads and persists the service configuration.

The configuration is a single file with one section per concern
(server_config, bot_config, sources_config, publish_config and
storage_config). JSON is the default format; files ending in .yaml or .yml
are read and written as YAML. A missing file is created with the defaults so
that a fresh install starts in dry-run mode with nothing to read from.

Secrets may be given as ${ENV_VAR} references; Resolved expands them without
touching the stored configuration.
*/
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/CTAG07/Ebooks/pkg/bot"
	"github.com/CTAG07/Ebooks/pkg/textclean"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// ServerConfig holds the settings of the long-running service.
type ServerConfig struct {
	ApiAddr             string `json:"api_addr" yaml:"api_addr"`
	LogLevel            string `json:"log_level" yaml:"log_level"`
	DataDir             string `json:"data_dir" yaml:"data_dir"`
	DatabasePath        string `json:"database_path" yaml:"database_path"`
	EnableScheduler     bool   `json:"enable_scheduler" yaml:"enable_scheduler"`
	ScheduleIntervalSec int    `json:"schedule_interval_sec" yaml:"schedule_interval_sec"`
	WatchConfig         bool   `json:"watch_config" yaml:"watch_config"`
}

// MastodonSourceConfig lists the Mastodon accounts to learn from.
type MastodonSourceConfig struct {
	BaseURL  string   `json:"base_url" yaml:"base_url"`
	Token    string   `json:"token" yaml:"token"`
	Accounts []string `json:"accounts" yaml:"accounts"`
	Limit    int      `json:"limit" yaml:"limit"`
}

// BlueskySourceConfig lists the Bluesky handles to learn from.
type BlueskySourceConfig struct {
	AppViewURL string   `json:"appview_url" yaml:"appview_url"`
	Handles    []string `json:"handles" yaml:"handles"`
}

// PageSourceConfig selects elements of a web page. Attributes must all
// match; a "class" attribute matches any one class token.
type PageSourceConfig struct {
	URL        string            `json:"url" yaml:"url"`
	Element    string            `json:"element" yaml:"element"`
	Attributes map[string]string `json:"attributes" yaml:"attributes"`
}

// SourcesConfig describes where source texts come from.
type SourcesConfig struct {
	StaticFile string                `json:"static_file" yaml:"static_file"`
	UseStore   bool                  `json:"use_store" yaml:"use_store"`
	Exclude    string                `json:"exclude" yaml:"exclude"`
	TimeoutSec int                   `json:"timeout_sec" yaml:"timeout_sec"`
	Mastodon   *MastodonSourceConfig `json:"mastodon" yaml:"mastodon"`
	Bluesky    *BlueskySourceConfig  `json:"bluesky" yaml:"bluesky"`
	Feeds      []string              `json:"feeds" yaml:"feeds"`
	Pages      []PageSourceConfig    `json:"pages" yaml:"pages"`
}

// MastodonPublishConfig holds the credentials of the Mastodon bot account.
type MastodonPublishConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	BaseURL    string `json:"base_url" yaml:"base_url"`
	Token      string `json:"token" yaml:"token"`
	Visibility string `json:"visibility" yaml:"visibility"`
}

// BlueskyPublishConfig holds the credentials of the Bluesky bot account.
type BlueskyPublishConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	PDSURL     string `json:"pds_url" yaml:"pds_url"`
	Identifier string `json:"identifier" yaml:"identifier"`
	Password   string `json:"password" yaml:"password"`
}

// PublishConfig describes where posts go.
type PublishConfig struct {
	TimeoutSec int                    `json:"timeout_sec" yaml:"timeout_sec"`
	Mastodon   *MastodonPublishConfig `json:"mastodon" yaml:"mastodon"`
	Bluesky    *BlueskyPublishConfig  `json:"bluesky" yaml:"bluesky"`
}

// StorageConfig selects the corpus store backend.
type StorageConfig struct {
	Backend       string `json:"backend" yaml:"backend"`
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`
	RedisKey      string `json:"redis_key" yaml:"redis_key"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server  *ServerConfig  `json:"server_config" yaml:"server_config"`
	Bot     *bot.Config    `json:"bot_config" yaml:"bot_config"`
	Sources *SourcesConfig `json:"sources_config" yaml:"sources_config"`
	Publish *PublishConfig `json:"publish_config" yaml:"publish_config"`
	Storage *StorageConfig `json:"storage_config" yaml:"storage_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:             ":7280",
		LogLevel:            "info",
		DataDir:             "./data",
		DatabasePath:        "./data/ebooks.db?_journal_mode=WAL&_busy_timeout=5000",
		EnableScheduler:     true,
		ScheduleIntervalSec: 3600,
		WatchConfig:         false,
	}
}

// Default returns the configuration written on first run.
func Default() *Config {
	botCfg := bot.DefaultConfig()
	return &Config{
		Server: DefaultServerConfig(),
		Bot:    &botCfg,
		Sources: &SourcesConfig{
			StaticFile: "",
			UseStore:   true,
			Exclude:    "^$",
			TimeoutSec: 30,
			Mastodon: &MastodonSourceConfig{
				BaseURL:  "https://mastodon.social",
				Accounts: []string{},
				Limit:    40,
			},
			Bluesky: &BlueskySourceConfig{
				AppViewURL: "https://public.api.bsky.app",
				Handles:    []string{},
			},
			Feeds: []string{},
			Pages: []PageSourceConfig{},
		},
		Publish: &PublishConfig{
			TimeoutSec: 30,
			Mastodon: &MastodonPublishConfig{
				BaseURL:    "https://mastodon.social",
				Token:      "${EBOOKS_MASTODON_TOKEN}",
				Visibility: "public",
			},
			Bluesky: &BlueskyPublishConfig{
				PDSURL:     "https://bsky.social",
				Identifier: "${EBOOKS_BLUESKY_IDENTIFIER}",
				Password:   "${EBOOKS_BLUESKY_PASSWORD}",
			},
		},
		Storage: &StorageConfig{
			Backend:   BackendSQLite,
			RedisAddr: "localhost:6379",
			RedisKey:  "ebooks:corpus",
		},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads the configuration at path. Sections missing from the file keep
// their defaults. If the file doesn't exist, it is created with the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	file, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = Save(path, config); err != nil {
				return nil, fmt.Errorf("failed to write default config file: %w", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(file, config)
	} else {
		err = json.Unmarshal(file, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	config.fillDefaults()

	return config, nil
}

// Save writes config to path atomically, in YAML for .yaml/.yml paths and
// indented JSON otherwise.
func Save(path string, config *Config) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// fillDefaults replaces sections that were explicitly set to null.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Server == nil {
		c.Server = d.Server
	}
	if c.Bot == nil {
		c.Bot = d.Bot
	}
	if c.Sources == nil {
		c.Sources = d.Sources
	}
	if c.Sources.Mastodon == nil {
		c.Sources.Mastodon = d.Sources.Mastodon
	}
	if c.Sources.Bluesky == nil {
		c.Sources.Bluesky = d.Sources.Bluesky
	}
	if c.Publish == nil {
		c.Publish = d.Publish
	}
	if c.Publish.Mastodon == nil {
		c.Publish.Mastodon = d.Publish.Mastodon
	}
	if c.Publish.Bluesky == nil {
		c.Publish.Bluesky = d.Publish.Bluesky
	}
	if c.Storage == nil {
		c.Storage = d.Storage
	}
}

// Validate reports the first setting the service could not start with.
func (c *Config) Validate() error {
	if c.Server == nil || c.Bot == nil || c.Sources == nil || c.Publish == nil || c.Storage == nil {
		return errors.New("every configuration section must be present")
	}
	if err := c.Bot.Validate(); err != nil {
		return fmt.Errorf("bot_config: %w", err)
	}
	if c.Server.EnableScheduler && c.Server.ScheduleIntervalSec < 1 {
		return fmt.Errorf("server_config: schedule_interval_sec must be at least 1, got %d", c.Server.ScheduleIntervalSec)
	}
	if _, err := textclean.NewFilter(c.Sources.Exclude); err != nil {
		return fmt.Errorf("sources_config: %w", err)
	}
	for i, p := range c.Sources.Pages {
		if p.URL == "" || p.Element == "" {
			return fmt.Errorf("sources_config: page %d needs both url and element", i)
		}
	}
	switch c.Storage.Backend {
	case BackendSQLite, "":
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage_config: redis backend needs redis_addr")
		}
	default:
		return fmt.Errorf("storage_config: unknown backend %q", c.Storage.Backend)
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} references with the environment value. Unset
// variables expand to the empty string.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envRef.FindStringSubmatch(ref)[1])
	})
}

// Resolved returns a deep copy of c with ${ENV} references in secrets and
// addresses expanded. The stored configuration keeps the references.
func (c *Config) Resolved() *Config {
	out := c.clone()
	if m := out.Sources.Mastodon; m != nil {
		m.Token = expandEnv(m.Token)
	}
	if m := out.Publish.Mastodon; m != nil {
		m.BaseURL = expandEnv(m.BaseURL)
		m.Token = expandEnv(m.Token)
	}
	if b := out.Publish.Bluesky; b != nil {
		b.Identifier = expandEnv(b.Identifier)
		b.Password = expandEnv(b.Password)
	}
	out.Storage.RedisAddr = expandEnv(out.Storage.RedisAddr)
	out.Storage.RedisPassword = expandEnv(out.Storage.RedisPassword)
	return out
}

// clone deep-copies c through its JSON form; every field is serializable.
func (c *Config) clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("config: unserializable configuration: %v", err))
	}
	out := &Config{}
	if err = json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("config: unserializable configuration: %v", err))
	}
	out.fillDefaults()
	return out
}
