// Package config loads the blog configuration with Viper from defaults, an
// optional YAML file, BLOG_ environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const EnvPrefix = "BLOG"

const (
	KeyHost            = "host"
	KeyPort            = "port"
	KeyContentPath     = "content_path"
	KeyTemplatesPath   = "templates_path"
	KeyStaticPath      = "static_path"
	KeyPostsPerPage    = "posts_per_page"
	KeyEnableDrafts    = "enable_drafts"
	KeyWatchContent    = "watch_content"
	KeyWatchDebounce   = "watch_debounce"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyShutdownTimeout = "shutdown_timeout"
	KeySiteTitle       = "site_title"
	KeyBaseURL         = "base_url"
	KeyHighlightStyle  = "highlight_style"
)

type Config struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ContentPath     string        `mapstructure:"content_path"`
	TemplatesPath   string        `mapstructure:"templates_path"`
	StaticPath      string        `mapstructure:"static_path"`
	PostsPerPage    int           `mapstructure:"posts_per_page"`
	EnableDrafts    bool          `mapstructure:"enable_drafts"`
	WatchContent    bool          `mapstructure:"watch_content"`
	WatchDebounce   time.Duration `mapstructure:"watch_debounce"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SiteTitle       string        `mapstructure:"site_title"`
	BaseURL         string        `mapstructure:"base_url"`
	HighlightStyle  string        `mapstructure:"highlight_style"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults registers every key with its default value. Keys must be
// registered for environment variables to be seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHost, "127.0.0.1")
	v.SetDefault(KeyPort, 3311)
	v.SetDefault(KeyContentPath, "./content")
	v.SetDefault(KeyTemplatesPath, "")
	v.SetDefault(KeyStaticPath, "./static")
	v.SetDefault(KeyPostsPerPage, 10)
	v.SetDefault(KeyEnableDrafts, false)
	v.SetDefault(KeyWatchContent, false)
	v.SetDefault(KeyWatchDebounce, 500*time.Millisecond)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyShutdownTimeout, 5*time.Second)
	v.SetDefault(KeySiteTitle, "Blog")
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyHighlightStyle, "monokai")
}

// BindEnv enables BLOG_ prefixed environment overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// ReadFile reads the YAML config file at path. An empty path is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads environment variables from the given .env files. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 1-65535", cfg.Port)
	}
	if strings.TrimSpace(cfg.ContentPath) == "" {
		return errors.New("content_path must not be empty")
	}
	if cfg.PostsPerPage < 1 {
		return fmt.Errorf("posts_per_page must be at least 1, got %d", cfg.PostsPerPage)
	}
	if cfg.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative, got %s", cfg.WatchDebounce)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", cfg.ShutdownTimeout)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil || cfg.LogLevel == "" {
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q", cfg.LogFormat)
	}
	return nil
}
