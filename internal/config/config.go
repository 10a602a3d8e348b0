// Package config loads and validates build tool configuration from a
// ghostsite.yaml file and GHOSTSITE_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var (
	ErrMissingGhostURL = errors.New("ghost.url is required (or set GHOSTSITE_GHOST_URL)")
	ErrMissingGhostKey = errors.New("ghost.key is required (or set GHOSTSITE_GHOST_KEY)")
	ErrNoImageWidths   = errors.New("images.widths must list at least one width")
)

// Config is the complete configuration for a site build.
type Config struct {
	Ghost  GhostConfig  `mapstructure:"ghost"`
	Site   SiteConfig   `mapstructure:"site"`
	Build  BuildConfig  `mapstructure:"build"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Serve  ServeConfig  `mapstructure:"serve"`
	Images ImagesConfig `mapstructure:"images"`
	Log    LogConfig    `mapstructure:"log"`
}

// GhostConfig addresses the Ghost Content API.
type GhostConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
	Key string `mapstructure:"key" validate:"required"`
}

// SiteConfig holds site-wide metadata overrides.
type SiteConfig struct {
	// URL overrides the site URL reported by the CMS settings, when set.
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// BuildConfig holds filesystem layout for a build.
type BuildConfig struct {
	OutputDir  string `mapstructure:"outputDir" validate:"required"`
	LayoutsDir string `mapstructure:"layoutsDir" validate:"required"`
	StaticDir  string `mapstructure:"staticDir"`
	ContentDir string `mapstructure:"contentDir"`
	RoutesFile string `mapstructure:"routesFile"`
}

// CacheConfig locates the on-disk content cache.
type CacheConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ServeConfig configures the local preview server.
type ServeConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// ImagesConfig configures responsive image tag generation.
type ImagesConfig struct {
	Widths  []int    `mapstructure:"widths"`
	Formats []string `mapstructure:"formats"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from cfgFile (or ./ghostsite.yaml when empty),
// applies defaults and environment overrides, and validates the result.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Empty defaults so AutomaticEnv binds these keys even without a
	// config file.
	v.SetDefault("ghost.url", "")
	v.SetDefault("ghost.key", "")
	v.SetDefault("site.url", "")
	v.SetDefault("build.outputDir", "public")
	v.SetDefault("build.layoutsDir", "layouts")
	v.SetDefault("build.staticDir", "static")
	v.SetDefault("build.contentDir", "content")
	v.SetDefault("build.routesFile", "routes.yaml")
	v.SetDefault("cache.path", ".cache/content.db")
	v.SetDefault("serve.host", "localhost")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("images.widths", []int{300, 600, 1000, 2000})
	v.SetDefault("images.formats", []string{"avif", "webp", "jpeg"})
	v.SetDefault("log.level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("ghostsite")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("GHOSTSITE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if cfgFile != "" {
			return nil, fmt.Errorf("config file %s not found: %w", cfgFile, err)
		}
		// No config file is fine; environment variables can carry everything.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Ghost.URL == "" {
		return ErrMissingGhostURL
	}
	if c.Ghost.Key == "" {
		return ErrMissingGhostKey
	}
	if len(c.Images.Widths) == 0 {
		return ErrNoImageWidths
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	return nil
}

// SiteURL returns the configured site URL override, or the given fallback.
func (c *Config) SiteURL(fallback string) string {
	if c.Site.URL != "" {
		return c.Site.URL
	}
	return fallback
}
