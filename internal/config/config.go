// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	TMDB    TMDBConfig    `toml:"tmdb"`
	Kakao   KakaoConfig   `toml:"kakao"`
	Events  EventsConfig  `toml:"events"`
}

type ServerConfig struct {
	LogLevel string `toml:"log_level"`
}

type StorageConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

type TMDBConfig struct {
	APIKey   string        `toml:"api_key"`
	BaseURL  string        `toml:"base_url"`
	Language string        `toml:"language"`
	Region   string        `toml:"region"`
	Timeout  time.Duration `toml:"timeout"`
}

type KakaoConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

type EventsConfig struct {
	Persist bool `toml:"persist"`
	// Retention is how long persisted events are kept. Older events are
	// pruned when the app opens.
	Retention time.Duration `toml:"retention"`
}

// Default values applied when a field is left empty.
const (
	DefaultLogLevel      = "info"
	DefaultStorageDriver = "sqlite"
	DefaultStoragePath   = "./data/moviedeck.db"
	DefaultTMDBBaseURL   = "https://api.themoviedb.org"
	DefaultLanguage      = "ko-KR"
	DefaultRegion        = "KR"
	DefaultTimeout       = 10 * time.Second
	DefaultKakaoBaseURL  = "https://kapi.kakao.com"
	DefaultRetention     = 30 * 24 * time.Hour
)

// Load reads, substitutes, applies defaults and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

// LoadWithoutValidation reads the config but skips validation and tolerates
// unresolved environment variables.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, missing, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = DefaultLogLevel
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	if c.Storage.Path == "" && c.Storage.Driver != "memory" {
		c.Storage.Path = DefaultStoragePath
	}
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = DefaultTMDBBaseURL
	}
	if c.TMDB.Language == "" {
		c.TMDB.Language = DefaultLanguage
	}
	if c.TMDB.Region == "" {
		c.TMDB.Region = DefaultRegion
	}
	if c.TMDB.Timeout == 0 {
		c.TMDB.Timeout = DefaultTimeout
	}
	if c.Kakao.BaseURL == "" {
		c.Kakao.BaseURL = DefaultKakaoBaseURL
	}
	if c.Events.Retention == 0 {
		c.Events.Retention = DefaultRetention
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces environment references and reports the ones it
// could not resolve. Unresolved references are left in place. An empty
// variable counts as unset for the :- and :? forms.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if value == "" {
				return arg
			}
			return value
		case ":?":
			if value == "" {
				missing = append(missing, name+": "+strings.TrimSpace(arg))
				return match
			}
			return value
		}

		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	return out, missing
}
