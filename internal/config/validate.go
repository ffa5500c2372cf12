// internal/config/validate.go
package config

import (
	"fmt"

	"golang.org/x/text/language"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validStorageDrivers = map[string]bool{
	"sqlite": true, "bolt": true, "memory": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
// A missing TMDB API key is not an error here; requests fail with it instead.
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	// Storage validation
	if !validStorageDrivers[c.Storage.Driver] {
		errs = append(errs, fmt.Sprintf("storage.driver: must be one of sqlite, bolt, memory; got %q", c.Storage.Driver))
	}
	if c.Storage.Driver != "memory" && c.Storage.Path == "" {
		errs = append(errs, fmt.Sprintf("storage.path: required for the %s driver", c.Storage.Driver))
	}

	// TMDB validation
	if c.TMDB.Language != "" {
		if _, err := language.Parse(c.TMDB.Language); err != nil {
			errs = append(errs, fmt.Sprintf("tmdb.language: %q is not a valid language tag", c.TMDB.Language))
		}
	}
	if c.TMDB.Region != "" {
		if _, err := language.ParseRegion(c.TMDB.Region); err != nil {
			errs = append(errs, fmt.Sprintf("tmdb.region: %q is not a valid region code", c.TMDB.Region))
		}
	}
	if c.TMDB.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("tmdb.timeout: must not be negative, got %s", c.TMDB.Timeout))
	}

	// Kakao validation
	if c.Kakao.Enabled && c.Kakao.BaseURL == "" {
		errs = append(errs, "kakao.base_url: required when kakao is enabled")
	}

	// Events are only persisted by the sqlite backend
	if c.Events.Persist && c.Storage.Driver != "sqlite" {
		errs = append(errs, fmt.Sprintf("events.persist: requires the sqlite storage driver, got %q", c.Storage.Driver))
	}
	if c.Events.Retention < 0 {
		errs = append(errs, fmt.Sprintf("events.retention: must not be negative, got %s", c.Events.Retention))
	}

	return errs
}
