// Package config resolves ErrorCache plugin settings with the precedence
// explicit host-supplied value > environment variable > hardcoded default.
// Host config layers sometimes pass through unexpanded ${VAR:-default}
// placeholders literally; such values are treated as absent.
package config

import (
	"os"
	"regexp"
	"strconv"

	"github.com/errorcache/errorcache-go/internal/errorcache"
)

var unresolvedVar = regexp.MustCompile(`\$\{.+\}`)

// Config holds all resolved settings.
type Config struct {
	API     APIConfig
	Watcher WatcherConfig
	Server  ServerConfig
	Log     LogConfig
}

type APIConfig struct {
	// BaseURL is the ErrorCache API root.
	BaseURL string
	// Key is the bearer token; empty means unauthenticated.
	Key string
}

type WatcherConfig struct {
	AutoSearch bool
	AutoSubmit bool
	// PatternsFile optionally extends the error-pattern catalog (YAML).
	PatternsFile string
}

type ServerConfig struct {
	// Port serves the streamable HTTP MCP transport; 0 disables it.
	Port int
}

type LogConfig struct {
	Level string
}

// Values are explicit, host-supplied settings. Zero values fall through to
// environment variables, then defaults.
type Values struct {
	APIURL       string
	APIKey       string
	PatternsFile string
	LogLevel     string
	AutoSearch   *bool
	AutoSubmit   *bool
	Port         int
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: errorcache.DefaultBaseURL,
		},
		Watcher: WatcherConfig{
			AutoSearch: true,
			AutoSubmit: true,
		},
		Server: ServerConfig{
			Port: 4200,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load resolves configuration from environment variables and defaults only.
func Load() Config {
	return Resolve(Values{})
}

// Resolve applies the full precedence chain over the given explicit values.
func Resolve(v Values) Config {
	cfg := defaults()

	cfg.API.BaseURL = resolveString(v.APIURL, "ERRORCACHE_API_URL", cfg.API.BaseURL)
	cfg.API.Key = resolveString(v.APIKey, "ERRORCACHE_API_KEY", cfg.API.Key)
	cfg.Watcher.PatternsFile = resolveString(v.PatternsFile, "ERRORCACHE_PATTERNS_FILE", cfg.Watcher.PatternsFile)
	cfg.Watcher.AutoSearch = resolveBool(v.AutoSearch, "ERRORCACHE_AUTO_SEARCH", cfg.Watcher.AutoSearch)
	cfg.Watcher.AutoSubmit = resolveBool(v.AutoSubmit, "ERRORCACHE_AUTO_SUBMIT", cfg.Watcher.AutoSubmit)
	cfg.Log.Level = resolveString(v.LogLevel, "ERRORCACHE_LOG_LEVEL", cfg.Log.Level)
	if v.Port > 0 {
		cfg.Server.Port = v.Port
	} else {
		cfg.Server.Port = envInt("ERRORCACHE_HTTP_PORT", cfg.Server.Port)
	}

	return cfg
}

// resolveString returns the explicit value unless it is empty or still
// carries an unresolved placeholder, then the environment variable, then the
// default.
func resolveString(explicit, envVar, def string) string {
	if explicit != "" && !unresolvedVar.MatchString(explicit) {
		return explicit
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return def
}

func resolveBool(explicit *bool, envVar string, def bool) bool {
	if explicit != nil {
		return *explicit
	}
	if v := os.Getenv(envVar); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envInt(envVar string, def int) int {
	if v := os.Getenv(envVar); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
