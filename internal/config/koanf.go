package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tripoptimizer/config.yaml",
}

const (
	ConfigPathEnvVar = "CONFIG_PATH"
	EnvPrefix        = "TRIPOPT_"
)

// legacyEnv maps the flat variables the service has always read.
var legacyEnv = map[string]string{
	"port":           "server.port",
	"cache_enabled":  "cache.enabled",
	"redis_host":     "cache.host",
	"redis_port":     "cache.port",
	"redis_password": "cache.password",
	"redis_ttl":      "cache.ttl",
	"log_level":      "logging.level",
	"log_format":     "logging.format",
	"history_db":     "history.path",
}

// Load layers defaults, the config file and the environment, then
// validates the result.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit file; an empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps variable names to koanf paths. Prefixed variables use
// a double underscore between levels:
//
//	TRIPOPT_BUYWAIT__POOR_DEAL_PERCENTILE -> buywait.poor_deal_percentile
//	TRIPOPT_RATELIMIT__PROVIDERS__GARUDA__BURST -> ratelimit.providers.garuda.burst
//
// Anything else is ignored unless it is one of the legacy names.
func envTransformFunc(key string) string {
	if rest, ok := strings.CutPrefix(key, EnvPrefix); ok {
		return strings.ReplaceAll(strings.ToLower(rest), "__", ".")
	}
	return legacyEnv[strings.ToLower(key)]
}
