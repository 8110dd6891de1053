package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Load loads configuration from an optional YAML file, then overrides
// with environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, PROVIDER_API_KEY, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// Environment variables use an underscore separator: the first segment
// selects the section and the remainder is the field name, so
// SERVER_PORT maps to server.port and PIPELINE_MAX_CHUNK_CHARS maps to
// pipeline.max_chunk_chars.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		// SERVER_PORT -> server.port; PIPELINE_MAX_RETRIES ->
		// pipeline.max_retries. Split on the first underscore only so
		// compound field names keep their underscores.
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9180
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 2 << 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Provider.Provider == "" {
		cfg.Provider.Provider = "anthropic"
	}
	if cfg.Provider.APIKey == "" {
		// Conventional fallbacks so deployments need not duplicate keys.
		switch cfg.Provider.Provider {
		case "anthropic":
			cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	if cfg.Pipeline.MaxChunkChars == 0 {
		cfg.Pipeline.MaxChunkChars = 25_000
	}
	if cfg.Pipeline.MaxSectionsPerEntity == 0 {
		cfg.Pipeline.MaxSectionsPerEntity = 4
	}
	if cfg.Pipeline.MaxRetries == 0 {
		cfg.Pipeline.MaxRetries = 2
	}
	if cfg.Pipeline.CallTimeoutSeconds == 0 {
		cfg.Pipeline.CallTimeoutSeconds = 90
	}
	if cfg.Pipeline.MinSectionImportance == 0 {
		cfg.Pipeline.MinSectionImportance = 0.6
	}
	if cfg.Pipeline.EnrichmentThreshold == 0 {
		cfg.Pipeline.EnrichmentThreshold = 0.7
	}
	if cfg.Pipeline.SuccessThreshold == 0 {
		cfg.Pipeline.SuccessThreshold = 0.5
	}
	if cfg.Pipeline.MaxConcurrentExtractions == 0 {
		cfg.Pipeline.MaxConcurrentExtractions = 3
	}
}
