// Package config provides configuration loading for agreementd.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/agreementd/internal/llm"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Provider llm.Config     `koanf:"provider"`
	Pipeline PipelineConfig `koanf:"pipeline"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// MaxBodyBytes bounds extraction request bodies. Credit agreements
	// run 100-500K characters; 2MB leaves headroom.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// PipelineConfig holds extraction pipeline tuning.
type PipelineConfig struct {
	MaxChunkChars            int     `koanf:"max_chunk_chars"`
	MaxSectionsPerEntity     int     `koanf:"max_sections_per_entity"`
	MaxRetries               int     `koanf:"max_retries"`
	CallTimeoutSeconds       int     `koanf:"call_timeout_seconds"`
	MinSectionImportance     float64 `koanf:"min_section_importance"`
	EnrichmentThreshold      float64 `koanf:"enrichment_threshold"`
	SuccessThreshold         float64 `koanf:"success_threshold"`
	MaxConcurrentExtractions int     `koanf:"max_concurrent_extractions"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Pipeline.EnrichmentThreshold < 0 || c.Pipeline.EnrichmentThreshold > 1 {
		return fmt.Errorf("enrichment threshold must be in [0,1], got %v", c.Pipeline.EnrichmentThreshold)
	}
	if c.Pipeline.SuccessThreshold < 0 || c.Pipeline.SuccessThreshold > 1 {
		return fmt.Errorf("success threshold must be in [0,1], got %v", c.Pipeline.SuccessThreshold)
	}
	if c.Pipeline.MaxConcurrentExtractions < 0 {
		return fmt.Errorf("max concurrent extractions must be >= 0")
	}
	if n := c.Pipeline.MaxSectionsPerEntity; n != 0 && (n < 3 || n > 6) {
		return fmt.Errorf("max sections per entity must be 3-6, got %d", n)
	}
	return nil
}
