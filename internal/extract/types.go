// Package extract runs entity-focused extraction over segmented document
// sections using an injected text-completion capability. Each operation
// is independent, bounded in model calls, and degrades to warnings
// rather than errors when individual calls fail.
package extract

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrClientNotConfigured indicates the completion capability is unusable
// (missing transport configuration). This is the only error class the
// extraction operations propagate; everything else becomes a warning.
var ErrClientNotConfigured = errors.New("completion client not configured")

// CompletionClient is the injected boundary to a language-model backend:
// given a system prompt and user content, return text. Implementations
// must return JSON-formatted text when instructed to; malformed JSON is
// treated by the caller as a retryable failure.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userContent string) (string, error)

	// Configured reports whether the client has usable transport
	// configuration. Unconfigured clients make extraction fail fatally.
	Configured() bool
}

// Config holds extraction tuning. Zero values select defaults.
type Config struct {
	// MaxSectionsPerEntity caps model calls per operation.
	MaxSectionsPerEntity int
	// MaxRetries is the per-call retry count on malformed output or
	// transport failure.
	MaxRetries int
	// CallTimeout bounds each completion call.
	CallTimeout time.Duration
	// MinImportance is the section importance cutoff; sections of an
	// operation's preferred structural types are selected regardless.
	MinImportance float64
}

// Default extraction tuning.
const (
	DefaultMaxSectionsPerEntity = 4
	DefaultMaxRetries           = 2
	DefaultCallTimeout          = 90 * time.Second
	DefaultMinImportance        = 0.6
)

func (c Config) withDefaults() Config {
	if c.MaxSectionsPerEntity <= 0 {
		c.MaxSectionsPerEntity = DefaultMaxSectionsPerEntity
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.MinImportance <= 0 {
		c.MinImportance = DefaultMinImportance
	}
	return c
}

// DatesAndTerms is the typed partial result of the dates/terms operation.
type DatesAndTerms struct {
	AgreementDate        string
	EffectiveDate        string
	GoverningLaw         string
	SustainabilityLinked bool
	ESGTerms             []string
}

// Extractor runs the three entity operations against a CompletionClient.
type Extractor struct {
	client CompletionClient
	cfg    Config
	logger *zap.Logger
}

// New creates an Extractor. logger may be nil.
func New(client CompletionClient, cfg Config, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		client: client,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}
