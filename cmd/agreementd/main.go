// Agreementd is the credit-agreement extraction daemon.
//
// This binary starts the agreementd HTTP server with full pipeline
// initialization: document segmentation, LLM-backed entity extraction,
// reconciliation and pattern-based enrichment.
//
// Configuration is loaded from an optional YAML file plus environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	agreementd
//
//	# Configure via file and environment
//	SERVER_PORT=9090 agreementd -config agreementd.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agreementd/internal/config"
	"github.com/fyrsmithlabs/agreementd/internal/extract"
	"github.com/fyrsmithlabs/agreementd/internal/httpapi"
	"github.com/fyrsmithlabs/agreementd/internal/llm"
	"github.com/fyrsmithlabs/agreementd/internal/logging"
	"github.com/fyrsmithlabs/agreementd/internal/pipeline"
	"github.com/fyrsmithlabs/agreementd/internal/segment"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  agreementd           Start the agreementd daemon\n")
			fmt.Fprintf(os.Stderr, "  agreementd version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("agreementd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the agreementd server and blocks until context is cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes the structured logger
//  3. Creates the completion client for the configured provider
//  4. Wires segmenter, extractor and pipeline service
//  5. Starts the HTTP server
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting agreementd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.Provider.Provider),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	client, err := llm.New(cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}
	if !client.Configured() {
		logger.Warn("Completion client lacks credentials; extractions will fail until configured",
			zap.String("provider", cfg.Provider.Provider))
	}

	segmenter := segment.New(segment.Config{
		MaxChunkChars: cfg.Pipeline.MaxChunkChars,
	})
	extractor := extract.New(client, extract.Config{
		MaxSectionsPerEntity: cfg.Pipeline.MaxSectionsPerEntity,
		MaxRetries:           cfg.Pipeline.MaxRetries,
		CallTimeout:          time.Duration(cfg.Pipeline.CallTimeoutSeconds) * time.Second,
		MinImportance:        cfg.Pipeline.MinSectionImportance,
	}, logger)

	svc, err := pipeline.NewService(segmenter, extractor, pipeline.Config{
		EnrichmentThreshold:      cfg.Pipeline.EnrichmentThreshold,
		SuccessThreshold:         cfg.Pipeline.SuccessThreshold,
		MaxConcurrentExtractions: cfg.Pipeline.MaxConcurrentExtractions,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline service: %w", err)
	}

	srv, err := httpapi.NewServer(svc, logger, &httpapi.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
