package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/agreementd/internal/config"
	"github.com/fyrsmithlabs/agreementd/internal/extract"
	"github.com/fyrsmithlabs/agreementd/internal/llm"
	"github.com/fyrsmithlabs/agreementd/internal/logging"
	"github.com/fyrsmithlabs/agreementd/internal/pipeline"
	"github.com/fyrsmithlabs/agreementd/internal/segment"
)

var (
	extractConfigPath string
	extractProvider   string
)

// extractCmd runs the extraction pipeline in-process over a document
var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract structured data from a credit agreement document",
	Long: `Run the extraction pipeline over a document file or stdin and print
the result envelope as JSON. The pipeline runs in-process; no server
is required.

Examples:
  # Extract from a file
  agrctl extract agreement.txt

  # Extract from stdin
  cat agreement.txt | agrctl extract -

  # Use ollama instead of the configured provider
  agrctl extract --provider ollama agreement.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractConfigPath, "config", "", "path to YAML configuration file")
	extractCmd.Flags().StringVar(&extractProvider, "provider", "", "override completion provider (anthropic, openai, ollama)")
}

// runExtract handles the extract command
func runExtract(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	if len(content) == 0 {
		return fmt.Errorf("no document content to extract")
	}

	cfg, err := config.Load(extractConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if extractProvider != "" {
		cfg.Provider.Provider = extractProvider
		// Re-resolve provider-specific defaults (model, base URL) when
		// the provider changes on the command line.
		cfg.Provider.Model = ""
		cfg.Provider.BaseURL = ""
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// zap production config logs to stderr, keeping stdout clean for
	// the envelope JSON.
	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := llm.New(cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
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

	result := svc.Run(cmd.Context(), string(content))

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Println(string(out))

	if result.Status == pipeline.StatusError {
		return fmt.Errorf("extraction failed: %s", result.Message)
	}
	return nil
}
