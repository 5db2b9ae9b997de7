// Package cli implements the kbengine command line interface.
// Services are wired lazily on first use so that tests can inject
// mocks through the package-level service variables.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	configfile "github.com/veridian-labs/kbengine/internal/adapters/driven/config/file"
	"github.com/veridian-labs/kbengine/internal/adapters/driven/embedding/openai"
	"github.com/veridian-labs/kbengine/internal/adapters/driven/storage/sqlite"
	"github.com/veridian-labs/kbengine/internal/chunker"
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
	"github.com/veridian-labs/kbengine/internal/core/ports/driving"
	"github.com/veridian-labs/kbengine/internal/core/services"
	"github.com/veridian-labs/kbengine/internal/extractors"
	"github.com/veridian-labs/kbengine/internal/extractors/markdown"
	"github.com/veridian-labs/kbengine/internal/extractors/pdf"
	"github.com/veridian-labs/kbengine/internal/extractors/plaintext"
	"github.com/veridian-labs/kbengine/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Wired services. Tests replace these directly; production wiring
// happens in ensureServices.
var (
	configStore   driven.ConfigStore
	documents     driven.DocumentStore
	manufacturers driven.ManufacturerStore
	ingestService driving.IngestService
	searchService driving.SearchService
	embedder      driven.EmbeddingService
	store         *sqlite.Store
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "kbengine",
	Short: "Manufacturer knowledge base ingestion and search",
	Long: `kbengine ingests manufacturer documentation (plain text, markdown,
best-effort PDF), chunks it with overlap, embeds the chunks, and serves
vector, full-text, and hybrid search over the result.

Set OPENAI_API_KEY (directly or via a .env file) to enable embeddings.
Without it, documents are still indexed for full-text search.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Missing .env files are fine; environment variables win.
		_ = godotenv.Load()
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"print pipeline details to stderr")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// ensureServices wires production dependencies unless tests already
// injected replacements.
func ensureServices() error {
	if ingestService != nil && searchService != nil {
		return nil
	}

	cfg, err := configfile.NewConfigStore(os.Getenv("KBENGINE_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	configStore = cfg

	dataDir := os.Getenv("KBENGINE_DATA_DIR")
	if dataDir == "" {
		dataDir = cfg.GetString(configfile.KeyDataDir)
	}
	s, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	store = s
	documents = s.DocumentStore()
	manufacturers = s.ManufacturerStore()

	registry := extractors.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())
	registry.Register(pdf.New())

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		e, err := openai.NewEmbeddingService(openai.Config{
			APIKey:  key,
			BaseURL: cfg.GetString(configfile.KeyEmbeddingBaseURL),
			Model:   cfg.GetString(configfile.KeyEmbeddingModel),
		})
		if err != nil {
			return fmt.Errorf("configuring embeddings: %w", err)
		}
		embedder = e
		logger.Debug("embedding provider enabled: %s", e.ModelName())
	} else {
		logger.Debug("OPENAI_API_KEY not set, embeddings disabled")
	}

	var chunkOpts []chunker.Option
	if target := cfg.GetInt(configfile.KeyChunkTargetTokens); target > 0 {
		chunkOpts = append(chunkOpts, chunker.WithTargetTokens(target))
	}
	if overlap := cfg.GetInt(configfile.KeyChunkOverlapTokens); overlap > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlapTokens(overlap))
	}

	ingestOpts := []services.IngestOption{
		services.WithChunker(chunker.New(chunkOpts...)),
	}
	searchOpts := []services.SearchOption{}
	if embedder != nil {
		ingestOpts = append(ingestOpts, services.WithEmbedder(embedder))
		searchOpts = append(searchOpts, services.WithSearchEmbedder(embedder))
	}

	ingestService = services.NewIngestController(
		s.DocumentStore(), s.ChunkStore(), registry, ingestOpts...)
	searchService = services.NewRetrievalEngine(
		s.SearchStore(), s.ManufacturerStore(), searchOpts...)

	return nil
}
