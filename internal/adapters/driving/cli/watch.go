package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/logger"
)

var (
	watchManufacturer string
	watchCategory     string

	// watchDebounce coalesces editor write bursts into one ingestion.
	watchDebounce = 2 * time.Second
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest changed documents",
	Long: `Watches a directory for new or modified .txt, .md, and .pdf files and
runs the ingestion pipeline on each change. Files already registered are
reprocessed; new files are registered first.

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchManufacturer, "manufacturer", "",
		"owning manufacturer slug (required)")
	watchCmd.Flags().StringVar(&watchCategory, "category", "",
		"category applied to ingested documents")
	_ = watchCmd.MarkFlagRequired("manufacturer")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving directory: %w", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%q is not a directory", args[0])
	}

	manufacturerID, err := manufacturers.ResolveSlug(ctx, watchManufacturer)
	if err != nil {
		return fmt.Errorf("unknown manufacturer %q: %w", watchManufacturer, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	cmd.Printf("Watching %s for changes (ctrl-c to stop)\n", dir)

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
	)

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if timer, ok := pending[path]; ok {
			timer.Stop()
		}
		pending[path] = time.AfterFunc(watchDebounce, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			if err := ingestPath(cmd, manufacturerID, path); err != nil {
				logger.Warn("ingesting %s: %v", path, err)
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !watchableFile(event.Name) {
				continue
			}
			logger.Debug("fs event: %s %s", event.Op, event.Name)
			schedule(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// ingestPath registers the file if it is new for this manufacturer and
// runs the pipeline. Registered files are matched by source URI.
func ingestPath(cmd *cobra.Command, manufacturerID, path string) error {
	ctx := cmd.Context()

	docs, err := documents.ListDocuments(ctx, manufacturerID)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	var docID string
	for _, doc := range docs {
		if doc.SourceURI == path {
			docID = doc.ID
			break
		}
	}

	if docID == "" {
		doc := &domain.Document{
			ID:             uuid.New().String(),
			ManufacturerID: manufacturerID,
			Title:          strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Category:       watchCategory,
			SourceURI:      path,
			SourceType:     sourceTypeForPath(path),
		}
		if err := documents.SaveDocument(ctx, doc); err != nil {
			return fmt.Errorf("registering document: %w", err)
		}
		docID = doc.ID
		cmd.Printf("Registered %s as %s\n", filepath.Base(path), docID)
	}

	result, err := ingestService.ProcessDocument(ctx, docID)
	if err != nil {
		return err
	}
	cmd.Printf("Processed %s: %d chunks\n", filepath.Base(path), result.ChunksCreated)
	return nil
}

func watchableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown", ".pdf":
		return true
	}
	return false
}
