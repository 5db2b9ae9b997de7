package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veridian-labs/kbengine/internal/core/domain"
)

var (
	addManufacturerSlug string
	addDocManufacturer  string
	addDocTitle         string
	addDocCategory      string
	addDocType          string
	addDocNoProcess     bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Register manufacturers and documents",
}

var addManufacturerCmd = &cobra.Command{
	Use:   "manufacturer [name]",
	Short: "Register a manufacturer",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddManufacturer,
}

var addDocumentCmd = &cobra.Command{
	Use:   "document [path]",
	Short: "Register a document and process it",
	Long: `Registers a document for a manufacturer and runs the ingestion
pipeline immediately unless --no-process is given.

The source type is inferred from the file extension (.txt, .md, .pdf)
and can be overridden with --type.`,
	Args: cobra.ExactArgs(1),
	RunE: runAddDocument,
}

func init() {
	addManufacturerCmd.Flags().StringVar(&addManufacturerSlug, "slug", "",
		"URL-safe identifier (defaults to a slugified name)")

	addDocumentCmd.Flags().StringVar(&addDocManufacturer, "manufacturer", "",
		"owning manufacturer slug (required)")
	addDocumentCmd.Flags().StringVar(&addDocTitle, "title", "",
		"document title (defaults to the file name)")
	addDocumentCmd.Flags().StringVar(&addDocCategory, "category", "",
		"optional category used as a search filter")
	addDocumentCmd.Flags().StringVar(&addDocType, "type", "",
		"source type: text, markdown, or pdf")
	addDocumentCmd.Flags().BoolVar(&addDocNoProcess, "no-process", false,
		"register only, process later")
	_ = addDocumentCmd.MarkFlagRequired("manufacturer")

	addCmd.AddCommand(addManufacturerCmd)
	addCmd.AddCommand(addDocumentCmd)
	rootCmd.AddCommand(addCmd)
}

func runAddManufacturer(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	name := args[0]
	slug := addManufacturerSlug
	if slug == "" {
		slug = slugify(name)
	}

	m := &domain.Manufacturer{
		ID:   uuid.New().String(),
		Name: name,
		Slug: slug,
	}
	if err := manufacturers.Save(cmd.Context(), m); err != nil {
		return fmt.Errorf("saving manufacturer: %w", err)
	}

	cmd.Printf("Registered manufacturer %q (slug %s)\n", name, slug)
	return nil
}

func runAddDocument(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	manufacturerID, err := manufacturers.ResolveSlug(ctx, addDocManufacturer)
	if err != nil {
		return fmt.Errorf("unknown manufacturer %q: %w", addDocManufacturer, err)
	}

	sourceType := addDocType
	if sourceType == "" {
		sourceType = sourceTypeForPath(path)
	}
	title := addDocTitle
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	doc := &domain.Document{
		ID:             uuid.New().String(),
		ManufacturerID: manufacturerID,
		Title:          title,
		Category:       addDocCategory,
		SourceURI:      path,
		SourceType:     sourceType,
	}
	if err := documents.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	cmd.Printf("Registered document %s (%s)\n", doc.ID, title)

	if addDocNoProcess {
		return nil
	}

	result, err := ingestService.ProcessDocument(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("processing document: %w", err)
	}
	cmd.Printf("Processed: %d chunks from %d characters\n",
		result.ChunksCreated, result.TotalCharacters)
	return nil
}

// sourceTypeForPath maps a file extension to an extractor source type.
func sourceTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "markdown"
	case ".pdf":
		return "pdf"
	default:
		return "text"
	}
}

// slugify lowercases and replaces runs of non-alphanumerics with hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
