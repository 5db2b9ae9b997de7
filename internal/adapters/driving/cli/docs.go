package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/kbengine/internal/core/domain"
)

var docsManufacturer string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Inspect registered documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered documents",
	RunE:  runDocsList,
}

var docsStatusCmd = &cobra.Command{
	Use:   "status [document-id]",
	Short: "Show a document's lifecycle status",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsStatus,
}

func init() {
	docsListCmd.Flags().StringVar(&docsManufacturer, "manufacturer", "",
		"restrict to a manufacturer slug")
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsStatusCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	manufacturerID := ""
	if docsManufacturer != "" {
		id, err := manufacturers.ResolveSlug(ctx, docsManufacturer)
		if err != nil {
			return fmt.Errorf("unknown manufacturer %q: %w", docsManufacturer, err)
		}
		manufacturerID = id
	}

	docs, err := documents.ListDocuments(ctx, manufacturerID)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents registered.")
		return nil
	}

	for _, doc := range docs {
		cmd.Printf("%s  %-10s  %s\n", doc.ID, doc.Status, doc.Title)
		if doc.Status == domain.StatusReady {
			cmd.Printf("%36s  %d chunks\n", "", doc.ChunkCount)
		}
		if doc.Status == domain.StatusError && doc.ErrorMessage != "" {
			cmd.Printf("%36s  %s\n", "", doc.ErrorMessage)
		}
	}
	return nil
}

func runDocsStatus(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	doc, err := documents.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	cmd.Printf("ID:          %s\n", doc.ID)
	cmd.Printf("Title:       %s\n", doc.Title)
	cmd.Printf("Status:      %s\n", doc.Status)
	cmd.Printf("Source:      %s (%s)\n", doc.SourceURI, doc.SourceType)
	if doc.Category != "" {
		cmd.Printf("Category:    %s\n", doc.Category)
	}
	cmd.Printf("Chunks:      %d\n", doc.ChunkCount)
	if doc.ErrorMessage != "" {
		cmd.Printf("Error:       %s\n", doc.ErrorMessage)
	}
	cmd.Printf("Updated:     %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
