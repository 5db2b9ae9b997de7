package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var chunkJSON bool

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Preview chunker output without persisting anything",
	Long: `Diagnostic command: chunks a file (or stdin when the argument is "-")
and prints the resulting chunks with token estimates. When an embedding
provider is configured, each chunk is embedded and its vector dimension
reported, but nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	result, err := ingestService.ProcessRawText(cmd.Context(), string(data))
	if err != nil {
		return fmt.Errorf("chunking: %w", err)
	}

	if chunkJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling chunks: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Printf("%d chunks\n\n", len(result.Chunks))
	for _, chunk := range result.Chunks {
		cmd.Printf("--- chunk %d (~%d tokens", chunk.Index, chunk.TokenCount)
		if chunk.EmbeddingDimensions > 0 {
			cmd.Printf(", %d dims", chunk.EmbeddingDimensions)
		}
		cmd.Println(") ---")
		cmd.Println(chunk.Content)
		cmd.Println()
	}
	return nil
}
