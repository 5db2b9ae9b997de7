package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/veridian-labs/kbengine/internal/core/domain"
)

var (
	searchMode         string
	searchLimit        int
	searchThreshold    float64
	searchManufacturer string
	searchCategory     string
	searchJSON         bool
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	contentStyle = lipgloss.NewStyle().PaddingLeft(6).Width(100)
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Long: `Searches indexed manufacturer documentation.

Modes:
  vector  semantic similarity over embedded chunks
  text    full-text (bm25) keyword matching
  hybrid  both, merged with vector priority (default)

Vector and hybrid fall back to text search when no embedding provider
is configured; the output reports the mode that actually ran.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "hybrid",
		"search mode: vector, text, or hybrid")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit,
		"maximum number of results")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", domain.DefaultSearchThreshold,
		"minimum cosine similarity for vector matches")
	searchCmd.Flags().StringVar(&searchManufacturer, "manufacturer", "",
		"restrict to a manufacturer slug")
	searchCmd.Flags().StringVar(&searchCategory, "category", "",
		"restrict to a document category")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	opts := domain.SearchOptions{
		Mode:      domain.SearchMode(searchMode),
		Limit:     searchLimit,
		Threshold: searchThreshold,
		Filters: domain.SearchFilters{
			ManufacturerSlug: searchManufacturer,
			Category:         searchCategory,
		},
	}

	resp, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return printSearchResults(cmd, resp)
}

func printSearchResults(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if len(resp.Results) == 0 {
		cmd.Printf("No results (%s search).\n", resp.Mode)
		return nil
	}

	cmd.Printf("Results (%s search):\n\n", resp.Mode)
	for i, r := range resp.Results {
		score := r.Similarity
		if score == 0 {
			score = r.Rank
		}
		cmd.Printf("  [%d] %s %s\n", i+1,
			titleStyle.Render(r.DocumentTitle),
			scoreStyle.Render(fmt.Sprintf("(%.2f)", score)))
		cmd.Printf("      %s\n", mutedStyle.Render(r.Manufacturer))
		cmd.Println(contentStyle.Render(snippet(r.Content, 240)))
		cmd.Println()
	}
	return nil
}

// snippet truncates content at a rune boundary for terminal display.
func snippet(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
