package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <identifier>",
	Short: "Find an asset by symbol, ID or name",
	Long: `Looks up fragments by exact ticker symbol first, then by exact entity ID,
and finally falls back to a semantic search over the index.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	if svc.Query == nil {
		return errors.New("query service not configured")
	}

	results, err := svc.Query.SearchByIdentifier(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, results)
	}

	outputSearchTable(cmd, results)
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SimilarityResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] Name (SYMBOL) - fragment i/n (score)
		meta := results[i].Metadata
		name := meta.ParentName
		if name == "" {
			name = meta.ParentID
		}

		cmd.Printf("  [%d] %s (%s) %.2f\n", i+1, name, meta.Symbol, results[i].Score)
		cmd.Printf("      Fragment %d/%d of %s\n", meta.Index+1, meta.TotalForParent, meta.ParentID)
		if snippet := firstLine(results[i].Content, 100); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
}
