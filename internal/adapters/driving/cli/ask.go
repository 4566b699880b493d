package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

var (
	askJSON    bool
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed records",
	Long: `Retrieves the most relevant fragments for the question, assembles them
into context and asks the completion model for an answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "list the fragments used as context")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	if svc.Query == nil {
		return errors.New("query service not configured")
	}

	result, err := svc.Query.AnswerQuery(cmd.Context(), strings.Join(args, " "), nil)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, result)
	}
	printAnswer(cmd, result, askSources)
	return nil
}

// printAnswer writes the response followed by a one-line summary.
func printAnswer(cmd *cobra.Command, result *domain.AnswerResult, withSources bool) {
	cmd.Println(result.Response)
	cmd.Println()
	cmd.Printf("confidence %.2f, %d tokens, %d sources, %s\n",
		result.Confidence, result.TokensUsed, len(result.Sources), result.ProcessingTime.Round(time.Millisecond))

	if !withSources {
		return
	}
	for i := range result.Sources {
		meta := result.Sources[i].Metadata
		cmd.Printf("  [%d] %s (%s) %.2f\n", i+1, meta.ParentName, meta.Symbol, result.Sources[i].Score)
	}
}

// firstLine returns the first line of s, truncated to limit runes.
func firstLine(s string, limit int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
