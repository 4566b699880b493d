package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	statsJSON  bool
	healthJSON bool
	clearYes   bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that every provider is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every vector in the index",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output as JSON")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip confirmation")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(clearCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	if svc.Admin == nil {
		return errors.New("admin service not configured")
	}

	stats, err := svc.Admin.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}
	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Println("[Index]")
	cmd.Printf("  Name: %s\n", stats.Index.Name)
	cmd.Printf("  Dimension: %d\n", stats.Index.Dimension)
	cmd.Printf("  Vectors: %d\n", stats.Index.VectorCount)
	cmd.Printf("  Fullness: %.2f%%\n", stats.Index.Fullness*100)
	cmd.Println()
	cmd.Println("[Models]")
	cmd.Printf("  Embedding: %s\n", stats.EmbeddingModel)
	cmd.Printf("  LLM: %s\n", orDash(stats.LLMModel))
	cmd.Println()
	cmd.Printf("Active sessions: %d\n", stats.ActiveSessions)

	if len(stats.RecentRuns) > 0 {
		cmd.Println()
		cmd.Println("[Recent runs]")
		for _, run := range stats.RecentRuns {
			status := "ok"
			if !run.Success {
				status = "failed"
			}
			cmd.Printf("  %s  %d/%d entities  %d fragments  %s\n",
				run.StartedAt.Format("2006-01-02 15:04:05"), run.IndexedCount, run.EntityCount, run.Upserted, status)
		}
	}
	return nil
}

func runHealth(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	if svc.Admin == nil {
		return errors.New("admin service not configured")
	}

	health := svc.Admin.Health(cmd.Context())
	if healthJSON {
		if err := printJSON(cmd, health); err != nil {
			return err
		}
	} else {
		for _, c := range health.Components {
			if c.OK {
				cmd.Printf("  %-14s ok\n", c.Name)
			} else {
				cmd.Printf("  %-14s FAIL  %s\n", c.Name, c.Error)
			}
		}
	}

	if !health.Healthy {
		return errors.New("one or more components are unhealthy")
	}
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	if svc.Admin == nil {
		return errors.New("admin service not configured")
	}

	if !clearYes {
		cmd.Print("Delete every vector in the index? [y/N]: ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := svc.Admin.ClearIndex(cmd.Context()); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
