package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// watchDebounce collapses bursts of file events into one re-index.
const watchDebounce = 500 * time.Millisecond

var (
	indexJSON  bool
	indexWatch bool
)

var indexCmd = &cobra.Command{
	Use:   "index <file-or-directory>",
	Short: "Index entity records",
	Long: `Loads entity records from a YAML or JSON file (or every such file in a
directory), splits them into fragments, embeds them and upserts them into
the vector index.

A file holds either a list of entities or a mapping with an "entities" key.
With --watch the command keeps running and re-indexes whenever the file or
directory changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var removeCmd = &cobra.Command{
	Use:   "remove <entity-id>",
	Short: "Remove an entity's fragments from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the result as JSON")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "re-index when the input changes")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(removeCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	location := args[0]

	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	if svc.Index == nil || svc.Entities == nil {
		return errors.New("index service not configured")
	}

	if err := indexOnce(cmd, svc, location); err != nil && !indexWatch {
		return err
	}
	if !indexWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchAndIndex(ctx, location, func() {
		if err := indexOnce(cmd, svc, location); err != nil {
			cmd.PrintErrf("Error: %v\n", err)
		}
	})
}

func indexOnce(cmd *cobra.Command, svc *Services, location string) error {
	entities, err := svc.Entities.Load(cmd.Context(), location)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}

	result, err := svc.Index.IndexEntities(cmd.Context(), entities)
	if result != nil {
		if indexJSON {
			if perr := printJSON(cmd, result); perr != nil {
				return perr
			}
		} else {
			printIndexResult(cmd, len(entities), result)
		}
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	return nil
}

func printIndexResult(cmd *cobra.Command, loaded int, result *domain.IndexResult) {
	status := "ok"
	if !result.Success {
		status = "incomplete"
	}
	cmd.Printf("Indexed %d of %d entities (%d/%d fragments) [%s]\n",
		result.IndexedCount, loaded, result.UpsertedFragments, result.TotalFragments, status)
	if result.Error != "" {
		cmd.Printf("  Error: %s\n", result.Error)
	}
}

// watchAndIndex calls reindex after changes under location settle.
// It blocks until ctx is cancelled.
func watchAndIndex(ctx context.Context, location string, reindex func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	info, err := os.Stat(location)
	if err != nil {
		return fmt.Errorf("stat %s: %w", location, err)
	}

	// Watch the parent of a file so editors that replace it are seen.
	dir, only := location, ""
	if !info.IsDir() {
		dir, only = filepath.Dir(location), filepath.Clean(location)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("Watching %s for changes", location)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event, only) {
				continue
			}
			logger.Debug("Change detected: %s %s", event.Op, event.Name)
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			reindex()
		}
	}
}

// relevantEvent reports whether the event should trigger a re-index.
// When only is set, events for other files are ignored.
func relevantEvent(event fsnotify.Event, only string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	if only != "" {
		return filepath.Clean(event.Name) == only
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	if svc.Index == nil {
		return errors.New("index service not configured")
	}

	if err := svc.Index.RemoveEntity(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
