// Package cli implements the assetrag command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/core/ports/driving"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services is the set of ports the commands run against.
type Services struct {
	Index    driving.IndexService
	Query    driving.QueryService
	Sessions driving.SessionService
	Admin    driving.AdminService
	Entities driven.EntitySource

	// Address is where serve listens unless --addr is given.
	Address string
}

// Builder constructs Services on first use. The returned closer releases
// everything the services hold.
type Builder func(ctx context.Context) (*Services, func() error, error)

var (
	settingsService driving.SettingsService
	buildServices   Builder

	servicesMu sync.Mutex
	services   *Services
	closer     func() error
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "assetrag",
	Short: "Question answering over token and asset records",
	Long: `assetrag indexes token and asset records into a vector index and answers
natural-language questions about them with a completion model.

Configuration is read from ~/.assetrag/config.toml and overridden by
environment variables (a .env file in the working directory is loaded first).`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetSettingsService sets the settings service used by settings commands.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetServiceBuilder sets how pipeline services are built on first use.
func SetServiceBuilder(b Builder) {
	buildServices = b
}

// SetServices installs already-built services.
func SetServices(s *Services) {
	servicesMu.Lock()
	defer servicesMu.Unlock()
	services = s
}

// Execute runs the root command and releases any services it built.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeServices(); cerr != nil {
		logger.Warn("Failed to release resources: %v", cerr)
	}
	return err
}

// loadServices builds the services once.
func loadServices(ctx context.Context) (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	if services != nil {
		return services, nil
	}
	if buildServices == nil {
		return nil, errors.New("services not configured")
	}

	built, release, err := buildServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("startup failed: %w", err)
	}
	services, closer = built, release
	return services, nil
}

func closeServices() error {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	if closer == nil {
		return nil
	}
	err := closer()
	closer = nil
	services = nil
	return err
}
