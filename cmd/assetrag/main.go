// Command assetrag answers questions over token and asset records.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/assetrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/assetrag/internal/app"
)

// version is injected at build time via ldflags.
var version = "dev"

func main() {
	cfg := app.Config{Dir: os.Getenv("ASSETRAG_HOME")}

	settings, err := app.Settings(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	cli.SetSettingsService(settings)
	cli.SetServiceBuilder(app.Builder(cfg, settings))

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
