package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/assetrag/internal/adapters/driving/gateway"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket gateway",
	Long: `Serves the pipeline over HTTP:

  GET    /health
  GET    /api/stats
  POST   /api/index                 {"entities": [...]}
  DELETE /api/index
  DELETE /api/entities/:id
  POST   /api/query                 {"query": "...", "history": [...]}
  GET    /api/search/:identifier
  POST   /api/sessions              {"id": "optional"}
  GET    /api/sessions/:id/messages
  POST   /api/sessions/:id/messages {"query": "..."}
  DELETE /api/sessions/:id
  GET    /ws                        one conversation per connection`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.address)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = svc.Address
	}

	server, err := gateway.NewServer(&gateway.Ports{
		Index:    svc.Index,
		Query:    svc.Query,
		Sessions: svc.Sessions,
		Admin:    svc.Admin,
	}, addr)
	if err != nil {
		return err
	}

	if err := server.Start(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Gateway listening on %s\n", server.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Stop(shutdownCtx)
}
