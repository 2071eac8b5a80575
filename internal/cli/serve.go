package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/langbridge/internal/chat"
	"github.com/alanmeadows/langbridge/internal/dashboard"
	"github.com/alanmeadows/langbridge/internal/telemetry"
)

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default dashboard.port)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web chat dashboard",
	Long: `Serve the web chat dashboard.

Every browser tab gets its own conversation; all of them share one client
for the configured server. Prometheus metrics are exposed at /metrics and
thread state at /api/threads/{id}/state.`,
	Example: `  langbridge serve
  langbridge serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == 0 {
			port = appConfig.Dashboard.Port
		}

		client := newClient(appConfig)
		metrics := telemetry.New()
		observer := chat.NewMultiObserver(metrics, chat.NewSlogObserver(slog.Default()))

		srv := dashboard.NewServer(appConfig, client,
			dashboard.NewBridge(client, observer,
				dashboard.WithAllowedOrigins(appConfig.Dashboard.AllowedOrigins...)),
			dashboard.WithMetrics(metrics.Handler()),
		)
		return srv.Start(cmd.Context(), port)
	},
}
