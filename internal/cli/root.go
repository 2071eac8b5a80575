package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/langbridge/internal/config"
	"github.com/alanmeadows/langbridge/internal/logging"
)

var (
	verbose    bool
	logFormat  string
	configPath string
	appConfig  *config.Config

	rootCmd = &cobra.Command{
		Use:   "langbridge",
		Short: "Chat with a LangGraph deployment from the terminal or a browser",
		Long: `langbridge is a client for LangGraph conversation servers.

It opens a thread lazily on the first message, streams every run back as it
is produced, and lets you inspect and edit a thread's server-side state.
The same conversation engine backs the terminal REPL and the web dashboard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Setup(verbose, logFormat); err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			appConfig = cfg
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatAuto, "Log format: auto, text or json")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Project config file (default .langbridge/langbridge.jsonc)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(threadCmd)
	rootCmd.AddCommand(assistantCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(presetCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command; SIGINT and SIGTERM cancel its context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
