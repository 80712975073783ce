// Command alphascreener analyzes crypto projects from the command line, over
// HTTP, or on a schedule.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"AlphaScreener/internal/app"
	"AlphaScreener/internal/config"
	"AlphaScreener/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:           "alphascreener",
		Short:         "Crypto project screener",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML); defaults to $ALPHA_SCREENER_CONFIG")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(analyzeCmd(&flags), serveCmd(&flags), watchCmd(&flags))
	return cmd
}

// bootstrap loads configuration and builds the application.
func bootstrap(ctx context.Context, flags *globalFlags) (*app.Application, config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, config.Config{}, err
	}
	return application, cfg, nil
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer application.Close()
			if addr != "" {
				application.SetAddr(addr)
			}
			return application.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides http.addr)")
	return cmd
}

func watchCmd(flags *globalFlags) *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-analyze the configured watchlist on the cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer application.Close()
			return application.Watch(cmd.Context(), now)
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "Refresh once immediately before scheduling")
	return cmd
}
