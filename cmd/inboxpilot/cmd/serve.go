package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/inboxpilot/inboxpilot/pkg/ai"
	"github.com/inboxpilot/inboxpilot/pkg/assistant"
	"github.com/inboxpilot/inboxpilot/pkg/auth"
	"github.com/inboxpilot/inboxpilot/pkg/cache"
	"github.com/inboxpilot/inboxpilot/pkg/config"
	"github.com/inboxpilot/inboxpilot/pkg/logging"
	"github.com/inboxpilot/inboxpilot/pkg/mail"
	"github.com/inboxpilot/inboxpilot/pkg/server"
	"github.com/inboxpilot/inboxpilot/pkg/session"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the email assistant server",
	Long: `Start the InboxPilot server with the specified configuration.

The server will:
- Load and validate the configuration file
- Initialize the in-memory session store with periodic expiry sweeps
- Construct the configured AI provider behind the retry/fallback gateway
- Open the summary cache backend
- Serve the login flow and chat API
- Handle graceful shutdown on SIGTERM/SIGINT`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

const shutdownGrace = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewFileLoader(cfgFile).Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Pretty)
	logger.Info().Str("version", version).Str("provider", cfg.AI.Provider).Msg("starting inboxpilot")

	ttl, err := cfg.Session.GetTTL()
	if err != nil {
		return fmt.Errorf("invalid session ttl: %w", err)
	}
	sweepInterval, err := cfg.Session.GetSweepInterval()
	if err != nil {
		return fmt.Errorf("invalid sweep interval: %w", err)
	}
	store := session.NewMemoryStore(ttl, sweepInterval)
	defer store.Close()

	provider, err := ai.New(cfg.AI)
	if err != nil {
		return err
	}
	baseDelay, err := cfg.AI.GetBaseDelay()
	if err != nil {
		return fmt.Errorf("invalid base delay: %w", err)
	}
	gateway := ai.NewGateway(provider,
		ai.WithMaxAttempts(cfg.AI.MaxAttempts),
		ai.WithBaseDelay(baseDelay),
		ai.WithLogger(logging.Module(logger, "ai")),
	)

	summaries, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	defer summaries.Close()

	opts := []assistant.Option{
		assistant.WithLogger(logging.Module(logger, "assistant")),
		assistant.WithRenderer(mail.NewRenderer(cfg.Outbound.Product)),
	}
	shared, err := mail.NewSender(cfg.Outbound)
	if err != nil {
		return err
	}
	if shared != nil {
		opts = append(opts, assistant.WithSenderFactory(
			func(context.Context, *auth.Credentials) mail.Sender { return shared },
		))
	}
	a := assistant.New(store, gateway, summaries, opts...)

	flow := auth.NewFlow(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL)
	srv := server.New(cfg.Server, flow, a, logging.Module(logger, "http"))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watchConfig(ctx, logger)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// watchConfig follows the config file and applies the log level live.
// Everything else needs a restart; the watcher says so instead of
// silently ignoring edits.
func watchConfig(ctx context.Context, logger zerolog.Logger) {
	watcher, err := config.NewWatcher(cfgFile, func(cfg *config.Config, err error) {
		if err != nil {
			logger.Warn().Err(err).Msg("config change rejected")
			return
		}
		zerolog.SetGlobalLevel(logging.ParseLevel(cfg.Logging.Level))
		logger.Info().Str("level", cfg.Logging.Level).
			Msg("config changed, log level applied; other changes need a restart")
	})
	if err != nil {
		logger.Warn().Err(err).Msg("config watcher unavailable")
		return
	}

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn().Err(err).Msg("config watcher stopped")
	}
}
