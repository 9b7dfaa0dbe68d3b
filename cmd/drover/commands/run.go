package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dovecote/drover/internal/api"
	"github.com/dovecote/drover/internal/config"
	"github.com/dovecote/drover/internal/deploy"
	"github.com/dovecote/drover/internal/notify"
	"github.com/dovecote/drover/internal/relay"
	"github.com/dovecote/drover/pkg/board"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the deploy queue daemon",
	Long: `Run the drover daemon: poll the board, notify whoever is at the front of
the line, rotate users who stall while others wait, and serve the HTTP
command API.

The daemon keeps no state of its own. Everything it knows lives on the
board, so it can be restarted at any time.

Examples:
  # Run against the board configured in drover.yml
  drover run

  # Environment-only configuration
  DROVER_BOARD_ID=... DROVER_BOARD_KEY=... DROVER_BOARD_TOKEN=... drover run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	// 1. Configure logging
	logger := log.New()
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		logger.SetLevel(log.DebugLevel)
	}

	// 2. Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// 3. Create board client
	client, err := board.NewClient(board.Config{
		BaseURL: cfg.Board.URL,
		Key:     cfg.Board.Key,
		Token:   cfg.Board.Token,
	})
	if err != nil {
		return fmt.Errorf("failed to create board client: %w", err)
	}

	// 4. Resolve queue columns up front; failing fast beats polling a
	// misconfigured board every 3 seconds
	ctx := context.Background()
	columns, err := deploy.ResolveColumns(ctx, client, cfg.Board.ID, cfg.Columns.Queue, cfg.Columns.Running, cfg.Columns.Done)
	if err != nil {
		return fmt.Errorf("failed to resolve board columns: %w", err)
	}

	// 5. Wire notification sinks
	notifier := notify.NewDispatcher()
	notifier.Register(notify.LogSink(logger))
	subjects := notify.NewSubjectPublisher()
	subjects.Register(notify.LogSubjectSink(logger))

	// 6. Optional Redis relay for chat-side delivery
	if cfg.Relay.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.Relay.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse relay Redis URL: %w", err)
		}
		rly, err := relay.New(redisOpts, cfg.Board.ID, logger)
		if err != nil {
			return fmt.Errorf("failed to create relay: %w", err)
		}
		defer rly.Close()
		if err := rly.Ping(ctx); err != nil {
			return fmt.Errorf("relay Redis not accessible: %w", err)
		}
		notifier.Register(rly.NotificationSink(ctx))
		subjects.Register(rly.SubjectSink(ctx))
		logger.Info("relay enabled")
	}

	// 7. Create coordinator and monitor
	coord := deploy.New(client, cfg.Board.ID, columns, notifier, subjects, logger)
	monitor := deploy.NewMonitor(coord, time.Duration(cfg.Monitor.PollInterval), time.Duration(cfg.Monitor.NotifyPatience), logger)

	// 8. HTTP command API
	e := echo.New()
	e.HideBanner = true
	api.Register(e, coord, cfg.API.Token)

	logger.WithFields(log.Fields{
		"board":    cfg.Board.ID,
		"listen":   cfg.API.ListenAddr,
		"poll":     time.Duration(cfg.Monitor.PollInterval).String(),
		"patience": time.Duration(cfg.Monitor.NotifyPatience).String(),
	}).Info("drover starting")

	// 9. Setup graceful shutdown
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	// 10. Start monitor and API server in goroutines
	errCh := make(chan error, 2)
	go func() {
		errCh <- monitor.Run(runCtx)
	}()
	go func() {
		if err := e.Start(cfg.API.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// 11. Wait for shutdown signal or first error
	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
		stopServer(e, logger)
		cancel()
		// Wait for the monitor and the server goroutines to finish
		<-errCh
		<-errCh
	case runErr := <-errCh:
		stopServer(e, logger)
		cancel()
		<-errCh
		if runErr != nil {
			return fmt.Errorf("daemon failed: %w", runErr)
		}
	}

	logger.Info("drover stopped")
	return nil
}

// stopServer gives in-flight API requests a grace period before the daemon
// exits.
func stopServer(e *echo.Echo, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("failed to shut down API server")
	}
}
