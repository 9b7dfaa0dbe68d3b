package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dovecote/drover/internal/config"
	"github.com/dovecote/drover/internal/notify"
	"github.com/dovecote/drover/internal/printer"
	"github.com/dovecote/drover/internal/relay"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream notifications from a running drover",
	Long: `Stream notifications and subject changes published by a running drover
daemon over its Redis relay.

Requires relay.redis_url (or DROVER_REDIS_URL) to point at the same Redis
the daemon publishes to. Press Ctrl+C to stop watching.

Examples:
  DROVER_REDIS_URL=redis://localhost:6379 drover watch`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Relay.RedisURL == "" {
		return printer.Error(
			"relay is not configured",
			"Watching requires the Redis relay the run daemon publishes to.",
			[]string{
				"Set the relay URL:\n  export DROVER_REDIS_URL=redis://localhost:6379",
				"Or add it to drover.yml:\n  relay:\n    redis_url: redis://localhost:6379",
			},
		)
	}

	redisOpts, err := redis.ParseURL(cfg.Relay.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse relay Redis URL: %w", err)
	}

	logger := log.New()
	logger.SetLevel(log.WarnLevel)

	rly, err := relay.New(redisOpts, cfg.Board.ID, logger)
	if err != nil {
		return fmt.Errorf("failed to create relay client: %w", err)
	}
	defer rly.Close()

	if err := rly.Ping(ctx); err != nil {
		return printer.Error(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.Relay.RedisURL),
			[]string{
				"Check that the relay Redis is running and reachable",
				"Check that the run daemon uses the same relay.redis_url",
			},
		)
	}

	sub, err := rly.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to relay: %w", err)
	}
	defer sub.Close()

	printer.Info("Watching board %s (Ctrl+C to stop)...\n", cfg.Board.ID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	for {
		select {
		case <-sigCh:
			printer.Info("\nStopped watching.\n")
			return nil
		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			// Malformed payloads are skipped, the stream keeps going
			printer.Warning("dropped event: %v\n", err)
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			printEvent(ev)
		}
	}
}

func printEvent(ev relay.Event) {
	switch {
	case ev.Notification != nil:
		n := ev.Notification
		at := time.UnixMilli(n.SentAtMs).Format("15:04:05")
		if n.Severity == notify.SeverityHigh {
			printer.Warning("%s  %s: %s\n", at, n.User, n.Message)
		} else {
			printer.Info("%s  %s: %s\n", at, n.User, n.Message)
		}
	case ev.Subject != nil:
		at := time.UnixMilli(ev.Subject.ChangedAtMs).Format("15:04:05")
		printer.Step("%s  subject is now %q\n", at, ev.Subject.Subject)
	}
}
