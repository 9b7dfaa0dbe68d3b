package commands

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/dovecote/drover/internal/config"
	"github.com/dovecote/drover/internal/deploy"
	"github.com/dovecote/drover/internal/notify"
	"github.com/dovecote/drover/internal/printer"
	"github.com/dovecote/drover/pkg/board"
)

// newCoordinator builds a coordinator for one-shot CLI commands: load
// configuration, connect to the board, resolve the queue columns. Daemon-only
// wiring (monitor, HTTP API, relay) lives in the run command.
func newCoordinator(ctx context.Context) (*deploy.Coordinator, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, printer.Error(
			"configuration is not valid",
			err.Error(),
			[]string{
				"Set the required environment variables:\n  export DROVER_BOARD_ID=<board id>\n  export DROVER_BOARD_KEY=<api key>\n  export DROVER_BOARD_TOKEN=<api token>",
				"Or point --config at a drover.yml with a board section",
			},
		)
	}

	client, err := board.NewClient(board.Config{
		BaseURL: cfg.Board.URL,
		Key:     cfg.Board.Key,
		Token:   cfg.Board.Token,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create board client: %w", err)
	}

	columns, err := deploy.ResolveColumns(ctx, client, cfg.Board.ID, cfg.Columns.Queue, cfg.Columns.Running, cfg.Columns.Done)
	if err != nil {
		return nil, nil, printer.Error(
			"queue columns not found",
			fmt.Sprintf("Error: %v", err),
			[]string{
				fmt.Sprintf("Create the %q, %q and %q lists on the board", cfg.Columns.Queue, cfg.Columns.Running, cfg.Columns.Done),
				"Or rename them in drover.yml under the columns section",
			},
		)
	}

	// The printer owns user-facing output for one-shot commands; keep
	// coordinator logs down to warnings.
	logger := log.New()
	logger.SetLevel(log.WarnLevel)

	coord := deploy.New(client, cfg.Board.ID, columns, notify.NewDispatcher(), notify.NewSubjectPublisher(), logger)
	return coord, cfg, nil
}
