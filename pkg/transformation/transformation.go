package transformation

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pseudomuto/synapse-transformation/pkg/config"
	"github.com/pseudomuto/synapse-transformation/pkg/executor"
	"github.com/pseudomuto/synapse-transformation/pkg/format"
	"github.com/pseudomuto/synapse-transformation/pkg/manifest"
)

type (
	// Client defines the warehouse operations a run needs. *synapse.Client
	// implements it.
	Client interface {
		executor.Conn
		manifest.Reflector

		SetSessionContext(ctx context.Context, value *string) error
	}

	// Params contains everything needed to create a Transformation.
	Params struct {
		// Config is a validated configuration
		Config *config.Config

		// Client is the warehouse connection, owned by the caller
		Client Client

		// Sink receives the manifests of the output tables
		Sink manifest.Sink

		// Formatter defaults to format.New(format.Defaults)
		Formatter *format.Formatter

		// Backoff defaults to executor.DefaultBackoff
		Backoff executor.BackoffFactory

		// Logger defaults to a discarding logger
		Logger *slog.Logger
	}

	// Transformation is a single run of the configured blocks followed by the
	// reconciliation of the output tables.
	//
	// Example usage:
	//
	//	t := transformation.New(transformation.Params{
	//		Config: cfg,
	//		Client: client,
	//		Sink:   manifest.NewFileSink(filepath.Join(dataDir, consts.OutputTablesDir)),
	//		Logger: logger,
	//	})
	//
	//	if err := t.Run(ctx); err != nil {
	//		return err
	//	}
	Transformation struct {
		id     uuid.UUID
		cfg    *config.Config
		client Client
		exec   *executor.Executor
		writer *manifest.Writer
		logger *slog.Logger
	}
)

// New creates a Transformation. Every log record of the run carries a
// generated run_id attribute.
func New(p Params) *Transformation {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	id := uuid.New()
	logger = logger.With(slog.String("run_id", id.String()))

	return &Transformation{
		id:     id,
		cfg:    p.Config,
		client: p.Client,
		exec: executor.New(executor.Config{
			Conn:      p.Client,
			Formatter: p.Formatter,
			Backoff:   p.Backoff,
			Logger:    logger,
		}),
		writer: manifest.NewWriter(manifest.Config{
			Reflector: p.Client,
			Sink:      p.Sink,
			Logger:    logger,
		}),
		logger: logger,
	}
}

// ID returns the identifier attached to the logs of the run.
func (t *Transformation) ID() uuid.UUID {
	return t.id
}

// Run tags the session with the configured workload management context,
// executes every block, writes the output table manifests and finally clears
// the session context.
//
// The first failing step ends the run and its error is returned unchanged, so
// callers can inspect it with errors.As.
func (t *Transformation) Run(ctx context.Context) error {
	if err := t.client.SetSessionContext(ctx, t.cfg.SessionContext()); err != nil {
		return err
	}

	if _, err := t.exec.Execute(ctx, t.cfg.Blocks()); err != nil {
		return err
	}

	if err := t.writer.ProcessTables(ctx, t.cfg.OutputTables()); err != nil {
		return err
	}

	if err := t.client.SetSessionContext(ctx, nil); err != nil {
		return errors.Wrap(err, "failed to reset the session context")
	}

	t.logger.Debug("Transformation finished.")
	return nil
}
