package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/pseudomuto/synapse-transformation/pkg/config"
	"github.com/pseudomuto/synapse-transformation/pkg/consts"
	"github.com/pseudomuto/synapse-transformation/pkg/manifest"
	"github.com/pseudomuto/synapse-transformation/pkg/synapse"
	"github.com/pseudomuto/synapse-transformation/pkg/transformation"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	// ConnectFunc opens the warehouse connection used by the run command.
	ConnectFunc func(context.Context, synapse.Options) (*synapse.Client, error)

	runParams struct {
		fx.In

		Connect ConnectFunc
		Loader  *config.Loader
		Logger  *slog.Logger
	}
)

func connect(ctx context.Context, opts synapse.Options) (*synapse.Client, error) {
	return synapse.NewClient(ctx, opts)
}

// runCmd creates the command executing a transformation.
//
// The command loads and validates <data-dir>/config.json, connects to the
// configured workspace, runs every block and writes the output table
// manifests to <data-dir>/out/tables.
//
// Example usage:
//
//	synapse-transformation --data-dir ./data run
func runCmd(p runParams) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the configured transformation",
		Description: `Execute every block of the transformation in declared order and write a
manifest for every output table.

Each statement is retried with exponential backoff before the run fails.
Empty scripts and bare SELECT statements are skipped.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dataDir := cmd.String("data-dir")

			cfg, err := p.Loader.Load(dataDir)
			if err != nil {
				return err
			}

			client, err := p.Connect(ctx, cfg.SynapseOptions())
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			run := transformation.New(transformation.Params{
				Config: cfg,
				Client: client,
				Sink:   manifest.NewFileSink(filepath.Join(dataDir, consts.OutputTablesDir)),
				Logger: p.Logger,
			})

			return run.Run(ctx)
		},
	}
}
