package main

import (
	"context"
	"os"

	"github.com/pseudomuto/synapse-transformation/pkg/cmd"
	"github.com/pseudomuto/synapse-transformation/pkg/config"
	"go.uber.org/fx"
)

// Set by GoReleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var status *cmd.ExitStatus

	// fx stops the application on SIGINT and SIGTERM, which cancels the
	// running command.
	fx.New(
		fx.NopLogger,
		fx.Supply(
			os.Args,
			&cmd.Version{
				Version:   version,
				Commit:    commit,
				Timestamp: date,
			},
		),
		fx.Provide(context.Background),
		config.Module,
		cmd.Module,
		fx.Populate(&status),
	).Run()

	os.Exit(status.Code())
}
