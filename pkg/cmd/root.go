package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

const (
	// ExitUserError is returned when the transformation itself is at fault,
	// e.g. an invalid configuration or a failing query.
	ExitUserError = 1

	// ExitAppError is returned for every other failure.
	ExitAppError = 2
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Logger     *slog.Logger
		LogLevel   *slog.LevelVar
		Shutdowner fx.Shutdowner
		Status     *ExitStatus
		Version    *Version
	}

	// ExitStatus holds the exit code of the command run by the application.
	// Until the command returns the code is ExitAppError, so a process stopped
	// mid-run never reports success.
	ExitStatus struct {
		mu       sync.Mutex
		code     int
		finished bool
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run creates the synapse-transformation CLI application and schedules it to
// execute once the fx application starts.
//
// The application is created with:
//   - Global --data-dir flag pointing at the directory holding config.json
//   - Global --debug flag enabling debug logs
//   - Command registration and routing
//   - Context propagation for cancellation support
//
// Global Flags:
//   - --data-dir, -d: Data directory (env KBC_DATADIR, defaults to /data)
//   - --debug: Log at debug level
//
// When the command finishes the fx application is shut down with an exit code
// derived from the returned error, see ExitCode. Stopping the application
// cancels the command and waits for it to return. A command interrupted this
// way always exits with ExitAppError. The code is recorded in p.Status.
//
// Example usage:
//
//	synapse-transformation run
//	synapse-transformation --data-dir ./data --debug run
//	KBC_DATADIR=./data synapse-transformation validate
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := &cli.Command{
		Name:  "synapse-transformation",
		Usage: "Run SQL transformations in an Azure Synapse dedicated SQL pool",
		Description: `synapse-transformation executes the blocks of a transformation configuration
statement by statement against a Synapse workspace, then writes a manifest
describing every declared output table.`,
		Version: p.Version.Version,
		Flags:   globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				p.LogLevel.Set(slog.LevelDebug)
			}
			return ctx, nil
		},
		Commands: p.Commands,
	}

	ctx, cancel := context.WithCancel(p.Ctx)
	done := make(chan struct{})

	p.Lifecycle.Append(fx.StartStopHook(
		func() {
			// Runs outside of the hook so long transformations are not bound by
			// the start timeout.
			go func() {
				defer close(done)

				code := 0
				if err := app.Run(ctx, p.Args); err != nil {
					p.Logger.Error(err.Error())

					code = ExitCode(err)
					if ctx.Err() != nil {
						code = ExitAppError
					}
				}

				p.Status.set(code)
				_ = p.Shutdowner.Shutdown(fx.ExitCode(code))
			}()
		},
		func(stopCtx context.Context) {
			cancel()

			select {
			case <-done:
			case <-stopCtx.Done():
				p.Logger.Error("Timed out waiting for the command to stop.")
			}
		},
	))
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "the directory holding config.json",
			Value:   "/data",
			Sources: cli.EnvVars("KBC_DATADIR"),
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "log at debug level",
		},
	}
}

func newExitStatus() *ExitStatus {
	return &ExitStatus{}
}

// Code returns the exit code of the finished command, or ExitAppError when it
// has not finished.
func (s *ExitStatus) Code() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.finished {
		return ExitAppError
	}
	return s.code
}

func (s *ExitStatus) set(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.code = code
	s.finished = true
}

// ExitCode maps an error to the process exit code. Errors reporting
// UserError() == true anywhere in their chain yield ExitUserError.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var userErr interface{ UserError() bool }
	if errors.As(err, &userErr) && userErr.UserError() {
		return ExitUserError
	}

	return ExitAppError
}
