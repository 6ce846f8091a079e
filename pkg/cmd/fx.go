package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		newLogLevel,
		newLogger,
		newExitStatus,
		func() ConnectFunc { return connect },
	),
	fx.Provide(
		fx.Annotate(runCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(validateCmd, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
