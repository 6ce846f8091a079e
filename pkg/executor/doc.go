// Package executor runs transformation scripts against a Synapse warehouse.
//
// The executor walks blocks, codes and scripts in the order they are declared
// and sends one statement at a time to the warehouse. Nothing is reordered or
// run in parallel, so a script may depend on every statement before it.
//
// # Core Components
//
//   - Executor: Main execution engine for a list of blocks
//   - Config: Configuration options for executor creation
//   - ExecutionResult: Outcome of every processed script
//   - StatementExecutionError: Error describing the statement that stopped the run
//
// # Script Handling
//
// Every script goes through the following steps:
//
//   - Comments are removed with the configured format.Formatter. A script
//     with nothing left is skipped ("Ignoring empty query.").
//   - Bare SELECT statements are skipped because they produce nothing. The
//     check is textual: the statement starts with SELECT and contains no INTO.
//   - Any other statement is executed. Failed attempts are retried, up to
//     MaxAttempts in total, with the delays produced by the Backoff factory.
//   - When every attempt fails the run stops with a StatementExecutionError
//     carrying the server message without driver prefixes.
//
// # Usage Example
//
//	exec := executor.New(executor.Config{
//		Conn:      client,
//		Formatter: format.New(format.Defaults),
//		Backoff:   executor.DefaultBackoff,
//		Logger:    logger,
//	})
//
//	results, err := exec.Execute(ctx, cfg.Blocks())
//	if err != nil {
//		return err
//	}
//
//	for _, r := range results {
//		switch r.Status {
//		case executor.StatusSuccess:
//			fmt.Printf("✓ %s (%d rows, %v)\n", r.Query, r.RowsAffected, r.ExecutionTime)
//		case executor.StatusSkipped:
//			fmt.Printf("- %s\n", r.Query)
//		}
//	}
//
// Tests can replace the delay schedule with one that never sleeps:
//
//	exec := executor.New(executor.Config{
//		Conn:    conn,
//		Backoff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
//	})
package executor
