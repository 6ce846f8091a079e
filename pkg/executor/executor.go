package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/pseudomuto/synapse-transformation/pkg/format"
	"github.com/pseudomuto/synapse-transformation/pkg/script"
	"github.com/pseudomuto/synapse-transformation/pkg/synapse"
)

// MaxAttempts is the number of times a statement is tried before the run fails.
const MaxAttempts = 5

type (
	// Conn defines the warehouse operations required by the executor.
	Conn interface {
		Exec(ctx context.Context, query string, args ...any) (int64, error)
	}

	// BackoffFactory builds the delay schedule used between attempts of a
	// single statement. A fresh policy is requested for every statement.
	BackoffFactory func() backoff.BackOff

	// Executor runs the scripts of a transformation against the warehouse.
	//
	// Blocks, codes and scripts are processed strictly in declared order, one
	// statement at a time. Comment-only scripts and bare SELECT statements are
	// skipped. Every other statement is retried with backoff and the first
	// statement that keeps failing stops the run.
	//
	// Example usage:
	//
	//	exec := executor.New(executor.Config{
	//		Conn:      client,
	//		Formatter: format.New(format.Defaults),
	//		Logger:    slog.Default(),
	//	})
	//
	//	results, err := exec.Execute(ctx, cfg.Blocks())
	//	if err != nil {
	//		return err
	//	}
	//
	//	for _, result := range results {
	//		fmt.Printf("%s/%s #%d: %s\n", result.Block, result.Code, result.Index, result.Status)
	//	}
	Executor struct {
		conn      Conn
		formatter *format.Formatter
		backoff   BackoffFactory
		logger    *slog.Logger
	}

	// Config contains configuration options for creating a new Executor.
	Config struct {
		// Conn is the warehouse connection statements are executed on
		Conn Conn

		// Formatter strips comments and renders statements for logs.
		// Defaults to format.New(format.Defaults).
		Formatter *format.Formatter

		// Backoff builds the delay schedule between attempts. Defaults to DefaultBackoff.
		Backoff BackoffFactory

		// Logger receives progress messages. Defaults to a discarding logger.
		Logger *slog.Logger
	}

	// ExecutionResult contains the result of processing a single script.
	ExecutionResult struct {
		// Block is the name of the block the script belongs to
		Block string

		// Code is the name of the code the script belongs to
		Code string

		// Index is the position of the script within its code
		Index int

		// Query is the statement after comment removal
		Query string

		// Status indicates the outcome of the script
		Status ExecutionStatus

		// Error contains the error of the last attempt of a failed statement
		Error error

		// Attempts is the number of times the statement was sent to the warehouse
		Attempts int

		// RowsAffected is reported by the warehouse for successful statements
		RowsAffected int64

		// ExecutionTime records how long the statement took, retries included
		ExecutionTime time.Duration
	}

	// ExecutionStatus represents the outcome of a script.
	ExecutionStatus string

	// StatementExecutionError is returned when a statement fails on every attempt.
	StatementExecutionError struct {
		// Query is the statement as rendered for logs
		Query string

		// Block is the name of the block containing the statement
		Block string

		// Code is the name of the code containing the statement
		Code string

		// Message is the server message with driver prefixes removed
		Message string

		// Err is the error returned by the last attempt
		Err error
	}
)

const (
	// StatusSuccess indicates the statement was executed successfully
	StatusSuccess ExecutionStatus = "success"

	// StatusFailed indicates the statement failed on every attempt
	StatusFailed ExecutionStatus = "failed"

	// StatusSkipped indicates the script was empty or a bare SELECT
	StatusSkipped ExecutionStatus = "skipped"
)

// New creates a new executor with the provided configuration.
//
// Example usage:
//
//	exec := executor.New(executor.Config{
//		Conn:      client,
//		Formatter: format.New(format.Defaults),
//		Backoff:   executor.DefaultBackoff,
//		Logger:    logger,
//	})
func New(config Config) *Executor {
	e := &Executor{
		conn:      config.Conn,
		formatter: config.Formatter,
		backoff:   config.Backoff,
		logger:    config.Logger,
	}

	if e.formatter == nil {
		e.formatter = format.New(format.Defaults)
	}

	if e.backoff == nil {
		e.backoff = DefaultBackoff
	}

	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return e
}

// DefaultBackoff returns the production delay schedule: exponential backoff
// starting at 100ms, doubling up to 30s, without jitter.
func DefaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

// Execute runs every script of blocks in declared order.
//
// Results are returned for every script processed so far, including the
// failed one. When a statement fails on all MaxAttempts attempts, execution
// stops and a *StatementExecutionError is returned. Cancelling ctx stops the
// run between attempts and returns the context error.
//
// Example usage:
//
//	results, err := exec.Execute(ctx, blocks)
//
//	var stmtErr *executor.StatementExecutionError
//	if errors.As(err, &stmtErr) {
//		fmt.Println(stmtErr.Block, stmtErr.Code, stmtErr.Message)
//	}
func (e *Executor) Execute(ctx context.Context, blocks []script.Block) ([]*ExecutionResult, error) {
	var results []*ExecutionResult

	for _, block := range blocks {
		e.logger.Info(fmt.Sprintf(`Processing block "%s".`, block.Name))

		for _, code := range block.Codes {
			e.logger.Info(fmt.Sprintf(`Processing code "%s".`, code.Name))

			for i, s := range code.Scripts {
				result, err := e.executeScript(ctx, block.Name, code.Name, i, s)
				results = append(results, result)

				if err != nil {
					return results, err
				}
			}
		}
	}

	return results, nil
}

func (e *Executor) executeScript(
	ctx context.Context,
	block, code string,
	index int,
	s script.Script,
) (*ExecutionResult, error) {
	query := e.formatter.StripComments(s.RawSQL)
	result := &ExecutionResult{
		Block: block,
		Code:  code,
		Index: index,
		Query: query,
	}

	if query == "" {
		e.logger.Info("Ignoring empty query.")
		result.Status = StatusSkipped
		return result, nil
	}

	rendered := e.formatter.RenderForLog(query)

	if e.IsSelect(query) {
		e.logger.Info(fmt.Sprintf(`Ignoring select query "%s".`, rendered))
		result.Status = StatusSkipped
		return result, nil
	}

	e.logger.Info(fmt.Sprintf(`Running query "%s".`, rendered))

	start := time.Now()
	err := e.run(ctx, query, result)
	result.ExecutionTime = time.Since(start)

	if err == nil {
		result.Status = StatusSuccess
		return result, nil
	}

	result.Status = StatusFailed
	result.Error = err

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, errors.Wrapf(ctxErr, "execution of block %q and code %q interrupted", block, code)
	}

	return result, &StatementExecutionError{
		Query:   rendered,
		Block:   block,
		Code:    code,
		Message: synapse.CleanMessage(err),
		Err:     err,
	}
}

func (e *Executor) run(ctx context.Context, query string, result *ExecutionResult) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(e.backoff(), MaxAttempts-1), ctx)

	op := func() error {
		result.Attempts++

		n, err := e.conn.Exec(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}

		result.RowsAffected = n
		return nil
	}

	notify := func(err error, delay time.Duration) {
		e.logger.Warn(
			fmt.Sprintf("Query failed, retrying in %s (attempt %d of %d).", delay, result.Attempts+1, MaxAttempts),
			slog.String("error", synapse.CleanMessage(err)),
		)
	}

	return backoff.RetryNotify(op, policy, notify)
}

// IsSelect reports whether query is a bare read: with all whitespace removed
// it starts with SELECT (case-insensitively) and contains no INTO after the
// first character. Such statements have no effect and are not executed.
// Only ASCII letters are folded, so "ſelect" is not a SELECT.
//
// The check is textual. SELECT statements writing through INTO are executed,
// and so is anything mentioning INTO elsewhere, e.g. a column named "into_x".
func (e *Executor) IsSelect(query string) bool {
	compact := upperASCII(e.formatter.RemoveWhitespace(query))
	if !strings.HasPrefix(compact, "SELECT") {
		return false
	}

	return strings.Index(compact, "INTO") <= 0
}

func upperASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'a' <= r && r <= 'z' {
			return r - ('a' - 'A')
		}
		return r
	}, s)
}

func (e *StatementExecutionError) Error() string {
	return fmt.Sprintf(
		`Query "%s" from block "%s" and code "%s" failed: "%s"`,
		e.Query,
		e.Block,
		e.Code,
		e.Message,
	)
}

func (e *StatementExecutionError) Unwrap() error { return e.Err }

// UserError marks the error as caused by the transformation itself.
func (e *StatementExecutionError) UserError() bool { return true }
