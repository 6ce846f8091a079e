package transformation_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cenkalti/backoff/v4"
	"github.com/pseudomuto/synapse-transformation/pkg/config"
	"github.com/pseudomuto/synapse-transformation/pkg/executor"
	"github.com/pseudomuto/synapse-transformation/pkg/manifest"
	"github.com/pseudomuto/synapse-transformation/pkg/synapse"
	"github.com/pseudomuto/synapse-transformation/pkg/testutil"
	"github.com/pseudomuto/synapse-transformation/pkg/transformation"
	"github.com/stretchr/testify/require"
)

const (
	setContext   = "EXEC sys.sp_set_session_context @key = 'wlm_context', @value = N'wlm-heavy';"
	resetContext = "EXEC sys.sp_set_session_context @key = 'wlm_context', @value = null;"
)

var columnNames = []string{"name", "type", "length", "nullable", "default"}

func loadConfig(t *testing.T, json string) *config.Config {
	t.Helper()

	cfg, err := config.LoadConfig(strings.NewReader(json))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func newMockClient(t *testing.T) (*synapse.Client, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	client := synapse.NewClientFromDB(db, synapse.Options{})
	t.Cleanup(func() {
		mock.ExpectClose()
		require.NoError(t, client.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	return client, mock
}

func zeroBackoff() backoff.BackOff { return &backoff.ZeroBackOff{} }

const ordersConfig = `{
	"authorization": {
		"context": "wlm-heavy",
		"workspace": {"host": "h", "user": "u", "password": "p", "database": "d"}
	},
	"parameters": {
		"blocks": [{
			"name": "Block 1",
			"codes": [{
				"name": "Code 1",
				"script": [
					"CREATE TABLE [orders] ([id] INT NOT NULL)",
					"-- only a comment",
					"SELECT * FROM [orders]",
					"INSERT INTO [orders] VALUES (1)"
				]
			}]
		}]
	},
	"storage": {"output": {"tables": [{"source": "orders", "destination": "out.c-main.orders"}]}}
}`

func TestTransformation_Run(t *testing.T) {
	client, mock := newMockClient(t)
	dir := t.TempDir()
	logger, rec := testutil.NewRecordingLogger()

	mock.ExpectExec(regexp.QuoteMeta(setContext)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE [orders] ([id] INT NOT NULL)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO [orders] VALUES (1)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT SCHEMA_NAME()")).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow("dbo"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sys.columns AS c")).
		WithArgs("dbo", "orders").
		WillReturnRows(sqlmock.NewRows(columnNames).AddRow("id", "int", int64(4), false, nil))
	mock.ExpectExec(regexp.QuoteMeta(resetContext)).WillReturnResult(sqlmock.NewResult(0, 0))

	run := transformation.New(transformation.Params{
		Config:  loadConfig(t, ordersConfig),
		Client:  client,
		Sink:    manifest.NewFileSink(dir),
		Backoff: zeroBackoff,
		Logger:  logger,
	})
	require.NoError(t, run.Run(context.Background()))

	require.Equal(t, []string{
		`Processing block "Block 1".`,
		`Processing code "Code 1".`,
		`Running query "CREATE TABLE [orders] ([id] INT NOT NULL)".`,
		`Ignoring empty query.`,
		`Ignoring select query "SELECT * FROM [orders]".`,
		`Running query "INSERT INTO [orders] VALUES (1)".`,
		`Created manifest for table "orders".`,
		`Transformation finished.`,
	}, rec.Messages())

	for _, r := range rec.Records() {
		id, ok := testutil.Attr(r, "run_id")
		require.True(t, ok)
		require.Equal(t, run.ID().String(), id.String())
	}

	_, err := os.Stat(filepath.Join(dir, "orders.manifest"))
	require.NoError(t, err)
}

func TestTransformation_RunWithoutContext(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec(regexp.QuoteMeta(resetContext)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE #tmp (id INT)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(resetContext)).WillReturnResult(sqlmock.NewResult(0, 0))

	cfg := loadConfig(t, `{
		"authorization": {"workspace": {"host": "h", "user": "u", "password": "p", "database": "d"}},
		"parameters": {"blocks": [{"name": "B", "codes": [{"name": "C", "script": ["CREATE TABLE #tmp (id INT)"]}]}]}
	}`)

	run := transformation.New(transformation.Params{Config: cfg, Client: client, Sink: manifest.NewFileSink(t.TempDir())})
	require.NoError(t, run.Run(context.Background()))
}

func TestTransformation_StatementFailure(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec(regexp.QuoteMeta(setContext)).WillReturnResult(sqlmock.NewResult(0, 0))
	for range executor.MaxAttempts {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE [orders] ([id] INT NOT NULL)")).
			WillReturnError(sql.ErrConnDone)
	}

	run := transformation.New(transformation.Params{
		Config:  loadConfig(t, ordersConfig),
		Client:  client,
		Sink:    manifest.NewFileSink(t.TempDir()),
		Backoff: zeroBackoff,
	})
	err := run.Run(context.Background())

	var stmtErr *executor.StatementExecutionError
	require.ErrorAs(t, err, &stmtErr)
	require.Equal(t, "Block 1", stmtErr.Block)
	require.Equal(t, "Code 1", stmtErr.Code)
}

func TestTransformation_MissingOutputTable(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec(regexp.QuoteMeta(setContext)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE [orders] ([id] INT NOT NULL)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO [orders] VALUES (1)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT SCHEMA_NAME()")).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow("dbo"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sys.columns AS c")).
		WithArgs("dbo", "orders").
		WillReturnRows(sqlmock.NewRows(columnNames))

	run := transformation.New(transformation.Params{
		Config:  loadConfig(t, ordersConfig),
		Client:  client,
		Sink:    manifest.NewFileSink(t.TempDir()),
		Backoff: zeroBackoff,
	})

	err := run.Run(context.Background())
	require.EqualError(t, err, `Table "orders" specified in output were not created by the transformation.`)
}

func TestTransformation_SessionContextFailure(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec(regexp.QuoteMeta(setContext)).WillReturnError(sql.ErrConnDone)

	run := transformation.New(transformation.Params{
		Config: loadConfig(t, ordersConfig),
		Client: client,
		Sink:   manifest.NewFileSink(t.TempDir()),
	})

	err := run.Run(context.Background())
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.Contains(t, err.Error(), "failed to set the session context")
}
