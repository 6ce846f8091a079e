package synapse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
	"github.com/pseudomuto/synapse-transformation/pkg/consts"
)

// DriverName is the database/sql driver registered by go-mssqldb.
const DriverName = "sqlserver"

type (
	// Options configures the connection to a Synapse workspace.
	Options struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string

		// QueryTimeout bounds every statement and query run through the client.
		// Zero disables the deadline.
		QueryTimeout time.Duration

		// LoginTimeout bounds the login handshake.
		LoginTimeout time.Duration

		// ConnectRetryCount is the number of additional connection attempts
		// made when the initial ping fails.
		ConnectRetryCount int

		// ConnectRetryInterval is the delay between connection attempts.
		ConnectRetryInterval time.Duration
	}

	// Client represents a connection to a Synapse SQL pool.
	//
	// The client pins a single physical connection: session context and
	// #temporary tables created by one statement must be visible to the next.
	Client struct {
		db   *sql.DB
		opts Options
	}
)

// NewClient opens a connection to Synapse and verifies it with a ping.
// Failed pings are retried ConnectRetryCount times, ConnectRetryInterval apart.
//
// Example:
//
//	client, err := synapse.NewClient(ctx, synapse.Options{
//		Host:         "workspace.sql.azuresynapse.net",
//		User:         "keboola",
//		Password:     os.Getenv("SYNAPSE_PASSWORD"),
//		Database:     "dwh",
//		QueryTimeout: 2 * time.Hour,
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	opts = opts.withDefaults()

	// mssql.NewConnector validates the DSN eagerly, unlike sql.Open.
	connector, err := mssql.NewConnector(opts.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "invalid connection options")
	}

	client := NewClientFromDB(sql.OpenDB(connector), opts)

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(opts.ConnectRetryInterval),
			uint64(max(opts.ConnectRetryCount, 0)),
		),
		ctx,
	)

	if err := backoff.Retry(func() error { return client.db.PingContext(ctx) }, policy); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s:%d", opts.Host, opts.Port)
	}

	return client, nil
}

// NewClientFromDB wraps an existing database handle. The handle is limited to
// a single open connection.
func NewClientFromDB(db *sql.DB, opts Options) *Client {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	return &Client{db: db, opts: opts}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// QueryTimeout returns the deadline applied to every statement.
func (c *Client) QueryTimeout() time.Duration {
	return c.opts.QueryTimeout
}

// Exec runs a statement that returns no rows and reports the number of
// affected rows. Drivers that cannot report it yield zero.
func (c *Client) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Query runs a query and hands every row to fn. The statement timeout covers
// the whole iteration.
func (c *Client) Query(ctx context.Context, query string, fn func(*sql.Rows) error, args ...any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opts.QueryTimeout)
}

// DSN renders the sqlserver:// connection string for the options.
func (o Options) DSN() string {
	query := url.Values{}
	if o.Database != "" {
		query.Set("database", o.Database)
	}
	if o.LoginTimeout > 0 {
		query.Set("connection timeout", strconv.Itoa(int(o.LoginTimeout/time.Second)))
	}
	query.Set("app name", "synapse-transformation")

	u := &url.URL{
		Scheme:   DriverName,
		User:     url.UserPassword(o.User, o.Password),
		Host:     fmt.Sprintf("%s:%d", o.Host, o.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = consts.DefaultPort
	}
	if o.LoginTimeout == 0 {
		o.LoginTimeout = consts.DefaultLoginTimeout
	}
	if o.ConnectRetryCount == 0 {
		o.ConnectRetryCount = consts.DefaultConnectRetryCount
	}
	if o.ConnectRetryInterval == 0 {
		o.ConnectRetryInterval = consts.DefaultConnectRetryInterval
	}
	return o
}
