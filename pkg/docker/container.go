package docker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/synapse-transformation/pkg/synapse"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mssql"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultVersion is the SQL Server image tag started when none is set
	DefaultVersion = "2022-latest"

	// DefaultPassword satisfies the SQL Server password policy
	DefaultPassword = "Synapse!Transf0rmation"

	// DefaultUser is the administrator login of the image
	DefaultUser = "sa"

	// DefaultDatabase exists on every SQL Server instance
	DefaultDatabase = "master"

	serverPort = "1433/tcp"
)

type (
	// Options represents options for running SQL Server in Docker.
	Options struct {
		// Version is the mcr.microsoft.com/mssql/server tag (default: DefaultVersion)
		Version string

		// Password of the sa login (default: DefaultPassword)
		Password string
	}

	// Container manages a SQL Server container standing in for a Synapse
	// dedicated SQL pool in integration tests.
	//
	// SQL Server speaks the same T-SQL dialect and exposes the same catalog
	// views, so scripts, session context and manifests behave the same way.
	Container struct {
		options   Options
		container *mssql.MSSQLServerContainer
	}
)

// New creates a new container with default options.
//
// Example:
//
//	container := docker.New()
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
func New() *Container {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a new container with custom options.
//
// Example:
//
//	container := docker.NewWithOptions(docker.Options{
//		Version:  "2019-latest",
//		Password: "An0ther!Passw0rd",
//	})
func NewWithOptions(opts Options) *Container {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}

	return &Container{options: opts}
}

// Image returns the image reference the container is started from.
func (c *Container) Image() string {
	return fmt.Sprintf("mcr.microsoft.com/mssql/server:%s", c.options.Version)
}

// Start starts the SQL Server container and waits until it accepts logins.
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	container, err := mssql.Run(ctx,
		c.Image(),
		mssql.WithAcceptEULA(),
		mssql.WithPassword(c.options.Password),
		testcontainers.WithWaitStrategyAndDeadline(
			5*time.Minute,
			wait.ForLog("Recovery is complete."),
		),
	)
	if err != nil {
		return errors.Wrap(err, "failed to start SQL Server container")
	}

	c.container = container
	return nil
}

// Stop stops and removes the container.
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil // Already stopped
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	if err != nil {
		return errors.Wrap(err, "failed to stop SQL Server container")
	}

	return nil
}

// GetDSN returns the sqlserver:// connection string of the running container.
func (c *Container) GetDSN(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	dsn, err := c.container.ConnectionString(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection string")
	}

	return dsn, nil
}

// ClientOptions returns the options to connect a synapse.Client to the
// running container.
//
// Example:
//
//	opts, err := container.ClientOptions(ctx)
//	if err != nil {
//		return err
//	}
//
//	client, err := synapse.NewClient(ctx, opts)
func (c *Container) ClientOptions(ctx context.Context) (synapse.Options, error) {
	if c.container == nil {
		return synapse.Options{}, errors.New("container is not running")
	}

	host, err := c.container.Host(ctx)
	if err != nil {
		return synapse.Options{}, errors.Wrap(err, "failed to get container host")
	}

	port, err := c.container.MappedPort(ctx, serverPort)
	if err != nil {
		return synapse.Options{}, errors.Wrap(err, "failed to get container port")
	}

	portNum, err := strconv.Atoi(port.Port())
	if err != nil {
		return synapse.Options{}, errors.Wrapf(err, "invalid port: %s", port.Port())
	}

	return synapse.Options{
		Host:     host,
		Port:     portNum,
		User:     DefaultUser,
		Password: c.options.Password,
		Database: DefaultDatabase,
	}, nil
}

// IsRunning returns true if the container is currently running
func (c *Container) IsRunning() bool {
	return c.container != nil
}
