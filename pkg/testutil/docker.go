package testutil

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/pseudomuto/synapse-transformation/pkg/docker"
	"github.com/pseudomuto/synapse-transformation/pkg/synapse"
	"github.com/stretchr/testify/require"
)

// SkipIfNoDocker skips the test in short mode or when Docker is not available.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping Docker tests in short mode")
	}

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	cmd := exec.CommandContext(t.Context(), "docker", "ps")
	if err := cmd.Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

// StartSQLServer starts a SQL Server container for the duration of the test
// and returns the options to connect to it.
func StartSQLServer(t *testing.T) synapse.Options {
	t.Helper()

	SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container := docker.New()
	t.Cleanup(func() {
		_ = container.Stop(context.Background())
	})

	require.NoError(t, container.Start(ctx), "Failed to start SQL Server container")

	opts, err := container.ClientOptions(ctx)
	require.NoError(t, err, "Failed to get connection options")

	return opts
}
