package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/synapse-transformation/pkg/consts"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// RunCommand executes app with args and returns what it wrote to its output.
// The app name is prepended to args.
//
// Example:
//
//	app := &cli.Command{Name: "test", Commands: []*cli.Command{validate}}
//	out, err := testutil.RunCommand(t, app, "validate")
func RunCommand(t *testing.T, app *cli.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(context.Background(), append([]string{app.Name}, args...))
	return out.String(), err
}

// DataDir creates a data directory holding config as its config.json.
func DataDir(t *testing.T, config string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, consts.ConfigFile), []byte(config), consts.ModeFile))

	return dir
}
