package consts

import (
	"os"
	"time"
)

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultPort is the TDS port Synapse workspaces listen on
	DefaultPort = 1433

	// DefaultQueryTimeout is used when neither the configuration nor the image
	// parameters specify a statement timeout
	DefaultQueryTimeout = 7200 * time.Second

	// DefaultLoginTimeout bounds establishing the connection
	DefaultLoginTimeout = 30 * time.Second

	// DefaultConnectRetryCount is how many times a failed connection is retried
	DefaultConnectRetryCount = 3

	// DefaultConnectRetryInterval is the pause between connection attempts
	DefaultConnectRetryInterval = 10 * time.Second

	// ConfigFile is the name of the configuration file inside the data directory
	ConfigFile = "config.json"

	// OutputTablesDir is where table manifests are written, relative to the data directory
	OutputTablesDir = "out/tables"
)
