package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/synapse-transformation/pkg/consts"
	"github.com/pseudomuto/synapse-transformation/pkg/script"
	"github.com/pseudomuto/synapse-transformation/pkg/synapse"
)

type (
	// Workspace holds the credentials of the Synapse workspace the
	// transformation runs in.
	Workspace struct {
		Host     string `json:"host"`
		Port     int    `json:"port,omitempty"`
		User     string `json:"user"`
		Password string `json:"password"`
		Database string `json:"database"`
	}

	// Authorization is provided by the platform for every run.
	Authorization struct {
		// Context is the workload management context the session is tagged with
		Context string `json:"context,omitempty"`

		// Workspace is required
		Workspace *Workspace `json:"workspace,omitempty"`
	}

	// Parameters are the user supplied parts of the configuration.
	Parameters struct {
		// QueryTimeout is the statement timeout in seconds
		QueryTimeout *int `json:"query_timeout,omitempty"`

		// Blocks are executed in declared order
		Blocks []script.Block `json:"blocks"`
	}

	// ImageParameters are defaults set by the platform for the component.
	ImageParameters struct {
		DefaultQueryTimeout *int `json:"default_query_timeout,omitempty"`
	}

	// Output lists the tables the transformation must create.
	Output struct {
		Tables []script.OutputTableMapping `json:"tables"`
	}

	// Storage describes the input and output mapping of the run.
	Storage struct {
		Output Output `json:"output"`
	}

	// Config represents the config.json of a transformation run.
	Config struct {
		Authorization   *Authorization  `json:"authorization,omitempty"`
		Parameters      *Parameters     `json:"parameters,omitempty"`
		Storage         Storage         `json:"storage"`
		ImageParameters ImageParameters `json:"image_parameters"`

		// doc is the decoded document, used to check which keys are present
		doc document
	}

	// ValidationError lists every problem found in a configuration.
	ValidationError struct {
		Problems []string
	}
)

// LoadConfig parses a configuration from the provided io.Reader.
//
// The port defaults to consts.DefaultPort when not set. The configuration is
// not validated, call Validate before using it.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader(`{
//		"authorization": {"workspace": {"host": "ws", "user": "u", "password": "p", "database": "db"}},
//		"parameters": {"blocks": [{"name": "Block 1", "codes": [{"name": "Code 1", "script": ["SELECT 1"]}]}]}
//	}`))
//	if err != nil {
//		return err
//	}
//
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
func LoadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read configuration")
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}

	if err := json.Unmarshal(data, &cfg.doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}

	if cfg.doc == nil {
		cfg.doc = document{}
	}

	if ws := cfg.workspace(); ws != nil && ws.Port == 0 {
		ws.Port = consts.DefaultPort
	}

	return &cfg, nil
}

// LoadConfigFile loads a configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
//
// Example:
//
//	cfg, err := config.LoadConfigFile(filepath.Join(dataDir, consts.ConfigFile))
//	if err != nil {
//		return err
//	}
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Validate checks that every required key is present. Only presence is
// checked, empty strings and null values are accepted. All problems are
// reported at once in a *ValidationError.
func (c *Config) Validate() error {
	doc := c.doc
	if doc == nil {
		var err error
		if doc, err = c.document(); err != nil {
			return err
		}
	}

	var problems []string
	require := func(parent document, child, path string) {
		if !parent.has(child) {
			problems = append(problems, fmt.Sprintf("The child config %q under %q must be configured.", child, path))
		}
	}

	require(doc, "authorization", "root")
	if auth := doc.child("authorization"); auth != nil {
		require(auth, "workspace", "root.authorization")
		if ws := auth.child("workspace"); ws != nil {
			for _, key := range []string{"host", "user", "password", "database"} {
				require(ws, key, "root.authorization.workspace")
			}
		}
	}

	require(doc, "parameters", "root")
	if params := doc.child("parameters"); params != nil {
		if c.Parameters != nil && c.Parameters.QueryTimeout != nil && *c.Parameters.QueryTimeout < 0 {
			problems = append(problems, `The value of "root.parameters.query_timeout" must not be negative.`)
		}

		require(params, "blocks", "root.parameters")
		for i, block := range params.list("blocks") {
			path := fmt.Sprintf("root.parameters.blocks.%d", i)
			require(block, "name", path)
			require(block, "codes", path)

			for j, code := range block.list("codes") {
				codePath := fmt.Sprintf("%s.codes.%d", path, j)
				require(code, "name", codePath)
				require(code, "script", codePath)
			}
		}
	}

	for i, table := range doc.child("storage").child("output").list("tables") {
		path := fmt.Sprintf("root.storage.output.tables.%d", i)
		require(table, "source", path)
		require(table, "destination", path)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	return nil
}

// QueryTimeout returns the statement timeout. parameters.query_timeout takes
// precedence over image_parameters.default_query_timeout; when neither is set
// (or both are zero) consts.DefaultQueryTimeout is used.
func (c *Config) QueryTimeout() time.Duration {
	if c.Parameters != nil && c.Parameters.QueryTimeout != nil && *c.Parameters.QueryTimeout > 0 {
		return time.Duration(*c.Parameters.QueryTimeout) * time.Second
	}

	if v := c.ImageParameters.DefaultQueryTimeout; v != nil && *v > 0 {
		return time.Duration(*v) * time.Second
	}

	return consts.DefaultQueryTimeout
}

// Blocks returns the configured blocks in declared order.
func (c *Config) Blocks() []script.Block {
	if c.Parameters == nil {
		return nil
	}
	return c.Parameters.Blocks
}

// OutputTables returns the output table mappings in declared order.
func (c *Config) OutputTables() []script.OutputTableMapping {
	return c.Storage.Output.Tables
}

// SessionContext returns the workload management context, or nil when none
// is configured.
func (c *Config) SessionContext() *string {
	if c.Authorization == nil || c.Authorization.Context == "" {
		return nil
	}

	ctx := c.Authorization.Context
	return &ctx
}

// SynapseOptions returns the connection options of the workspace.
func (c *Config) SynapseOptions() synapse.Options {
	opts := synapse.Options{
		QueryTimeout:         c.QueryTimeout(),
		LoginTimeout:         consts.DefaultLoginTimeout,
		ConnectRetryCount:    consts.DefaultConnectRetryCount,
		ConnectRetryInterval: consts.DefaultConnectRetryInterval,
	}

	if ws := c.workspace(); ws != nil {
		opts.Host = ws.Host
		opts.Port = ws.Port
		opts.User = ws.User
		opts.Password = ws.Password
		opts.Database = ws.Database
	}

	return opts
}

// document encodes a configuration that was built in code rather than loaded.
// Nil pointers are treated as missing keys.
func (c *Config) document() (document, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode configuration")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	return doc, nil
}

func (c *Config) workspace() *Workspace {
	if c.Authorization == nil {
		return nil
	}
	return c.Authorization.Workspace
}

func (e *ValidationError) Error() string {
	return "Invalid configuration: " + strings.Join(e.Problems, " ")
}

// UserError marks the error as caused by the configuration itself.
func (e *ValidationError) UserError() bool { return true }
