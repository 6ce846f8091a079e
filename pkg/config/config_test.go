package config_test

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/pseudomuto/synapse-transformation/pkg/config"
	"github.com/pseudomuto/synapse-transformation/pkg/consts"
	"github.com/pseudomuto/synapse-transformation/pkg/script"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/config.json
var testConfigJSON string

const minimalConfig = `{
  "authorization": {"workspace": {"host": "h", "user": "u", "password": "p", "database": "d"}},
  "parameters": {"blocks": []}
}`

func TestLoadConfig(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		config, err := LoadConfig(strings.NewReader(testConfigJSON))
		require.NoError(t, err)
		validateTestConfig(t, config)
	})

	t.Run("error", func(t *testing.T) {
		config, err := LoadConfig(strings.NewReader(`{"parameters": [`))
		require.Error(t, err)
		require.Nil(t, config)
		require.Contains(t, err.Error(), "failed to parse configuration")

		config, err = LoadConfig(strings.NewReader(""))
		require.Error(t, err)
		require.Nil(t, config)
		require.Contains(t, err.Error(), "failed to parse configuration")

		config, err = LoadConfig(strings.NewReader(`{"parameters": {"blocks": [{"name": "B", "codes": [{"name": "C", "script": [{"sql": "x"}]}]}]}}`))
		require.Error(t, err)
		require.Nil(t, config)
		require.ErrorIs(t, err, script.ErrNotAString)
	})

	t.Run("escaped json", func(t *testing.T) {
		// json_encode escapes slashes and writes non-ASCII as surrogate pairs
		config, err := LoadConfig(strings.NewReader(`{
			"authorization": {"workspace": {"host": "h", "user": "u", "password": "p", "database": "d"}},
			"parameters": {"blocks": [{"name": "B \ud83c\udf0f", "codes": [
				{"name": "\u010c", "script": ["\/* c *\/ CREATE TABLE t (a INT)"]}
			]}]}
		}`))
		require.NoError(t, err)
		require.NoError(t, config.Validate())

		require.Equal(t, []script.Block{
			script.NewBlock("B 🌏", script.NewCode("Č", "/* c */ CREATE TABLE t (a INT)")),
		}, config.Blocks())
	})

	t.Run("duplicate keys", func(t *testing.T) {
		config, err := LoadConfig(strings.NewReader(`{
			"authorization": {"workspace": {"host": "h", "user": "u", "password": "p", "database": "d"}},
			"parameters": {"blocks": [{"name": "first", "codes": []}]},
			"parameters": {"blocks": [{"name": "second", "codes": []}]}
		}`))
		require.NoError(t, err)
		require.NoError(t, config.Validate())
		require.Equal(t, []script.Block{script.NewBlock("second")}, config.Blocks())
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), consts.ConfigFile)
		require.NoError(t, os.WriteFile(path, []byte(testConfigJSON), consts.ModeFile))

		config, err := LoadConfigFile(path)
		require.NoError(t, err)
		validateTestConfig(t, config)
	})

	t.Run("error", func(t *testing.T) {
		config, err := LoadConfigFile("nonexistent.json")
		require.Error(t, err)
		require.Nil(t, config)
		require.Contains(t, err.Error(), "failed to open file")
	})
}

func validateTestConfig(t *testing.T, config *Config) {
	t.Helper()
	require.NotNil(t, config)
	require.NoError(t, config.Validate())

	opts := config.SynapseOptions()
	require.Equal(t, "ws.sql.azuresynapse.net", opts.Host)
	require.Equal(t, consts.DefaultPort, opts.Port)
	require.Equal(t, "keboola", opts.User)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, "dwh", opts.Database)
	require.Equal(t, 600*time.Second, opts.QueryTimeout)
	require.Equal(t, consts.DefaultLoginTimeout, opts.LoginTimeout)
	require.Equal(t, consts.DefaultConnectRetryCount, opts.ConnectRetryCount)
	require.Equal(t, consts.DefaultConnectRetryInterval, opts.ConnectRetryInterval)

	require.Equal(t, "wlm-heavy", *config.SessionContext())

	require.Equal(t, []script.Block{
		script.NewBlock("Block 1",
			script.NewCode("Code 1",
				"CREATE TABLE [orders] (id INT, name NVARCHAR(100))",
				"-- seed\nINSERT INTO [orders] VALUES (1, N'it''s \"quoted\"')",
			),
			script.NewCode("Code 2"),
		),
	}, config.Blocks())

	require.Equal(t, []script.OutputTableMapping{
		{Source: "orders", Destination: "out.c-main.orders"},
	}, config.OutputTables())
}

func TestConfig_QueryTimeout(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected time.Duration
	}{
		{
			name:     "default",
			json:     `{}`,
			expected: consts.DefaultQueryTimeout,
		},
		{
			name:     "image parameters",
			json:     `{"image_parameters": {"default_query_timeout": 3600}}`,
			expected: time.Hour,
		},
		{
			name:     "parameters take precedence",
			json:     `{"parameters": {"query_timeout": 60}, "image_parameters": {"default_query_timeout": 3600}}`,
			expected: time.Minute,
		},
		{
			name:     "zero falls through",
			json:     `{"parameters": {"query_timeout": 0}, "image_parameters": {"default_query_timeout": 0}}`,
			expected: consts.DefaultQueryTimeout,
		},
		{
			name:     "null falls through",
			json:     `{"parameters": {"query_timeout": null}, "image_parameters": {"default_query_timeout": 30}}`,
			expected: 30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig(strings.NewReader(tt.json))
			require.NoError(t, err)
			require.Equal(t, tt.expected, config.QueryTimeout())
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(strings.NewReader(minimalConfig))
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	require.Equal(t, consts.DefaultPort, config.Authorization.Workspace.Port)
	require.Nil(t, config.SessionContext())
	require.Empty(t, config.Blocks())
	require.Empty(t, config.OutputTables())

	config, err = LoadConfig(strings.NewReader(
		`{"authorization": {"context": "", "workspace": {"host": "h", "port": 11000}}}`,
	))
	require.NoError(t, err)
	require.Equal(t, 11000, config.SynapseOptions().Port)
	require.Nil(t, config.SessionContext())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		problems []string
	}{
		{
			name: "empty",
			json: `{}`,
			problems: []string{
				`The child config "authorization" under "root" must be configured.`,
				`The child config "parameters" under "root" must be configured.`,
			},
		},
		{
			name: "workspace values",
			json: `{"authorization": {"workspace": {"host": "h"}}, "parameters": {"blocks": []}}`,
			problems: []string{
				`The child config "user" under "root.authorization.workspace" must be configured.`,
				`The child config "password" under "root.authorization.workspace" must be configured.`,
				`The child config "database" under "root.authorization.workspace" must be configured.`,
			},
		},
		{
			name: "missing workspace and blocks",
			json: `{"authorization": {"context": "x"}, "parameters": {"query_timeout": -1}}`,
			problems: []string{
				`The child config "workspace" under "root.authorization" must be configured.`,
				`The value of "root.parameters.query_timeout" must not be negative.`,
				`The child config "blocks" under "root.parameters" must be configured.`,
			},
		},
		{
			name: "blocks and codes",
			json: `{
				"authorization": {"workspace": {"host": "h", "user": "u", "password": "p", "database": "d"}},
				"parameters": {"blocks": [
					{"name": "B1", "codes": [{"name": "C1", "script": []}, {"script": ["SELECT 1"]}, {"name": "C3"}]},
					{"codes": []},
					{"name": "B3"}
				]}
			}`,
			problems: []string{
				`The child config "name" under "root.parameters.blocks.0.codes.1" must be configured.`,
				`The child config "script" under "root.parameters.blocks.0.codes.2" must be configured.`,
				`The child config "name" under "root.parameters.blocks.1" must be configured.`,
				`The child config "codes" under "root.parameters.blocks.2" must be configured.`,
			},
		},
		{
			name: "null sections",
			json: `{"authorization": {"workspace": null}, "parameters": null}`,
			problems: []string{
				`The child config "host" under "root.authorization.workspace" must be configured.`,
				`The child config "user" under "root.authorization.workspace" must be configured.`,
				`The child config "password" under "root.authorization.workspace" must be configured.`,
				`The child config "database" under "root.authorization.workspace" must be configured.`,
				`The child config "blocks" under "root.parameters" must be configured.`,
			},
		},
		{
			name: "null document",
			json: `null`,
			problems: []string{
				`The child config "authorization" under "root" must be configured.`,
				`The child config "parameters" under "root" must be configured.`,
			},
		},
		{
			name: "output tables",
			json: `{
				"authorization": {"workspace": {"host": "h", "user": "u", "password": "p", "database": "d"}},
				"parameters": {"blocks": []},
				"storage": {"output": {"tables": [{"source": "a", "destination": "out.a"}, {"source": "b"}]}}
			}`,
			problems: []string{
				`The child config "destination" under "root.storage.output.tables.1" must be configured.`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig(strings.NewReader(tt.json))
			require.NoError(t, err)

			err = config.Validate()

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tt.problems, validationErr.Problems)
			require.True(t, validationErr.UserError())
			require.True(t, strings.HasPrefix(err.Error(), "Invalid configuration: "))
		})
	}
}

func TestConfig_ValidateOnlyChecksPresence(t *testing.T) {
	config, err := LoadConfig(strings.NewReader(`{
		"authorization": {"workspace": {"host": "", "user": "", "password": null, "database": ""}},
		"parameters": {"blocks": [{"name": "", "codes": [{"name": null, "script": []}]}]},
		"storage": {"output": {"tables": [{"source": "", "destination": ""}]}}
	}`))
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	require.Equal(t, []script.Block{script.NewBlock("", script.NewCode(""))}, config.Blocks())
}

func TestConfig_ValidateBuiltInCode(t *testing.T) {
	config := &Config{}

	var validationErr *ValidationError
	require.ErrorAs(t, config.Validate(), &validationErr)
	require.Equal(t, []string{
		`The child config "authorization" under "root" must be configured.`,
		`The child config "parameters" under "root" must be configured.`,
	}, validationErr.Problems)

	config = &Config{
		Authorization: &Authorization{Workspace: &Workspace{Host: "h"}},
		Parameters:    &Parameters{Blocks: []script.Block{script.NewBlock("B", script.NewCode("C", "SELECT 1"))}},
	}
	require.NoError(t, config.Validate())
}

func TestLoader_Load(t *testing.T) {
	loader := &Loader{}

	t.Run("valid", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, consts.ConfigFile), []byte(testConfigJSON), consts.ModeFile))

		config, err := loader.Load(dir)
		require.NoError(t, err)
		require.Len(t, config.Blocks(), 1)
	})

	t.Run("invalid", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, consts.ConfigFile), []byte(`{}`), consts.ModeFile))

		_, err := loader.Load(dir)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := loader.Load(t.TempDir())
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
