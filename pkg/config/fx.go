package config

import (
	"path/filepath"

	"github.com/pseudomuto/synapse-transformation/pkg/consts"
	"go.uber.org/fx"
)

// Loader reads and validates the configuration of a data directory.
type Loader struct{}

var Module = fx.Module("config", fx.Provide(
	func() *Loader { return &Loader{} },
))

// Load reads <dataDir>/config.json and validates it.
func (l *Loader) Load(dataDir string) (*Config, error) {
	cfg, err := LoadConfigFile(filepath.Join(dataDir, consts.ConfigFile))
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
