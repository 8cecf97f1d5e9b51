package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
	"github.com/linuxkit/cvd/src/cmd/cvd/util"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// GlobalConfig is the global tool configuration
type GlobalConfig struct {
	// DatabasePath is the instance database file. Empty means the
	// per-user default under the system temporary directory.
	DatabasePath string `yaml:"database-path" env:"CVD_DATABASE_PATH"`
}

// DefaultPath returns the config file location for a user whose home is home.
func DefaultPath(home string) string {
	return filepath.Join(home, ".config", "cvd", "config.yml")
}

// Load reads the config file at path, if it exists, then applies overrides
// from envs. A missing file yields the defaults.
func Load(path string, envs util.Envs) (GlobalConfig, error) {
	var cfg GlobalConfig
	cfgBytes, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(cfgBytes, &cfg); err != nil {
			return GlobalConfig{}, errors.Wrapf(err, "failed to parse %q", path)
		}
	case os.IsNotExist(err):
	default:
		return GlobalConfig{}, errors.Wrapf(err, "failed to read %q", path)
	}

	if envs == nil {
		envs = util.Envs{}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: envs}); err != nil {
		return GlobalConfig{}, errors.Wrap(err, "failed to apply environment")
	}
	return cfg, nil
}

// StorePath returns the instance database path to use.
func (c GlobalConfig) StorePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return instances.DefaultStorePath()
}
