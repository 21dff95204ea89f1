package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory path. Keys missing from the
// file keep their default values.
func Load(fsys afero.Fs, path string) (*Configuration, error) {
	dir := configDir(path)

	configContents, err := afero.ReadFile(fsys, filepath.Join(dir, ConfigurationName))
	if err != nil {
		return nil, err
	}
	out := defaultConfig()
	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigurationName, err)
	}
	out.configFs = rootedFs(fsys, dir)
	return out, nil
}

// Default returns the built in configuration, resolving relative paths against
// the directory path.
func Default(fsys afero.Fs, path string) *Configuration {
	out := defaultConfig()
	out.configFs = rootedFs(fsys, configDir(path))
	return out
}

// If given the path to an osh.yaml file, move back up a level.
func configDir(path string) string {
	if filepath.Base(path) == ConfigurationName {
		return filepath.Dir(path)
	}
	return path
}

// rootedFs resolves names against dir. BasePathFs only accepts names that stay
// under its base after cleaning, which a relative base like "." never matches.
func rootedFs(fsys afero.Fs, dir string) afero.Fs {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return afero.NewBasePathFs(fsys, dir)
}
