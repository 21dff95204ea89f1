package config

import (
	"errors"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize writes the default configuration to dir unless one exists, then
// loads it.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	return initialize(afero.NewOsFs(), dir, logger)
}

func initialize(fsys afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, ConfigurationName)
	switch _, err := fsys.Stat(configPath); {
	case err == nil:
		logger.Printf("%s already exists, leaving it alone\n", configPath)
	case errors.Is(err, fs.ErrNotExist):
		logger.Printf("Writing %s\n", configPath)
		if err := afero.WriteFile(fsys, configPath, defaultConfigData, 0644); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return Load(fsys, dir)
}
