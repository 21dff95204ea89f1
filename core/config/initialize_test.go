package config

import (
	"bytes"
	"io/ioutil"
	"log"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := Initialize(tempDir, log.New(ioutil.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(afero.NewOsFs(), tempDir)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, defaultConfig().InitialCommands, cfg.InitialCommands)
}

func TestInitialize_keepsExisting(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/work/osh.yaml", []byte("verbose: true\n"), 0644))

	var logs bytes.Buffer
	cfg, err := initialize(fsys, "/work", log.New(&logs, "", 0))
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Contains(t, logs.String(), "already exists")
}
