package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, "www.index", cfg.Gateway.DefaultAsset)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hoard.yaml")
	content := `
dataDir: /var/lib/hoard
backend: bolt
listen:
  gateway: 0.0.0.0:8088
log:
  level: debug
identity:
  user: admin
  group: ops
  entities:
    - name: admin
    - name: ops
    - name: guest
      layers: [ops]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/hoard", cfg.DataDir)
	assert.Equal(t, BackendBolt, cfg.Backend)
	assert.Equal(t, "0.0.0.0:8088", cfg.Listen.Gateway)
	// Untouched settings keep their defaults.
	assert.Equal(t, "127.0.0.1:9090", cfg.Listen.Health)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "admin", cfg.Identity.User)
	require.Len(t, cfg.Identity.Entities, 3)
	assert.Equal(t, []string{"ops"}, cfg.Identity.Entities[2].Layers)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hoard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: etcd\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown backend")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRequiresIdentity(t *testing.T) {
	cfg := Default()
	cfg.Identity.User = ""
	assert.Error(t, cfg.Validate())
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hoard.yaml")
	cfg := Default()
	cfg.Backend = BackendBolt
	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
