package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.True(t, cfg.UpdateConfig.Enabled)
	assert.Empty(t, cfg.SearchPaths)
	assert.Empty(t, cfg.JavaPath)
}

func TestLoadStripsBOMAndCleansPaths(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fxlaunch.json")
	body := "\xEF\xBB\xBF" + `{
  "java_path": "/opt/jdk-21/bin/java",
  "javafx_version": "21.0.1",
  "search_paths": ["/opt/jdks", "  ", "/opt/jdks/", "/srv/java"],
  "some_future_field": true
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/jdk-21/bin/java", cfg.JavaPath)
	assert.Equal(t, "21.0.1", cfg.JavaFXVersion)
	assert.Equal(t, []string{"/opt/jdks", "/srv/java"}, cfg.SearchPaths)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	cfg.CacheDir = "/from/file"

	env := map[string]string{
		EnvJava:     "/usr/lib/jvm/java-17/bin/java",
		EnvCacheDir: "/tmp/fx-cache",
		EnvManifest: "https://example.invalid/manifest.toml",
		EnvHome:     "/tmp/fx-home",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "/usr/lib/jvm/java-17/bin/java", cfg.JavaPath)
	assert.Equal(t, "/tmp/fx-cache", cfg.CacheRoot())
	assert.Equal(t, "https://example.invalid/manifest.toml", cfg.ManifestSource)
	assert.Equal(t, "/tmp/fx-home", cfg.Home())
}

func TestCacheRootDefaultsToHome(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	cfg.ApplyEnv(func(k string) string {
		if k == EnvHome {
			return "/srv/app"
		}
		return ""
	})

	assert.Equal(t, "/srv/app", cfg.CacheRoot())
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "fxlaunch.json")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.True(t, cfg.AddSearchPath("/opt/jdks"))
	assert.False(t, cfg.AddSearchPath("/opt/jdks/"))
	assert.False(t, cfg.AddSearchPath("  "))
	cfg.JavaConstraint = ">= 17"
	require.NoError(t, cfg.Save())

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/jdks"}, loaded.SearchPaths)
	assert.Equal(t, ">= 17", loaded.JavaConstraint)

	assert.True(t, loaded.HasSearchPath("/opt/jdks"))
	assert.True(t, loaded.RemoveSearchPath("/opt/jdks"))
	assert.False(t, loaded.RemoveSearchPath("/opt/jdks"))
	assert.Empty(t, loaded.SearchPaths)
}
