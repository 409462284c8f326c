package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

const appName = "fxlaunch"

// Environment overrides, all optional
const (
	EnvJava     = "FXLAUNCH_JAVA"
	EnvCacheDir = "FXLAUNCH_CACHE_DIR"
	EnvManifest = "FXLAUNCH_MANIFEST"
	EnvHome     = "FXLAUNCH_HOME"
)

// Config holds the launcher configuration
type Config struct {
	JavaPath       string       `json:"java_path,omitempty"`       // Explicit Java executable or home
	JavaConstraint string       `json:"java_constraint,omitempty"` // e.g. "17" or ">= 17, < 22"
	JavaFXVersion  string       `json:"javafx_version,omitempty"`  // Pinned JavaFX release; latest compatible when empty
	CacheDir       string       `json:"cache_dir,omitempty"`       // Cache root; defaults to the application home
	ManifestSource string       `json:"manifest_source,omitempty"` // Path or URL of the artifact manifest
	SearchPaths    []string     `json:"search_paths"`              // Extra directories scanned for Java installations
	UpdateConfig   UpdateConfig `json:"update_config"`             // Self-update configuration
	configPath     string
	home           string
}

// UpdateConfig holds settings for the launcher self-update
type UpdateConfig struct {
	Enabled     bool      `json:"enabled"`
	Repository  string    `json:"repository,omitempty"` // GitHub "owner/name" slug publishing releases
	LastCheck   time.Time `json:"last_check"`
	SkipVersion string    `json:"skip_version"`
}

// Load loads the configuration from the default location
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom loads the configuration from path; a missing file yields defaults
func LoadFrom(configPath string) (*Config, error) {
	cfg := &Config{
		SearchPaths: make([]string, 0),
		UpdateConfig: UpdateConfig{
			Enabled: true,
		},
		configPath: configPath,
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Remove BOM if present (UTF-8 BOM is EF BB BF)
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.SearchPaths = cleanPaths(cfg.SearchPaths)
	cfg.configPath = configPath
	return cfg, nil
}

// ApplyEnv layers the environment overrides over the file values
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvJava)); v != "" {
		c.JavaPath = v
	}
	if v := strings.TrimSpace(getenv(EnvCacheDir)); v != "" {
		c.CacheDir = v
	}
	if v := strings.TrimSpace(getenv(EnvManifest)); v != "" {
		c.ManifestSource = v
	}
	if v := strings.TrimSpace(getenv(EnvHome)); v != "" {
		c.home = filepath.Clean(v)
	}
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configDir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0o644)
}

// Path returns the file the configuration was loaded from
func (c *Config) Path() string {
	return c.configPath
}

// Home returns the application home that holds the cache and logs
func (c *Config) Home() string {
	if c.home != "" {
		return c.home
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

// CacheRoot returns the directory under which javafx/<version>/<platform>/ lives
func (c *Config) CacheRoot() string {
	if c.CacheDir != "" {
		return filepath.Clean(c.CacheDir)
	}
	return c.Home()
}

// AddSearchPath adds a directory to scan for Java installations. It reports
// false when the path is empty or already configured.
func (c *Config) AddSearchPath(path string) bool {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." {
		return false
	}
	if c.HasSearchPath(path) {
		return false
	}

	c.SearchPaths = append(c.SearchPaths, path)
	return true
}

// RemoveSearchPath removes a search path and reports whether it was present
func (c *Config) RemoveSearchPath(path string) bool {
	path = filepath.Clean(path)

	for i, p := range c.SearchPaths {
		if samePath(p, path) {
			c.SearchPaths = append(c.SearchPaths[:i], c.SearchPaths[i+1:]...)
			return true
		}
	}
	return false
}

// HasSearchPath checks if a search path is configured
func (c *Config) HasSearchPath(path string) bool {
	path = filepath.Clean(strings.TrimSpace(path))
	for _, p := range c.SearchPaths {
		if samePath(p, path) {
			return true
		}
	}
	return false
}

// DefaultPath returns the path to the configuration file following the
// XDG Base Directory specification
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, appName+".json")
}

// cleanPaths drops empty entries and duplicates
func cleanPaths(paths []string) []string {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		p = filepath.Clean(strings.TrimSpace(p))
		if p == "" || p == "." {
			continue
		}
		dup := false
		for _, q := range cleaned {
			if samePath(p, q) {
				dup = true
				break
			}
		}
		if !dup {
			cleaned = append(cleaned, p)
		}
	}
	return cleaned
}

func samePath(a, b string) bool {
	if filepath.Separator == '\\' {
		return strings.EqualFold(a, b)
	}
	return a == b
}
