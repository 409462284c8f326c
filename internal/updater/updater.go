package updater

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"fxlaunch/internal/config"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultRepository publishes fxlaunch releases
	DefaultRepository = "fxlaunch/fxlaunch"

	// CheckInterval is minimum time between update checks
	CheckInterval = 24 * time.Hour

	// UpdateTimeout is maximum time for update operations
	UpdateTimeout = 5 * time.Minute
)

// Updater handles checking and applying updates of the launcher binary
type Updater struct {
	config         *config.Config
	currentVersion string
	selfUpdater    *selfupdate.Updater
	clock          clockwork.Clock
}

// NewUpdater creates a new Updater instance
func NewUpdater(cfg *config.Config, version string) (*Updater, error) {
	// Release assets are validated against the published SHA256SUMS.txt
	su, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{
			UniqueFilename: "SHA256SUMS.txt",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	return &Updater{
		config:         cfg,
		currentVersion: cleanVersion(version),
		selfUpdater:    su,
		clock:          clockwork.NewRealClock(),
	}, nil
}

// CurrentVersion returns the running version without its "v" prefix
func (u *Updater) CurrentVersion() string {
	return u.currentVersion
}

// Repository returns the configured release repository slug
func (u *Updater) Repository() string {
	if repo := strings.TrimSpace(u.config.UpdateConfig.Repository); repo != "" {
		return repo
	}
	return DefaultRepository
}

// ShouldCheckForUpdate reports whether a background check is due. Development
// builds never check.
func (u *Updater) ShouldCheckForUpdate() bool {
	if !u.config.UpdateConfig.Enabled || u.currentVersion == "dev" {
		return false
	}
	return u.clock.Since(u.config.UpdateConfig.LastCheck) >= CheckInterval
}

// CheckForUpdate queries GitHub for the latest release.
// Returns nil if no update is available or the user skipped that version.
func (u *Updater) CheckForUpdate(ctx context.Context) (*selfupdate.Release, error) {
	latest, found, err := u.selfUpdater.DetectLatest(ctx, selfupdate.ParseSlug(u.Repository()))
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}

	if !found {
		return nil, fmt.Errorf("no releases found in %s", u.Repository())
	}

	u.config.UpdateConfig.LastCheck = u.clock.Now()
	if err := u.config.Save(); err != nil {
		log.Warn().Err(err).Msg("failed to save config")
	}

	if latest.LessOrEqual(u.currentVersion) {
		return nil, nil
	}

	if u.config.UpdateConfig.SkipVersion == latest.Version() {
		log.Debug().Str("version", latest.Version()).Msg("update skipped by user")
		return nil, nil
	}

	return latest, nil
}

// PerformUpdate downloads and installs the update.
// The current binary is backed up and restored on failure.
func (u *Updater) PerformUpdate(ctx context.Context, release *selfupdate.Release) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to determine executable path: %w", err)
	}

	backup := exe + ".backup"
	if err := copyFile(exe, backup); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	if err := selfupdate.UpdateTo(ctx, release.AssetURL, release.AssetName, exe); err != nil {
		if rollbackErr := os.Rename(backup, exe); rollbackErr != nil {
			return fmt.Errorf("update failed and rollback failed: update error: %w, rollback error: %v", err, rollbackErr)
		}
		return fmt.Errorf("update failed (rolled back): %w", err)
	}

	if err := os.Remove(backup); err != nil {
		log.Debug().Err(err).Str("backup", backup).Msg("failed to remove backup")
	}
	return nil
}

// SkipVersion marks a version as skipped by the user
func (u *Updater) SkipVersion(version string) error {
	u.config.UpdateConfig.SkipVersion = version
	return u.config.Save()
}

// copyFile creates a copy of the file for backup purposes
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755)
}

// cleanVersion removes 'v' prefix if present for consistent comparison
func cleanVersion(version string) string {
	return strings.TrimPrefix(strings.TrimSpace(version), "v")
}
