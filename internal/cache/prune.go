package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fxlaunch/internal/apperr"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// staleStaging is the age after which an orphaned staging directory is removed
const staleStaging = time.Hour

// PruneOptions controls cache maintenance before an update. Zero limits are
// unlimited.
type PruneOptions struct {
	Clear      bool  // remove every entry
	KeepLatest bool  // spare the newest cached version when clearing
	MaxCount   int   // clear when more entries than this are cached
	MaxSize    int64 // clear when the cache holds more bytes than this
}

// Prune clears the cache when asked to or when a limit is exceeded, and
// always removes orphaned staging directories. It returns the removed entries.
func (c *Cache) Prune(opts PruneOptions) ([]Entry, error) {
	if err := c.removeStaleStaging(); err != nil {
		return nil, err
	}

	entries, err := c.List()
	if err != nil {
		return nil, err
	}

	var total int64
	for _, e := range entries {
		total += e.DiskSize
	}

	overCount := opts.MaxCount > 0 && len(entries) > opts.MaxCount
	overSize := opts.MaxSize > 0 && total > opts.MaxSize
	if !opts.Clear && !overCount && !overSize {
		return nil, nil
	}

	latest := ""
	if opts.KeepLatest {
		for _, e := range entries {
			if e.Verified && compareVersions(e.Descriptor.JavaFXVersion, latest) > 0 {
				latest = e.Descriptor.JavaFXVersion
			}
		}
	}

	var removed []Entry
	for _, e := range entries {
		if latest != "" && e.Descriptor.JavaFXVersion == latest {
			continue
		}
		if err := c.fs.RemoveAll(e.LocalPath); err != nil {
			return removed, apperr.WithPath(apperr.DiskWriteError, "prune", e.LocalPath, err)
		}
		removed = append(removed, e)
		log.Debug().Str("dir", e.LocalPath).Msg("pruned cache entry")
	}

	c.removeEmptyVersionDirs()
	return removed, nil
}

func (c *Cache) removeStaleStaging() error {
	base := filepath.Join(c.root, javafxDir)
	versions, err := afero.ReadDir(c.fs, base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return apperr.WithPath(apperr.DiskWriteError, "prune", base, err)
	}

	for _, v := range versions {
		if !v.IsDir() {
			continue
		}
		children, err := afero.ReadDir(c.fs, filepath.Join(base, v.Name()))
		if err != nil {
			continue
		}
		for _, child := range children {
			if !child.IsDir() || !strings.HasPrefix(child.Name(), stagingPrefix) {
				continue
			}
			if c.clock.Since(child.ModTime()) < staleStaging {
				continue
			}
			dir := filepath.Join(base, v.Name(), child.Name())
			if err := c.fs.RemoveAll(dir); err != nil {
				return apperr.WithPath(apperr.DiskWriteError, "prune", dir, err)
			}
			log.Debug().Str("dir", dir).Msg("removed orphaned staging directory")
		}
	}
	return nil
}

func (c *Cache) removeEmptyVersionDirs() {
	base := filepath.Join(c.root, javafxDir)
	versions, err := afero.ReadDir(c.fs, base)
	if err != nil {
		return
	}
	for _, v := range versions {
		dir := filepath.Join(base, v.Name())
		if empty, err := afero.IsEmpty(c.fs, dir); err == nil && empty {
			_ = c.fs.Remove(dir)
		}
	}
}

// compareVersions orders JavaFX versions semantically, falling back to
// text order for strings that are not versions. The empty string sorts first.
func compareVersions(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return strings.Compare(a, b)
}
