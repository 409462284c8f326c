package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/manifest"
	"fxlaunch/internal/platform"

	"github.com/jonboulle/clockwork"
	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	// MarkerFile records a verified entry inside its directory
	MarkerFile = ".fxlaunch-entry.json"
	// MarkerSchema is bumped on incompatible marker changes; other values are treated as absent
	MarkerSchema = 1

	javafxDir     = "javafx"
	stagingPrefix = ".staging-"
)

var moduleJar = regexp.MustCompile(`^javafx\.[A-Za-z0-9]+(\.[A-Za-z0-9]+)*\.jar$`)

// Cache is the on-disk store of JavaFX bundles under <root>/javafx/<version>/<platform>/
type Cache struct {
	fs    afero.Fs
	root  string
	clock clockwork.Clock
}

// Entry is a cached bundle. Only verified entries may be planned with.
type Entry struct {
	Descriptor manifest.Descriptor
	LocalPath  string
	Verified   bool
	Modules    []string // absolute paths of the JavaFX module jars
	Files      []string // slash-separated, relative to LocalPath
	VerifiedAt time.Time
	DiskSize   int64
}

type marker struct {
	Schema     int       `json:"schema"`
	Version    string    `json:"version"`
	Platform   string    `json:"platform"`
	Checksum   string    `json:"checksum"`
	Size       int64     `json:"size"`
	URL        string    `json:"url,omitempty"`
	Files      []string  `json:"files"`
	VerifiedAt time.Time `json:"verified_at"`
}

// New creates a cache on the real filesystem
func New(root string) *Cache {
	return NewWithFs(afero.NewOsFs(), root, clockwork.NewRealClock())
}

// NewWithFs creates a cache over an arbitrary filesystem and clock
func NewWithFs(fs afero.Fs, root string, clock clockwork.Clock) *Cache {
	return &Cache{fs: fs, root: filepath.Clean(root), clock: clock}
}

// Root returns the cache root
func (c *Cache) Root() string {
	return c.root
}

// Dir returns the entry directory for a version and platform
func (c *Cache) Dir(version string, key platform.Key) string {
	return filepath.Join(c.root, javafxDir, version, key.String())
}

// Lookup returns the verified entry for desc. The marker is trusted without
// re-hashing; a missing, unreadable or mismatching marker means absent.
func (c *Cache) Lookup(desc manifest.Descriptor) (Entry, bool) {
	dir := c.Dir(desc.JavaFXVersion, desc.Platform)
	m, err := c.readMarker(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Debug().Err(err).Str("dir", dir).Msg("ignoring cache entry with unusable marker")
		}
		return Entry{}, false
	}

	if m.Version != desc.JavaFXVersion || m.Platform != desc.Platform.String() {
		log.Debug().Str("dir", dir).Msg("cache marker describes a different bundle")
		return Entry{}, false
	}
	if desc.Checksum != "" && digest.Digest(m.Checksum) != desc.Checksum {
		log.Debug().Str("dir", dir).Str("want", desc.Checksum.String()).Str("have", m.Checksum).
			Msg("cache marker checksum does not match manifest")
		return Entry{}, false
	}
	for _, f := range m.Files {
		if _, err := c.fs.Stat(filepath.Join(dir, filepath.FromSlash(f))); err != nil {
			log.Debug().Str("dir", dir).Str("file", f).Msg("cache entry is missing a file")
			return Entry{}, false
		}
	}

	entry := c.entryFromMarker(dir, m)
	if desc.URL != "" {
		entry.Descriptor.URL = desc.URL
		entry.Descriptor.ChecksumURL = desc.ChecksumURL
		entry.Descriptor.RequiresJava = desc.RequiresJava
	}
	return entry, true
}

// Invalidate marks an entry stale so the next lookup misses
func (c *Cache) Invalidate(version string, key platform.Key) error {
	path := filepath.Join(c.Dir(version, key), MarkerFile)
	if err := c.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.WithPath(apperr.DiskWriteError, "invalidate", path, err)
	}
	return nil
}

// List returns every entry directory in the cache, verified or not,
// ordered by version then platform
func (c *Cache) List() ([]Entry, error) {
	base := filepath.Join(c.root, javafxDir)
	versions, err := afero.ReadDir(c.fs, base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var entries []Entry
	for _, v := range versions {
		if !v.IsDir() || strings.HasPrefix(v.Name(), ".") {
			continue
		}
		platforms, err := afero.ReadDir(c.fs, filepath.Join(base, v.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read cache: %w", err)
		}
		for _, p := range platforms {
			if !p.IsDir() || strings.HasPrefix(p.Name(), ".") {
				continue
			}
			dir := filepath.Join(base, v.Name(), p.Name())
			entry := Entry{LocalPath: dir}
			if m, err := c.readMarker(dir); err == nil {
				entry = c.entryFromMarker(dir, m)
			} else {
				entry.Descriptor.JavaFXVersion = v.Name()
				entry.Descriptor.Platform, _ = platform.Parse(p.Name())
			}
			entry.DiskSize = c.diskSize(dir)
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if order := compareVersions(entries[i].Descriptor.JavaFXVersion, entries[j].Descriptor.JavaFXVersion); order != 0 {
			return order < 0
		}
		return entries[i].Descriptor.Platform.String() < entries[j].Descriptor.Platform.String()
	})
	return entries, nil
}

func (c *Cache) readMarker(dir string) (marker, error) {
	var m marker
	data, err := afero.ReadFile(c.fs, filepath.Join(dir, MarkerFile))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("corrupt marker: %w", err)
	}
	if m.Schema != MarkerSchema {
		return m, fmt.Errorf("unsupported marker schema %d", m.Schema)
	}
	if _, err := digest.Parse(m.Checksum); err != nil {
		return m, fmt.Errorf("corrupt marker checksum: %w", err)
	}
	return m, nil
}

func (c *Cache) writeMarker(dir string, m marker) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(c.fs, filepath.Join(dir, MarkerFile), data, 0o644)
}

func (c *Cache) entryFromMarker(dir string, m marker) Entry {
	key, _ := platform.Parse(m.Platform)
	entry := Entry{
		Descriptor: manifest.Descriptor{
			JavaFXVersion: m.Version,
			Platform:      key,
			URL:           m.URL,
			Checksum:      digest.Digest(m.Checksum),
			SizeBytes:     m.Size,
		},
		LocalPath:  dir,
		Verified:   true,
		Files:      append([]string(nil), m.Files...),
		VerifiedAt: m.VerifiedAt,
	}
	for _, f := range m.Files {
		if moduleJar.MatchString(filepath.Base(filepath.FromSlash(f))) {
			entry.Modules = append(entry.Modules, filepath.Join(dir, filepath.FromSlash(f)))
		}
	}
	sort.Strings(entry.Modules)
	return entry
}

func (c *Cache) diskSize(dir string) int64 {
	var total int64
	_ = afero.Walk(c.fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}
