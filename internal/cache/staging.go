package cache

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/manifest"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const downloadName = "download.part"

// Staging is a download in progress. Bytes land in a temporary file inside
// a staging directory beside the final entry directory; nothing is visible
// at the final path until Commit renames the whole directory into place.
type Staging struct {
	cache   *Cache
	desc    manifest.Descriptor
	dir     string
	file    afero.File
	written int64
	done    bool
}

// Begin opens a staging area for desc
func (c *Cache) Begin(desc manifest.Descriptor) (*Staging, error) {
	parent := filepath.Dir(c.Dir(desc.JavaFXVersion, desc.Platform))
	if err := c.fs.MkdirAll(parent, 0o755); err != nil {
		return nil, apperr.WithPath(apperr.DiskWriteError, "stage", parent, err)
	}

	dir, err := afero.TempDir(c.fs, parent, stagingPrefix+desc.Platform.String()+"-")
	if err != nil {
		return nil, apperr.WithPath(apperr.DiskWriteError, "stage", parent, err)
	}

	file, err := c.fs.OpenFile(filepath.Join(dir, downloadName), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		_ = c.fs.RemoveAll(dir)
		return nil, apperr.WithPath(apperr.DiskWriteError, "stage", dir, err)
	}

	return &Staging{cache: c, desc: desc, dir: dir, file: file}, nil
}

// Dir returns the staging directory
func (s *Staging) Dir() string {
	return s.dir
}

func (s *Staging) Write(p []byte) (int, error) {
	n, err := s.file.Write(p)
	s.written += int64(n)
	if err != nil {
		return n, apperr.WithPath(apperr.DiskWriteError, "write", s.file.Name(), err)
	}
	return n, nil
}

// Size returns the number of bytes staged so far
func (s *Staging) Size() int64 {
	return s.written
}

// Reset discards the staged bytes so a download can restart from zero
func (s *Staging) Reset() error {
	if err := s.file.Truncate(0); err != nil {
		return apperr.WithPath(apperr.DiskWriteError, "reset", s.file.Name(), err)
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return apperr.WithPath(apperr.DiskWriteError, "reset", s.file.Name(), err)
	}
	s.written = 0
	return nil
}

// Abort removes the staging directory. It is safe to call more than once
// and after Commit.
func (s *Staging) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	_ = s.file.Close()
	if err := s.cache.fs.RemoveAll(s.dir); err != nil {
		return apperr.WithPath(apperr.DiskWriteError, "abort", s.dir, err)
	}
	return nil
}

// Commit verifies the staged bytes against the descriptor checksum and
// promotes them into the cache. On mismatch the staging directory is removed
// and a ChecksumMismatch error is returned.
func (s *Staging) Commit() (Entry, error) {
	if s.done {
		return Entry{}, errors.New("staging already finished")
	}
	if err := s.file.Close(); err != nil {
		_ = s.Abort()
		return Entry{}, apperr.WithPath(apperr.DiskWriteError, "commit", s.file.Name(), err)
	}

	entry, err := s.promote()
	if err != nil {
		_ = s.Abort()
		return Entry{}, err
	}
	s.done = true
	return entry, nil
}

func (s *Staging) promote() (Entry, error) {
	c := s.cache
	partPath := filepath.Join(s.dir, downloadName)

	if s.desc.Checksum == "" {
		return Entry{}, fmt.Errorf("%s has no checksum to verify against", s.desc)
	}
	if err := s.desc.Checksum.Validate(); err != nil {
		return Entry{}, fmt.Errorf("%s: %w", s.desc, err)
	}

	actual, size, err := c.hashFile(partPath, s.desc.Checksum.Algorithm())
	if err != nil {
		return Entry{}, apperr.WithPath(apperr.DiskWriteError, "verify", partPath, err)
	}
	if actual != s.desc.Checksum {
		return Entry{}, apperr.WithPath(apperr.ChecksumMismatch, "verify", s.desc.URL,
			fmt.Errorf("expected %s, got %s", s.desc.Checksum, actual))
	}
	if s.desc.SizeBytes > 0 && size != s.desc.SizeBytes {
		return Entry{}, apperr.WithPath(apperr.ChecksumMismatch, "verify", s.desc.URL,
			fmt.Errorf("expected %d bytes, got %d", s.desc.SizeBytes, size))
	}

	// A verified entry committed by another invocation stays in place; it may
	// already be in use. Forced refreshes invalidate the entry first.
	if existing, ok := c.Lookup(s.desc); ok {
		log.Debug().Str("dir", existing.LocalPath).Msg("bundle already cached, discarding download")
		if err := c.fs.RemoveAll(s.dir); err != nil {
			log.Warn().Err(err).Str("staging", s.dir).Msg("failed to clean up staging")
		}
		return existing, nil
	}

	files, err := c.unpack(partPath, s.dir, artifactName(s.desc.URL))
	if err != nil {
		return Entry{}, err
	}
	sort.Strings(files)

	m := marker{
		Schema:     MarkerSchema,
		Version:    s.desc.JavaFXVersion,
		Platform:   s.desc.Platform.String(),
		Checksum:   s.desc.Checksum.String(),
		Size:       size,
		URL:        s.desc.URL,
		Files:      files,
		VerifiedAt: c.clock.Now().UTC(),
	}
	if err := c.writeMarker(s.dir, m); err != nil {
		return Entry{}, apperr.WithPath(apperr.DiskWriteError, "commit", s.dir, err)
	}

	final := c.Dir(s.desc.JavaFXVersion, s.desc.Platform)
	if err := c.fs.RemoveAll(final); err != nil {
		return Entry{}, apperr.WithPath(apperr.DiskWriteError, "commit", final, err)
	}
	if err := c.fs.Rename(s.dir, final); err != nil {
		// another process may have committed the same bundle first
		if existing, ok := c.Lookup(s.desc); ok {
			log.Debug().Str("dir", final).Msg("bundle committed concurrently, keeping existing entry")
			_ = c.fs.RemoveAll(s.dir)
			return existing, nil
		}
		return Entry{}, apperr.WithPath(apperr.DiskWriteError, "commit", final, err)
	}

	entry := c.entryFromMarker(final, m)
	entry.Descriptor = s.desc
	entry.DiskSize = c.diskSize(final)
	log.Info().Str("dir", final).Str("checksum", m.Checksum).Msg("bundle verified and cached")
	return entry, nil
}

// Store writes r through the staging protocol and commits it
func (c *Cache) Store(desc manifest.Descriptor, r io.Reader) (Entry, error) {
	s, err := c.Begin(desc)
	if err != nil {
		return Entry{}, err
	}
	if _, err := io.Copy(s, r); err != nil {
		_ = s.Abort()
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("failed to read bundle: %w", err)
	}
	return s.Commit()
}

// unpack extracts zip bundles into dir, or keeps any other artifact as a
// single file named after the download URL, and removes the part file
func (c *Cache) unpack(partPath, dir, name string) ([]string, error) {
	isZip, err := c.isZip(partPath)
	if err != nil {
		return nil, apperr.WithPath(apperr.DiskWriteError, "unpack", partPath, err)
	}

	if isZip {
		files, err := c.extractZip(partPath, dir)
		if err != nil {
			return nil, err
		}
		if err := c.fs.Remove(partPath); err != nil {
			return nil, apperr.WithPath(apperr.DiskWriteError, "unpack", partPath, err)
		}
		return files, nil
	}

	target := filepath.Join(dir, name)
	if err := c.fs.Rename(partPath, target); err != nil {
		return nil, apperr.WithPath(apperr.DiskWriteError, "unpack", target, err)
	}
	return []string{name}, nil
}

func (c *Cache) isZip(p string) (bool, error) {
	f, err := c.fs.Open(p)
	if err != nil {
		return false, err
	}
	defer f.Close()

	magic := make([]byte, 4)
	n, err := io.ReadFull(f, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return n == 4 && string(magic) == "PK\x03\x04", nil
}

// artifactName derives a file name from the download URL
func artifactName(rawURL string) string {
	name := "artifact"
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		if base := path.Base(u.Path); base != "/" && base != "." && base != MarkerFile {
			name = base
		}
	}
	return name
}
