package cache

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"fxlaunch/internal/apperr"

	"github.com/opencontainers/go-digest"
)

// hashFile digests a staged file and returns its size
func (c *Cache) hashFile(p string, alg digest.Algorithm) (digest.Digest, int64, error) {
	if !alg.Available() {
		return "", 0, fmt.Errorf("digest algorithm %s is not available", alg)
	}
	f, err := c.fs.Open(p)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	digester := alg.Digester()
	size, err := io.Copy(digester.Hash(), f)
	if err != nil {
		return "", 0, err
	}
	return digester.Digest(), size, nil
}

// extractZip extracts a ZIP file into destDir and returns the extracted
// files as slash-separated paths relative to destDir
func (c *Cache) extractZip(zipPath, destDir string) ([]string, error) {
	f, err := c.fs.Open(zipPath)
	if err != nil {
		return nil, apperr.WithPath(apperr.DiskWriteError, "extract", zipPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperr.WithPath(apperr.DiskWriteError, "extract", zipPath, err)
	}

	reader, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open zip %s: %w", zipPath, err)
	}

	var files []string
	for _, file := range reader.File {
		name := path.Clean(strings.ReplaceAll(file.Name, `\`, "/"))
		if name == "." || path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
			return nil, apperr.WithPath(apperr.DiskWriteError, "extract", zipPath,
				fmt.Errorf("illegal path %q in zip", file.Name))
		}
		if name == MarkerFile || name == downloadName {
			continue
		}
		filePath := filepath.Join(destDir, filepath.FromSlash(name))

		if file.FileInfo().IsDir() {
			if err := c.fs.MkdirAll(filePath, 0o755); err != nil {
				return nil, apperr.WithPath(apperr.DiskWriteError, "extract", filePath, err)
			}
			continue
		}

		if err := c.fs.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return nil, apperr.WithPath(apperr.DiskWriteError, "extract", filePath, err)
		}
		if err := c.extractFile(file, filePath); err != nil {
			return nil, err
		}
		files = append(files, name)
	}

	return files, nil
}

func (c *Cache) extractFile(file *zip.File, filePath string) error {
	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	outFile, err := c.fs.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return apperr.WithPath(apperr.DiskWriteError, "extract", filePath, err)
	}
	defer outFile.Close()

	rc, err := file.Open()
	if err != nil {
		return apperr.WithPath(apperr.DiskWriteError, "extract", filePath,
			fmt.Errorf("failed to open file in zip: %w", err))
	}
	defer rc.Close()

	if _, err := io.Copy(outFile, rc); err != nil {
		return apperr.WithPath(apperr.DiskWriteError, "extract", filePath, err)
	}
	return outFile.Close()
}
