package installer

import (
	"context"
	"fmt"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/cache"
	"fxlaunch/internal/manifest"

	"github.com/rs/zerolog/log"
)

// ChecksumPinner resolves a descriptor's checksum_url into a digest
type ChecksumPinner interface {
	PinChecksum(ctx context.Context, desc manifest.Descriptor) (manifest.Descriptor, error)
}

// Installer makes a JavaFX bundle available in the cache, downloading it
// only when no verified entry exists
type Installer struct {
	cache      *cache.Cache
	downloader *Downloader
	pinner     ChecksumPinner
}

// Result describes how an install was satisfied
type Result struct {
	Entry    cache.Entry
	CacheHit bool
	Fetches  int
}

// NewInstaller creates an installer; pinner may be nil when every
// descriptor carries an inline checksum
func NewInstaller(c *cache.Cache, d *Downloader, pinner ChecksumPinner) *Installer {
	return &Installer{cache: c, downloader: d, pinner: pinner}
}

// Install returns the verified cache entry for desc. A cache hit performs no
// network traffic. With force the existing entry is marked stale and
// replaced. A checksum mismatch triggers exactly one re-fetch; any
// failure or cancellation leaves no staging data behind.
func (i *Installer) Install(ctx context.Context, desc manifest.Descriptor, force bool) (Result, error) {
	if force {
		if err := i.cache.Invalidate(desc.JavaFXVersion, desc.Platform); err != nil {
			return Result{}, err
		}
	} else if entry, ok := i.cache.Lookup(desc); ok {
		log.Debug().Str("bundle", desc.String()).Str("dir", entry.LocalPath).Msg("cache hit")
		return Result{Entry: entry, CacheHit: true}, nil
	}

	if desc.Checksum == "" {
		if i.pinner == nil {
			return Result{}, fmt.Errorf("%s has no inline checksum", desc)
		}
		pinned, err := i.pinner.PinChecksum(ctx, desc)
		if err != nil {
			return Result{}, fmt.Errorf("failed to resolve checksum for %s: %w", desc, err)
		}
		desc = pinned
	}

	var res Result
	for attempt := 1; ; attempt++ {
		entry, err := i.fetch(ctx, desc)
		res.Fetches++
		if err == nil {
			res.Entry = entry
			return res, nil
		}
		if !apperr.Is(err, apperr.ChecksumMismatch) || attempt >= 2 {
			return res, err
		}
		log.Warn().Err(err).Str("bundle", desc.String()).Msg("checksum mismatch, downloading again")
	}
}

func (i *Installer) fetch(ctx context.Context, desc manifest.Descriptor) (cache.Entry, error) {
	staging, err := i.cache.Begin(desc)
	if err != nil {
		return cache.Entry{}, err
	}

	log.Info().Str("url", desc.URL).Str("staging", staging.Dir()).Msg("downloading bundle")
	if err := i.downloader.Fetch(ctx, desc.URL, desc.SizeBytes, staging); err != nil {
		if abortErr := staging.Abort(); abortErr != nil {
			log.Warn().Err(abortErr).Str("staging", staging.Dir()).Msg("failed to clean up staging")
		}
		return cache.Entry{}, err
	}

	return staging.Commit()
}
