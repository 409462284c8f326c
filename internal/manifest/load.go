package manifest

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/logging"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog/log"
)

//go:embed manifest.toml
var embedded []byte

const maxDocumentSize = 4 << 20

// Default returns the manifest compiled into the binary
func Default() (*Manifest, error) {
	return Parse(embedded)
}

// Loader reads manifests and checksum sidecars from local paths or URLs
type Loader struct {
	client *retryablehttp.Client
}

// NewLoader creates a loader with a retrying HTTP client
func NewLoader() *Loader {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = logging.Retryable()
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Loader{client: client}
}

// Load reads the manifest from source: an http(s) URL, a local path, or the
// embedded default when source is empty
func (l *Loader) Load(ctx context.Context, source string) (*Manifest, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		log.Debug().Msg("using embedded manifest")
		return Default()
	}

	var (
		data []byte
		err  error
	)
	if isURL(source) {
		data, err = l.get(ctx, source)
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			err = fmt.Errorf("failed to read manifest %s: %w", source, err)
		}
	}
	if err != nil {
		return nil, err
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	log.Debug().Str("source", source).Int("versions", len(m.versions)).Msg("loaded manifest")
	return m, nil
}

// PinChecksum fills desc.Checksum from its checksum_url sidecar when the
// manifest did not publish the digest inline. The sidecar holds a hex
// SHA-256, optionally followed by a file name, or an "algorithm:hex" digest.
func (l *Loader) PinChecksum(ctx context.Context, desc Descriptor) (Descriptor, error) {
	if desc.Checksum != "" {
		return desc, nil
	}
	if desc.ChecksumURL == "" {
		return desc, fmt.Errorf("%s publishes no checksum", desc)
	}

	var (
		data []byte
		err  error
	)
	if isURL(desc.ChecksumURL) {
		data, err = l.get(ctx, desc.ChecksumURL)
	} else {
		data, err = os.ReadFile(desc.ChecksumURL)
	}
	if err != nil {
		return desc, err
	}

	d, err := parseSidecar(data)
	if err != nil {
		return desc, fmt.Errorf("checksum sidecar %s: %w", desc.ChecksumURL, err)
	}
	desc.Checksum = d
	return desc, nil
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperr.WithPath(apperr.NetworkError, "fetch", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.WithPath(apperr.HttpStatusError, "fetch", url,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, apperr.WithPath(apperr.NetworkError, "fetch", url, err)
	}
	return data, nil
}

func parseSidecar(data []byte) (digest.Digest, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		value := strings.ToLower(fields[0])
		if strings.Contains(value, ":") {
			return digest.Parse(value)
		}
		d := digest.NewDigestFromEncoded(digest.SHA256, value)
		if err := d.Validate(); err != nil {
			return "", fmt.Errorf("invalid sha256 sidecar: %w", err)
		}
		return d, nil
	}
	return "", fmt.Errorf("empty checksum sidecar")
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
