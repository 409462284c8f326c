package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fxlaunch/internal/apperr"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// DefaultAttempts bounds the number of download attempts
const DefaultAttempts = 5

// Sink receives downloaded bytes. Size reports what a previous attempt
// already wrote, and Reset discards it before a full re-fetch.
type Sink interface {
	io.Writer
	Size() int64
	Reset() error
}

// ProgressFunc is called as bytes arrive; total is 0 when unknown
type ProgressFunc func(done, total int64)

// Downloader fetches artifacts with bounded retries and range resume
type Downloader struct {
	client     *http.Client
	attempts   uint
	newBackOff func() backoff.BackOff
	progress   ProgressFunc
}

// Option configures a Downloader
type Option func(*Downloader)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithAttempts sets the maximum number of attempts
func WithAttempts(n uint) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.attempts = n
		}
	}
}

// WithBackOff sets the delay policy between attempts
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(d *Downloader) { d.newBackOff = fn }
}

// WithProgress reports transfer progress
func WithProgress(fn ProgressFunc) Option {
	return func(d *Downloader) { d.progress = fn }
}

// NewDownloader creates a downloader with exponential backoff
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout:   15 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		attempts: DefaultAttempts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// fetchState carries what one attempt learned about the server to the next
type fetchState struct {
	resumable bool
	tries     int
}

// Fetch downloads url into sink. Transport failures and truncated bodies are
// retried; a non-2xx status fails immediately. When the server advertised
// byte ranges, a retry continues from the bytes already in the sink.
func (d *Downloader) Fetch(ctx context.Context, url string, expectedSize int64, sink Sink) error {
	state := &fetchState{}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		state.tries++
		return struct{}{}, d.attempt(ctx, url, expectedSize, sink, state)
	},
		backoff.WithBackOff(d.newBackOff()),
		backoff.WithMaxTries(d.attempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Str("url", url).Int("attempt", state.tries).
				Dur("retry_in", next).Msg("download attempt failed")
		}),
	)
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return err
}

func (d *Downloader) attempt(ctx context.Context, url string, expectedSize int64, sink Sink, state *fetchState) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	offset := sink.Size()
	if offset > 0 && state.resumable && (expectedSize <= 0 || offset < expectedSize) {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	} else if offset > 0 {
		if err := sink.Reset(); err != nil {
			return backoff.Permanent(err)
		}
		offset = 0
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return apperr.WithPath(apperr.NetworkError, "download", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPartialContent && offset > 0:
		if start, ok := contentRangeStart(resp.Header.Get("Content-Range")); !ok || start != offset {
			if err := sink.Reset(); err != nil {
				return backoff.Permanent(err)
			}
			state.resumable = false
			return apperr.WithPath(apperr.NetworkError, "download", url,
				fmt.Errorf("server resumed at the wrong offset"))
		}
		log.Debug().Str("url", url).Int64("offset", offset).Msg("resuming download")
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0:
		if err := sink.Reset(); err != nil {
			return backoff.Permanent(err)
		}
		state.resumable = false
		return apperr.WithPath(apperr.NetworkError, "download", url,
			fmt.Errorf("server rejected resume at byte %d", offset))
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		if offset > 0 {
			if err := sink.Reset(); err != nil {
				return backoff.Permanent(err)
			}
			offset = 0
		}
	default:
		return backoff.Permanent(apperr.WithPath(apperr.HttpStatusError, "download", url,
			fmt.Errorf("status %d", resp.StatusCode)))
	}

	if strings.EqualFold(resp.Header.Get("Accept-Ranges"), "bytes") || resp.StatusCode == http.StatusPartialContent {
		state.resumable = true
	}

	total := expectedSize
	if total <= 0 && resp.ContentLength >= 0 {
		total = offset + resp.ContentLength
	}

	var w io.Writer = sink
	if d.progress != nil {
		d.progress(offset, total)
		w = io.MultiWriter(sink, &progressWriter{done: offset, total: total, report: d.progress})
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if apperr.Is(err, apperr.DiskWriteError) {
			return backoff.Permanent(err)
		}
		return apperr.WithPath(apperr.NetworkError, "download", url,
			fmt.Errorf("transfer interrupted after %d bytes: %w", offset+n, err))
	}

	if resp.ContentLength >= 0 && n < resp.ContentLength {
		return apperr.WithPath(apperr.NetworkError, "download", url,
			fmt.Errorf("truncated body: got %d of %d bytes", n, resp.ContentLength))
	}
	if expectedSize > 0 && offset+n < expectedSize {
		return apperr.WithPath(apperr.NetworkError, "download", url,
			fmt.Errorf("incomplete download: got %d bytes, expected %d", offset+n, expectedSize))
	}

	return nil
}

// contentRangeStart parses the first byte position of "bytes 100-199/200"
func contentRangeStart(header string) (int64, bool) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes ")
	if !ok {
		return 0, false
	}
	first, _, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, false
	}
	start, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	if err != nil {
		return 0, false
	}
	return start, true
}

// progressWriter reports cumulative bytes to a ProgressFunc
type progressWriter struct {
	done   int64
	total  int64
	report ProgressFunc
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.done += int64(len(p))
	pw.report(pw.done, pw.total)
	return len(p), nil
}
