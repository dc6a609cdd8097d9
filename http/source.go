// Package http provides a ByteSource that fetches an entire remote
// resource with a single GET request.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"

	"github.com/opencontainers/go-digest"
)

// ErrFetch means the resource could not be retrieved: a transport
// failure, a non-success status, or a payload over the configured limit.
// Fetch errors are fatal for the whole operation; no partial archive is
// ever produced from them.
var ErrFetch = errors.New("ziptable: fetch failed")

// DefaultMaxBytes is the default payload size limit (1GB).
// Bulk archives are buffered whole, so this bounds peak fetch memory.
const DefaultMaxBytes = 1 << 30

// Source fetches a remote resource into one in-memory buffer.
//
// No range requests are issued and no partial reads are surfaced: the
// whole payload is materialized before any parsing begins.
type Source struct {
	url       string
	client    *nethttp.Client
	headers   nethttp.Header
	userAgent string
	maxBytes  int64
	logger    *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		if client != nil {
			s.client = client
		}
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(s *Source) {
		if headers == nil {
			return
		}
		s.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Source) {
		s.userAgent = ua
	}
}

// WithMaxBytes caps the payload size. Set to 0 to disable the limit.
func WithMaxBytes(n int64) Option {
	return func(s *Source) {
		s.maxBytes = n
	}
}

// WithLogger sets the logger for fetch breadcrumbs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates a Source for the given resource URL.
func NewSource(url string, opts ...Option) *Source {
	s := &Source{
		url:      url,
		client:   nethttp.DefaultClient,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the resource URL this Source fetches.
func (s *Source) URL() string {
	return s.url
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Source) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.logger
}

// Fetch retrieves the entire resource as one byte sequence.
func (s *Source) Fetch(ctx context.Context) ([]byte, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, s.url, resp.Status)
	}

	var body io.Reader = resp.Body
	if s.maxBytes > 0 {
		body = io.LimitReader(resp.Body, s.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFetch, s.url, err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %s payload exceeds %d bytes", ErrFetch, s.url, s.maxBytes)
	}

	s.log().Debug("fetched resource", "url", s.url, "bytes", len(data), "id", PayloadID(data))
	return data, nil
}

// PayloadID returns the canonical digest of a fetched payload, used as a
// stable identifier for caching and logging.
func PayloadID(data []byte) digest.Digest {
	return digest.FromBytes(data)
}
