// Package cache provides a bounded in-memory cache for fetched archive
// payloads.
//
// The cache is an optional layer in front of a fetch primitive: repeated
// requests for one resource hit memory, and concurrent requests for the
// same resource are collapsed into a single fetch.
package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity is the default number of payloads kept in memory.
const DefaultCapacity = 16

// FetchFunc retrieves the entire resource at url.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Store caches fetched payloads keyed by resource URL, with LRU eviction.
// It is safe for concurrent use.
type Store struct {
	entries *lru.Cache[string, []byte]
	group   singleflight.Group
	fetch   FetchFunc
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithCapacity sets the number of payloads to keep.
func WithCapacity(n int) Option {
	return func(s *Store) error {
		entries, err := lru.New[string, []byte](n)
		if err != nil {
			return fmt.Errorf("cache capacity %d: %w", n, err)
		}
		s.entries = entries
		return nil
	}
}

// WithLogger sets the logger for cache breadcrumbs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// New creates a Store that fills misses via fetch.
func New(fetch FetchFunc, opts ...Option) (*Store, error) {
	s := &Store{fetch: fetch}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.entries == nil {
		entries, err := lru.New[string, []byte](DefaultCapacity)
		if err != nil {
			return nil, err
		}
		s.entries = entries
	}
	return s, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.logger
}

// Get returns the payload for url, fetching on a miss.
//
// Concurrent calls for one url are deduplicated; all callers receive the
// result of a single underlying fetch. Fetch failures are not cached.
func (s *Store) Get(ctx context.Context, url string) ([]byte, error) {
	if data, ok := s.entries.Get(url); ok {
		s.log().Debug("payload cache hit", "url", url)
		return data, nil
	}

	s.log().Debug("payload cache miss", "url", url)
	v, err, _ := s.group.Do(url, func() (any, error) {
		// Double-check under the flight: an earlier caller may have
		// populated the entry between our miss and now.
		if data, ok := s.entries.Get(url); ok {
			return data, nil
		}
		data, err := s.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		s.entries.Add(url, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil //nolint:errcheck // flight fn only stores []byte
}

// Len returns the number of cached payloads.
func (s *Store) Len() int {
	return s.entries.Len()
}
