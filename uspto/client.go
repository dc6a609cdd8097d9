// Package uspto queries a USPTO bulk-data search endpoint and
// materializes the referenced patent archives as tables.
//
// The search side is plain REST glue: Solr-style paginated JSON in,
// document rows out. Archive decoding is delegated to the ziptable core.
package uspto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/patchwell/ziptable"
	ziphttp "github.com/patchwell/ziptable/http"
)

// ErrAPI means the search endpoint rejected a request or returned a
// malformed response.
var ErrAPI = errors.New("uspto: api request failed")

const (
	// DefaultPageSize is the rows-per-page requested from the search
	// endpoint.
	DefaultPageSize = 100

	// maxPageSize caps a configured page size at the service maximum.
	maxPageSize = 1000

	// DefaultConcurrency bounds parallel archive downloads.
	DefaultConcurrency = 4
)

// Document is one search hit projected from the response JSON.
type Document struct {
	ID         string `json:"documentId"`
	Title      string `json:"inventionTitle"`
	Published  string `json:"publicationDate"`
	ArchiveURL string `json:"archiveUrl"`
}

// searchResponse mirrors the Solr-style envelope of the search endpoint.
type searchResponse struct {
	Response struct {
		NumFound int        `json:"numFound"`
		Start    int        `json:"start"`
		Docs     []Document `json:"docs"`
	} `json:"response"`
}

// Archive pairs a document with its decoded file table.
type Archive struct {
	Doc   Document
	Table *ziptable.Table
}

// FetchFunc retrieves the entire resource at url. It exists so callers
// can route archive downloads through a cache.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Client talks to one bulk-data search endpoint.
type Client struct {
	baseURL      string
	apiKey       string
	client       *nethttp.Client
	pageSize     int
	maxDocs      int
	concurrency  int
	logger       *slog.Logger
	fetchArchive FetchFunc
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the X-API-KEY header value sent on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets the HTTP client used for search requests.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithPageSize sets the rows requested per search page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = min(n, maxPageSize)
		}
	}
}

// WithMaxDocs caps the total documents returned by Search.
// Set to 0 for no cap.
func WithMaxDocs(n int) Option {
	return func(c *Client) {
		c.maxDocs = n
	}
}

// WithConcurrency bounds parallel archive downloads in FetchArchives.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger for request breadcrumbs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithArchiveFetcher routes archive downloads through fetch instead of a
// direct GET. Useful for caching layers.
func WithArchiveFetcher(fetch FetchFunc) Option {
	return func(c *Client) {
		c.fetchArchive = fetch
	}
}

// NewClient creates a Client for the search endpoint at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		client:      nethttp.DefaultClient,
		pageSize:    DefaultPageSize,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetchArchive == nil {
		c.fetchArchive = c.directFetch
	}
	return c
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.logger
}

// Search runs query against the search endpoint and returns all matching
// documents, walking pages until numFound is exhausted (or the
// configured document cap is hit).
func (c *Client) Search(ctx context.Context, query string) ([]Document, error) {
	var docs []Document
	start := 0
	for {
		page, numFound, err := c.searchPage(ctx, query, start)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return docs, nil
		}

		docs = append(docs, page...)
		if c.maxDocs > 0 && len(docs) >= c.maxDocs {
			return docs[:c.maxDocs], nil
		}
		start += len(page)
		if start >= numFound {
			return docs, nil
		}
	}
}

// searchPage fetches one page of results starting at the given offset.
func (c *Client) searchPage(ctx context.Context, query string, start int) ([]Document, int, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("start", strconv.Itoa(start))
	params.Set("rows", strconv.Itoa(c.pageSize))

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	c.log().Debug("search page", "url", reqURL, "start", start)

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrAPI, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrAPI, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, 0, fmt.Errorf("%w: search returned %s", ErrAPI, resp.Status)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, 0, fmt.Errorf("%w: decoding search response: %v", ErrAPI, err)
	}
	return sr.Response.Docs, sr.Response.NumFound, nil
}

// FetchArchives downloads and decodes each document's archive.
//
// Downloads run with bounded concurrency; results keep the order of
// docs. Any fetch or parse failure fails the whole call.
func (c *Client) FetchArchives(ctx context.Context, docs []Document) ([]Archive, error) {
	archives := make([]Archive, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if doc.ArchiveURL == "" {
				return fmt.Errorf("%w: document %s has no archive url", ErrAPI, doc.ID)
			}
			data, err := c.fetchArchive(gctx, doc.ArchiveURL)
			if err != nil {
				return err
			}
			table, err := ziptable.Decode(data, c.decodeOptions()...)
			if err != nil {
				return fmt.Errorf("decoding archive for %s: %w", doc.ID, err)
			}
			archives[i] = Archive{Doc: doc, Table: table}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return archives, nil
}

// directFetch is the default archive fetcher: one full GET per URL.
func (c *Client) directFetch(ctx context.Context, archiveURL string) ([]byte, error) {
	opts := []ziphttp.Option{ziphttp.WithClient(c.client)}
	if c.apiKey != "" {
		opts = append(opts, ziphttp.WithHeader("X-API-KEY", c.apiKey))
	}
	if c.logger != nil {
		opts = append(opts, ziphttp.WithLogger(c.logger))
	}
	return ziphttp.NewSource(archiveURL, opts...).Fetch(ctx)
}

func (c *Client) decodeOptions() []ziptable.DecodeOption {
	if c.logger == nil {
		return nil
	}
	return []ziptable.DecodeOption{ziptable.DecodeWithLogger(c.logger)}
}

// Project flattens documents into text records with a header row, ready
// for a tabular sink.
func Project(docs []Document) [][]string {
	records := make([][]string, 0, len(docs)+1)
	records = append(records, []string{"documentId", "inventionTitle", "publicationDate", "archiveUrl"})
	for _, doc := range docs {
		records = append(records, []string{doc.ID, doc.Title, doc.Published, doc.ArchiveURL})
	}
	return records
}
