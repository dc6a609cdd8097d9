package ziptable

import (
	"context"
	"log/slog"
	nethttp "net/http"

	ziphttp "github.com/patchwell/ziptable/http"
)

// ByteSource fetches an entire remote resource into memory.
type ByteSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FetchOption configures a Fetch operation.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	client          *nethttp.Client
	headers         map[string]string
	maxArchiveBytes int64
	maxArchiveSet   bool
	logger          *slog.Logger
	decodeOpts      []DecodeOption
}

// FetchWithClient sets the HTTP client used for the request.
func FetchWithClient(client *nethttp.Client) FetchOption {
	return func(cfg *fetchConfig) {
		cfg.client = client
	}
}

// FetchWithHeader sets a header on the request.
func FetchWithHeader(key, value string) FetchOption {
	return func(cfg *fetchConfig) {
		if cfg.headers == nil {
			cfg.headers = make(map[string]string)
		}
		cfg.headers[key] = value
	}
}

// FetchWithMaxArchiveBytes caps the fetched payload size.
// Set to 0 to disable the limit.
func FetchWithMaxArchiveBytes(n int64) FetchOption {
	return func(cfg *fetchConfig) {
		cfg.maxArchiveBytes = n
		cfg.maxArchiveSet = true
	}
}

// FetchWithLogger sets the logger for fetch and decode breadcrumbs.
func FetchWithLogger(logger *slog.Logger) FetchOption {
	return func(cfg *fetchConfig) {
		cfg.logger = logger
	}
}

// FetchWithDecodeOptions forwards options to the decode step.
func FetchWithDecodeOptions(opts ...DecodeOption) FetchOption {
	return func(cfg *fetchConfig) {
		cfg.decodeOpts = append(cfg.decodeOpts, opts...)
	}
}

// Fetch retrieves the archive at url and decodes it into a Table.
//
// The whole payload is buffered before parsing begins; a fetch failure
// produces no partial output.
func Fetch(ctx context.Context, url string, opts ...FetchOption) (*Table, error) {
	cfg := fetchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var srcOpts []ziphttp.Option
	if cfg.client != nil {
		srcOpts = append(srcOpts, ziphttp.WithClient(cfg.client))
	}
	for key, value := range cfg.headers {
		srcOpts = append(srcOpts, ziphttp.WithHeader(key, value))
	}
	if cfg.maxArchiveSet {
		srcOpts = append(srcOpts, ziphttp.WithMaxBytes(cfg.maxArchiveBytes))
	}
	if cfg.logger != nil {
		srcOpts = append(srcOpts, ziphttp.WithLogger(cfg.logger))
	}

	return FetchFrom(ctx, ziphttp.NewSource(url, srcOpts...), cfg.decodeOptions()...)
}

// FetchFrom retrieves an archive from an arbitrary ByteSource and
// decodes it into a Table.
func FetchFrom(ctx context.Context, source ByteSource, opts ...DecodeOption) (*Table, error) {
	buf, err := source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(buf, opts...)
}

func (cfg *fetchConfig) decodeOptions() []DecodeOption {
	opts := cfg.decodeOpts
	if cfg.logger != nil {
		opts = append(opts, DecodeWithLogger(cfg.logger))
	}
	return opts
}
