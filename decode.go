package ziptable

import (
	"log/slog"

	"github.com/patchwell/ziptable/internal/zipwire"
)

// DecodeOption configures a Decode operation.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	maxEntryBytes    int64
	maxEntryBytesSet bool
	logger           *slog.Logger
}

// DecodeWithMaxEntryBytes caps the inflated size of a single entry.
// Set to 0 to disable the limit. An entry over the limit keeps its name
// and records ErrEntryTooLarge; it does not abort the decode.
func DecodeWithMaxEntryBytes(n int64) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.maxEntryBytes = n
		cfg.maxEntryBytesSet = true
	}
}

// DecodeWithLogger sets the logger for decode breadcrumbs.
func DecodeWithLogger(logger *slog.Logger) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.logger = logger
	}
}

// Decode parses an in-memory archive into a Table.
//
// Entries are decoded strictly in byte order. The first four bytes that
// are not a local file header signature end the entry stream; everything
// after (typically the directory section) is ignored. Per-entry inflate
// failures are recorded on the row. Truncation fails the whole decode
// with ErrTruncated; no partial table is returned.
func Decode(buf []byte, opts ...DecodeOption) (*Table, error) {
	cfg := decodeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var popts []zipwire.Option
	if cfg.maxEntryBytesSet {
		popts = append(popts, zipwire.WithMaxEntryBytes(cfg.maxEntryBytes))
	}
	if cfg.logger != nil {
		popts = append(popts, zipwire.WithLogger(cfg.logger))
	}

	entries, err := zipwire.NewParser(buf, popts...).Parse()
	if err != nil {
		return nil, err
	}

	// Project genuine entries only. The terminal record is recognized by
	// its validity flag rather than by position, so a malformed sequence
	// cannot drop a real entry.
	rows := make([]Row, 0, len(entries))
	for i := range entries {
		if !entries[i].Valid {
			continue
		}
		rows = append(rows, Row{
			FileName:   entries[i].Name,
			Content:    entries[i].Content,
			ContentErr: entries[i].ContentErr,
		})
	}
	return NewTable(rows), nil
}
