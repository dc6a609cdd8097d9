package zipwire

import (
	"io"
	"log/slog"
)

// DefaultMaxEntryBytes is the default inflated-size limit per entry (256MB).
const DefaultMaxEntryBytes = 256 << 20

// parserState tracks the entry-stream state machine.
type parserState int

const (
	stateReading parserState = iota
	stateTerminated
)

// Parser walks the sequence of local file entries in one archive buffer.
//
// The end of the stream is implicit: any four bytes that are not a local
// file header signature (the directory section included) terminate
// iteration. Archives with non-standard interleaved signatures therefore
// truncate silently at the first mismatch.
type Parser struct {
	cur           *Cursor
	logger        *slog.Logger
	maxEntryBytes int64
	state         parserState
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxEntryBytes caps the inflated size of a single entry.
// Set to 0 to disable the limit.
func WithMaxEntryBytes(n int64) Option {
	return func(p *Parser) {
		p.maxEntryBytes = n
	}
}

// WithLogger sets the logger for parse breadcrumbs.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a Parser over buf.
// The Parser borrows buf for the duration of the parse.
func NewParser(buf []byte, opts ...Option) *Parser {
	p := &Parser{
		cur:           NewCursor(buf),
		maxEntryBytes: DefaultMaxEntryBytes,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Parser) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.logger
}

// Offset returns the current byte offset into the buffer.
func (p *Parser) Offset() int {
	return p.cur.Pos()
}

// Next produces the next record in archive order.
//
// It returns ok=false once the stream has terminated. The terminal record
// itself (Valid=false) is returned exactly once, with ok=true, before the
// stream is considered done. Truncation is fatal and returns an error.
func (p *Parser) Next() (Entry, bool, error) {
	if p.state == stateTerminated {
		return Entry{}, false, nil
	}

	hdr, err := ReadLocalHeader(p.cur)
	if err != nil {
		return Entry{}, false, err
	}
	if !hdr.Valid {
		p.state = stateTerminated
		p.log().Debug("entry stream terminated", "offset", p.cur.Pos())
		return Entry{}, true, nil
	}

	entry, err := decodeEntry(p.cur, hdr, p.maxEntryBytes)
	if err != nil {
		return Entry{}, false, err
	}
	p.log().Debug("decoded entry",
		"name", entry.Name,
		"compressed", hdr.CompressedSize,
		"offset", p.cur.Pos())
	return entry, true, nil
}

// Parse consumes the whole entry stream and returns the records in
// archive order. The last record is the terminal one (Valid=false).
//
// A truncated or corrupted buffer fails the whole parse; no partial
// sequence is returned.
func (p *Parser) Parse() ([]Entry, error) {
	var entries []Entry
	for {
		entry, ok, err := p.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return entries, nil
		}
		entries = append(entries, entry)
	}
}
