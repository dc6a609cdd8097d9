package zipwire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Sentinel errors for archive decoding. Use errors.Is in callers.
var (
	// ErrTruncated means a declared length exceeds the bytes remaining in
	// the buffer. It signals a corrupted or truncated transport and always
	// aborts the whole parse.
	ErrTruncated = errors.New("ziptable: archive truncated")

	// ErrDecompression means an entry payload could not be inflated.
	// It is recovered per entry; the entry keeps its name.
	ErrDecompression = errors.New("ziptable: decompression failed")

	// ErrEntryTooLarge means an entry inflated past the configured limit.
	ErrEntryTooLarge = errors.New("ziptable: entry exceeds size limit")
)

// Cursor is a forward-only positional reader over a single archive buffer.
//
// All reads are little-endian and advance the position by exactly the
// consumed byte count. A Cursor is owned by one parsing pass and is not
// safe for concurrent use.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor creates a Cursor positioned at the start of buf.
// The Cursor borrows buf; callers must not mutate it during the parse.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current read position in bytes from the buffer start.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// ReadU16 reads a little-endian uint16 and advances by two bytes.
func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.ReadExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32 and advances by four bytes.
func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadExact returns the next n bytes and advances by n.
// The returned slice aliases the underlying buffer and must be treated
// as immutable.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", ErrTruncated, n)
	}
	if n > c.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncated, n, c.pos, c.Remaining())
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}
