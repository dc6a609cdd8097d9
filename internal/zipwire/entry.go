package zipwire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Entry is one parsed archive record.
//
// The terminal record (Valid=false) carries no fields; it marks the point
// where the entry stream ended.
type Entry struct {
	// Name is the entry name, decoded as UTF-8-compatible bytes.
	Name string

	// Extra is the opaque extra-metadata field. Never interpreted.
	Extra []byte

	// Content is the inflated payload, or nil when ContentErr is set.
	Content []byte

	// ContentErr records why Content is absent: a corrupt stream or an
	// unsupported (non-DEFLATE, e.g. stored) entry. The entry itself is
	// still valid and keeps its name.
	ContentErr error

	// Valid is false only for the terminal record.
	Valid bool
}

// decodeEntry reads the variable-length fields for a valid header, in
// strict order: name, extra, compressed payload. The payload is then
// inflated; inflate failure is recorded on the entry, not returned.
//
// Only truncation errors abort the decode.
func decodeEntry(cur *Cursor, hdr LocalHeader, maxEntryBytes int64) (Entry, error) {
	name, err := cur.ReadExact(int(hdr.NameLen))
	if err != nil {
		return Entry{}, err
	}
	extra, err := cur.ReadExact(int(hdr.ExtraLen))
	if err != nil {
		return Entry{}, err
	}
	compressed, err := cur.ReadExact(int(hdr.CompressedSize))
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Name:  string(name),
		Extra: extra,
		Valid: true,
	}

	content, err := inflate(compressed, maxEntryBytes)
	if err != nil {
		entry.ContentErr = fmt.Errorf("entry %q: %w", entry.Name, err)
		return entry, nil
	}
	entry.Content = content
	return entry, nil
}

// inflate decompresses one DEFLATE payload. A positive limit caps the
// inflated size to guard against decompression bombs.
func inflate(compressed []byte, limit int64) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close() //nolint:errcheck // close error is redundant with read error

	var r io.Reader = fr
	if limit > 0 {
		r = io.LimitReader(fr, limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	if limit > 0 && int64(len(content)) > limit {
		return nil, fmt.Errorf("%w: inflated past %d bytes", ErrEntryTooLarge, limit)
	}
	return content, nil
}
