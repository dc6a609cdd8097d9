// Package testutil builds archive fixtures for tests.
//
// Fixtures are assembled by hand rather than with archive/zip: the
// standard writer emits data descriptors (flag bit 3, zero sizes in the
// local header), a shape the decoder deliberately does not support.
// Payloads are deflated with the standard library so decoder tests
// cross-check the klauspost inflater against an independent compressor.
package testutil

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"testing"
)

const (
	localHeaderSignature   = 0x04034b50
	centralDirSignature    = 0x02014b50
	methodStored           = 0
	methodDeflate          = 8
	localHeaderFixedLength = 30
)

// Deflate compresses data with the standard library DEFLATE writer.
func Deflate(tb testing.TB, data []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		tb.Fatalf("flate.NewWriter() error = %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		tb.Fatalf("deflate write error = %v", err)
	}
	if err := fw.Close(); err != nil {
		tb.Fatalf("deflate close error = %v", err)
	}
	return buf.Bytes()
}

// DeflateEntry returns one local file entry whose payload is content,
// deflated. extra may be nil.
func DeflateEntry(tb testing.TB, name string, extra, content []byte) []byte {
	tb.Helper()

	payload := Deflate(tb, content)
	return rawEntry(name, extra, payload, uint32(len(content)), methodDeflate)
}

// StoredEntry returns one local file entry whose payload bytes are taken
// verbatim (method "stored"). The decoder still attempts DEFLATE on it.
func StoredEntry(name string, extra, payload []byte) []byte {
	return rawEntry(name, extra, payload, uint32(len(payload)), methodStored)
}

// EndOfEntries returns the directory-section signature bytes that
// terminate the local-entry stream.
func EndOfEntries() []byte {
	end := make([]byte, 4)
	binary.LittleEndian.PutUint32(end, centralDirSignature)
	return end
}

// Archive concatenates entry byte sequences into one buffer.
func Archive(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for _, part := range parts {
		buf.Write(part)
	}
	return buf.Bytes()
}

// rawEntry lays out signature, fixed header region, and variable fields
// exactly per the local file header wire format.
func rawEntry(name string, extra, payload []byte, uncompressedSize uint32, method uint16) []byte {
	entry := make([]byte, 0, localHeaderFixedLength+len(name)+len(extra)+len(payload))
	fixed := make([]byte, localHeaderFixedLength)

	binary.LittleEndian.PutUint32(fixed[0:4], localHeaderSignature)
	binary.LittleEndian.PutUint16(fixed[4:6], 20) // version needed to extract
	binary.LittleEndian.PutUint16(fixed[8:10], method)
	binary.LittleEndian.PutUint32(fixed[18:22], uint32(len(payload)))
	binary.LittleEndian.PutUint32(fixed[22:26], uncompressedSize)
	binary.LittleEndian.PutUint16(fixed[26:28], uint16(len(name)))
	binary.LittleEndian.PutUint16(fixed[28:30], uint16(len(extra)))

	entry = append(entry, fixed...)
	entry = append(entry, name...)
	entry = append(entry, extra...)
	entry = append(entry, payload...)
	return entry
}
