package zipwire_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/patchwell/ziptable/internal/testutil"
	"github.com/patchwell/ziptable/internal/zipwire"
)

func TestReadLocalHeaderFields(t *testing.T) {
	t.Parallel()

	content := []byte("header field test content")
	extra := []byte{0xAA, 0xBB, 0xCC}
	entry := testutil.DeflateEntry(t, "dir/file.xml", extra, content)

	cur := zipwire.NewCursor(entry)
	hdr, err := zipwire.ReadLocalHeader(cur)
	if err != nil {
		t.Fatalf("ReadLocalHeader() error = %v", err)
	}
	if !hdr.Valid {
		t.Fatal("ReadLocalHeader() Valid = false, want true")
	}
	if cur.Pos() != 30 {
		t.Fatalf("Pos() after header = %d, want 30", cur.Pos())
	}
	if int(hdr.NameLen) != len("dir/file.xml") {
		t.Fatalf("NameLen = %d, want %d", hdr.NameLen, len("dir/file.xml"))
	}
	if int(hdr.ExtraLen) != len(extra) {
		t.Fatalf("ExtraLen = %d, want %d", hdr.ExtraLen, len(extra))
	}
	wantCompressed := len(entry) - 30 - len("dir/file.xml") - len(extra)
	if int(hdr.CompressedSize) != wantCompressed {
		t.Fatalf("CompressedSize = %d, want %d", hdr.CompressedSize, wantCompressed)
	}
	if int(hdr.UncompressedSize) != len(content) {
		t.Fatalf("UncompressedSize = %d, want %d", hdr.UncompressedSize, len(content))
	}
}

func TestReadLocalHeaderSignatureMismatch(t *testing.T) {
	t.Parallel()

	// Directory-section signature followed by plenty of bytes: only the
	// four signature bytes may be consumed.
	buf := append(testutil.EndOfEntries(), make([]byte, 64)...)
	cur := zipwire.NewCursor(buf)

	hdr, err := zipwire.ReadLocalHeader(cur)
	if err != nil {
		t.Fatalf("ReadLocalHeader() error = %v", err)
	}
	if hdr.Valid {
		t.Fatal("ReadLocalHeader() Valid = true, want false")
	}
	if cur.Pos() != 4 {
		t.Fatalf("Pos() = %d, want 4", cur.Pos())
	}
}

func TestReadLocalHeaderTruncatedFixedRegion(t *testing.T) {
	t.Parallel()

	// Valid signature but only 10 of the 26 fixed bytes behind it.
	buf := make([]byte, 14)
	binary.LittleEndian.PutUint32(buf, 0x04034b50)

	cur := zipwire.NewCursor(buf)
	_, err := zipwire.ReadLocalHeader(cur)
	if !errors.Is(err, zipwire.ErrTruncated) {
		t.Fatalf("ReadLocalHeader() error = %v, want ErrTruncated", err)
	}
}
