package zipwire

const (
	// localHeaderSignature identifies a local file header record.
	localHeaderSignature = 0x04034b50

	// localHeaderOpaqueSize is the uninterpreted block between the
	// signature and the sized fields: version, flags, method, mod time,
	// mod date, crc32.
	localHeaderOpaqueSize = 14
)

// LocalHeader is the fixed-layout region of one local file entry.
//
// The fixed region must be read fully, in field order, before any of the
// variable-length fields it sizes.
type LocalHeader struct {
	// Opaque holds the 14 bytes after the signature, uninterpreted.
	// The compression method lives in here and is deliberately not
	// inspected; only DEFLATE is ever attempted on the payload.
	Opaque [localHeaderOpaqueSize]byte

	// CompressedSize is the exact byte length of the entry payload.
	CompressedSize uint32

	// UncompressedSize is the declared inflated length. Parsed for layout
	// fidelity, not consulted during decoding.
	UncompressedSize uint32

	// NameLen sizes the entry name field.
	NameLen uint16

	// ExtraLen sizes the opaque extra-metadata field.
	ExtraLen uint16

	// Valid is false when the four bytes at the read position were not a
	// local file header signature. Only those four bytes were consumed;
	// no header follows. This is the designed end-of-entries condition,
	// not an error.
	Valid bool
}

// ReadLocalHeader reads one local file header at the cursor position.
//
// A signature mismatch returns a zero header with Valid=false and consumes
// exactly the four signature bytes. A short buffer returns ErrTruncated.
func ReadLocalHeader(cur *Cursor) (LocalHeader, error) {
	sig, err := cur.ReadU32()
	if err != nil {
		return LocalHeader{}, err
	}
	if sig != localHeaderSignature {
		return LocalHeader{}, nil
	}

	var hdr LocalHeader
	opaque, err := cur.ReadExact(localHeaderOpaqueSize)
	if err != nil {
		return LocalHeader{}, err
	}
	copy(hdr.Opaque[:], opaque)

	if hdr.CompressedSize, err = cur.ReadU32(); err != nil {
		return LocalHeader{}, err
	}
	if hdr.UncompressedSize, err = cur.ReadU32(); err != nil {
		return LocalHeader{}, err
	}
	if hdr.NameLen, err = cur.ReadU16(); err != nil {
		return LocalHeader{}, err
	}
	if hdr.ExtraLen, err = cur.ReadU16(); err != nil {
		return LocalHeader{}, err
	}

	hdr.Valid = true
	return hdr, nil
}
