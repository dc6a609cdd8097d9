package ziptable

import (
	ziphttp "github.com/patchwell/ziptable/http"
	"github.com/patchwell/ziptable/internal/zipwire"
)

// Errors re-exported for callers. Use errors.Is.
var (
	// ErrFetch is returned when the remote resource could not be retrieved.
	ErrFetch = ziphttp.ErrFetch

	// ErrTruncated is returned when a declared length exceeds the bytes
	// remaining in the archive buffer. It aborts the whole decode.
	ErrTruncated = zipwire.ErrTruncated

	// ErrDecompression is recorded on a row whose payload could not be
	// inflated. The row keeps its file name; the decode continues.
	ErrDecompression = zipwire.ErrDecompression

	// ErrEntryTooLarge is recorded on a row whose payload inflated past
	// the configured per-entry limit.
	ErrEntryTooLarge = zipwire.ErrEntryTooLarge
)
