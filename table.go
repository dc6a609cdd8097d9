package ziptable

import (
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/opencontainers/go-digest"
)

// Row is one archive entry projected to the output shape.
type Row struct {
	// FileName is the entry name from the local file header.
	FileName string

	// Content is the inflated payload. Nil when ContentErr is set.
	Content []byte

	// ContentErr records why Content is absent: a corrupt DEFLATE stream
	// or an unsupported (e.g. stored) compression method. Rows with a
	// ContentErr are still genuine entries.
	ContentErr error
}

// Table is an ordered collection of rows, one per genuine archive entry.
// Row order matches the byte order of entries in the source archive.
type Table struct {
	rows []Row
}

// NewTable creates a Table from rows. The slice is taken over, not copied.
func NewTable(rows []Row) *Table {
	return &Table{rows: rows}
}

// Rows returns the rows in archive order. Callers must not modify the
// returned slice.
func (t *Table) Rows() []Row {
	return t.rows
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// WriteCSV writes the table as CSV with a fileName,content header.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	return t.write(cw)
}

// WriteTSV writes the table tab-separated with a fileName,content header.
func (t *Table) WriteTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return t.write(cw)
}

func (t *Table) write(cw *csv.Writer) error {
	if err := cw.Write([]string{"fileName", "content"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range t.rows {
		record := []string{t.rows[i].FileName, renderContent(&t.rows[i])}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %q: %w", t.rows[i].FileName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// renderContent produces a text cell for a row's content. Valid UTF-8
// text is written verbatim; binary content is summarized by digest so
// text sinks stay readable; absent content renders empty.
func renderContent(row *Row) string {
	if row.ContentErr != nil {
		return ""
	}
	if utf8.Valid(row.Content) {
		return string(row.Content)
	}
	return fmt.Sprintf("%s (%d bytes)", digest.FromBytes(row.Content), len(row.Content))
}
