package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"

	"metrix-mapping/core/timeseries"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// CSVReader reads delimited text tables
type CSVReader struct {
	Comma rune
}

// NewCSVReader creates a reader splitting fields on sep
func NewCSVReader(sep rune) *CSVReader {
	return &CSVReader{Comma: sep}
}

func (*CSVReader) Format() string { return "csv" }

func (*CSVReader) Extensions() []string { return []string{".csv", ".txt"} }

// Read implements Reader
func (c *CSVReader) Read(r io.Reader) (*timeseries.InMemoryTable, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = br.Discard(len(byteOrderMark))
	}

	cr := csv.NewReader(br)
	cr.Comma = c.Comma
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return build(records)
}
