package table

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"metrix-mapping/core/timeseries"
)

// XLSXReader reads the first sheet of a workbook
type XLSXReader struct{}

// NewXLSXReader creates an XLSX reader
func NewXLSXReader() *XLSXReader { return &XLSXReader{} }

func (*XLSXReader) Format() string { return "xlsx" }

func (*XLSXReader) Extensions() []string { return []string{".xlsx"} }

// Read implements Reader. Time cells must be text or formatted as one of the accepted layouts.
func (*XLSXReader) Read(r io.Reader) (*timeseries.InMemoryTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheet")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %s: %w", sheets[0], err)
	}
	return build(rows)
}
