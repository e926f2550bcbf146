package sink

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

const (
	sheetName       = "Results"
	timestampLayout = "2006-01-02 15:04:05"
)

var xlsxHeader = []string{"Search Query", "Phone Number", "Source", "Timestamp"}

// XLSX appends entries as rows of a spreadsheet. The file is created with a
// header row when missing and replaced by a fresh one when unreadable.
type XLSX struct {
	path string
	mu   sync.Mutex
}

// NewXLSX returns a spreadsheet sink writing to path.
func NewXLSX(path string) *XLSX {
	return &XLSX{path: path}
}

// Record appends one row and saves the file.
func (x *XLSX) Record(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "xlsx: record")
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	f, sheet, err := x.open()
	if err != nil {
		return err
	}

	row := sheet.AddRow()
	for _, v := range []string{e.Query, e.PhoneNumber, e.SourceURL, e.CreatedAt.Local().Format(timestampLayout)} {
		row.AddCell().SetString(v)
	}

	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return eris.Wrap(err, "xlsx: create directory")
	}
	if err := f.Save(x.path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", x.path)
	}
	return nil
}

// Rows returns every data row below the header.
func (x *XLSX) Rows() ([][]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := xlsx.OpenFile(x.path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, nil
	}

	var rows [][]string
	for i, row := range f.Sheets[0].Rows {
		if i == 0 {
			continue
		}
		rows = append(rows, rowToStrings(row))
	}
	return rows, nil
}

func (x *XLSX) open() (*xlsx.File, *xlsx.Sheet, error) {
	if _, err := os.Stat(x.path); err == nil {
		f, err := xlsx.OpenFile(x.path)
		if err == nil && len(f.Sheets) > 0 {
			return f, f.Sheets[0], nil
		}
		zap.L().Warn("xlsx: existing file unreadable, starting a new one",
			zap.String("path", x.path),
			zap.Error(err),
		)
	}
	return newWorkbook()
}

func newWorkbook() (*xlsx.File, *xlsx.Sheet, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return nil, nil, eris.Wrap(err, "xlsx: add sheet")
	}
	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().SetString(h)
	}
	return f, sheet, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
