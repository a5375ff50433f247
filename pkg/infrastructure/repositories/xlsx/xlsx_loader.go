// Package xlsx reads and writes the relation set as an Excel workbook with
// one sheet per relation.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/tabular"
	"github.com/xuri/excelize/v2"
)

// Loader reads relation sheets from a workbook
type Loader struct {
	path string
}

var _ tabular.Source = (*Loader)(nil)

// NewLoader creates a loader for the workbook at path
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// NewDataProvider creates a data provider reading the workbook at path
func NewDataProvider(path string) *tabular.Provider {
	return tabular.NewProvider(NewLoader(path))
}

// ReadTable returns the rows of the sheet named after the relation
func (l *Loader) ReadTable(ctx context.Context, name string, problemInstanceID string) (*tabular.Table, error) {
	if _, err := os.Stat(l.path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to open Excel file %s: %w", l.path, err)
	}

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file %s: %w", l.path, err)
	}
	defer f.Close()

	if !slices.Contains(f.GetSheetList(), name) {
		return nil, fmt.Errorf("%w: sheet %s in %s", tabular.ErrTableNotFound, name, l.path)
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows of sheet %s: %w", name, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("sheet %s must have a header row", name)
	}

	return &tabular.Table{Name: name, Header: rows[0], Rows: rows[1:]}, nil
}

// WriteDataset saves every relation of ds as a sheet of a new workbook
func WriteDataset(path string, ds *entities.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := HeaderStyle(f)
	if err != nil {
		return err
	}

	for i, t := range tabular.Encode(ds) {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}
		if err := WriteSheet(f, t.Name, t.Header, t.Rows, headerStyle); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

// HeaderStyle registers the bold header style used by every sheet
func HeaderStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return style, nil
}

// WriteSheet writes a header row and string rows to an existing sheet
func WriteSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	for r, values := range append([][]string{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %s: %w", r+1, sheet, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(max(len(header), 1), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header of sheet %s: %w", sheet, err)
	}

	for i := range header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 18)
	}
	return nil
}
