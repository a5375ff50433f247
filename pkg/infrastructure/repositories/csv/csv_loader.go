package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/tabular"
)

// Extension of relation files
const Extension = ".csv"

// Loader reads relations from a directory holding one <Table>.csv file per
// relation. Files may hold rows of several problem instances.
type Loader struct {
	dir string
}

var _ tabular.Source = (*Loader)(nil)

// NewLoader creates a new CSV loader for dir
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// NewDataProvider creates a data provider reading CSV files from dir
func NewDataProvider(dir string) *tabular.Provider {
	return tabular.NewProvider(NewLoader(dir))
}

// ReadTable loads one relation file
func (l *Loader) ReadTable(ctx context.Context, name string, problemInstanceID string) (*tabular.Table, error) {
	filename := filepath.Join(l.dir, name+Extension)
	file, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", tabular.ErrTableNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", name)
	}

	header := records[0]
	for i, record := range records[1:] {
		if len(record) != len(header) && !(len(record) == 1 && record[0] == "") {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(header), len(record))
		}
	}

	return &tabular.Table{Name: name, Header: header, Rows: records[1:]}, nil
}

// WriteDataset writes every relation of ds to dir, replacing existing files
func WriteDataset(dir string, ds *entities.Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	for _, t := range tabular.Encode(ds) {
		if err := writeTable(filepath.Join(dir, t.Name+Extension), t); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(filename string, t *tabular.Table) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s file %s: %w", t.Name, filename, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", t.Name, err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", t.Name, err)
	}
	return file.Close()
}
