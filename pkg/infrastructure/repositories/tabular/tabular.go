// Package tabular decodes the lot-sizing relation set from named tables of
// string cells. The csv, xlsx and sqlite providers only supply the tables.
package tabular

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/repositories"
	"github.com/vsinha/clsp/pkg/domain/services/bigm"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
)

// ColumnProblemInstance is present in every table
const ColumnProblemInstance = "problem_instance_id"

// DateLayout is the cell format of planning dates
const DateLayout = "2006-01-02"

// ErrTableNotFound is returned by a Source that has no table of that name
var ErrTableNotFound = errors.New("table not found")

// Table is a header row and data rows of string cells
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Source supplies raw tables. A non-empty problem instance id may be used
// to narrow the rows read; rows of other instances are skipped anyway.
type Source interface {
	ReadTable(ctx context.Context, name string, problemInstanceID string) (*Table, error)
}

// Record is one data row addressed by column name
type Record struct {
	table  string
	line   int
	index  map[string]int
	values []string
	err    error
}

// Err returns the first conversion error of the record
func (r *Record) Err() error {
	return r.err
}

func (r *Record) cell(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r *Record) fail(col, value, reason string) {
	if r.err == nil {
		r.err = &entities.ConfigurationError{
			Field:  r.table + "." + col,
			Value:  value,
			Reason: fmt.Sprintf("row %d: %s", r.line, reason),
		}
	}
}

// String returns the trimmed cell
func (r *Record) String(col string) string {
	return r.cell(col)
}

// Float parses a number. Empty cells are zero.
func (r *Record) Float(col string) float64 {
	s := r.cell(col)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(col, s, "not a number")
	}
	return v
}

// Int parses an integer. Integral floats such as "3.0" are accepted.
func (r *Record) Int(col string) int {
	s := r.cell(col)
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		r.fail(col, s, "not an integer")
		return 0
	}
	return int(f)
}

// Date parses a planning date, accepting a trailing time of day
func (r *Record) Date(col string) time.Time {
	s := r.cell(col)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	v, err := time.Parse(DateLayout, s)
	if err != nil {
		r.fail(col, r.cell(col), "expected YYYY-MM-DD")
	}
	return v
}

// Decode reads every relation of one problem instance from src. Required
// tables and all declared columns must be present; optional tables may be
// absent. A missing MaxProductionQuantity table is derived from the data.
func Decode(ctx context.Context, src Source, problemInstanceID string) (*entities.Dataset, error) {
	logger := ctxlog.FromContext(ctx)
	ds := &entities.Dataset{ProblemInstanceID: problemInstanceID}
	derive := false

	for _, rel := range relations {
		t, err := src.ReadTable(ctx, rel.name, problemInstanceID)
		if errors.Is(err, ErrTableNotFound) {
			if rel.required {
				return nil, &entities.DataIncompleteError{Relation: rel.name}
			}
			if rel.name == TableMaxProductionQuantity {
				derive = true
			}
			logger.Debug("Optional table absent.", "table", rel.name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", rel.name, err)
		}

		n, err := decodeTable(rel, t, problemInstanceID, ds)
		if err != nil {
			return nil, err
		}
		logger.Debug("Table decoded.", "table", rel.name, "rows", n)
	}

	if len(ds.ProblemInstances) == 0 {
		return nil, fmt.Errorf("%w: %s", repositories.ErrInstanceNotFound, problemInstanceID)
	}
	if derive {
		ds.MaxProductionQuantities = bigm.Derive(ds)
		logger.Info("Derived maximum production quantities.", "rows", len(ds.MaxProductionQuantities))
	}
	return ds, nil
}

func decodeTable(rel relation, t *Table, problemInstanceID string, ds *entities.Dataset) (int, error) {
	index := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range append([]string{ColumnProblemInstance}, rel.columns...) {
		if _, ok := index[col]; !ok {
			return 0, &entities.DataIncompleteError{Relation: rel.name, Key: col}
		}
	}

	n := 0
	for i, values := range t.Rows {
		if isBlank(values) {
			continue
		}
		rec := &Record{table: rel.name, line: i + 2, index: index, values: values}
		if rec.String(ColumnProblemInstance) != problemInstanceID {
			continue
		}
		rel.decode(rec, ds)
		if err := rec.Err(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func isBlank(values []string) bool {
	return !slices.ContainsFunc(values, func(v string) bool { return strings.TrimSpace(v) != "" })
}

// Encode renders every relation of ds as tables, including empty ones
func Encode(ds *entities.Dataset) []*Table {
	tables := make([]*Table, 0, len(relations))
	for _, rel := range relations {
		t := &Table{Name: rel.name, Header: append([]string{ColumnProblemInstance}, rel.columns...)}
		for _, row := range rel.encode(ds) {
			t.Rows = append(t.Rows, append([]string{ds.ProblemInstanceID}, row...))
		}
		tables = append(tables, t)
	}
	return tables
}

// TableNames lists the relations in load order
func TableNames() []string {
	names := make([]string, len(relations))
	for i, rel := range relations {
		names[i] = rel.name
	}
	return names
}

// Columns returns the header of a relation, or nil for an unknown name
func Columns(name string) []string {
	for _, rel := range relations {
		if rel.name == name {
			return append([]string{ColumnProblemInstance}, rel.columns...)
		}
	}
	return nil
}

// Provider adapts a Source to repositories.DataProvider
type Provider struct {
	source Source
}

var (
	_ repositories.DataProvider   = (*Provider)(nil)
	_ repositories.InstanceLister = (*Provider)(nil)
)

// NewProvider wraps a table source
func NewProvider(source Source) *Provider {
	return &Provider{source: source}
}

// LoadDataset decodes an instance restricted to the given scenarios
func (p *Provider) LoadDataset(ctx context.Context, problemInstanceID string, scenarios []entities.ScenarioID) (*entities.Dataset, error) {
	ds, err := Decode(ctx, p.source, problemInstanceID)
	if err != nil {
		return nil, err
	}
	for _, s := range scenarios {
		if !slices.ContainsFunc(ds.ProblemInstances, func(r entities.ProblemInstanceRow) bool { return r.Scenario == s }) {
			return nil, &entities.ConfigurationError{Field: "Scenario", Value: string(s), Reason: "not part of problem instance " + problemInstanceID}
		}
	}
	return ds.FilterScenarios(scenarios), nil
}

// ListInstances returns the distinct problem instance ids, sorted
func (p *Provider) ListInstances(ctx context.Context) ([]string, error) {
	t, err := p.source.ReadTable(ctx, TableProblemInstance, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", TableProblemInstance, err)
	}
	col := -1
	for i, h := range t.Header {
		if strings.ToLower(strings.TrimSpace(h)) == ColumnProblemInstance {
			col = i
		}
	}
	if col < 0 {
		return nil, &entities.DataIncompleteError{Relation: TableProblemInstance, Key: ColumnProblemInstance}
	}

	var ids []string
	for _, row := range t.Rows {
		if col < len(row) {
			if id := strings.TrimSpace(row[col]); id != "" && !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)
	return ids, nil
}
