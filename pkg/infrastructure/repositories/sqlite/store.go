// Package sqlite keeps problem instances in a SQLite database. Relations are
// read through V_<Relation> views so that derived relations can be defined
// in SQL; SaveDataset creates plain tables behind identity views.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/repositories"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
	"github.com/vsinha/clsp/pkg/infrastructure/repositories/tabular"
)

// ViewPrefix precedes the relation name of every view read
const ViewPrefix = "V_"

// Store is a DataProvider and DatasetStore backed by SQLite
type Store struct {
	*tabular.Provider
	db *sql.DB
}

var (
	_ repositories.DatasetStore   = (*Store)(nil)
	_ repositories.InstanceLister = (*Store)(nil)
	_ tabular.Source              = (*Store)(nil)
)

// Open opens or creates the database file at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return NewStore(db), nil
}

// NewStore wraps an open database handle
func NewStore(db *sql.DB) *Store {
	s := &Store{db: db}
	s.Provider = tabular.NewProvider(s)
	return s
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// ReadTable selects the rows of V_<name>, narrowed to one problem instance
// when the view has the instance column
func (s *Store) ReadTable(ctx context.Context, name string, problemInstanceID string) (*tabular.Table, error) {
	view := ViewPrefix + name

	var found string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type IN ('view', 'table') AND name = ?`, view).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", tabular.ErrTableNotFound, view)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", view, err)
	}

	header, err := s.columns(ctx, view)
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + quote(view)
	var args []any
	if problemInstanceID != "" && slices.ContainsFunc(header, func(c string) bool {
		return strings.EqualFold(c, tabular.ColumnProblemInstance)
	}) {
		query += " WHERE " + tabular.ColumnProblemInstance + " = ?"
		args = append(args, problemInstanceID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", view, err)
	}
	defer rows.Close()

	table := &tabular.Table{Name: name, Header: header}
	cells := make([]sql.NullString, len(header))
	dest := make([]any, len(header))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", view, err)
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			row[i] = c.String
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", view, err)
	}
	return table, nil
}

func (s *Store) columns(ctx context.Context, view string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quote(view)+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", view, err)
	}
	defer rows.Close()
	return rows.Columns()
}

// SaveDataset replaces every row of the dataset's problem instance,
// creating missing tables and views
func (s *Store) SaveDataset(ctx context.Context, ds *entities.Dataset) error {
	if ds.ProblemInstanceID == "" {
		return fmt.Errorf("dataset has no problem instance id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	total := 0
	for _, t := range tabular.Encode(ds) {
		if err := ensureSchema(ctx, tx, t); err != nil {
			return err
		}
		del := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quote(t.Name), tabular.ColumnProblemInstance)
		if _, err := tx.ExecContext(ctx, del, ds.ProblemInstanceID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t.Name, err)
		}
		if err := insertRows(ctx, tx, t); err != nil {
			return err
		}
		total += len(t.Rows)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset %s: %w", ds.ProblemInstanceID, err)
	}
	ctxlog.FromContext(ctx).Info("Dataset saved.", "problem_instance", ds.ProblemInstanceID, "rows", total)
	return nil
}

func ensureSchema(ctx context.Context, tx *sql.Tx, t *tabular.Table) error {
	cols := make([]string, len(t.Header))
	for i, h := range t.Header {
		cols[i] = quote(h) + " TEXT"
	}
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(t.Name), strings.Join(cols, ", ")),
		fmt.Sprintf("CREATE VIEW IF NOT EXISTS %s AS SELECT * FROM %s", quote(ViewPrefix+t.Name), quote(t.Name)),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema for %s: %w", t.Name, err)
		}
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, t *tabular.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	cols := make([]string, len(t.Header))
	for i, h := range t.Header {
		cols[i] = quote(h)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(t.Name), strings.Join(cols, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", t.Name, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for _, row := range t.Rows {
		for i, v := range row {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", t.Name, err)
		}
	}
	return nil
}
