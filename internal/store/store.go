// Package store persists datasets to SQLite and retrieves rows page-wise.
//
// Retrieval proceeds in fixed-size pages, advancing the offset until a page
// returns fewer rows than the page size. Pages are fetched one at a time, in
// order; a caller that wants cancellation must wrap the whole load. Any
// failure during retrieval is surfaced as a hard failure of the dataset load —
// nothing downstream aggregates a partially-loaded dataset.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/crewlens/crewlens/config"
	"github.com/crewlens/crewlens/internal/dataset"
)

// ErrDatasetNotFound indicates an unknown dataset identifier.
var ErrDatasetNotFound = errors.New("store: dataset not found")

// Store wraps a SQLite database holding dataset metadata and rows.
type Store struct {
	db       *sql.DB
	pageSize int
}

// Open opens (or creates) the store at path. Pass pageSize <= 0 for the
// configured default.
func Open(path string, pageSize int) (*Store, error) {
	if pageSize <= 0 {
		pageSize = config.DefaultRowPageSize
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{db: db, pageSize: pageSize}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			profile_id TEXT NOT NULL,
			columns    TEXT NOT NULL,
			row_count  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS dataset_rows (
			dataset_id    TEXT NOT NULL,
			seq           INTEGER NOT NULL,
			cells         TEXT NOT NULL,
			location_code TEXT NOT NULL DEFAULT '',
			industry      TEXT NOT NULL DEFAULT '',
			source        TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (dataset_id, seq)
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// SaveDataset persists the dataset and all of its rows in one transaction.
func (s *Store) SaveDataset(ctx context.Context, ds *dataset.Dataset) error {
	cols, err := json.Marshal(ds.Columns)
	if err != nil {
		return fmt.Errorf("store: encode columns: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO datasets (id, name, profile_id, columns, row_count) VALUES (?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.ProfileID, string(cols), ds.RowCount,
	); err != nil {
		return fmt.Errorf("store: insert dataset: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_rows WHERE dataset_id = ?`, ds.ID); err != nil {
		return fmt.Errorf("store: clear rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO dataset_rows (dataset_id, seq, cells, location_code, industry, source) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare rows: %w", err)
	}
	defer stmt.Close()

	for i, row := range ds.Rows {
		cells, err := json.Marshal(row.Cells)
		if err != nil {
			return fmt.Errorf("store: encode row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, ds.ID, i, string(cells), row.LocationCode, row.Industry, row.Source); err != nil {
			return fmt.Errorf("store: insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// LoadDataset reads the dataset metadata and all rows via the paged loop.
func (s *Store) LoadDataset(ctx context.Context, id string) (*dataset.Dataset, error) {
	var (
		ds      dataset.Dataset
		colJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, profile_id, columns, row_count FROM datasets WHERE id = ?`, id,
	).Scan(&ds.ID, &ds.Name, &ds.ProfileID, &colJSON, &ds.RowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load dataset %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(colJSON), &ds.Columns); err != nil {
		return nil, fmt.Errorf("store: decode columns: %w", err)
	}

	rows, err := s.LoadRows(ctx, id)
	if err != nil {
		return nil, err
	}
	ds.Rows = rows
	return &ds, nil
}

// LoadRows retrieves every row of a dataset, page by page, in sequence order.
// The loop terminates when a page returns fewer rows than the page size.
func (s *Store) LoadRows(ctx context.Context, id string) ([]dataset.Row, error) {
	var all []dataset.Row
	offset := 0
	for {
		page, err := s.LoadRowPage(ctx, id, offset, s.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			return all, nil
		}
		offset += s.pageSize
	}
}

// LoadRowPage retrieves one page of rows starting at offset.
func (s *Store) LoadRowPage(ctx context.Context, id string, offset, limit int) ([]dataset.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cells, location_code, industry, source FROM dataset_rows
		 WHERE dataset_id = ? ORDER BY seq LIMIT ? OFFSET ?`,
		id, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query rows: %w", err)
	}
	defer rows.Close()

	var out []dataset.Row
	for rows.Next() {
		var (
			cellJSON string
			r        dataset.Row
		)
		if err := rows.Scan(&cellJSON, &r.LocationCode, &r.Industry, &r.Source); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(cellJSON), &r.Cells); err != nil {
			return nil, fmt.Errorf("store: decode cells: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate rows: %w", err)
	}
	return out, nil
}

// DeleteDataset removes a dataset and its rows.
func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dataset_rows WHERE dataset_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete rows: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete dataset: %w", err)
	}
	return nil
}
