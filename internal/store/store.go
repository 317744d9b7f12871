/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - SQLite Store Access
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"banksight/internal/logging"
	"banksight/internal/schema"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Sentinel errors for identifier validation failures. Table and column names
// are embedded in SQL text, so they must pass the schema allow-list first;
// values always travel as bound parameters.
var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
)

// Store wraps the single file-backed SQLite database behind a read-through
// query cache. Reads are memoized; any write clears the whole cache, so a
// reader after a write always observes fresh data at the cost of discarding
// unrelated cached reads.
type Store struct {
	db    *sql.DB
	path  string
	cache *queryCache
}

// Result is a uniform tabular result: ordered columns and rows of scalars
type Result struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// RowCount returns the number of rows in the result
func (r Result) RowCount() int {
	return len(r.Rows)
}

// ColumnIndex returns the position of the named column, or -1
func (r Result) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Open opens (creating if necessary) the store at the given path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &Store{
		db:    db,
		path:  path,
		cache: newQueryCache(),
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying handle for multi-statement work such as
// ingestion transactions. Callers that write through it must call
// Invalidate afterwards.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Invalidate clears all cached reads
func (s *Store) Invalidate() {
	s.cache.Clear()
}

// TableNames lists the persisted tables in the store
func (s *Store) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Describe returns the runtime schema descriptor for a table. Returns
// ErrUnknownTable when the table does not exist.
func (s *Store) Describe(ctx context.Context, table string) (schema.TableInfo, error) {
	ok, err := s.tableExists(ctx, table)
	if err != nil {
		return schema.TableInfo{}, err
	}
	if !ok {
		return schema.TableInfo{}, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, type, \"notnull\", pk FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return schema.TableInfo{}, fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()

	info := schema.TableInfo{Name: table}
	for rows.Next() {
		var (
			name, declared  string
			notNull, pkRank int
		)
		if err := rows.Scan(&name, &declared, &notNull, &pkRank); err != nil {
			return schema.TableInfo{}, fmt.Errorf("failed to scan column info: %w", err)
		}
		info.Columns = append(info.Columns, schema.ColumnInfo{
			Name:         name,
			DeclaredType: declared,
			NotNull:      notNull != 0,
			PrimaryKey:   pkRank > 0,
		})
	}
	return info, rows.Err()
}

// ReadTable reads up to limit rows of a table through the cache.
//
// A missing table yields an empty Result and no error: browse and insight
// pages treat "not created yet" the same as "no rows". Callers that need to
// tell the two apart use Describe or RunQuery, which do report the error.
func (s *Store) ReadTable(ctx context.Context, table string, limit int) (Result, error) {
	ok, err := s.tableExists(ctx, table)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, nil
	}

	key := fmt.Sprintf("table:%s:%d", table, limit)
	if cached, hit := s.cache.Get(key); hit {
		return cached, nil
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT ?", QuoteIdentifier(table))
	res, err := s.queryResult(ctx, query, limit)
	if err != nil {
		return Result{}, err
	}

	s.cache.Put(key, res)
	return res, nil
}

// RunQuery executes a read-only SQL statement through the cache. Unlike
// ReadTable this surfaces store errors verbatim, so a malformed query is
// distinguishable from an empty result.
func (s *Store) RunQuery(ctx context.Context, query string) (Result, error) {
	key := "query:" + strings.TrimSpace(query)
	if cached, hit := s.cache.Get(key); hit {
		return cached, nil
	}

	res, err := s.queryResult(ctx, query)
	if err != nil {
		return Result{}, err
	}

	s.cache.Put(key, res)
	return res, nil
}

// Exec runs a single write statement and clears the cache on success
func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	s.cache.Clear()

	affected, _ := res.RowsAffected()
	logging.Debug("write executed",
		"query", query,
		"rows_affected", affected,
		"duration_ms", time.Since(start).Milliseconds())
	return affected, nil
}

func (s *Store) tableExists(ctx context.Context, table string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return count > 0, nil
}

func (s *Store) queryResult(ctx context.Context, query string, args ...interface{}) (Result, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read columns: %w", err)
	}

	res := Result{Columns: cols, Rows: [][]interface{}{}}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("error iterating rows: %w", err)
	}

	logging.Debug("query executed",
		"query", query,
		"rows", len(res.Rows),
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

// QuoteIdentifier renders a validated table or column name for embedding in
// SQL text. It is not an escape hatch for untrusted input: names must pass
// the schema allow-list before being quoted.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
