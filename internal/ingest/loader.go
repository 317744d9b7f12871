/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Tabular Loader
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"banksight/internal/logging"
	"banksight/internal/store"
)

// Format identifies how a source file is parsed
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
)

// Source maps one bootstrap file to its destination table
type Source struct {
	File   string
	Table  string
	Format Format
}

// Sources is the fixed bootstrap mapping. Loading a file replaces any
// existing table of the same name.
var Sources = []Source{
	{File: "customers.csv", Table: "customers", Format: FormatCSV},
	{File: "accounts.csv", Table: "accounts", Format: FormatCSV},
	{File: "transactions.csv", Table: "transactions", Format: FormatCSV},
	{File: "branches.json", Table: "branches", Format: FormatJSON},
	{File: "loans.json", Table: "loans", Format: FormatJSON},
	{File: "credit_cards.json", Table: "credit_cards", Format: FormatJSON},
	{File: "support_tickets.json", Table: "support_tickets", Format: FormatJSON},
}

// FileReport records the outcome of ingesting one source file
type FileReport struct {
	File         string `json:"file"`
	Table        string `json:"table"`
	Rows         int    `json:"rows"`
	SkippedLines int    `json:"skipped_lines,omitempty"`
	Missing      bool   `json:"missing,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Report summarizes an ingestion run
type Report struct {
	Files []FileReport `json:"files"`
}

// TablesCreated counts the files that became tables
func (r Report) TablesCreated() int {
	n := 0
	for _, f := range r.Files {
		if !f.Missing && f.Error == "" {
			n++
		}
	}
	return n
}

// Loader converts source files into persisted tables
type Loader struct {
	store   *store.Store
	dataDir string
}

// NewLoader creates a loader reading from dataDir
func NewLoader(s *store.Store, dataDir string) *Loader {
	return &Loader{store: s, dataDir: dataDir}
}

// Run ingests every bootstrap source file. Failures are isolated per file:
// a missing or malformed file is reported and the run continues, and a file
// either fully becomes a table or contributes nothing.
func (l *Loader) Run(ctx context.Context) Report {
	var report Report

	for _, src := range Sources {
		fr := l.ingestSource(ctx, src)
		report.Files = append(report.Files, fr)
	}

	l.createIndexes(ctx)
	l.store.Invalidate()

	return report
}

// Ingest loads a single source file into destTable, replacing any prior
// table of that name.
func (l *Loader) Ingest(ctx context.Context, path, destTable string, format Format) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var ds *dataset
	switch format {
	case FormatCSV:
		ds, err = parseCSV(data)
	case FormatJSON:
		ds, err = parseJSON(data)
	default:
		err = fmt.Errorf("unsupported format %d", format)
	}
	if err != nil {
		return 0, 0, err
	}

	if err := l.persist(ctx, destTable, ds); err != nil {
		return 0, 0, err
	}
	return len(ds.rows), ds.skipped, nil
}

func (l *Loader) ingestSource(ctx context.Context, src Source) FileReport {
	fr := FileReport{File: src.File, Table: src.Table}

	path := filepath.Join(l.dataDir, src.File)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logging.Warn("source file not found, table will not be created",
			"file", src.File, "table", src.Table)
		fr.Missing = true
		return fr
	}

	rows, skipped, err := l.Ingest(ctx, path, src.Table, src.Format)
	if err != nil {
		logging.Error("failed to load source file",
			"file", src.File, "table", src.Table, "error", err.Error())
		fr.Error = err.Error()
		return fr
	}

	fr.Rows = rows
	fr.SkippedLines = skipped
	logging.Info("source file loaded",
		"file", src.File, "table", src.Table, "rows", rows, "skipped_lines", skipped)
	return fr
}

// persist replaces destTable with the dataset's rows inside one transaction
func (l *Loader) persist(ctx context.Context, destTable string, ds *dataset) error {
	tx, err := l.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	quoted := store.QuoteIdentifier(destTable)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("failed to drop existing table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, ds.createTableSQL(destTable)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", destTable, err)
	}

	if len(ds.columns) > 0 {
		stmt, err := tx.PrepareContext(ctx, ds.insertSQL(destTable))
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range ds.rows {
			values := make([]interface{}, len(ds.columns))
			for i, col := range ds.columns {
				values[i] = row[col]
			}
			if _, err := stmt.ExecContext(ctx, values...); err != nil {
				return fmt.Errorf("failed to insert row into %s: %w", destTable, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", destTable, err)
	}

	l.store.Invalidate()
	return nil
}

// createIndexes adds best-effort secondary indexes on the customer-linking
// columns used by the analytical joins. Failure is ignored: the columns may
// not exist when a source file was skipped.
func (l *Loader) createIndexes(ctx context.Context) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_accounts_customer ON accounts(customer_id)",
		"CREATE INDEX IF NOT EXISTS idx_txn_customer ON transactions(customer_id)",
	}
	for _, stmt := range indexes {
		if _, err := l.store.DB().ExecContext(ctx, stmt); err != nil {
			logging.Debug("skipping secondary index", "statement", stmt, "error", err.Error())
		}
	}
}
