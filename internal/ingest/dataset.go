/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Uniform Tabular Representation
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package ingest

import (
	"strings"

	"banksight/internal/schema"
	"banksight/internal/store"
)

// dataset is the uniform in-memory form every source file is parsed into:
// an ordered column set and rows of scalar values (string, int64, float64,
// bool, or nil). All rows share the column set; a row missing a column
// stores nil for it.
type dataset struct {
	columns []string
	rows    []map[string]interface{}
	skipped int // ND-JSON lines that failed to parse
}

// columnAffinity maps each column to its SQLite declared type. Integer and
// boolean values take INTEGER, floats take REAL, temporal text takes
// DATETIME (stored as TEXT but declared so the filter layer classifies it
// without relying on the name heuristic), everything else takes TEXT.
func (ds *dataset) columnAffinity(col string) string {
	var (
		sawValue    = false
		allInt      = true
		allFloat    = true
		allBool     = true
		allTemporal = true
	)

	for _, row := range ds.rows {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		sawValue = true

		switch val := v.(type) {
		case int64:
			allBool = false
			allTemporal = false
		case float64:
			allInt = false
			allBool = false
			allTemporal = false
		case bool:
			allInt = false
			allFloat = false
			allTemporal = false
		case string:
			allInt = false
			allFloat = false
			allBool = false
			if _, ok := schema.AsTime(val); !ok {
				allTemporal = false
			}
		default:
			allInt = false
			allFloat = false
			allBool = false
			allTemporal = false
		}
	}

	if !sawValue {
		return "TEXT"
	}
	switch {
	case allInt:
		return "INTEGER"
	case allFloat:
		return "REAL"
	case allBool:
		return "INTEGER"
	case allTemporal:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func (ds *dataset) createTableSQL(table string) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(store.QuoteIdentifier(table))
	sb.WriteString(" (")
	for i, col := range ds.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(store.QuoteIdentifier(col))
		sb.WriteString(" ")
		sb.WriteString(ds.columnAffinity(col))
	}
	sb.WriteString(")")
	return sb.String()
}

func (ds *dataset) insertSQL(table string) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(store.QuoteIdentifier(table))
	sb.WriteString(" (")
	for i, col := range ds.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(store.QuoteIdentifier(col))
	}
	sb.WriteString(") VALUES (")
	for i := range ds.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
	}
	sb.WriteString(")")
	return sb.String()
}

// trimColumns strips surrounding whitespace from every column name,
// renaming row keys to match.
func (ds *dataset) trimColumns() {
	renames := make(map[string]string)
	for i, col := range ds.columns {
		trimmed := strings.TrimSpace(col)
		if trimmed != col {
			renames[col] = trimmed
			ds.columns[i] = trimmed
		}
	}
	if len(renames) == 0 {
		return
	}
	for _, row := range ds.rows {
		for old, next := range renames {
			if v, ok := row[old]; ok {
				delete(row, old)
				row[next] = v
			}
		}
	}
}
