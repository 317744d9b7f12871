/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Runtime Schema Descriptors
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package schema

import (
	"errors"
	"strings"
)

// TableInfo describes a persisted table at runtime. Tables and their column
// sets are discovered from the store, never declared at compile time, so all
// generic operations take one of these as an explicit parameter.
type TableInfo struct {
	Name    string
	Columns []ColumnInfo
}

// ColumnInfo describes one column of a persisted table
type ColumnInfo struct {
	Name         string
	DeclaredType string // type as declared in the store's schema, e.g. "INTEGER"
	NotNull      bool
	PrimaryKey   bool // explicitly flagged as primary key by the store
}

// ErrNoColumns is returned when key resolution is attempted against a table
// with no columns.
var ErrNoColumns = errors.New("table has no columns")

// ResolveKey picks the column used to address a single row for update and
// delete. First match wins:
//  1. a column the store flags as primary key
//  2. the first column whose name contains "id" (case-insensitive substring,
//     so "uuid" matches before "customer_id" when declared earlier)
//  3. the first column in declared order
//
// The heuristic can land on a non-unique column; callers surface the resolved
// name so a mistargeted update is auditable.
func ResolveKey(cols []ColumnInfo) (string, error) {
	if len(cols) == 0 {
		return "", ErrNoColumns
	}

	for _, c := range cols {
		if c.PrimaryKey {
			return c.Name, nil
		}
	}

	for _, c := range cols {
		if strings.Contains(strings.ToLower(c.Name), "id") {
			return c.Name, nil
		}
	}

	return cols[0].Name, nil
}

// ColumnNames returns the declared column order
func (t TableInfo) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the table declares the named column
func (t TableInfo) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Column returns the descriptor for the named column
func (t TableInfo) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}
