/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Generic Table CRUD
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package crud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"banksight/internal/schema"
	"banksight/internal/store"
)

// ErrNoFields is returned when every submitted field was empty
var ErrNoFields = errors.New("no fields to write")

// Service performs generic CRUD against arbitrary persisted tables. Table
// and column identifiers are validated against the live schema descriptor
// before being embedded in SQL; values are always bound parameters.
type Service struct {
	store *store.Store
}

// NewService creates a CRUD service over a store
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Browse reads up to limit rows of a table
func (s *Service) Browse(ctx context.Context, table string, limit int) (store.Result, error) {
	return s.store.ReadTable(ctx, table, limit)
}

// ResolvedKey returns the column used to address rows of a table for update
// and delete. Surfaced to callers before the operation so a heuristic miss
// is visible.
func (s *Service) ResolvedKey(ctx context.Context, table string) (string, error) {
	info, err := s.store.Describe(ctx, table)
	if err != nil {
		return "", err
	}
	return schema.ResolveKey(info.Columns)
}

// Insert adds one row from a field-value map. Empty-string fields are
// omitted so store defaults (and autoincrement keys) apply.
func (s *Service) Insert(ctx context.Context, table string, fields map[string]string) error {
	info, err := s.store.Describe(ctx, table)
	if err != nil {
		return err
	}

	cols, values, err := payload(info, fields, "")
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(store.QuoteIdentifier(table))
	sb.WriteString(" (")
	for i, col := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(store.QuoteIdentifier(col))
	}
	sb.WriteString(") VALUES (")
	for i := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
	}
	sb.WriteString(")")

	if _, err := s.store.Exec(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("insert into %s failed: %w", table, err)
	}
	return nil
}

// Update rewrites the non-empty fields of every row whose resolved key
// column equals keyValue. When the heuristic picked a non-unique column
// more than one row can change; the affected count makes that visible.
func (s *Service) Update(ctx context.Context, table, keyValue string, fields map[string]string) (string, int64, error) {
	info, err := s.store.Describe(ctx, table)
	if err != nil {
		return "", 0, err
	}

	keyCol, err := schema.ResolveKey(info.Columns)
	if err != nil {
		return "", 0, err
	}

	cols, values, err := payload(info, fields, keyCol)
	if err != nil {
		return keyCol, 0, err
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(store.QuoteIdentifier(table))
	sb.WriteString(" SET ")
	for i, col := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(store.QuoteIdentifier(col))
		sb.WriteString(" = ?")
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(store.QuoteIdentifier(keyCol))
	sb.WriteString(" = ?")
	values = append(values, keyValue)

	affected, err := s.store.Exec(ctx, sb.String(), values...)
	if err != nil {
		return keyCol, 0, fmt.Errorf("update %s failed: %w", table, err)
	}
	return keyCol, affected, nil
}

// Delete removes every row whose resolved key column equals keyValue
func (s *Service) Delete(ctx context.Context, table, keyValue string) (string, int64, error) {
	info, err := s.store.Describe(ctx, table)
	if err != nil {
		return "", 0, err
	}

	keyCol, err := schema.ResolveKey(info.Columns)
	if err != nil {
		return "", 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		store.QuoteIdentifier(table), store.QuoteIdentifier(keyCol))
	affected, err := s.store.Exec(ctx, query, keyValue)
	if err != nil {
		return keyCol, 0, fmt.Errorf("delete from %s failed: %w", table, err)
	}
	return keyCol, affected, nil
}

// payload validates field names against the table descriptor and drops
// empty-string values (and the key column, when excludeCol is set),
// returning columns in declared order for deterministic statements.
func payload(info schema.TableInfo, fields map[string]string, excludeCol string) ([]string, []interface{}, error) {
	for name := range fields {
		if !info.HasColumn(name) {
			return nil, nil, fmt.Errorf("%w: %s.%s", store.ErrUnknownColumn, info.Name, name)
		}
	}

	var (
		cols   []string
		values []interface{}
	)
	for _, col := range info.Columns {
		if col.Name == excludeCol {
			continue
		}
		v, ok := fields[col.Name]
		if !ok || v == "" {
			continue
		}
		cols = append(cols, col.Name)
		values = append(values, v)
	}

	if len(cols) == 0 {
		return nil, nil, ErrNoFields
	}
	return cols, values, nil
}
