/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - CRUD Tests
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
	"path/filepath"
	"testing"

	"banksight/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	stmts := []string{
		`CREATE TABLE customers (customer_id TEXT, name TEXT, city TEXT)`,
		`INSERT INTO customers VALUES ('C001', 'Asha', 'Mumbai')`,
		`INSERT INTO customers VALUES ('C002', 'Ravi', 'Delhi')`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB().Exec(stmt); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	return NewService(s), s
}

func TestInsertOmitsEmptyFields(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	err := svc.Insert(ctx, "customers", map[string]string{
		"customer_id": "C003",
		"name":        "Meena",
		"city":        "",
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	res, err := s.RunQuery(ctx, "SELECT city FROM customers WHERE customer_id = 'C003'")
	if err != nil {
		t.Fatalf("RunQuery() error = %v", err)
	}
	if res.RowCount() != 1 {
		t.Fatalf("inserted rows = %d, want 1", res.RowCount())
	}
	if res.Rows[0][0] != nil {
		t.Errorf("omitted city = %v, want NULL", res.Rows[0][0])
	}
}

func TestInsertRejectsUnknownColumn(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Insert(context.Background(), "customers", map[string]string{
		"name":              "Mallory",
		"evil'); DROP (--": "x",
	})
	if !errors.Is(err, store.ErrUnknownColumn) {
		t.Errorf("Insert(unknown column) error = %v, want ErrUnknownColumn", err)
	}
}

func TestInsertAllFieldsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Insert(context.Background(), "customers", map[string]string{"name": "", "city": ""})
	if !errors.Is(err, ErrNoFields) {
		t.Errorf("Insert(empty payload) error = %v, want ErrNoFields", err)
	}
}

func TestInsertUnknownTable(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Insert(context.Background(), "ghosts", map[string]string{"name": "x"})
	if !errors.Is(err, store.ErrUnknownTable) {
		t.Errorf("Insert(unknown table) error = %v, want ErrUnknownTable", err)
	}
}

func TestUpdateByResolvedKey(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	keyCol, affected, err := svc.Update(ctx, "customers", "C002", map[string]string{
		"city": "Pune",
		"name": "",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if keyCol != "customer_id" {
		t.Errorf("resolved key = %q, want customer_id", keyCol)
	}
	if affected != 1 {
		t.Errorf("affected = %d, want 1", affected)
	}

	res, err := s.RunQuery(ctx, "SELECT name, city FROM customers WHERE customer_id = 'C002'")
	if err != nil {
		t.Fatalf("RunQuery() error = %v", err)
	}
	if res.Rows[0][0] != "Ravi" {
		t.Errorf("name changed to %v despite empty update field", res.Rows[0][0])
	}
	if res.Rows[0][1] != "Pune" {
		t.Errorf("city = %v, want Pune", res.Rows[0][1])
	}
}

func TestUpdateNonUniqueKeyAffectsAllMatches(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	if _, err := s.DB().Exec(`INSERT INTO customers VALUES ('C001', 'Asha Twin', 'Thane')`); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	s.Invalidate()

	_, affected, err := svc.Update(ctx, "customers", "C001", map[string]string{"city": "Nashik"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if affected != 2 {
		t.Errorf("affected = %d, want 2 (documented non-unique key behavior)", affected)
	}
}

func TestDelete(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	keyCol, affected, err := svc.Delete(ctx, "customers", "C001")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if keyCol != "customer_id" || affected != 1 {
		t.Errorf("Delete() = (%q, %d), want (customer_id, 1)", keyCol, affected)
	}

	res, err := s.ReadTable(ctx, "customers", 100)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if res.RowCount() != 1 {
		t.Errorf("remaining rows = %d, want 1", res.RowCount())
	}
}

func TestDeleteNoMatch(t *testing.T) {
	svc, _ := newTestService(t)

	_, affected, err := svc.Delete(context.Background(), "customers", "C999")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if affected != 0 {
		t.Errorf("affected = %d, want 0", affected)
	}
}

func TestBrowseLimit(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Browse(context.Background(), "customers", 1)
	if err != nil {
		t.Fatalf("Browse() error = %v", err)
	}
	if res.RowCount() != 1 {
		t.Errorf("Browse(limit=1) rows = %d, want 1", res.RowCount())
	}
}

func TestResolvedKeySurfaced(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	if _, err := s.DB().Exec(`CREATE TABLE notes (title TEXT, body TEXT)`); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	key, err := svc.ResolvedKey(ctx, "notes")
	if err != nil {
		t.Fatalf("ResolvedKey() error = %v", err)
	}
	if key != "title" {
		t.Errorf("ResolvedKey(no id column) = %q, want first column title", key)
	}
}
