/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Tabular Loader Tests
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"banksight/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestIngestCSVRoundTrip(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	ctx := context.Background()

	path := writeFile(t, dir, "customers.csv",
		" customer_id ,name,join_date,account_balance\n"+
			"C001,Asha,2023-01-15,1500.50\n"+
			"C002,Ravi,2022-11-02,250\n"+
			"C003,Meena,2023-06-30,99000\n")

	loader := NewLoader(s, dir)
	rows, skipped, err := loader.Ingest(ctx, path, "customers", FormatCSV)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if rows != 3 || skipped != 0 {
		t.Errorf("Ingest() = (%d, %d), want (3, 0)", rows, skipped)
	}

	res, err := s.ReadTable(ctx, "customers", 100)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if res.RowCount() != 3 {
		t.Errorf("RowCount() = %d, want 3", res.RowCount())
	}

	// Header names are trimmed before persistence
	if res.ColumnIndex("customer_id") < 0 {
		t.Errorf("columns = %v, want trimmed customer_id", res.Columns)
	}

	info, err := s.Describe(ctx, "customers")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	types := map[string]string{}
	for _, c := range info.Columns {
		types[c.Name] = c.DeclaredType
	}
	// mixed 1500.50 / 250 / 99000 -> REAL, join dates -> DATETIME
	if types["account_balance"] != "REAL" {
		t.Errorf("account_balance type = %q, want REAL", types["account_balance"])
	}
	if types["join_date"] != "DATETIME" {
		t.Errorf("join_date type = %q, want DATETIME", types["join_date"])
	}
	if types["name"] != "TEXT" {
		t.Errorf("name type = %q, want TEXT", types["name"])
	}
}

func TestIngestCSVIntegerColumn(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	path := writeFile(t, dir, "t.csv", "n,flag\n1,true\n2,false\n,true\n")
	loader := NewLoader(s, dir)
	if _, _, err := loader.Ingest(context.Background(), path, "t", FormatCSV); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	info, err := s.Describe(context.Background(), "t")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	for _, c := range info.Columns {
		if c.DeclaredType != "INTEGER" {
			t.Errorf("column %s type = %q, want INTEGER", c.Name, c.DeclaredType)
		}
	}
}

func TestIngestJSONArrayFlattensNestedObjects(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	ctx := context.Background()

	path := writeFile(t, dir, "branches.json",
		`[{"Branch_ID": 1, "Branch_Name": "Central", "address": {"city": "Mumbai", "geo": {"lat": 19.07}}},
		  {"Branch_ID": 2, "Branch_Name": "North", "address": {"city": "Delhi", "geo": {"lat": 28.61}}}]`)

	loader := NewLoader(s, dir)
	rows, _, err := loader.Ingest(ctx, path, "branches", FormatJSON)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}

	res, err := s.ReadTable(ctx, "branches", 100)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if res.ColumnIndex("address.city") < 0 {
		t.Errorf("columns = %v, want dotted address.city", res.Columns)
	}
	if res.ColumnIndex("address.geo.lat") < 0 {
		t.Errorf("columns = %v, want dotted address.geo.lat", res.Columns)
	}
}

func TestIngestNDJSONFallbackSkipsBadLines(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	ctx := context.Background()

	// Invalid as a JSON document, valid as ND-JSON with one bad line
	path := writeFile(t, dir, "loans.json", "{\"a\":1}\n{bad}\n{\"a\":2}\n")

	loader := NewLoader(s, dir)
	rows, skipped, err := loader.Ingest(ctx, path, "loans", FormatJSON)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2 (bad line skipped, not fatal)", rows)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestIngestReplacesExistingTable(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	ctx := context.Background()
	loader := NewLoader(s, dir)

	first := writeFile(t, dir, "a.csv", "id,v\n1,x\n2,y\n3,z\n")
	if _, _, err := loader.Ingest(ctx, first, "things", FormatCSV); err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}

	second := writeFile(t, dir, "b.csv", "id,v\n9,q\n")
	if _, _, err := loader.Ingest(ctx, second, "things", FormatCSV); err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}

	s.Invalidate()
	res, err := s.ReadTable(ctx, "things", 100)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if res.RowCount() != 1 {
		t.Errorf("RowCount() after replace = %d, want 1 (not the sum)", res.RowCount())
	}
}

func TestIngestMalformedJSONArrayElement(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	path := writeFile(t, dir, "bad.json", `[1, 2, 3]`)
	loader := NewLoader(s, dir)
	if _, _, err := loader.Ingest(context.Background(), path, "bad", FormatJSON); err == nil {
		t.Error("Ingest(array of scalars) error = nil, want error")
	}
}

func TestRunIsolatesMissingAndBadFiles(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	ctx := context.Background()

	// Only two of the seven bootstrap files exist, one of them malformed
	writeFile(t, dir, "customers.csv", "customer_id,name\nC001,Asha\n")
	writeFile(t, dir, "accounts.csv", "account_id,customer_id\n1,\"unterminated\n")

	loader := NewLoader(s, dir)
	report := loader.Run(ctx)

	if len(report.Files) != len(Sources) {
		t.Fatalf("report files = %d, want %d", len(report.Files), len(Sources))
	}
	if report.TablesCreated() != 1 {
		t.Errorf("TablesCreated() = %d, want 1", report.TablesCreated())
	}

	byTable := map[string]FileReport{}
	for _, fr := range report.Files {
		byTable[fr.Table] = fr
	}
	if byTable["customers"].Rows != 1 || byTable["customers"].Error != "" {
		t.Errorf("customers report = %+v", byTable["customers"])
	}
	if byTable["accounts"].Error == "" {
		t.Error("accounts report should carry a parse error")
	}
	if !byTable["loans"].Missing {
		t.Error("loans report should be flagged missing")
	}

	// The malformed file contributed no table
	names, err := s.TableNames(ctx)
	if err != nil {
		t.Fatalf("TableNames() error = %v", err)
	}
	for _, n := range names {
		if n == "accounts" {
			t.Error("accounts table should not exist after failed ingest")
		}
	}
}

func TestRunCreatesSecondaryIndexes(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	ctx := context.Background()

	writeFile(t, dir, "accounts.csv", "account_id,customer_id,account_balance\n1,C001,1500\n")
	writeFile(t, dir, "transactions.csv", "txn_id,customer_id,amount\nT1,C001,100\n")

	loader := NewLoader(s, dir)
	loader.Run(ctx)

	var count int
	err := s.DB().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name LIKE 'idx_%'").Scan(&count)
	if err != nil {
		t.Fatalf("index lookup failed: %v", err)
	}
	if count != 2 {
		t.Errorf("secondary indexes = %d, want 2", count)
	}
}
