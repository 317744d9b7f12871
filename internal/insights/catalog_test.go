/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Analytical Query Catalog Tests
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package insights

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"banksight/internal/store"
)

func TestCatalogShape(t *testing.T) {
	if len(Catalog) != 15 {
		t.Fatalf("Catalog len = %d, want 15", len(Catalog))
	}

	seen := map[string]bool{}
	for i, ins := range Catalog {
		if ins.ID != fmt.Sprintf("Q%d", i+1) {
			t.Errorf("Catalog[%d].ID = %q, want Q%d", i, ins.ID, i+1)
		}
		if ins.Name == "" || ins.SQL == "" {
			t.Errorf("Catalog[%d] has empty name or SQL", i)
		}
		if seen[ins.ID] {
			t.Errorf("duplicate insight ID %q", ins.ID)
		}
		seen[ins.ID] = true
	}
}

func TestFind(t *testing.T) {
	if _, ok := Find("Q5"); !ok {
		t.Error("Find(Q5) not found")
	}
	if _, ok := Find("Q99"); ok {
		t.Error("Find(Q99) unexpectedly found")
	}
}

func TestRunAgainstSeededStore(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer s.Close()

	stmts := []string{
		`CREATE TABLE transactions (txn_id TEXT, customer_id TEXT, txn_type TEXT, amount REAL, status TEXT, txn_time TEXT)`,
		`INSERT INTO transactions VALUES ('T1', 'C001', 'UPI', 500, 'Success', '2023-05-01 10:00:00')`,
		`INSERT INTO transactions VALUES ('T2', 'C001', 'UPI', 300, 'Success', '2023-05-02 10:00:00')`,
		`INSERT INTO transactions VALUES ('T3', 'C002', 'NEFT', 900, 'Failed', '2023-05-03 10:00:00')`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB().Exec(stmt); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	res, err := Run(context.Background(), s, "Q5")
	if err != nil {
		t.Fatalf("Run(Q5) error = %v", err)
	}
	if res.RowCount() != 2 {
		t.Fatalf("Q5 rows = %d, want 2 (one per txn_type)", res.RowCount())
	}
	// Ordered by volume descending: NEFT 900 over UPI 800
	if res.Rows[0][0] != "NEFT" {
		t.Errorf("top txn_type = %v, want NEFT", res.Rows[0][0])
	}
}

func TestRunUnknownInsight(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer s.Close()

	if _, err := Run(context.Background(), s, "Q99"); err == nil {
		t.Error("Run(Q99) error = nil, want error")
	}
}

func TestRunMissingTableSurfacesError(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer s.Close()

	// Empty store: the loans table does not exist, and unlike table
	// browsing the raw query path reports that.
	if _, err := Run(context.Background(), s, "Q9"); err == nil {
		t.Error("Run(Q9) on empty store error = nil, want error")
	}
}
