/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Balance Simulation Tests
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package banking

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

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
		`CREATE TABLE accounts (account_id TEXT, customer_id TEXT, account_balance REAL, last_updated TEXT)`,
		`INSERT INTO accounts VALUES ('A1', 'C001', 1500, '2023-01-01T00:00:00Z')`,
		`INSERT INTO accounts VALUES ('A2', 'C002', 50000, '2023-01-01T00:00:00Z')`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB().Exec(stmt); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	return NewService(s, DefaultMinimumBalance), s
}

func TestLoadBalance(t *testing.T) {
	svc, _ := newTestService(t)

	bal, err := svc.LoadBalance(context.Background(), "C001")
	if err != nil {
		t.Fatalf("LoadBalance() error = %v", err)
	}
	if bal != 1500 {
		t.Errorf("balance = %v, want 1500", bal)
	}
}

func TestLoadBalanceUnknownCustomer(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.LoadBalance(context.Background(), "C999")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("LoadBalance(C999) error = %v, want ErrAccountNotFound", err)
	}
}

func TestLoadBalanceFirstRowWins(t *testing.T) {
	svc, s := newTestService(t)

	if _, err := s.DB().Exec(`INSERT INTO accounts VALUES ('A3', 'C001', 9999, '2023-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	bal, err := svc.LoadBalance(context.Background(), "C001")
	if err != nil {
		t.Fatalf("LoadBalance() error = %v", err)
	}
	if bal != 1500 {
		t.Errorf("balance = %v, want first row 1500", bal)
	}
}

func TestWithdrawBelowMinimumRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// 1500 - 600 = 900 < 1000: rejected and unchanged
	bal, err := svc.Transact(ctx, "C001", OpWithdraw, 600)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Transact(withdraw 600) error = %v, want ErrInsufficientBalance", err)
	}
	if bal != 1500 {
		t.Errorf("returned balance = %v, want unchanged 1500", bal)
	}

	stored, err := svc.LoadBalance(ctx, "C001")
	if err != nil {
		t.Fatalf("LoadBalance() error = %v", err)
	}
	if stored != 1500 {
		t.Errorf("stored balance = %v, want unchanged 1500", stored)
	}
}

func TestWithdrawAtMinimumAllowed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// 1500 - 400 = 1100 >= 1000: allowed
	bal, err := svc.Transact(ctx, "C001", OpWithdraw, 400)
	if err != nil {
		t.Fatalf("Transact(withdraw 400) error = %v", err)
	}
	if bal != 1100 {
		t.Errorf("balance = %v, want 1100", bal)
	}

	// Landing exactly on the floor is permitted
	bal, err = svc.Transact(ctx, "C001", OpWithdraw, 100)
	if err != nil {
		t.Fatalf("Transact(withdraw to floor) error = %v", err)
	}
	if bal != 1000 {
		t.Errorf("balance = %v, want 1000", bal)
	}
}

func TestDepositUnconditional(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	bal, err := svc.Transact(ctx, "C001", OpDeposit, 250.50)
	if err != nil {
		t.Fatalf("Transact(deposit) error = %v", err)
	}
	if bal != 1750.50 {
		t.Errorf("balance = %v, want 1750.50", bal)
	}

	res, err := s.RunQuery(ctx, "SELECT last_updated FROM accounts WHERE account_id = 'A1'")
	if err != nil {
		t.Fatalf("RunQuery() error = %v", err)
	}
	ts, ok := res.Rows[0][0].(string)
	if !ok {
		t.Fatalf("last_updated = %T, want string", res.Rows[0][0])
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("last_updated %q not RFC3339: %v", ts, err)
	}
}

func TestZeroDepositSkipsWrite(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	bal, err := svc.Transact(ctx, "C001", OpDeposit, 0)
	if err != nil {
		t.Fatalf("Transact(deposit 0) error = %v", err)
	}
	if bal != 1500 {
		t.Errorf("balance = %v, want 1500", bal)
	}

	res, err := s.RunQuery(ctx, "SELECT last_updated FROM accounts WHERE account_id = 'A1'")
	if err != nil {
		t.Fatalf("RunQuery() error = %v", err)
	}
	if res.Rows[0][0] != "2023-01-01T00:00:00Z" {
		t.Errorf("last_updated = %v, want untouched seed value", res.Rows[0][0])
	}
}

func TestNegativeAmountRejected(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Transact(context.Background(), "C001", OpDeposit, -5); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Transact(-5) error = %v, want ErrInvalidAmount", err)
	}
}

func TestUnknownOperation(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Transact(context.Background(), "C001", Operation("transfer"), 10); err == nil {
		t.Error("Transact(unknown op) error = nil, want error")
	}
}
