/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Balance Simulation
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package banking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"banksight/internal/store"
)

// DefaultMinimumBalance is the floor a withdrawal may not breach
const DefaultMinimumBalance = 1000.0

var (
	// ErrAccountNotFound is returned when no account row matches the customer
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientBalance is a business-rule rejection, distinct from a
	// hard store failure: the balance is unchanged and the caller reports
	// the rejection rather than an error page.
	ErrInsufficientBalance = errors.New("minimum balance would be violated")

	// ErrInvalidAmount rejects negative amounts
	ErrInvalidAmount = errors.New("amount must not be negative")
)

// Operation selects the direction of a simulated transaction
type Operation string

const (
	OpDeposit  Operation = "deposit"
	OpWithdraw Operation = "withdraw"
)

// Service simulates deposits and withdrawals against account balances
type Service struct {
	store      *store.Store
	minBalance float64
}

// NewService creates a simulation service with the given minimum balance
func NewService(s *store.Store, minBalance float64) *Service {
	return &Service{store: s, minBalance: minBalance}
}

// MinimumBalance returns the configured withdrawal floor
func (s *Service) MinimumBalance() float64 {
	return s.minBalance
}

// LoadBalance fetches a customer's current account balance. When more than
// one row matches, the first in storage order silently wins; when none
// match, the failure is visible as ErrAccountNotFound.
func (s *Service) LoadBalance(ctx context.Context, customerID string) (float64, error) {
	var balance sql.NullFloat64
	err := s.store.DB().QueryRowContext(ctx,
		"SELECT account_balance FROM accounts WHERE customer_id = ? ORDER BY rowid LIMIT 1",
		customerID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, customerID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load balance: %w", err)
	}
	return balance.Float64, nil
}

// Transact applies a deposit or withdrawal and returns the resulting
// balance. Deposits add unconditionally; withdrawals are rejected with
// ErrInsufficientBalance when the result would fall below the minimum,
// leaving the stored balance unchanged. A successful change is written back
// with a last-modified timestamp in one atomic statement.
func (s *Service) Transact(ctx context.Context, customerID string, op Operation, amount float64) (float64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}

	current, err := s.LoadBalance(ctx, customerID)
	if err != nil {
		return 0, err
	}

	var next float64
	switch op {
	case OpDeposit:
		next = current + amount
	case OpWithdraw:
		next = current - amount
		if next < s.minBalance {
			return current, fmt.Errorf("%w: balance %.2f, withdrawal %.2f, minimum %.2f",
				ErrInsufficientBalance, current, amount, s.minBalance)
		}
	default:
		return current, fmt.Errorf("unknown operation: %s", op)
	}

	if next == current {
		return current, nil
	}

	_, err = s.store.Exec(ctx,
		"UPDATE accounts SET account_balance = ?, last_updated = ? WHERE customer_id = ?",
		next, time.Now().UTC().Format(time.RFC3339), customerID)
	if err != nil {
		return current, fmt.Errorf("failed to update balance: %w", err)
	}
	return next, nil
}
