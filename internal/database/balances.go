package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BalanceSnapshot is one account's settled, locked and pending value.
type BalanceSnapshot struct {
	Total   decimal.Decimal
	Locked  decimal.Decimal
	Pending decimal.Decimal
}

// Actionable is the settled balance minus locked funds.
func (b BalanceSnapshot) Actionable() decimal.Decimal {
	return b.Total.Sub(b.Locked)
}

// GetBalance returns the current balance snapshot for an account/asset. A
// missing row means zero.
func (s *Service) GetBalance(ctx context.Context, accountType, asset string) (BalanceSnapshot, error) {
	var balanceStr, lockedStr string
	err := s.db.QueryRowContext(ctx, queryGetBalance, accountType, asset).Scan(&balanceStr, &lockedStr)
	if err == sql.ErrNoRows {
		return BalanceSnapshot{Total: decimal.Zero, Locked: decimal.Zero, Pending: decimal.Zero}, nil
	}
	if err != nil {
		return BalanceSnapshot{}, fmt.Errorf("failed to get balance: %w", err)
	}

	total, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return BalanceSnapshot{}, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	locked, err := decimal.NewFromString(lockedStr)
	if err != nil {
		return BalanceSnapshot{}, fmt.Errorf("failed to parse locked balance %q: %w", lockedStr, err)
	}

	var pendingStr string
	err = s.db.QueryRowContext(ctx, queryGetPendingIncoming, accountType, asset).Scan(&pendingStr)
	if err != nil {
		return BalanceSnapshot{}, fmt.Errorf("failed to get pending balance: %w", err)
	}
	pending, err := decimal.NewFromString(pendingStr)
	if err != nil {
		return BalanceSnapshot{}, fmt.Errorf("failed to parse pending balance %q: %w", pendingStr, err)
	}

	return BalanceSnapshot{Total: total, Locked: locked, Pending: pending}, nil
}

// ReconcileBalance verifies the hot balance matches the sum of confirmed
// entries.
func (s *Service) ReconcileBalance(ctx context.Context, accountType, asset string) error {
	snapshot, err := s.GetBalance(ctx, accountType, asset)
	if err != nil {
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	var calculatedStr string
	err = s.db.QueryRowContext(ctx, queryReconcileBalance, accountType, asset).Scan(&calculatedStr)
	if err != nil {
		return fmt.Errorf("failed to calculate balance from entries: %w", err)
	}
	calculated, err := decimal.NewFromString(calculatedStr)
	if err != nil {
		return fmt.Errorf("failed to parse calculated balance %q: %w", calculatedStr, err)
	}

	if !snapshot.Total.Equal(calculated) {
		zap.L().Error("Balance reconciliation failed",
			zap.String("account_type", accountType),
			zap.String("asset", asset),
			zap.String("current_balance", snapshot.Total.String()),
			zap.String("calculated_balance", calculated.String()),
			zap.String("difference", snapshot.Total.Sub(calculated).String()))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", snapshot.Total.String(), calculated.String())
	}

	zap.L().Info("Balance reconciliation successful",
		zap.String("account_type", accountType),
		zap.String("asset", asset),
		zap.String("balance", snapshot.Total.String()))
	return nil
}
