package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coincore-go/internal/models"
)

// ApplyEntryParams contains the parameters for applying a ledger entry
type ApplyEntryParams struct {
	AccountType  string
	Asset        string
	EntryType    string
	Amount       decimal.Decimal
	ExternalTxId string
	Address      string
	Reference    string
	Status       string
}

// ApplyEntry atomically updates the account balance and records the entry.
// A non-empty ExternalTxId dedupes: replaying the same external transaction
// returns ErrDuplicateEntry and leaves the ledger untouched.
func (s *Service) ApplyEntry(ctx context.Context, params ApplyEntryParams) (*models.LedgerEntry, error) {
	zap.L().Debug("Applying ledger entry",
		zap.String("account_type", params.AccountType),
		zap.String("asset", params.Asset),
		zap.String("entry_type", params.EntryType),
		zap.String("amount", params.Amount.String()),
		zap.String("external_tx_id", params.ExternalTxId))

	if params.ExternalTxId != "" {
		var existingId string
		err := s.db.QueryRowContext(ctx, queryCheckDuplicateEntry, params.ExternalTxId).Scan(&existingId)
		if err == nil {
			zap.L().Warn("Duplicate external transaction Id detected, skipping",
				zap.String("external_tx_id", params.ExternalTxId),
				zap.String("existing_entry_id", existingId))
			return nil, fmt.Errorf("%w: external_tx_id %s already exists", ErrDuplicateEntry, params.ExternalTxId)
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to check for duplicate entry: %w", err)
		}
	}

	status := params.Status
	if status == "" {
		status = "confirmed"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		balanceId  string
		balanceStr string
		lockedStr  string
		version    int64
	)
	err = tx.QueryRowContext(ctx, queryGetLedgerBalance, params.AccountType, params.Asset).
		Scan(&balanceId, &balanceStr, &lockedStr, &version)

	var current decimal.Decimal
	if err == sql.ErrNoRows {
		balanceId = uuid.New().String()
		current = decimal.Zero
		version = 1
		_, err = tx.ExecContext(ctx, queryInsertLedgerBalance,
			balanceId, params.AccountType, params.Asset, "0", "0", 1)
		if err != nil {
			return nil, fmt.Errorf("failed to create ledger balance: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get current balance: %w", err)
	} else {
		current, err = decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse current balance %q: %w", balanceStr, err)
		}
	}

	// Pending entries do not move the settled balance until confirmed.
	next := current
	if status == "confirmed" {
		next = current.Add(params.Amount)
	}

	entryId := uuid.New().String()
	now := time.Now()
	_, err = tx.ExecContext(ctx, queryInsertLedgerEntry,
		entryId, params.AccountType, params.Asset, params.EntryType,
		params.Amount.String(), current.String(), next.String(),
		params.ExternalTxId, params.Address, params.Reference, status, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryUpdateLedgerBalance,
		next.String(), entryId, params.AccountType, params.Asset, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("balance update failed - %w", ErrConcurrentModification)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Ledger entry applied",
		zap.String("entry_id", entryId),
		zap.String("account_type", params.AccountType),
		zap.String("asset", params.Asset),
		zap.String("old_balance", current.String()),
		zap.String("new_balance", next.String()))

	return &models.LedgerEntry{
		Id:            entryId,
		AccountType:   params.AccountType,
		Asset:         params.Asset,
		EntryType:     params.EntryType,
		Amount:        params.Amount,
		BalanceBefore: current,
		BalanceAfter:  next,
		ExternalTxId:  params.ExternalTxId,
		Address:       params.Address,
		Reference:     params.Reference,
		Status:        status,
		CreatedAt:     now,
	}, nil
}

// SettleEntry confirms the pending entry recorded for an external
// transaction and moves its amount into the settled balance. Returns false
// if no pending entry is keyed by that id, which is not an error: the
// entry may already be settled.
func (s *Service) SettleEntry(ctx context.Context, externalTxId string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		entryId     string
		accountType string
		asset       string
		amountStr   string
	)
	err = tx.QueryRowContext(ctx, queryGetPendingEntry, externalTxId).
		Scan(&entryId, &accountType, &asset, &amountStr)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to find pending entry: %w", err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return false, fmt.Errorf("failed to parse pending amount %q: %w", amountStr, err)
	}

	var (
		balanceId  string
		balanceStr string
		lockedStr  string
		version    int64
	)
	err = tx.QueryRowContext(ctx, queryGetLedgerBalance, accountType, asset).
		Scan(&balanceId, &balanceStr, &lockedStr, &version)
	if err != nil {
		return false, fmt.Errorf("failed to get current balance: %w", err)
	}
	current, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return false, fmt.Errorf("failed to parse current balance %q: %w", balanceStr, err)
	}

	if _, err := tx.ExecContext(ctx, queryConfirmLedgerEntry, entryId); err != nil {
		return false, fmt.Errorf("failed to confirm entry: %w", err)
	}

	next := current.Add(amount)
	result, err := tx.ExecContext(ctx, queryUpdateLedgerBalance,
		next.String(), entryId, accountType, asset, version)
	if err != nil {
		return false, fmt.Errorf("failed to update balance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, fmt.Errorf("balance update failed - %w", ErrConcurrentModification)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Pending entry settled",
		zap.String("entry_id", entryId),
		zap.String("external_tx_id", externalTxId),
		zap.String("account_type", accountType),
		zap.String("asset", asset),
		zap.String("new_balance", next.String()))
	return true, nil
}
