package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerBalance represents current balance state of one custodial account
// (hot data)
type LedgerBalance struct {
	Id          string          `db:"id"`
	AccountType string          `db:"account_type"`
	Asset       string          `db:"asset"`
	Balance     decimal.Decimal `db:"balance"`
	Locked      decimal.Decimal `db:"locked"`
	LastEntryId string          `db:"last_entry_id"`
	Version     int64           `db:"version"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// LedgerEntry represents immutable ledger history (cold data)
type LedgerEntry struct {
	Id            string          `db:"id"`
	AccountType   string          `db:"account_type"`
	Asset         string          `db:"asset"`
	EntryType     string          `db:"entry_type"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	ExternalTxId  string          `db:"external_tx_id"`
	Address       string          `db:"address"`
	Reference     string          `db:"reference"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
}
