/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coincore-go/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Sentinel errors for ledger operations
var (
	ErrDuplicateEntry         = errors.New("duplicate ledger entry")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrAddressNotFound        = errors.New("no custodial address recorded")
)

// Custodial account types the ledger tracks.
const (
	AccountTrading  = "trading"
	AccountInterest = "interest"
)

// Service is the local custodial ledger: balances, the audit trail and the
// order/trade/transfer/interest histories behind the custodial accounts.
type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Ledger service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	-- Ledger Balances Table (Current State - Hot Data)
	CREATE TABLE IF NOT EXISTS ledger_balances (
		id TEXT PRIMARY KEY,
		account_type TEXT NOT NULL,
		asset TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		locked TEXT NOT NULL DEFAULT '0',
		last_entry_id TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_type, asset)
	);

	-- Ledger Entries Table (Audit Trail - Cold Data)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		account_type TEXT NOT NULL,
		asset TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		external_tx_id TEXT,
		address TEXT,
		reference TEXT,
		status TEXT DEFAULT 'confirmed',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_balances_account_asset ON ledger_balances(account_type, asset);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_account_asset ON ledger_entries(account_type, asset);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_external_id ON ledger_entries(external_tx_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_created_at ON ledger_entries(created_at);

	-- Custodial deposit address book
	CREATE TABLE IF NOT EXISTS custodial_addresses (
		id TEXT PRIMARY KEY,
		account_type TEXT NOT NULL,
		asset TEXT NOT NULL,
		address TEXT NOT NULL,
		wallet_id TEXT NOT NULL,
		network TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_type, asset)
	);

	CREATE INDEX IF NOT EXISTS idx_custodial_addresses_address ON custodial_addresses(address);

	-- Order history
	CREATE TABLE IF NOT EXISTS custodial_orders (
		id TEXT PRIMARY KEY,
		asset TEXT NOT NULL,
		order_type TEXT NOT NULL,
		state TEXT NOT NULL,
		crypto_amount TEXT NOT NULL,
		fiat_currency TEXT NOT NULL,
		fiat_amount TEXT NOT NULL,
		fee TEXT NOT NULL DEFAULT '0',
		payment_method_id TEXT,
		recurring_buy_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_custodial_orders_asset ON custodial_orders(asset);

	-- Trade history (swaps and sell legs)
	CREATE TABLE IF NOT EXISTS custodial_trades (
		id TEXT PRIMARY KEY,
		source_asset TEXT NOT NULL,
		destination_asset TEXT NOT NULL,
		state TEXT NOT NULL,
		direction TEXT NOT NULL,
		sending_amount TEXT NOT NULL,
		receiving_amount TEXT NOT NULL DEFAULT '0',
		sending_address TEXT,
		receiving_address TEXT,
		withdrawal_fee TEXT NOT NULL DEFAULT '0',
		fiat_currency TEXT,
		fiat_amount TEXT NOT NULL DEFAULT '0',
		deposit_tx_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_custodial_trades_source ON custodial_trades(source_asset);
	CREATE INDEX IF NOT EXISTS idx_custodial_trades_deposit ON custodial_trades(deposit_tx_id);

	-- Internal transfer history
	CREATE TABLE IF NOT EXISTS custodial_transfers (
		id TEXT PRIMARY KEY,
		asset TEXT NOT NULL,
		transfer_type TEXT NOT NULL,
		state TEXT NOT NULL,
		amount TEXT NOT NULL,
		fee TEXT NOT NULL DEFAULT '0',
		recipient_address TEXT,
		tx_hash TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_custodial_transfers_asset ON custodial_transfers(asset);

	-- Interest sub-ledger
	CREATE TABLE IF NOT EXISTS interest_entries (
		id TEXT PRIMARY KEY,
		asset TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		state TEXT NOT NULL,
		amount TEXT NOT NULL,
		confirmations INTEGER NOT NULL DEFAULT 0,
		account_ref TEXT,
		address TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_interest_entries_asset ON interest_entries(asset);

	-- Interest availability per asset
	CREATE TABLE IF NOT EXISTS interest_config (
		asset TEXT PRIMARY KEY,
		available BOOLEAN NOT NULL DEFAULT 0,
		eligible BOOLEAN NOT NULL DEFAULT 0,
		reason TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}
