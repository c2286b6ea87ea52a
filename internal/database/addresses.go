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
	"fmt"

	"github.com/google/uuid"
)

// CustodialAddress is one row of the custodial deposit address book.
type CustodialAddress struct {
	AccountType string
	Asset       string
	Address     string
	WalletId    string
}

// UpsertAddress records or replaces the deposit address of one custodial
// account.
func (s *Service) UpsertAddress(ctx context.Context, accountType, asset, address, walletId, network string) error {
	_, err := s.db.ExecContext(ctx, queryUpsertAddress,
		uuid.New().String(), accountType, asset, address, walletId, network)
	if err != nil {
		return fmt.Errorf("failed to upsert custodial address: %w", err)
	}
	return nil
}

// GetAddress returns the recorded deposit address of one custodial account.
func (s *Service) GetAddress(ctx context.Context, accountType, asset string) (address, walletId string, err error) {
	err = s.db.QueryRowContext(ctx, queryGetAddress, accountType, asset).Scan(&address, &walletId)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("%s/%s: %w", accountType, asset, ErrAddressNotFound)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to get custodial address: %w", err)
	}
	return address, walletId, nil
}

// FindByAddress resolves an address back to the custodial account that owns
// it, or ok=false when it belongs to no custodial account.
func (s *Service) FindByAddress(ctx context.Context, address string) (CustodialAddress, bool, error) {
	var rec CustodialAddress
	rec.Address = address
	err := s.db.QueryRowContext(ctx, queryFindByAddress, address).
		Scan(&rec.AccountType, &rec.Asset, &rec.WalletId)
	if err == sql.ErrNoRows {
		return CustodialAddress{}, false, nil
	}
	if err != nil {
		return CustodialAddress{}, false, fmt.Errorf("failed to find custodial address: %w", err)
	}
	return rec, true, nil
}
