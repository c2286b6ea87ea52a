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

const (
	// Balance queries
	queryGetBalance = `
		SELECT balance, locked
		FROM ledger_balances
		WHERE account_type = ? AND asset = ?`

	queryGetLedgerBalance = `
		SELECT id, balance, locked, version
		FROM ledger_balances
		WHERE account_type = ? AND asset = ?`

	queryInsertLedgerBalance = `
		INSERT INTO ledger_balances (id, account_type, asset, balance, locked, version)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryUpdateLedgerBalance = `
		UPDATE ledger_balances
		SET balance = ?, last_entry_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE account_type = ? AND asset = ? AND version = ?`

	queryReconcileBalance = `
		SELECT COALESCE(SUM(amount), 0) as calculated_balance
		FROM ledger_entries
		WHERE account_type = ? AND asset = ? AND status = 'confirmed'`

	// Entry queries
	queryCheckDuplicateEntry = `
		SELECT id FROM ledger_entries WHERE external_tx_id = ? LIMIT 1`

	queryInsertLedgerEntry = `
		INSERT INTO ledger_entries (
			id, account_type, asset, entry_type, amount, balance_before, balance_after,
			external_tx_id, address, reference, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetPendingIncoming = `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE account_type = ? AND asset = ? AND status = 'pending' AND amount > 0`

	queryGetPendingEntry = `
		SELECT id, account_type, asset, amount
		FROM ledger_entries
		WHERE external_tx_id = ? AND status = 'pending'
		LIMIT 1`

	queryConfirmLedgerEntry = `
		UPDATE ledger_entries SET status = 'confirmed' WHERE id = ?`

	// Address book queries
	queryUpsertAddress = `
		INSERT INTO custodial_addresses (id, account_type, asset, address, wallet_id, network)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_type, asset) DO UPDATE SET
			address = excluded.address,
			wallet_id = excluded.wallet_id,
			network = excluded.network`

	queryGetAddress = `
		SELECT address, wallet_id
		FROM custodial_addresses
		WHERE account_type = ? AND asset = ?`

	queryFindByAddress = `
		SELECT account_type, asset, wallet_id
		FROM custodial_addresses
		WHERE LOWER(address) = LOWER(?)`

	// Order queries
	queryInsertOrder = `
		INSERT INTO custodial_orders (
			id, asset, order_type, state, crypto_amount, fiat_currency, fiat_amount,
			fee, payment_method_id, recurring_buy_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetOrders = `
		SELECT id, asset, order_type, state, crypto_amount, fiat_currency, fiat_amount,
		       fee, payment_method_id, recurring_buy_id, created_at
		FROM custodial_orders
		WHERE asset = ?
		ORDER BY created_at DESC`

	// Trade queries
	queryInsertTrade = `
		INSERT INTO custodial_trades (
			id, source_asset, destination_asset, state, direction, sending_amount,
			receiving_amount, sending_address, receiving_address, withdrawal_fee,
			fiat_currency, fiat_amount, deposit_tx_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTrades = `
		SELECT id, source_asset, destination_asset, state, direction, sending_amount,
		       receiving_amount, sending_address, receiving_address, withdrawal_fee,
		       fiat_currency, fiat_amount, created_at
		FROM custodial_trades
		WHERE source_asset = ? AND direction IN (%s)
		ORDER BY created_at DESC`

	// Transfer queries
	queryInsertTransfer = `
		INSERT INTO custodial_transfers (
			id, asset, transfer_type, state, amount, fee, recipient_address, tx_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransfers = `
		SELECT id, asset, transfer_type, state, amount, fee, recipient_address, tx_hash, created_at
		FROM custodial_transfers
		WHERE asset = ?
		ORDER BY created_at DESC`

	// Interest ledger queries
	queryInsertInterestEntry = `
		INSERT INTO interest_entries (
			id, asset, entry_type, state, amount, confirmations, account_ref, address, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetInterestEntries = `
		SELECT id, asset, entry_type, state, amount, confirmations, account_ref, address, created_at
		FROM interest_entries
		WHERE asset = ?
		ORDER BY created_at DESC`

	// Interest configuration queries
	queryUpsertInterestConfig = `
		INSERT INTO interest_config (asset, available, eligible, reason)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(asset) DO UPDATE SET
			available = excluded.available,
			eligible = excluded.eligible,
			reason = excluded.reason`

	queryGetInterestConfig = `
		SELECT available, eligible, reason
		FROM interest_config
		WHERE asset = ?`
)
