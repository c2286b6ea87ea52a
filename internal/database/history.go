package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coincore-go/internal/backend"
	"coincore-go/internal/money"
)

// RecordOrder writes one buy/sell order row.
func (s *Service) RecordOrder(ctx context.Context, order backend.Order, fiatCurrency string) error {
	_, err := s.db.ExecContext(ctx, queryInsertOrder,
		order.ID, order.Crypto.Currency(), string(order.Type), string(order.State),
		order.Crypto.Amount().String(), fiatCurrency, order.Fiat.Amount().String(),
		order.Fee.Amount().String(), order.PaymentMethodID, order.RecurringBuyID,
		order.Created)
	if err != nil {
		return fmt.Errorf("failed to record order: %w", err)
	}
	return nil
}

// RecordTrade writes one swap/sell trade row.
func (s *Service) RecordTrade(ctx context.Context, trade backend.Trade, destinationAsset, fiatCurrency, depositTxId string) error {
	_, err := s.db.ExecContext(ctx, queryInsertTrade,
		trade.ID, trade.SendingValue.Currency(), destinationAsset,
		string(trade.State), string(trade.Direction),
		trade.SendingValue.Amount().String(), trade.ReceivingValue.Amount().String(),
		trade.SendingAddress, trade.ReceivingAddress,
		trade.WithdrawalFee.Amount().String(),
		fiatCurrency, trade.FiatValue.Amount().String(),
		depositTxId, trade.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}
	return nil
}

// RecordTransfer writes one internal-transfer row.
func (s *Service) RecordTransfer(ctx context.Context, transfer backend.Transfer) error {
	_, err := s.db.ExecContext(ctx, queryInsertTransfer,
		transfer.ID, transfer.Value.Currency(), string(transfer.Type), string(transfer.State),
		transfer.Value.Amount().String(), transfer.Fee.Amount().String(),
		transfer.RecipientAddress, transfer.TxHash, transfer.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}
	return nil
}

// RecordInterestEntry writes one interest sub-ledger row.
func (s *Service) RecordInterestEntry(ctx context.Context, rec backend.InterestRecord) error {
	_, err := s.db.ExecContext(ctx, queryInsertInterestEntry,
		rec.ID, rec.Value.Currency(), string(rec.Type), string(rec.State),
		rec.Value.Amount().String(), rec.Confirmations, rec.AccountRef, rec.Address,
		rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record interest entry: %w", err)
	}
	return nil
}

// GetOrders returns the asset's order history, newest first.
func (s *Service) GetOrders(ctx context.Context, asset string) ([]backend.Order, error) {
	rows, err := s.db.QueryContext(ctx, queryGetOrders, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	defer closeRows(rows)

	var orders []backend.Order
	for rows.Next() {
		var (
			o                                   backend.Order
			orderType, state                    string
			rowAsset, cryptoStr, fiatCur        string
			fiatStr, feeStr                     string
			paymentMethodId, recurringBuyId     sql.NullString
			created                             time.Time
		)
		err := rows.Scan(&o.ID, &rowAsset, &orderType, &state, &cryptoStr, &fiatCur,
			&fiatStr, &feeStr, &paymentMethodId, &recurringBuyId, &created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		o.Type = backend.OrderType(orderType)
		o.State = backend.OrderState(state)
		o.Created = created
		o.PaymentMethodID = paymentMethodId.String
		o.RecurringBuyID = recurringBuyId.String
		if o.Crypto, err = moneyFromString(rowAsset, cryptoStr); err != nil {
			return nil, err
		}
		if o.Fiat, err = moneyFromString(fiatCur, fiatStr); err != nil {
			return nil, err
		}
		if o.Fee, err = moneyFromString(fiatCur, feeStr); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

// GetTrades returns the asset's trades in the given directions, newest
// first.
func (s *Service) GetTrades(ctx context.Context, asset string, directions []backend.TransferDirection) ([]backend.Trade, error) {
	if len(directions) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(directions)), ",")
	query := fmt.Sprintf(queryGetTrades, placeholders)

	args := make([]any, 0, len(directions)+1)
	args = append(args, asset)
	for _, d := range directions {
		args = append(args, string(d))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}
	defer closeRows(rows)

	var trades []backend.Trade
	for rows.Next() {
		var (
			t                                  backend.Trade
			srcAsset, dstAsset, state, dir     string
			sendStr, recvStr, feeStr, fiatStr  string
			sendAddr, recvAddr, fiatCur        sql.NullString
			created                            time.Time
		)
		err := rows.Scan(&t.ID, &srcAsset, &dstAsset, &state, &dir, &sendStr, &recvStr,
			&sendAddr, &recvAddr, &feeStr, &fiatCur, &fiatStr, &created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		t.State = backend.TradeState(state)
		t.Direction = backend.TransferDirection(dir)
		t.Timestamp = created
		t.SendingAddress = sendAddr.String
		t.ReceivingAddress = recvAddr.String
		if t.SendingValue, err = moneyFromString(srcAsset, sendStr); err != nil {
			return nil, err
		}
		if t.ReceivingValue, err = moneyFromString(dstAsset, recvStr); err != nil {
			return nil, err
		}
		if t.WithdrawalFee, err = moneyFromString(srcAsset, feeStr); err != nil {
			return nil, err
		}
		if t.FiatValue, err = moneyFromString(fiatCur.String, fiatStr); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// GetTransfers returns the asset's internal transfers, newest first.
func (s *Service) GetTransfers(ctx context.Context, asset string) ([]backend.Transfer, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTransfers, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers: %w", err)
	}
	defer closeRows(rows)

	var transfers []backend.Transfer
	for rows.Next() {
		var (
			t                        backend.Transfer
			rowAsset, typ, state     string
			amountStr, feeStr        string
			recipient, txHash        sql.NullString
			created                  time.Time
		)
		err := rows.Scan(&t.ID, &rowAsset, &typ, &state, &amountStr, &feeStr,
			&recipient, &txHash, &created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}

		t.Type = backend.OnChainTxType(typ)
		t.State = backend.TransferState(state)
		t.Timestamp = created
		t.RecipientAddress = recipient.String
		t.TxHash = txHash.String
		if t.Value, err = moneyFromString(rowAsset, amountStr); err != nil {
			return nil, err
		}
		if t.Fee, err = moneyFromString(rowAsset, feeStr); err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfer rows: %w", err)
	}
	return transfers, nil
}

// GetInterestEntries returns the asset's interest ledger, newest first.
func (s *Service) GetInterestEntries(ctx context.Context, asset string) ([]backend.InterestRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryGetInterestEntries, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to get interest entries: %w", err)
	}
	defer closeRows(rows)

	var records []backend.InterestRecord
	for rows.Next() {
		var (
			r                     backend.InterestRecord
			rowAsset, typ, state  string
			amountStr             string
			accountRef, address   sql.NullString
			created               time.Time
		)
		err := rows.Scan(&r.ID, &rowAsset, &typ, &state, &amountStr, &r.Confirmations,
			&accountRef, &address, &created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interest entry: %w", err)
		}

		r.Type = backend.InterestTxType(typ)
		r.State = backend.InterestState(state)
		r.Timestamp = created
		r.AccountRef = accountRef.String
		r.Address = address.String
		if r.Value, err = moneyFromString(rowAsset, amountStr); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interest rows: %w", err)
	}
	return records, nil
}

// SetInterestConfig records interest availability for one asset.
func (s *Service) SetInterestConfig(ctx context.Context, asset string, available, eligible bool, reason string) error {
	_, err := s.db.ExecContext(ctx, queryUpsertInterestConfig, asset, available, eligible, reason)
	if err != nil {
		return fmt.Errorf("failed to set interest config: %w", err)
	}
	return nil
}

// GetInterestConfig reads interest availability for one asset. A missing
// row means interest is not offered.
func (s *Service) GetInterestConfig(ctx context.Context, asset string) (available, eligible bool, reason string, err error) {
	var reasonCol sql.NullString
	err = s.db.QueryRowContext(ctx, queryGetInterestConfig, asset).Scan(&available, &eligible, &reasonCol)
	if err == sql.ErrNoRows {
		return false, false, "", nil
	}
	if err != nil {
		return false, false, "", fmt.Errorf("failed to get interest config: %w", err)
	}
	return available, eligible, reasonCol.String, nil
}

func moneyFromString(currency, amount string) (money.Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return money.Money{}, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}
	return money.New(currency, d), nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}
