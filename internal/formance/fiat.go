package formance

import (
	"context"
	"fmt"
	"strings"

	"coincore-go/internal/backend"
	"coincore-go/internal/money"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. All metadata is set inside the script via
// set_tx_meta() so the Formance transaction is fully self-describing.
// ---------------------------------------------------------------------------

const numscriptFiatDeposit = `vars {
  asset $asset
  number $amount
  account $currency
  string $reference
  string $asset_symbol
}

send [$asset $amount] (
  source = @payments:incoming:$currency allowing unbounded overdraft
  destination = @wallet:fiat:$currency
)

set_tx_meta("event_type", "fiat_deposit")
set_tx_meta("reference", $reference)
set_tx_meta("asset_symbol", $asset_symbol)
`

const numscriptFiatWithdrawal = `vars {
  asset $asset
  number $amount
  account $currency
  string $reference
  string $asset_symbol
}

send [$asset $amount] (
  source = @wallet:fiat:$currency
  destination = @payments:outgoing:$currency
)

set_tx_meta("event_type", "fiat_withdrawal")
set_tx_meta("reference", $reference)
set_tx_meta("asset_symbol", $asset_symbol)
`

const numscriptFiatWithdrawalSettled = `vars {
  asset $asset
  number $amount
  account $currency
  string $reference
  string $asset_symbol
}

send [$asset $amount] (
  source = @payments:outgoing:$currency
  destination = @world
)

set_tx_meta("event_type", "fiat_withdrawal_settled")
set_tx_meta("reference", $reference)
set_tx_meta("asset_symbol", $asset_symbol)
`

// Balance reports the wallet's holdings for one fiat currency.
// Fiat funds settle instantly on the rail, so the whole balance is actionable.
func (s *Service) Balance(ctx context.Context, currency string) (backend.Balance, error) {
	fAsset := formanceAsset(currency)
	vols := s.getAccountVolumes(ctx, fiatAccount(currency))
	total := money.New(currency, bigIntToDecimal(volumeBalance(vols, fAsset), currency))

	pendingVols := s.getAccountVolumes(ctx, pendingAccount(currency))
	pending := money.New(currency, bigIntToDecimal(volumeBalance(pendingVols, fAsset), currency))

	return backend.Balance{Total: total, Actionable: total, Pending: pending}, nil
}

// CanWithdraw reports whether a new withdrawal may be started: only one
// withdrawal per currency is in flight at a time, so the outgoing pool must
// be empty before another one leaves the wallet.
func (s *Service) CanWithdraw(ctx context.Context, currency string) (bool, error) {
	vols := s.getAccountVolumes(ctx, pendingAccount(currency))
	bal := volumeBalance(vols, formanceAsset(currency))
	return bal == nil || bal.Sign() == 0, nil
}

// CreateDeposit records an inbound fiat payment into the wallet account.
// The caller's reference doubles as the transaction reference, so replaying
// the same deposit is a no-op.
func (s *Service) CreateDeposit(ctx context.Context, currency string, amount money.Money, reference string) (string, error) {
	if err := s.postFiat(ctx, numscriptFiatDeposit, currency, amount, reference); err != nil {
		return "", fmt.Errorf("error recording fiat deposit: %w", err)
	}
	zap.L().Info("Fiat deposit recorded in Formance",
		zap.String("currency", currency),
		zap.String("amount", amount.Amount().String()),
		zap.String("reference", reference))
	return reference, nil
}

// CreateWithdrawal moves funds from the wallet account to the outgoing pool.
// The wallet account does not allow overdraft, so an underfunded withdrawal
// is rejected by the ledger itself.
func (s *Service) CreateWithdrawal(ctx context.Context, currency string, amount money.Money, reference string) (string, error) {
	if err := s.postFiat(ctx, numscriptFiatWithdrawal, currency, amount, reference); err != nil {
		return "", fmt.Errorf("error recording fiat withdrawal: %w", err)
	}
	zap.L().Info("Fiat withdrawal recorded in Formance",
		zap.String("currency", currency),
		zap.String("amount", amount.Amount().String()),
		zap.String("reference", reference))
	return reference, nil
}

// SettleWithdrawal releases a pending withdrawal from the outgoing pool once
// the rail confirms it. Keyed on the original reference with a suffix, so it
// is idempotent too.
func (s *Service) SettleWithdrawal(ctx context.Context, currency string, amount money.Money, reference string) error {
	if err := s.postFiat(ctx, numscriptFiatWithdrawalSettled, currency, amount, reference+"-settled"); err != nil {
		return fmt.Errorf("error settling fiat withdrawal: %w", err)
	}
	zap.L().Info("Fiat withdrawal settled in Formance",
		zap.String("currency", currency),
		zap.String("reference", reference))
	return nil
}

// postFiat posts one Numscript transaction against the per-currency wallet
// account. A CONFLICT on the reference means the posting already happened.
func (s *Service) postFiat(ctx context.Context, script, currency string, amount money.Money, reference string) error {
	smallAmt := amount.Amount().Shift(int32(precisionFor(currency))).BigInt().String()

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(reference),
			Script: &shared.V2PostTransactionScript{
				Plain: script,
				Vars: map[string]string{
					"asset":        formanceAsset(currency),
					"amount":       smallAmt,
					"currency":     strings.ToLower(currency),
					"reference":    reference,
					"asset_symbol": currency,
				},
			},
		},
	})
	if err != nil {
		if isConflictError(err) {
			return nil // idempotent
		}
		return err
	}
	return nil
}

// History lists the fiat account's postings, newest first as the ledger
// returns them. A withdrawal stays PENDING until its settlement posting
// appears.
func (s *Service) History(ctx context.Context, currency string) ([]backend.FiatRecord, error) {
	walletAddr := fiatAccount(currency)
	pendingAddr := pendingAccount(currency)
	pageSize := int64(100)

	resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
		Ledger:   s.ledger,
		PageSize: &pageSize,
		RequestBody: map[string]any{
			"$or": []any{
				map[string]any{"$match": map[string]any{"source": walletAddr}},
				map[string]any{"$match": map[string]any{"destination": walletAddr}},
				map[string]any{"$match": map[string]any{"source": pendingAddr}},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list fiat transactions: %w", err)
	}

	txs := resp.V2TransactionsCursorResponse.Cursor.Data

	// First pass: references whose withdrawal has since settled.
	settled := make(map[string]bool)
	for _, tx := range txs {
		if tx.Metadata["event_type"] == "fiat_withdrawal_settled" {
			settled[tx.Metadata["reference"]] = true
		}
	}

	var records []backend.FiatRecord
	for _, tx := range txs {
		eventType := tx.Metadata["event_type"]
		ref := tx.Metadata["reference"]

		var record backend.FiatRecord
		switch eventType {
		case "fiat_deposit":
			record.Type = backend.TxReceived
			record.State = backend.TransferCompleted
		case "fiat_withdrawal":
			record.Type = backend.TxSent
			record.State = backend.TransferPending
			if settled[ref] {
				record.State = backend.TransferCompleted
			}
		default:
			continue // settlement legs are internal moves
		}

		amt := decimal.Zero
		for _, p := range tx.Postings {
			if assetSymbol(p.Asset) != currency {
				continue
			}
			amt = bigIntToDecimal(p.Amount, currency)
		}

		record.ID = ref
		if record.ID == "" && tx.Reference != nil {
			record.ID = *tx.Reference
		}
		record.Timestamp = tx.Timestamp
		record.Value = money.New(currency, amt)
		records = append(records, record)
	}
	return records, nil
}
