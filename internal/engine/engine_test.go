package engine

import (
	"context"
	"errors"
	"testing"

	"coincore-go/internal/backend"
	"coincore-go/internal/coincore"
	"coincore-go/internal/money"
)

func fundedChain(t *testing.T, total, actionable string) *stubChain {
	t.Helper()
	return &stubChain{
		balance: backend.Balance{
			Total:      mustMoney(t, "BTC", total),
			Actionable: mustMoney(t, "BTC", actionable),
			Pending:    money.Zero("BTC"),
		},
		fee: mustMoney(t, "BTC", "0.0001"),
	}
}

func TestOnChainSendLifecycle(t *testing.T) {
	chain := fundedChain(t, "1", "1")
	source := ncAccount(testBTC, chain, nil)
	target := coincore.CryptoAddress{Asset: testBTC, Address: "bc1qdest", Label: "bc1qdest"}
	engine := NewOnChainSend(chain, source, target)
	ctx := context.Background()

	tx, err := engine.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if tx.IdempotencyKey == "" {
		t.Error("Draft carries no idempotency key")
	}
	if tx.Fee.IsZero() {
		t.Error("Draft carries no fee estimate")
	}

	tx, err = engine.UpdateAmount(ctx, tx, mustMoney(t, "BTC", "0.5"))
	if err != nil {
		t.Fatalf("UpdateAmount failed: %v", err)
	}
	if err := engine.Validate(ctx, tx); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	result, err := engine.Execute(ctx, tx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.TxID == "" {
		t.Error("Execute returned no transaction id")
	}
	if len(chain.submitted) != 1 {
		t.Fatalf("Submitted %d transactions, want 1", len(chain.submitted))
	}
	if chain.submitted[0].TargetAddress != "bc1qdest" {
		t.Errorf("Submitted to %s, want bc1qdest", chain.submitted[0].TargetAddress)
	}
}

func TestOnChainSendRejectsWrongCurrency(t *testing.T) {
	chain := fundedChain(t, "1", "1")
	source := ncAccount(testBTC, chain, nil)
	engine := NewOnChainSend(chain, source, coincore.CryptoAddress{Asset: testBTC, Address: "bc1qdest"})
	ctx := context.Background()

	tx, err := engine.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := engine.UpdateAmount(ctx, tx, mustMoney(t, "ETH", "1")); !errors.Is(err, money.ErrCurrencyMismatch) {
		t.Errorf("UpdateAmount error = %v, want ErrCurrencyMismatch", err)
	}
}

func TestValidateInsufficientFunds(t *testing.T) {
	// Amount plus fee exceeds what is spendable.
	chain := fundedChain(t, "1", "0.5")
	source := ncAccount(testBTC, chain, nil)
	engine := NewOnChainSend(chain, source, coincore.CryptoAddress{Asset: testBTC, Address: "bc1qdest"})
	ctx := context.Background()

	tx, err := engine.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	tx, err = engine.UpdateAmount(ctx, tx, mustMoney(t, "BTC", "0.5"))
	if err != nil {
		t.Fatalf("UpdateAmount failed: %v", err)
	}
	if err := engine.Validate(ctx, tx); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Validate error = %v, want ErrInsufficientFunds", err)
	}
}

func TestValidateZeroAmount(t *testing.T) {
	chain := fundedChain(t, "1", "1")
	source := ncAccount(testBTC, chain, nil)
	engine := NewOnChainSend(chain, source, coincore.CryptoAddress{Asset: testBTC, Address: "bc1qdest"})
	ctx := context.Background()

	tx, err := engine.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := engine.Validate(ctx, tx); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("Validate error = %v, want ErrZeroAmount", err)
	}
}

func TestValidateSecondPassword(t *testing.T) {
	chain := fundedChain(t, "1", "1")
	source := coincore.NewNonCustodialAccount(coincore.NonCustodialAccountParams{
		Asset: testBTC,
		Ref: backend.AccountRef{
			Asset:                  "BTC",
			DerivationPath:         "m/0",
			Address:                "bc1qmain",
			Label:                  "Main",
			RequiresSecondPassword: true,
		},
		Chain: chain,
	})
	engine := NewOnChainSend(chain, source, coincore.CryptoAddress{Asset: testBTC, Address: "bc1qdest"})
	ctx := context.Background()

	tx, err := engine.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	tx, err = engine.UpdateAmount(ctx, tx, mustMoney(t, "BTC", "0.1"))
	if err != nil {
		t.Fatalf("UpdateAmount failed: %v", err)
	}

	if err := engine.Validate(ctx, tx); !errors.Is(err, coincore.ErrSecondPasswordRequired) {
		t.Errorf("Validate error = %v, want ErrSecondPasswordRequired", err)
	}

	tx.SecondPassword = "hunter2"
	if err := engine.Validate(ctx, tx); err != nil {
		t.Errorf("Validate with password failed: %v", err)
	}
}

func TestBitPayRejectsUnsupportedChain(t *testing.T) {
	chain := fundedChain(t, "1", "1")
	source := ncAccount(testETH, chain, nil)
	invoice := coincore.BitPayInvoice{Asset: testETH, Address: "0xbitpay", InvoiceID: "INV1", Amount: mustMoney(t, "ETH", "1")}
	engine := NewBitPaySend(chain, source, invoice)

	if _, err := engine.Start(context.Background()); !errors.Is(err, coincore.ErrUnsupportedTransfer) {
		t.Errorf("Start error = %v, want ErrUnsupportedTransfer", err)
	}
}

func TestBitPayAmountIsFixed(t *testing.T) {
	chain := fundedChain(t, "1", "1")
	source := ncAccount(testBTC, chain, nil)
	invoice := coincore.BitPayInvoice{Asset: testBTC, Address: "bc1qbitpay", InvoiceID: "INV1", Amount: mustMoney(t, "BTC", "0.01")}
	engine := NewBitPaySend(chain, source, invoice)
	ctx := context.Background()

	tx, err := engine.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !tx.Amount.Equal(invoice.Amount) {
		t.Errorf("Draft amount = %s, want invoice amount %s", tx.Amount, invoice.Amount)
	}

	if _, err := engine.UpdateAmount(ctx, tx, mustMoney(t, "BTC", "0.02")); !errors.Is(err, ErrAmountFixed) {
		t.Errorf("UpdateAmount error = %v, want ErrAmountFixed", err)
	}
	if err := engine.Validate(ctx, tx); err != nil {
		t.Errorf("Validate at invoice amount failed: %v", err)
	}
}

func TestTradingSendIgnoresOnChainFee(t *testing.T) {
	custodial := &stubCustodial{
		tradingBalance: backend.Balance{
			Total:      mustMoney(t, "BTC", "1"),
			Actionable: mustMoney(t, "BTC", "1"),
			Pending:    money.Zero("BTC"),
		},
	}
	source := coincore.NewTradingAccount(testBTC, coincore.TradingAccountLabel, custodial, nil, "USD")
	engine := NewTradingToOnChainSend(custodial, source, coincore.CryptoAddress{Asset: testBTC, Address: "bc1qdest"})
	ctx := context.Background()

	tx, err := engine.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// The provider nets its fee out of the withdrawal; the full actionable
	// balance is sendable.
	tx, err = engine.UpdateAmount(ctx, tx, mustMoney(t, "BTC", "1"))
	if err != nil {
		t.Fatalf("UpdateAmount failed: %v", err)
	}
	if err := engine.Validate(ctx, tx); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if _, err := engine.Execute(ctx, tx); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(custodial.withdrawals) != 1 {
		t.Fatalf("Created %d withdrawals, want 1", len(custodial.withdrawals))
	}
	if custodial.withdrawals[0].DestinationAddress != "bc1qdest" {
		t.Errorf("Withdrawal to %s, want bc1qdest", custodial.withdrawals[0].DestinationAddress)
	}
}

func TestFiatWithdrawalGate(t *testing.T) {
	fiat := &stubFiat{
		balance: backend.Balance{
			Total:      mustMoney(t, "USD", "100"),
			Actionable: mustMoney(t, "USD", "100"),
			Pending:    money.Zero("USD"),
		},
		canWithdraw: false,
	}
	account := coincore.NewFiatAccount("USD", "USD Account", fiat)
	engine := NewFiatWithdrawal(fiat, account)
	ctx := context.Background()

	tx, err := engine.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	tx, err = engine.UpdateAmount(ctx, tx, mustMoney(t, "USD", "50"))
	if err != nil {
		t.Fatalf("UpdateAmount failed: %v", err)
	}

	// One withdrawal is already in flight.
	if err := engine.Validate(ctx, tx); !errors.Is(err, coincore.ErrUnsupportedTransfer) {
		t.Errorf("Validate error = %v, want ErrUnsupportedTransfer", err)
	}

	fiat.canWithdraw = true
	if err := engine.Validate(ctx, tx); err != nil {
		t.Errorf("Validate after settlement failed: %v", err)
	}
	if _, err := engine.Execute(ctx, tx); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(fiat.withdrawals) != 1 {
		t.Errorf("Created %d withdrawals, want 1", len(fiat.withdrawals))
	}
}

func TestTradingSwapRecordsPair(t *testing.T) {
	custodial := &stubCustodial{
		tradingBalance: backend.Balance{
			Total:      mustMoney(t, "BTC", "1"),
			Actionable: mustMoney(t, "BTC", "1"),
			Pending:    money.Zero("BTC"),
		},
	}
	source := coincore.NewTradingAccount(testBTC, coincore.TradingAccountLabel, custodial, nil, "USD")
	target := coincore.NewTradingAccount(testETH, coincore.TradingAccountLabel, custodial, nil, "USD")
	engine := NewTradingToTradingSwap(custodial, source, target)
	ctx := context.Background()

	tx, err := engine.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	tx, err = engine.UpdateAmount(ctx, tx, mustMoney(t, "BTC", "0.5"))
	if err != nil {
		t.Fatalf("UpdateAmount failed: %v", err)
	}
	if err := engine.Validate(ctx, tx); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if _, err := engine.Execute(ctx, tx); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(custodial.swaps) != 1 {
		t.Fatalf("Created %d swaps, want 1", len(custodial.swaps))
	}
	swap := custodial.swaps[0]
	if swap.SourceAsset != "BTC" || swap.DestinationAsset != "ETH" {
		t.Errorf("Swap pair = %s/%s, want BTC/ETH", swap.SourceAsset, swap.DestinationAsset)
	}
	if swap.Direction != backend.DirectionInternal {
		t.Errorf("Swap direction = %s, want INTERNAL", swap.Direction)
	}
}
