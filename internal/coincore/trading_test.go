package coincore

import (
	"context"
	"testing"

	"coincore-go/internal/backend"
	"coincore-go/internal/money"
)

func TestTradingActionsInterestGatedOnActionable(t *testing.T) {
	// Total is positive but everything is locked: eligible or not, nothing
	// can move to the rewards account.
	custodial := &fakeCustodial{
		tradingBalance: backend.Balance{
			Total:      mustMoney(t, "BTC", "2"),
			Actionable: money.Zero("BTC"),
			Pending:    money.Zero("BTC"),
		},
		eligibility: backend.Eligibility{Eligible: true},
	}
	account := NewTradingAccount(testBTC, TradingAccountLabel, custodial, nil, "USD")

	actions, err := account.Actions(context.Background())
	if err != nil {
		t.Fatalf("Actions failed: %v", err)
	}
	if actions.Contains(ActionInterestDeposit) {
		t.Error("Locked-balance account offered INTEREST_DEPOSIT")
	}
	if actions.Contains(ActionSend) {
		t.Error("Locked-balance account offered SEND")
	}
	if custodial.eligibilityCalls != 0 {
		t.Errorf("Eligibility probed %d times for an unspendable account, want 0", custodial.eligibilityCalls)
	}
}

func TestTradingActionsSpendable(t *testing.T) {
	custodial := &fakeCustodial{
		tradingBalance: backend.Balance{
			Total:      mustMoney(t, "BTC", "2"),
			Actionable: mustMoney(t, "BTC", "2"),
			Pending:    money.Zero("BTC"),
		},
		eligibility: backend.Eligibility{Eligible: true},
		simpleBuy:   true,
	}
	account := NewTradingAccount(testBTC, TradingAccountLabel, custodial, nil, "USD")

	actions, err := account.Actions(context.Background())
	if err != nil {
		t.Fatalf("Actions failed: %v", err)
	}
	for _, want := range []Action{ActionSend, ActionSwap, ActionSell, ActionBuy, ActionInterestDeposit, ActionReceive, ActionViewActivity} {
		if !actions.Contains(want) {
			t.Errorf("Missing %s", want)
		}
	}
}

func TestTradingSourceState(t *testing.T) {
	custodial := &fakeCustodial{
		tradingBalance: backend.Balance{
			Total:      mustMoney(t, "BTC", "1"),
			Actionable: money.Zero("BTC"),
			Pending:    money.Zero("BTC"),
		},
	}
	account := NewTradingAccount(testBTC, TradingAccountLabel, custodial, nil, "USD")

	state, err := account.SourceState(context.Background())
	if err != nil {
		t.Fatalf("SourceState failed: %v", err)
	}
	if state != SourceNoFunds {
		t.Errorf("SourceState = %d, want SourceNoFunds", state)
	}
}

func TestTradingBalanceCarriesRate(t *testing.T) {
	custodial := &fakeCustodial{
		tradingBalance: backend.Balance{
			Total:      mustMoney(t, "BTC", "1"),
			Actionable: mustMoney(t, "BTC", "1"),
			Pending:    money.Zero("BTC"),
		},
	}
	rates := &fakeRates{price: mustMoney(t, "USD", "50000").Amount()}
	account := NewTradingAccount(testBTC, TradingAccountLabel, custodial, rates, "USD")

	bal, err := account.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if bal.Rate == nil {
		t.Fatal("Balance carried no rate")
	}
	if bal.Rate.From != "BTC" || bal.Rate.To != "USD" {
		t.Errorf("Rate pair = %s/%s, want BTC/USD", bal.Rate.From, bal.Rate.To)
	}
	if !account.IsFunded() {
		t.Error("IsFunded = false after positive balance observation")
	}
}

func TestTradingMatchesPerAsset(t *testing.T) {
	a := NewTradingAccount(testBTC, TradingAccountLabel, &fakeCustodial{}, nil, "USD")
	b := NewTradingAccount(testBTC, TradingAccountLabel, &fakeCustodial{}, nil, "USD")
	c := NewTradingAccount(testETH, TradingAccountLabel, &fakeCustodial{}, nil, "USD")

	if !a.Matches(b) {
		t.Error("Same-asset trading accounts must match")
	}
	if a.Matches(c) {
		t.Error("Cross-asset trading accounts must not match")
	}
}
