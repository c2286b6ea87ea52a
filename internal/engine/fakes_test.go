package engine

import (
	"context"

	"coincore-go/internal/backend"
	"coincore-go/internal/catalogue"
	"coincore-go/internal/money"
)

var (
	testBTC = catalogue.Asset{
		Ticker:     "BTC",
		Name:       "Bitcoin",
		Precision:  8,
		Categories: catalogue.CategoryNonCustodial | catalogue.CategoryCustodial,
	}
	testETH = catalogue.Asset{
		Ticker:     "ETH",
		Name:       "Ether",
		Precision:  18,
		Categories: catalogue.CategoryNonCustodial | catalogue.CategoryCustodial,
	}
)

func mustMoney(t interface{ Fatalf(string, ...interface{}) }, currency, amount string) money.Money {
	m, err := money.FromString(currency, amount)
	if err != nil {
		t.Fatalf("bad test amount %q: %v", amount, err)
	}
	return m
}

// stubChain is a NonCustodialBackend with a fixed balance and fee.
type stubChain struct {
	balance   backend.Balance
	fee       money.Money
	submitted []backend.SubmitParams
}

func (s *stubChain) ListAccounts(_ context.Context, _ string) ([]backend.AccountRef, error) {
	return nil, nil
}

func (s *stubChain) Balance(_ context.Context, ref backend.AccountRef) (backend.Balance, error) {
	if s.balance.Total.Currency() == "" {
		return backend.ZeroBalance(ref.Asset), nil
	}
	return s.balance, nil
}

func (s *stubChain) History(_ context.Context, _ backend.AccountRef) ([]backend.OnChainTxRecord, error) {
	return nil, nil
}

func (s *stubChain) EstimateFee(_ context.Context, asset string) (money.Money, error) {
	if s.fee.Currency() == "" {
		return money.Zero(asset), nil
	}
	return s.fee, nil
}

func (s *stubChain) Submit(_ context.Context, params backend.SubmitParams) (string, error) {
	s.submitted = append(s.submitted, params)
	return "chain-tx-1", nil
}

// stubCustodial is a CustodialBackend with a fixed trading balance that
// records creation calls.
type stubCustodial struct {
	tradingBalance backend.Balance
	withdrawals    []backend.WithdrawalParams
	swaps          []backend.SwapParams
	sells          []backend.SellParams
}

func (s *stubCustodial) TradingAccountAddress(_ context.Context, _ string) (string, error) {
	return "custodial-deposit-addr", nil
}

func (s *stubCustodial) TradingBalance(_ context.Context, asset string) (backend.Balance, error) {
	if s.tradingBalance.Total.Currency() == "" {
		return backend.ZeroBalance(asset), nil
	}
	return s.tradingBalance, nil
}

func (s *stubCustodial) OrderHistory(_ context.Context, _ string) ([]backend.Order, error) {
	return nil, nil
}

func (s *stubCustodial) TradeHistory(_ context.Context, _ string, _ []backend.TransferDirection) ([]backend.Trade, error) {
	return nil, nil
}

func (s *stubCustodial) TransferHistory(_ context.Context, _ string) ([]backend.Transfer, error) {
	return nil, nil
}

func (s *stubCustodial) IsInterestAvailable(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (s *stubCustodial) InterestEligibility(_ context.Context, _ string) (backend.Eligibility, error) {
	return backend.Eligibility{Eligible: true}, nil
}

func (s *stubCustodial) InterestAccountAddress(_ context.Context, _ string) (string, error) {
	return "interest-deposit-addr", nil
}

func (s *stubCustodial) InterestBalance(_ context.Context, asset string) (backend.Balance, error) {
	return backend.ZeroBalance(asset), nil
}

func (s *stubCustodial) InterestActivity(_ context.Context, _ string) ([]backend.InterestRecord, error) {
	return nil, nil
}

func (s *stubCustodial) SupportedFundingFiats(_ context.Context) ([]string, error) {
	return []string{"USD"}, nil
}

func (s *stubCustodial) IsSimpleBuyEligible(_ context.Context) (bool, error) {
	return true, nil
}

func (s *stubCustodial) ExchangeAddress(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

func (s *stubCustodial) CreateWithdrawal(_ context.Context, params backend.WithdrawalParams) (string, error) {
	s.withdrawals = append(s.withdrawals, params)
	return "withdrawal-1", nil
}

func (s *stubCustodial) CreateSwap(_ context.Context, params backend.SwapParams) (string, error) {
	s.swaps = append(s.swaps, params)
	return "swap-1", nil
}

func (s *stubCustodial) CreateSell(_ context.Context, params backend.SellParams) (string, error) {
	s.sells = append(s.sells, params)
	return "sell-1", nil
}

// stubFiat is a FiatBackend recording deposits and withdrawals.
type stubFiat struct {
	balance     backend.Balance
	canWithdraw bool
	deposits    []string
	withdrawals []string
}

func (s *stubFiat) Balance(_ context.Context, currency string) (backend.Balance, error) {
	if s.balance.Total.Currency() == "" {
		return backend.ZeroBalance(currency), nil
	}
	return s.balance, nil
}

func (s *stubFiat) CanWithdraw(_ context.Context, _ string) (bool, error) {
	return s.canWithdraw, nil
}

func (s *stubFiat) History(_ context.Context, _ string) ([]backend.FiatRecord, error) {
	return nil, nil
}

func (s *stubFiat) CreateDeposit(_ context.Context, _ string, _ money.Money, reference string) (string, error) {
	s.deposits = append(s.deposits, reference)
	return reference, nil
}

func (s *stubFiat) CreateWithdrawal(_ context.Context, _ string, _ money.Money, reference string) (string, error) {
	s.withdrawals = append(s.withdrawals, reference)
	return reference, nil
}
