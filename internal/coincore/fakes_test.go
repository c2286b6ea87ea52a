package coincore

import (
	"context"
	"sync"
	"time"

	"coincore-go/internal/backend"
	"coincore-go/internal/catalogue"
	"coincore-go/internal/money"

	"github.com/shopspring/decimal"
)

var (
	testBTC = catalogue.Asset{
		Ticker:           "BTC",
		Name:             "Bitcoin",
		Precision:        8,
		MinConfirmations: 3,
		Categories:       catalogue.CategoryNonCustodial | catalogue.CategoryCustodial,
	}
	testETH = catalogue.Asset{
		Ticker:           "ETH",
		Name:             "Ether",
		Precision:        18,
		MinConfirmations: 12,
		Categories:       catalogue.CategoryNonCustodial | catalogue.CategoryCustodial,
	}
)

func mustMoney(t interface{ Fatalf(string, ...interface{}) }, currency, amount string) money.Money {
	m, err := money.FromString(currency, amount)
	if err != nil {
		t.Fatalf("bad test amount %q: %v", amount, err)
	}
	return m
}

// fakeChain is a scripted NonCustodialBackend. The mutex keeps the counters
// race-clean: Coincore fans discovery out across assets.
type fakeChain struct {
	mu         sync.Mutex
	accounts   map[string][]backend.AccountRef
	balances   map[string]backend.Balance
	history    map[string][]backend.OnChainTxRecord
	fee        money.Money
	listCalls  int
	listErr    error
	balanceErr error
	submitted  []backend.SubmitParams
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		accounts: make(map[string][]backend.AccountRef),
		balances: make(map[string]backend.Balance),
		history:  make(map[string][]backend.OnChainTxRecord),
	}
}

func (f *fakeChain) ListAccounts(_ context.Context, asset string) ([]backend.AccountRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.accounts[asset], nil
}

func (f *fakeChain) Balance(_ context.Context, ref backend.AccountRef) (backend.Balance, error) {
	if f.balanceErr != nil {
		return backend.Balance{}, f.balanceErr
	}
	if bal, ok := f.balances[ref.DerivationPath]; ok {
		return bal, nil
	}
	return backend.ZeroBalance(ref.Asset), nil
}

func (f *fakeChain) History(_ context.Context, ref backend.AccountRef) ([]backend.OnChainTxRecord, error) {
	return f.history[ref.DerivationPath], nil
}

func (f *fakeChain) EstimateFee(_ context.Context, asset string) (money.Money, error) {
	if f.fee.Currency() == "" {
		return money.Zero(asset), nil
	}
	return f.fee, nil
}

func (f *fakeChain) Submit(_ context.Context, params backend.SubmitParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, params)
	return "txhash-fake", nil
}

// fakeCustodial is a scripted CustodialBackend.
type fakeCustodial struct {
	mu                sync.Mutex
	tradingAddress    string
	tradingBalance    backend.Balance
	orders            []backend.Order
	trades            []backend.Trade
	transfers         []backend.Transfer
	interestAvailable bool
	interestAvailErr  error
	interestProbes    int
	eligibility       backend.Eligibility
	eligibilityCalls  int
	interestAddress   string
	interestBalance   backend.Balance
	interestRecords   []backend.InterestRecord
	fundingFiats      []string
	simpleBuy         bool
	exchangeAddress   string
	exchangeLinked    bool

	withdrawals []backend.WithdrawalParams
	swaps       []backend.SwapParams
	sells       []backend.SellParams
}

func (f *fakeCustodial) TradingAccountAddress(_ context.Context, _ string) (string, error) {
	return f.tradingAddress, nil
}

func (f *fakeCustodial) TradingBalance(_ context.Context, asset string) (backend.Balance, error) {
	if f.tradingBalance.Total.Currency() == "" {
		return backend.ZeroBalance(asset), nil
	}
	return f.tradingBalance, nil
}

func (f *fakeCustodial) OrderHistory(_ context.Context, _ string) ([]backend.Order, error) {
	return f.orders, nil
}

func (f *fakeCustodial) TradeHistory(_ context.Context, _ string, _ []backend.TransferDirection) ([]backend.Trade, error) {
	return f.trades, nil
}

func (f *fakeCustodial) TransferHistory(_ context.Context, _ string) ([]backend.Transfer, error) {
	return f.transfers, nil
}

func (f *fakeCustodial) IsInterestAvailable(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interestProbes++
	if f.interestAvailErr != nil {
		return false, f.interestAvailErr
	}
	return f.interestAvailable, nil
}

func (f *fakeCustodial) InterestEligibility(_ context.Context, _ string) (backend.Eligibility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eligibilityCalls++
	return f.eligibility, nil
}

func (f *fakeCustodial) InterestAccountAddress(_ context.Context, _ string) (string, error) {
	return f.interestAddress, nil
}

func (f *fakeCustodial) InterestBalance(_ context.Context, asset string) (backend.Balance, error) {
	if f.interestBalance.Total.Currency() == "" {
		return backend.ZeroBalance(asset), nil
	}
	return f.interestBalance, nil
}

func (f *fakeCustodial) InterestActivity(_ context.Context, _ string) ([]backend.InterestRecord, error) {
	return f.interestRecords, nil
}

func (f *fakeCustodial) SupportedFundingFiats(_ context.Context) ([]string, error) {
	return f.fundingFiats, nil
}

func (f *fakeCustodial) IsSimpleBuyEligible(_ context.Context) (bool, error) {
	return f.simpleBuy, nil
}

func (f *fakeCustodial) ExchangeAddress(_ context.Context, _ string) (string, bool, error) {
	return f.exchangeAddress, f.exchangeLinked, nil
}

func (f *fakeCustodial) CreateWithdrawal(_ context.Context, params backend.WithdrawalParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withdrawals = append(f.withdrawals, params)
	return "withdrawal-fake", nil
}

func (f *fakeCustodial) CreateSwap(_ context.Context, params backend.SwapParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swaps = append(f.swaps, params)
	return "swap-fake", nil
}

func (f *fakeCustodial) CreateSell(_ context.Context, params backend.SellParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sells = append(f.sells, params)
	return "sell-fake", nil
}

// fakeRates returns one fixed price for every pair.
type fakeRates struct {
	price decimal.Decimal
	delta decimal.Decimal
}

func (f *fakeRates) Rate(_ context.Context, asset, currency string) (money.Rate, error) {
	return money.Rate{From: asset, To: currency, Price: f.price}, nil
}

func (f *fakeRates) RateAt(_ context.Context, asset, currency string, _ time.Time) (money.Rate, error) {
	return money.Rate{From: asset, To: currency, Price: f.price}, nil
}

func (f *fakeRates) Delta24h(_ context.Context, _ string) (decimal.Decimal, error) {
	return f.delta, nil
}

// fakeFiatRails is a scripted FiatBackend.
type fakeFiatRails struct {
	balances    map[string]backend.Balance
	canWithdraw bool
	records     map[string][]backend.FiatRecord
}

func (f *fakeFiatRails) Balance(_ context.Context, currency string) (backend.Balance, error) {
	if bal, ok := f.balances[currency]; ok {
		return bal, nil
	}
	return backend.ZeroBalance(currency), nil
}

func (f *fakeFiatRails) CanWithdraw(_ context.Context, _ string) (bool, error) {
	return f.canWithdraw, nil
}

func (f *fakeFiatRails) History(_ context.Context, currency string) ([]backend.FiatRecord, error) {
	return f.records[currency], nil
}

func (f *fakeFiatRails) CreateDeposit(_ context.Context, currency string, amount money.Money, reference string) (string, error) {
	return reference, nil
}

func (f *fakeFiatRails) CreateWithdrawal(_ context.Context, currency string, amount money.Money, reference string) (string, error) {
	return reference, nil
}

// fakeResolver satisfies EngineResolver for facade tests that never
// dispatch.
type fakeResolver struct {
	engine ExecutionEngine
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, _ Account, _ TransactionTarget, _ Action) (ExecutionEngine, error) {
	return f.engine, f.err
}
