package coincore

import (
	"context"
	"fmt"
	"sync"

	"coincore-go/internal/backend"
	"coincore-go/internal/catalogue"
)

// interestBaseActions is the ceiling for interest accounts: funds only move
// out through an interest withdrawal.
var interestBaseActions = NewActionSet(
	ActionViewActivity,
	ActionInterestWithdraw,
)

// InterestAccount is the custodial interest-bearing wallet of one asset.
type InterestAccount struct {
	asset     catalogue.Asset
	label     string
	custodial backend.CustodialBackend
	rates     backend.RateBackend
	fiat      string

	mu     sync.Mutex
	funded bool
	hasTxs bool
}

var _ CryptoAccount = (*InterestAccount)(nil)

func NewInterestAccount(asset catalogue.Asset, label string, custodial backend.CustodialBackend, rates backend.RateBackend, fiat string) *InterestAccount {
	return &InterestAccount{
		asset:     asset,
		label:     label,
		custodial: custodial,
		rates:     rates,
		fiat:      fiat,
	}
}

func (a *InterestAccount) Kind() Kind             { return KindInterest }
func (a *InterestAccount) Label() string          { return a.label }
func (a *InterestAccount) TargetLabel() string    { return a.label }
func (a *InterestAccount) Currency() string       { return a.asset.Ticker }
func (a *InterestAccount) Asset() catalogue.Asset { return a.asset }
func (a *InterestAccount) IsArchived() bool       { return false }
func (a *InterestAccount) IsDefault() bool        { return false }

func (a *InterestAccount) Matches(other CryptoAccount) bool {
	o, ok := other.(*InterestAccount)
	return ok && o.asset.Ticker == a.asset.Ticker
}

func (a *InterestAccount) Balance(ctx context.Context) (AccountBalance, error) {
	bal, err := a.custodial.InterestBalance(ctx, a.asset.Ticker)
	if err != nil {
		return AccountBalance{}, fmt.Errorf("interest balance for %s: %w", a.asset.Ticker, err)
	}

	a.mu.Lock()
	a.funded = bal.Total.IsPositive()
	a.mu.Unlock()

	out := AccountBalance{
		Total:      bal.Total,
		Actionable: bal.Actionable,
		Pending:    bal.Pending,
	}
	if a.rates != nil {
		if rate, err := a.rates.Rate(ctx, a.asset.Ticker, a.fiat); err == nil {
			out.Rate = &rate
		}
	}
	return out, nil
}

func (a *InterestAccount) Actions(ctx context.Context) (ActionSet, error) {
	bal, err := a.Balance(ctx)
	if err != nil {
		return nil, err
	}
	set := NewActionSet()
	set.takeIf(interestBaseActions, ActionViewActivity, true)
	set.takeIf(interestBaseActions, ActionInterestWithdraw, bal.Actionable.IsPositive())
	return set, nil
}

func (a *InterestAccount) Activity(ctx context.Context) ([]ActivityItem, error) {
	records, err := a.custodial.InterestActivity(ctx, a.asset.Ticker)
	if err != nil {
		return nil, fmt.Errorf("interest activity for %s: %w", a.asset.Ticker, err)
	}

	items := make([]ActivityItem, 0, len(records))
	for _, rec := range records {
		items = append(items, InterestActivity{
			ActivitySummary: ActivitySummary{
				TxID:      rec.ID,
				Timestamp: rec.Timestamp,
				Value:     rec.Value,
				Account:   a,
			},
			Type:          rec.Type,
			State:         rec.State,
			Confirmations: rec.Confirmations,
			AccountRef:    rec.AccountRef,
			Address:       rec.Address,
		})
	}

	items = filterDisplayStates(items)
	sortActivity(items)

	a.mu.Lock()
	a.hasTxs = len(items) > 0
	a.mu.Unlock()
	return items, nil
}

func (a *InterestAccount) IsFunded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.funded
}

func (a *InterestAccount) HasTransactions() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasTxs
}

// ReceiveAddress is the interest deposit address. Deposits may only come
// from the user's own accounts, which the engine dispatcher enforces.
func (a *InterestAccount) ReceiveAddress(ctx context.Context) (ReceiveAddress, error) {
	addr, err := a.custodial.InterestAccountAddress(ctx, a.asset.Ticker)
	if err != nil {
		return ReceiveAddress{}, fmt.Errorf("interest address for %s: %w", a.asset.Ticker, err)
	}
	return ReceiveAddress{
		Asset:   a.asset.Ticker,
		Label:   a.label,
		Address: addr,
	}, nil
}

func (a *InterestAccount) RequireSecondPassword(ctx context.Context) (bool, error) {
	return false, nil
}

func (a *InterestAccount) SourceState(ctx context.Context) (TxSourceState, error) {
	bal, err := a.Balance(ctx)
	if err != nil {
		return SourceNotSupported, err
	}
	if bal.Actionable.IsPositive() {
		return SourceCanTransact, nil
	}
	if bal.Total.IsPositive() {
		return SourceFundsLocked, nil
	}
	return SourceNoFunds, nil
}
