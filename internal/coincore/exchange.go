package coincore

import (
	"context"

	"coincore-go/internal/catalogue"
)

// ExchangeAccount represents a linked external-exchange deposit address. It
// is a send target only: it carries no balance and no history of its own.
type ExchangeAccount struct {
	asset   catalogue.Asset
	label   string
	address string
}

var _ CryptoAccount = (*ExchangeAccount)(nil)

func NewExchangeAccount(asset catalogue.Asset, label, address string) *ExchangeAccount {
	return &ExchangeAccount{asset: asset, label: label, address: address}
}

func (a *ExchangeAccount) Kind() Kind             { return KindExchange }
func (a *ExchangeAccount) Label() string          { return a.label }
func (a *ExchangeAccount) TargetLabel() string    { return a.label }
func (a *ExchangeAccount) Currency() string       { return a.asset.Ticker }
func (a *ExchangeAccount) Asset() catalogue.Asset { return a.asset }
func (a *ExchangeAccount) IsArchived() bool       { return false }
func (a *ExchangeAccount) IsDefault() bool        { return false }

func (a *ExchangeAccount) Matches(other CryptoAccount) bool {
	o, ok := other.(*ExchangeAccount)
	return ok && o.asset.Ticker == a.asset.Ticker && o.address == a.address
}

func (a *ExchangeAccount) Balance(ctx context.Context) (AccountBalance, error) {
	return ZeroAccountBalance(a.asset.Ticker), nil
}

func (a *ExchangeAccount) Actions(ctx context.Context) (ActionSet, error) {
	return NewActionSet(), nil
}

func (a *ExchangeAccount) Activity(ctx context.Context) ([]ActivityItem, error) {
	return nil, nil
}

func (a *ExchangeAccount) IsFunded() bool        { return false }
func (a *ExchangeAccount) HasTransactions() bool { return false }

func (a *ExchangeAccount) ReceiveAddress(ctx context.Context) (ReceiveAddress, error) {
	return ReceiveAddress{
		Asset:   a.asset.Ticker,
		Label:   a.label,
		Address: a.address,
	}, nil
}

func (a *ExchangeAccount) RequireSecondPassword(ctx context.Context) (bool, error) {
	return false, nil
}

func (a *ExchangeAccount) SourceState(ctx context.Context) (TxSourceState, error) {
	return SourceNotSupported, nil
}
