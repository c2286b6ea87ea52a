package coincore

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Group aggregates a set of accounts behind the Account surface. Balances
// sum component-wise, actions union, activity concatenates. A group never
// acts as a transfer source or target itself.
type Group struct {
	label    string
	currency string
	members  []Account
}

var _ Account = (*Group)(nil)

// NewGroup builds a group over members. currency is the denomination the
// zero-member group reports its (zero) balance in.
func NewGroup(label, currency string, members []Account) *Group {
	return &Group{label: label, currency: currency, members: members}
}

func (g *Group) Kind() Kind          { return KindGroup }
func (g *Group) Label() string       { return g.label }
func (g *Group) TargetLabel() string { return g.label }
func (g *Group) Currency() string    { return g.currency }
func (g *Group) Accounts() []Account { return g.members }
func (g *Group) Size() int           { return len(g.members) }

// Includes reports whether account is a member of the group.
func (g *Group) Includes(account Account) bool {
	for _, m := range g.members {
		if m == account {
			return true
		}
	}
	return false
}

// Balance fans out to every member and sums component-wise. The group rate
// is the first member rate observed, in member order; members disagreeing
// on currency make the sum fail.
func (g *Group) Balance(ctx context.Context) (AccountBalance, error) {
	if len(g.members) == 0 {
		return ZeroAccountBalance(g.currency), nil
	}

	balances := make([]AccountBalance, len(g.members))
	eg, ctx := errgroup.WithContext(ctx)
	for i, m := range g.members {
		eg.Go(func() error {
			bal, err := m.Balance(ctx)
			if err != nil {
				return fmt.Errorf("member %s: %w", m.Label(), err)
			}
			balances[i] = bal
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return AccountBalance{}, err
	}

	total := balances[0]
	for _, bal := range balances[1:] {
		var err error
		if total.Total, err = total.Total.Add(bal.Total); err != nil {
			return AccountBalance{}, err
		}
		if total.Actionable, err = total.Actionable.Add(bal.Actionable); err != nil {
			return AccountBalance{}, err
		}
		if total.Pending, err = total.Pending.Add(bal.Pending); err != nil {
			return AccountBalance{}, err
		}
		if total.Rate == nil {
			total.Rate = bal.Rate
		}
	}
	return total, nil
}

// Actions is the union of member actions: the group offers what any member
// offers.
func (g *Group) Actions(ctx context.Context) (ActionSet, error) {
	sets := make([]ActionSet, len(g.members))
	eg, ctx := errgroup.WithContext(ctx)
	for i, m := range g.members {
		eg.Go(func() error {
			set, err := m.Actions(ctx)
			if err != nil {
				return fmt.Errorf("member %s: %w", m.Label(), err)
			}
			sets[i] = set
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := NewActionSet()
	for _, set := range sets {
		out = out.Union(set)
	}
	return out, nil
}

func (g *Group) Activity(ctx context.Context) ([]ActivityItem, error) {
	lists := make([][]ActivityItem, len(g.members))
	eg, ctx := errgroup.WithContext(ctx)
	for i, m := range g.members {
		eg.Go(func() error {
			items, err := m.Activity(ctx)
			if err != nil {
				return fmt.Errorf("member %s: %w", m.Label(), err)
			}
			lists[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []ActivityItem
	for _, items := range lists {
		out = append(out, items...)
	}
	sortActivity(out)
	return out, nil
}

func (g *Group) IsFunded() bool {
	for _, m := range g.members {
		if m.IsFunded() {
			return true
		}
	}
	return false
}

func (g *Group) HasTransactions() bool {
	for _, m := range g.members {
		if m.HasTransactions() {
			return true
		}
	}
	return false
}

func (g *Group) ReceiveAddress(ctx context.Context) (ReceiveAddress, error) {
	return ReceiveAddress{}, fmt.Errorf("group %s: %w", g.label, ErrNoReceiveAddress)
}

func (g *Group) RequireSecondPassword(ctx context.Context) (bool, error) {
	for _, m := range g.members {
		required, err := m.RequireSecondPassword(ctx)
		if err != nil {
			return false, err
		}
		if required {
			return true, nil
		}
	}
	return false, nil
}

// AccountFilter selects which accounts of an asset belong in a group.
type AccountFilter func(Account) bool

// Predefined filters for the group views the wallet surfaces.
var (
	FilterAll = func(Account) bool { return true }

	FilterNonCustodial = func(a Account) bool { return a.Kind() == KindNonCustodial }

	FilterCustodial = func(a Account) bool {
		return a.Kind() == KindTrading || a.Kind() == KindInterest
	}

	FilterInterest = func(a Account) bool { return a.Kind() == KindInterest }
)

// filterAccounts keeps the accounts the filter accepts. Archived crypto
// accounts are skipped unless includeArchived is set.
func filterAccounts(accounts []Account, filter AccountFilter, includeArchived bool) []Account {
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		if !includeArchived {
			if ca, ok := a.(CryptoAccount); ok && ca.IsArchived() {
				continue
			}
		}
		if filter(a) {
			out = append(out, a)
		}
	}
	return out
}
