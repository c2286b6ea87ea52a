package coincore

import "sort"

// Action is one capability a user may invoke on an account.
type Action string

const (
	ActionViewActivity     Action = "VIEW_ACTIVITY"
	ActionViewStatement    Action = "VIEW_STATEMENT"
	ActionSend             Action = "SEND"
	ActionReceive          Action = "RECEIVE"
	ActionSwap             Action = "SWAP"
	ActionSell             Action = "SELL"
	ActionBuy              Action = "BUY"
	ActionInterestDeposit  Action = "INTEREST_DEPOSIT"
	ActionInterestWithdraw Action = "INTEREST_WITHDRAW"
	ActionFiatDeposit      Action = "FIAT_DEPOSIT"
	ActionFiatWithdraw     Action = "FIAT_WITHDRAW"
)

// ActionSet is an unordered set of actions.
type ActionSet map[Action]struct{}

func NewActionSet(actions ...Action) ActionSet {
	s := make(ActionSet, len(actions))
	for _, a := range actions {
		s[a] = struct{}{}
	}
	return s
}

func (s ActionSet) Contains(a Action) bool {
	_, ok := s[a]
	return ok
}

// Union returns a new set holding every action of both sets.
func (s ActionSet) Union(other ActionSet) ActionSet {
	out := make(ActionSet, len(s)+len(other))
	for a := range s {
		out[a] = struct{}{}
	}
	for a := range other {
		out[a] = struct{}{}
	}
	return out
}

// Sorted returns the actions in a stable order, for display and tests.
func (s ActionSet) Sorted() []Action {
	out := make([]Action, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// takeIf adds action to the set when it appears in the allow-list ceiling and
// the predicate holds. The allow-list is the ceiling, the predicate the
// floor.
func (s ActionSet) takeIf(allowed ActionSet, action Action, predicate bool) {
	if allowed.Contains(action) && predicate {
		s[action] = struct{}{}
	}
}

// defaultBaseActions is the allow-list ceiling for regular crypto accounts.
var defaultBaseActions = NewActionSet(
	ActionViewActivity,
	ActionSend,
	ActionReceive,
	ActionSwap,
	ActionSell,
	ActionBuy,
	ActionInterestDeposit,
)
