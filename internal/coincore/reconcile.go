package coincore

import (
	"sort"
	"strings"

	"coincore-go/internal/backend"
)

// normalizeTxID strips separator characters from a custodial transaction id
// so it can be matched against on-chain ids.
func normalizeTxID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// reconcileTrades merges custodial trade records into an on-chain activity
// list. A trade whose normalized id appears as a substring of an on-chain
// "sent" record's id is the custodial half of that same transfer: the
// on-chain record is dropped and the trade keeps its network fee.
//
// The substring match is a compatibility-preserving heuristic inherited from
// the upstream behavior; adversarially crafted ids can false-positive.
// Callers depend on the exact rule, so it is kept as-is.
func reconcileTrades(trades []TradeActivity, activity []ActivityItem) []ActivityItem {
	out := make([]ActivityItem, len(activity))
	copy(out, activity)

	for _, trade := range trades {
		tradeID := normalizeTxID(trade.TxID)
		merged := trade

		hit := -1
		for i, item := range out {
			onChain, ok := item.(OnChainActivity)
			if !ok || onChain.Type != backend.TxSent {
				continue
			}
			if strings.Contains(strings.ToLower(onChain.TxID), strings.ToLower(tradeID)) {
				hit = i
				merged.NetworkFee = onChain.Fee
				break
			}
		}

		if hit >= 0 {
			out = append(out[:hit], out[hit+1:]...)
		}
		out = append(out, merged)
	}
	return out
}

// appendTrades is the custodial-account variant: the backend has already
// de-duplicated, so trades are appended untouched.
func appendTrades(trades []TradeActivity, activity []ActivityItem) []ActivityItem {
	out := make([]ActivityItem, 0, len(activity)+len(trades))
	out = append(out, activity...)
	for _, t := range trades {
		out = append(out, t)
	}
	return out
}

// Display-state allow lists. Records in states superseded by a later state
// (eg a canceled order that was re-quoted) are internal bookkeeping and are
// dropped before display.
var (
	displayedOrderStates = map[backend.OrderState]struct{}{
		backend.OrderFinished:         {},
		backend.OrderAwaitingFunds:    {},
		backend.OrderPendingExecution: {},
		backend.OrderFailed:           {},
	}

	displayedTradeStates = map[backend.TradeState]struct{}{
		backend.TradeFinished:         {},
		backend.TradePendingDeposit:   {},
		backend.TradePendingExecution: {},
		backend.TradeFailed:           {},
	}

	displayedTransferStates = map[backend.TransferState]struct{}{
		backend.TransferCompleted: {},
		backend.TransferPending:   {},
	}

	displayedInterestStates = map[backend.InterestState]struct{}{
		backend.InterestComplete:     {},
		backend.InterestProcessing:   {},
		backend.InterestPending:      {},
		backend.InterestManualReview: {},
		backend.InterestFailed:       {},
	}
)

// filterDisplayStates keeps only records whose state is meaningful for
// display. On-chain and recurring-buy records always pass.
func filterDisplayStates(items []ActivityItem) []ActivityItem {
	out := make([]ActivityItem, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case OrderActivity:
			if v.Type == backend.OrderRecurringBuy {
				out = append(out, item)
			} else if _, ok := displayedOrderStates[v.State]; ok {
				out = append(out, item)
			}
		case TradeActivity:
			if _, ok := displayedTradeStates[v.State]; ok {
				out = append(out, item)
			}
		case TransferActivity:
			if _, ok := displayedTransferStates[v.State]; ok {
				out = append(out, item)
			}
		case InterestActivity:
			if _, ok := displayedInterestStates[v.State]; ok {
				out = append(out, item)
			}
		default:
			out = append(out, item)
		}
	}
	return out
}

// sortActivity orders records newest first.
func sortActivity(items []ActivityItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Summary().Timestamp.After(items[j].Summary().Timestamp)
	})
}
