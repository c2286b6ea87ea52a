package coincore

import (
	"context"

	"go.uber.org/zap"
)

// TrendingPair is one suggested swap, resolved to concrete accounts.
type TrendingPair struct {
	Source CryptoAccount
	Target CryptoAccount
}

// defaultTrendingTickers are the suggested swap pairs, most popular first.
var defaultTrendingTickers = [][2]string{
	{"BTC", "ETH"},
	{"BTC", "USDC"},
	{"ETH", "USDC"},
	{"BTC", "XLM"},
	{"ETH", "BTC"},
}

// TrendingPairs resolves the suggested swap list against the user's actual
// accounts. A pair is offered only when both assets are supported and the
// source trading account is funded; for a token source the parent chain
// must also hold funds to pay gas. Unsupported or unfunded pairs drop out
// silently.
func (c *Coincore) TrendingPairs(ctx context.Context) ([]TrendingPair, error) {
	var out []TrendingPair
	for _, pair := range defaultTrendingTickers {
		src, err := c.tradingAccountFor(ctx, pair[0])
		if err != nil || src == nil {
			continue
		}
		dst, err := c.tradingAccountFor(ctx, pair[1])
		if err != nil || dst == nil {
			continue
		}

		bal, err := src.Balance(ctx)
		if err != nil {
			zap.L().Debug("trending pair balance check failed",
				zap.String("source", pair[0]),
				zap.Error(err))
			continue
		}
		if !bal.Actionable.IsPositive() {
			continue
		}

		if src.Asset().IsToken() && !c.parentChainFunded(ctx, src.Asset().ParentChain) {
			continue
		}

		out = append(out, TrendingPair{Source: src, Target: dst})
	}
	return out, nil
}

func (c *Coincore) tradingAccountFor(ctx context.Context, ticker string) (CryptoAccount, error) {
	asset, err := c.AssetFor(ticker)
	if err != nil {
		return nil, nil
	}
	accounts, err := asset.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.Kind() == KindTrading {
			return a, nil
		}
	}
	return nil, nil
}

func (c *Coincore) parentChainFunded(ctx context.Context, parent string) bool {
	asset, err := c.AssetFor(parent)
	if err != nil {
		return false
	}
	group, err := asset.AccountGroup(ctx, FilterAll)
	if err != nil {
		return false
	}
	return group.IsFunded()
}
