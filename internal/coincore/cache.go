package coincore

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// AccountLoader builds the current account list for one asset from backends.
type AccountLoader func(ctx context.Context) ([]CryptoAccount, error)

// InterestProbe reports whether interest accounts are currently available
// for the asset.
type InterestProbe func(ctx context.Context) (bool, error)

// ActiveAccounts caches the account list of a single asset. A refresh runs
// on the first fetch, whenever a refresh was requested, and whenever the
// interest-availability probe flips. Refreshes preserve account object
// identity: an account equal to a cached one (per Matches) is reused so
// callers holding references keep observing the live object.
type ActiveAccounts struct {
	asset  string
	loader AccountLoader
	probe  InterestProbe

	mu              sync.Mutex
	accounts        []CryptoAccount
	loaded          bool
	forceRefresh    bool
	interestEnabled bool
}

func NewActiveAccounts(asset string, loader AccountLoader, probe InterestProbe) *ActiveAccounts {
	return &ActiveAccounts{
		asset:        asset,
		loader:       loader,
		probe:        probe,
		forceRefresh: true,
	}
}

// SetForceRefresh marks the cache stale. The next Fetch reloads.
func (c *ActiveAccounts) SetForceRefresh() {
	c.mu.Lock()
	c.forceRefresh = true
	c.mu.Unlock()
}

// Fetch returns the cached account list, reloading it first when stale. The
// whole operation holds the cache lock, so concurrent fetches of the same
// asset serialize and at most one reload runs.
func (c *ActiveAccounts) Fetch(ctx context.Context) ([]CryptoAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	interestEnabled := c.interestEnabled
	if c.probe != nil {
		enabled, err := c.probe(ctx)
		if err != nil {
			// Probe failures keep the previous observation rather than
			// forcing a spurious reload.
			zap.L().Warn("interest probe failed",
				zap.String("asset", c.asset),
				zap.Error(err))
		} else {
			interestEnabled = enabled
		}
	}

	if c.loaded && !c.forceRefresh && interestEnabled == c.interestEnabled {
		return c.snapshot(), nil
	}

	fresh, err := c.loader(ctx)
	if err != nil {
		// Leave the stale flags in place so the next fetch retries.
		return nil, fmt.Errorf("loading %s accounts: %w", c.asset, err)
	}

	c.accounts = reuseMatching(c.accounts, fresh)
	c.loaded = true
	c.forceRefresh = false
	c.interestEnabled = interestEnabled
	return c.snapshot(), nil
}

func (c *ActiveAccounts) snapshot() []CryptoAccount {
	out := make([]CryptoAccount, len(c.accounts))
	copy(out, c.accounts)
	return out
}

// reuseMatching replaces each freshly built account with its cached
// counterpart when one matches, keeping object identity stable across
// refreshes.
func reuseMatching(cached, fresh []CryptoAccount) []CryptoAccount {
	if len(cached) == 0 {
		return fresh
	}
	out := make([]CryptoAccount, 0, len(fresh))
	for _, acc := range fresh {
		kept := acc
		for _, old := range cached {
			if old.Matches(acc) {
				kept = old
				break
			}
		}
		out = append(out, kept)
	}
	return out
}
