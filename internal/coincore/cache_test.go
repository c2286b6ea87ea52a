package coincore

import (
	"context"
	"errors"
	"testing"

	"coincore-go/internal/backend"
)

func ncAccount(path, label string) *NonCustodialAccount {
	return NewNonCustodialAccount(NonCustodialAccountParams{
		Asset: testBTC,
		Ref: backend.AccountRef{
			Asset:          "BTC",
			DerivationPath: path,
			Label:          label,
		},
	})
}

func TestFetchLoadsOnceUntilStale(t *testing.T) {
	loads := 0
	cache := NewActiveAccounts("BTC", func(_ context.Context) ([]CryptoAccount, error) {
		loads++
		return []CryptoAccount{ncAccount("m/0", "Main")}, nil
	}, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		accounts, err := cache.Fetch(ctx)
		if err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
		if len(accounts) != 1 {
			t.Fatalf("Fetch %d returned %d accounts", i, len(accounts))
		}
	}
	if loads != 1 {
		t.Errorf("Loader ran %d times, want 1", loads)
	}

	cache.SetForceRefresh()
	if _, err := cache.Fetch(ctx); err != nil {
		t.Fatalf("Fetch after refresh failed: %v", err)
	}
	if loads != 2 {
		t.Errorf("Loader ran %d times after refresh, want 2", loads)
	}
}

func TestFetchPreservesAccountIdentity(t *testing.T) {
	cache := NewActiveAccounts("BTC", func(_ context.Context) ([]CryptoAccount, error) {
		// A fresh object every load; only the derivation path is stable.
		return []CryptoAccount{ncAccount("m/0", "Main")}, nil
	}, nil)

	ctx := context.Background()
	first, err := cache.Fetch(ctx)
	if err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}
	cache.SetForceRefresh()
	second, err := cache.Fetch(ctx)
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}
	if first[0] != second[0] {
		t.Errorf("Refresh replaced a matching account instead of reusing it")
	}
}

func TestFetchReloadsWhenInterestFlips(t *testing.T) {
	loads := 0
	enabled := false
	cache := NewActiveAccounts("BTC", func(_ context.Context) ([]CryptoAccount, error) {
		loads++
		return []CryptoAccount{ncAccount("m/0", "Main")}, nil
	}, func(_ context.Context) (bool, error) {
		return enabled, nil
	})

	ctx := context.Background()
	if _, err := cache.Fetch(ctx); err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}
	if _, err := cache.Fetch(ctx); err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}
	if loads != 1 {
		t.Fatalf("Loader ran %d times before flip, want 1", loads)
	}

	enabled = true
	if _, err := cache.Fetch(ctx); err != nil {
		t.Fatalf("Fetch after flip failed: %v", err)
	}
	if loads != 2 {
		t.Errorf("Loader ran %d times after flip, want 2", loads)
	}
}

func TestFetchProbeFailureKeepsPreviousObservation(t *testing.T) {
	loads := 0
	probeErr := errors.New("probe down")
	failProbe := false
	cache := NewActiveAccounts("BTC", func(_ context.Context) ([]CryptoAccount, error) {
		loads++
		return []CryptoAccount{ncAccount("m/0", "Main")}, nil
	}, func(_ context.Context) (bool, error) {
		if failProbe {
			return false, probeErr
		}
		return true, nil
	})

	ctx := context.Background()
	if _, err := cache.Fetch(ctx); err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}

	// A failing probe must not look like the flag flipped back to false.
	failProbe = true
	if _, err := cache.Fetch(ctx); err != nil {
		t.Fatalf("Fetch with failing probe failed: %v", err)
	}
	if loads != 1 {
		t.Errorf("Loader ran %d times, want 1: probe failure forced a reload", loads)
	}
}

func TestFetchLoaderFailureRetries(t *testing.T) {
	loads := 0
	fail := true
	cache := NewActiveAccounts("BTC", func(_ context.Context) ([]CryptoAccount, error) {
		loads++
		if fail {
			return nil, errors.New("backend down")
		}
		return []CryptoAccount{ncAccount("m/0", "Main")}, nil
	}, nil)

	ctx := context.Background()
	if _, err := cache.Fetch(ctx); err == nil {
		t.Fatal("Expected first fetch to fail")
	}

	fail = false
	accounts, err := cache.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch after recovery failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("Got %d accounts after recovery", len(accounts))
	}
	if loads != 2 {
		t.Errorf("Loader ran %d times, want 2", loads)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	cache := NewActiveAccounts("BTC", func(_ context.Context) ([]CryptoAccount, error) {
		return []CryptoAccount{ncAccount("m/0", "Main"), ncAccount("m/1", "Savings")}, nil
	}, nil)

	ctx := context.Background()
	accounts, err := cache.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	accounts[0] = nil

	again, err := cache.Fetch(ctx)
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}
	if again[0] == nil {
		t.Error("Mutating a returned slice leaked into the cache")
	}
}
