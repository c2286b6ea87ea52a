// Package rates implements the exchange-price backend over the Binance
// public market-data API. Spot prices are cached briefly so that warming a
// whole asset's account list does not hammer the ticker endpoint.
package rates

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"coincore-go/internal/backend"
	"coincore-go/internal/money"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	klineSize = "1h"
	cacheTTL  = 30 * time.Second
)

var _ backend.RateBackend = (*Service)(nil)

type cachedRate struct {
	price   decimal.Decimal
	fetched time.Time
}

// Service fetches prices from Binance and satisfies backend.RateBackend.
type Service struct {
	client *binance.Client

	mu    sync.RWMutex
	cache map[string]cachedRate
}

// NewService creates a Binance-backed rate service. The market-data
// endpoints are public, so both keys may be empty.
func NewService(apiKey, secretKey string) *Service {
	return &Service{
		client: binance.NewClient(apiKey, secretKey),
		cache:  make(map[string]cachedRate),
	}
}

// symbolFor maps an asset/currency pair to a Binance ticker symbol.
// Binance quotes fiat dollars as USDT.
func symbolFor(asset, currency string) string {
	quote := strings.ToUpper(currency)
	if quote == "USD" {
		quote = "USDT"
	}
	return strings.ToUpper(asset) + quote
}

// Rate returns the current spot price for one unit of asset in the quote
// currency.
func (s *Service) Rate(ctx context.Context, asset, currency string) (money.Rate, error) {
	symbol := symbolFor(asset, currency)

	s.mu.RLock()
	hit, ok := s.cache[symbol]
	s.mu.RUnlock()
	if ok && time.Since(hit.fetched) < cacheTTL {
		return money.Rate{From: asset, To: currency, Price: hit.price}, nil
	}

	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return money.Rate{}, fmt.Errorf("failed to fetch price for %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return money.Rate{}, fmt.Errorf("binance API returned empty prices for %s", symbol)
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return money.Rate{}, fmt.Errorf("unparseable price %q for %s: %w", prices[0].Price, symbol, err)
	}

	s.mu.Lock()
	s.cache[symbol] = cachedRate{price: price, fetched: time.Now()}
	s.mu.Unlock()

	return money.Rate{From: asset, To: currency, Price: price}, nil
}

// RateAt returns the price around a past instant, taken from the hourly
// candle covering it.
func (s *Service) RateAt(ctx context.Context, asset, currency string, at time.Time) (money.Rate, error) {
	symbol := symbolFor(asset, currency)
	startTime := at.Add(-time.Hour).UnixMilli()
	endTime := at.UnixMilli()

	klines, err := s.client.NewKlinesService().Symbol(symbol).StartTime(startTime).
		EndTime(endTime).
		Interval(klineSize).Do(ctx)
	if err != nil {
		return money.Rate{}, fmt.Errorf("failed to fetch klines for %s: %w", symbol, err)
	}
	if len(klines) == 0 {
		return money.Rate{}, fmt.Errorf("no price history for %s at %s", symbol, at.Format(time.RFC3339))
	}

	k := klines[len(klines)-1]
	open, _ := decimal.NewFromString(k.Open)
	close_, _ := decimal.NewFromString(k.Close)
	mid := open.Add(close_).Div(decimal.NewFromInt(2))

	return money.Rate{From: asset, To: currency, Price: mid}, nil
}

// Delta24h returns the percentage price change over the trailing 24 hours.
func (s *Service) Delta24h(ctx context.Context, asset string) (decimal.Decimal, error) {
	symbol := symbolFor(asset, "USD")
	startTime := time.Now().Add(-24*time.Hour).UnixMilli()
	endTime := time.Now().UnixMilli()

	klines, err := s.client.NewKlinesService().Symbol(symbol).StartTime(startTime).
		EndTime(endTime).
		Interval(klineSize).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to fetch klines for %s: %w", symbol, err)
	}
	if len(klines) == 0 {
		zap.L().Warn("No 24h price history", zap.String("symbol", symbol))
		return decimal.Zero, nil
	}

	open, err := decimal.NewFromString(klines[0].Open)
	if err != nil || open.IsZero() {
		return decimal.Zero, fmt.Errorf("unparseable opening price %q for %s", klines[0].Open, symbol)
	}
	last, err := decimal.NewFromString(klines[len(klines)-1].Close)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable closing price %q for %s", klines[len(klines)-1].Close, symbol)
	}

	return last.Sub(open).Div(open).Mul(decimal.NewFromInt(100)), nil
}
