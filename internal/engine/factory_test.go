package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"coincore-go/internal/backend"
	"coincore-go/internal/catalogue"
	"coincore-go/internal/coincore"
)

func newTestFactory() (*Factory, *stubChain, *stubCustodial, *stubFiat) {
	chain := &stubChain{}
	custodial := &stubCustodial{}
	fiat := &stubFiat{}
	return NewFactory(chain, custodial, fiat), chain, custodial, fiat
}

func ncAccount(asset catalogue.Asset, chain backend.NonCustodialBackend, custodial backend.CustodialBackend) *coincore.NonCustodialAccount {
	return coincore.NewNonCustodialAccount(coincore.NonCustodialAccountParams{
		Asset: asset,
		Ref: backend.AccountRef{
			Asset:          asset.Ticker,
			DerivationPath: "m/0",
			Address:        "addr-" + asset.Ticker,
			Label:          asset.Ticker + " Wallet",
		},
		Chain:        chain,
		Custodial:    custodial,
		FiatCurrency: "USD",
	})
}

func TestResolveDispatchTable(t *testing.T) {
	factory, chain, custodial, fiat := newTestFactory()
	ctx := context.Background()

	btcChain := ncAccount(testBTC, chain, custodial)
	ethChain := ncAccount(testETH, chain, custodial)
	btcTrading := coincore.NewTradingAccount(testBTC, coincore.TradingAccountLabel, custodial, nil, "USD")
	ethTrading := coincore.NewTradingAccount(testETH, coincore.TradingAccountLabel, custodial, nil, "USD")
	btcInterest := coincore.NewInterestAccount(testBTC, coincore.InterestAccountLabel, custodial, nil, "USD")
	usdWallet := coincore.NewFiatAccount("USD", "USD Account", fiat)
	btcExchange := coincore.NewExchangeAccount(testBTC, coincore.ExchangeAccountLabel, "exchange-addr")
	btcAddress := coincore.CryptoAddress{Asset: testBTC, Address: "bc1qraw", Label: "bc1qraw"}
	invoice :=coincore.BitPayInvoice{Asset: testBTC, Address: "bc1qbitpay", InvoiceID: "INV1", Amount: mustMoney(t, "BTC", "0.01")}

	cases := []struct {
		name   string
		source coincore.Account
		target coincore.TransactionTarget
		action coincore.Action
		want   interface{}
	}{
		{"on-chain to raw address", btcChain, btcAddress, coincore.ActionSend, &OnChainSend{}},
		{"on-chain to sibling", btcChain, ncAccount(testBTC, chain, custodial), coincore.ActionSend, &OnChainSend{}},
		{"on-chain to same-asset trading", btcChain, btcTrading, coincore.ActionSend, &OnChainSend{}},
		{"on-chain to exchange", btcChain, btcExchange, coincore.ActionSend, &OnChainSend{}},
		{"on-chain to cross-asset trading", btcChain, ethTrading, coincore.ActionSwap, &OnChainSwap{}},
		{"on-chain to cross-asset wallet", btcChain, ethChain, coincore.ActionSwap, &OnChainSwap{}},
		{"on-chain to rewards", btcChain, btcInterest, coincore.ActionInterestDeposit, &InterestDepositOnChain{}},
		{"on-chain to fiat", btcChain, usdWallet, coincore.ActionSell, &OnChainSell{}},
		{"on-chain bitpay", btcChain, invoice, coincore.ActionSend, &BitPaySend{}},

		{"trading to raw address", btcTrading, btcAddress, coincore.ActionSend, &TradingToOnChainSend{}},
		{"trading to own wallet", btcTrading, btcChain, coincore.ActionSend, &TradingToOnChainSend{}},
		{"trading to exchange", btcTrading, btcExchange, coincore.ActionSend, &TradingToOnChainSend{}},
		{"trading to cross-asset trading", btcTrading, ethTrading, coincore.ActionSwap, &TradingToTradingSwap{}},
		{"trading to rewards", btcTrading, btcInterest, coincore.ActionInterestDeposit, &InterestDepositTrading{}},
		{"trading to fiat", btcTrading, usdWallet, coincore.ActionSell, &TradingSell{}},

		{"rewards to trading", btcInterest, btcTrading, coincore.ActionInterestWithdraw, &InterestWithdrawTrading{}},
		{"rewards to own wallet", btcInterest, btcChain, coincore.ActionInterestWithdraw, &InterestWithdrawOnChain{}},

		{"fiat deposit", usdWallet, usdWallet, coincore.ActionFiatDeposit, &FiatDeposit{}},
		{"fiat withdrawal", usdWallet, usdWallet, coincore.ActionFiatWithdraw, &FiatWithdrawal{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := factory.Resolve(ctx, tc.source, tc.target, tc.action)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got, want := fmt.Sprintf("%T", engine), fmt.Sprintf("%T", tc.want); got != want {
				t.Errorf("Resolved %s, want %s", got, want)
			}
		})
	}
}

func TestResolveUnsupported(t *testing.T) {
	factory, chain, custodial, fiat := newTestFactory()
	ctx := context.Background()

	btcChain := ncAccount(testBTC, chain, custodial)
	btcTrading := coincore.NewTradingAccount(testBTC, coincore.TradingAccountLabel, custodial, nil, "USD")
	ethInterest := coincore.NewInterestAccount(testETH, coincore.InterestAccountLabel, custodial, nil, "USD")
	usdWallet := coincore.NewFiatAccount("USD", "USD Account", fiat)
	ethAddress := coincore.CryptoAddress{Asset: testETH, Address: "0xraw", Label: "0xraw"}

	cases := []struct {
		name   string
		source coincore.Account
		target coincore.TransactionTarget
		action coincore.Action
	}{
		{"on-chain to cross-asset raw address", btcChain, ethAddress, coincore.ActionSend},
		{"on-chain to cross-asset rewards", btcChain, ethInterest, coincore.ActionInterestDeposit},
		{"trading to same-asset trading", btcTrading, btcTrading, coincore.ActionSwap},
		{"trading to cross-asset raw address", btcTrading, ethAddress, coincore.ActionSend},
		{"rewards to fiat", ethInterest, usdWallet, coincore.ActionSell},
		{"fiat send", usdWallet, usdWallet, coincore.ActionSend},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := factory.Resolve(ctx, tc.source, tc.target, tc.action)
			if !errors.Is(err, coincore.ErrUnsupportedTransfer) {
				t.Errorf("Resolve error = %v, want ErrUnsupportedTransfer", err)
			}
		})
	}
}
