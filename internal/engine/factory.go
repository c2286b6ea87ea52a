/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package engine

import (
	"context"
	"fmt"

	"coincore-go/internal/backend"
	"coincore-go/internal/coincore"
)

// Factory picks the execution engine for a source/target/action triple. The
// dispatch is an explicit table: every supported combination appears below,
// everything else is ErrUnsupportedTransfer.
type Factory struct {
	chain     backend.NonCustodialBackend
	custodial backend.CustodialBackend
	fiat      backend.FiatBackend
}

var _ coincore.EngineResolver = (*Factory)(nil)

func NewFactory(chain backend.NonCustodialBackend, custodial backend.CustodialBackend, fiat backend.FiatBackend) *Factory {
	return &Factory{chain: chain, custodial: custodial, fiat: fiat}
}

func (f *Factory) Resolve(ctx context.Context, source coincore.Account, target coincore.TransactionTarget, action coincore.Action) (coincore.ExecutionEngine, error) {
	switch src := source.(type) {
	case *coincore.NonCustodialAccount:
		return f.fromNonCustodial(src, target, action)
	case *coincore.TradingAccount:
		return f.fromTrading(src, target, action)
	case *coincore.InterestAccount:
		return f.fromInterest(src, target)
	case *coincore.FiatAccount:
		return f.fromFiat(src, action)
	}
	return nil, unsupported(source, target, action)
}

func (f *Factory) fromNonCustodial(src *coincore.NonCustodialAccount, target coincore.TransactionTarget, action coincore.Action) (coincore.ExecutionEngine, error) {
	switch t := target.(type) {
	case coincore.BitPayInvoice:
		return NewBitPaySend(f.chain, src, t), nil

	case coincore.CryptoAddress:
		if t.Asset.Ticker != src.Asset().Ticker {
			return nil, unsupported(src, target, action)
		}
		return NewOnChainSend(f.chain, src, t), nil

	case *coincore.InterestAccount:
		if t.Asset().Ticker != src.Asset().Ticker {
			return nil, unsupported(src, target, action)
		}
		return NewInterestDepositOnChain(f.chain, src, t), nil

	case *coincore.FiatAccount:
		return NewOnChainSell(f.chain, f.custodial, src, t), nil

	case *coincore.TradingAccount:
		if t.Asset().Ticker != src.Asset().Ticker {
			return NewOnChainSwap(f.chain, f.custodial, src, t), nil
		}
		return NewOnChainSend(f.chain, src, t), nil

	case *coincore.NonCustodialAccount:
		if t.Asset().Ticker != src.Asset().Ticker {
			return NewOnChainSwap(f.chain, f.custodial, src, t), nil
		}
		return NewOnChainSend(f.chain, src, t), nil

	case *coincore.ExchangeAccount:
		if t.Asset().Ticker != src.Asset().Ticker {
			return nil, unsupported(src, target, action)
		}
		return NewOnChainSend(f.chain, src, t), nil
	}
	return nil, unsupported(src, target, action)
}

func (f *Factory) fromTrading(src *coincore.TradingAccount, target coincore.TransactionTarget, action coincore.Action) (coincore.ExecutionEngine, error) {
	switch t := target.(type) {
	case *coincore.InterestAccount:
		if t.Asset().Ticker != src.Asset().Ticker {
			return nil, unsupported(src, target, action)
		}
		return NewInterestDepositTrading(f.custodial, src, t), nil

	case *coincore.FiatAccount:
		return NewTradingSell(f.custodial, src, t), nil

	case *coincore.TradingAccount:
		if t.Asset().Ticker == src.Asset().Ticker {
			return nil, unsupported(src, target, action)
		}
		return NewTradingToTradingSwap(f.custodial, src, t), nil

	case coincore.CryptoAddress:
		if t.Asset.Ticker != src.Asset().Ticker {
			return nil, unsupported(src, target, action)
		}
		return NewTradingToOnChainSend(f.custodial, src, t), nil

	case *coincore.NonCustodialAccount:
		if t.Asset().Ticker != src.Asset().Ticker {
			return nil, unsupported(src, target, action)
		}
		return NewTradingToOnChainSend(f.custodial, src, t), nil

	case *coincore.ExchangeAccount:
		if t.Asset().Ticker != src.Asset().Ticker {
			return nil, unsupported(src, target, action)
		}
		return NewTradingToOnChainSend(f.custodial, src, t), nil
	}
	return nil, unsupported(src, target, action)
}

func (f *Factory) fromInterest(src *coincore.InterestAccount, target coincore.TransactionTarget) (coincore.ExecutionEngine, error) {
	switch t := target.(type) {
	case *coincore.TradingAccount:
		if t.Asset().Ticker != src.Asset().Ticker {
			return nil, unsupported(src, target, coincore.ActionInterestWithdraw)
		}
		return NewInterestWithdrawTrading(f.custodial, src, t), nil

	case *coincore.NonCustodialAccount:
		if t.Asset().Ticker != src.Asset().Ticker {
			return nil, unsupported(src, target, coincore.ActionInterestWithdraw)
		}
		return NewInterestWithdrawOnChain(f.custodial, src, t), nil
	}
	return nil, unsupported(src, target, coincore.ActionInterestWithdraw)
}

func (f *Factory) fromFiat(src *coincore.FiatAccount, action coincore.Action) (coincore.ExecutionEngine, error) {
	switch action {
	case coincore.ActionFiatDeposit:
		return NewFiatDeposit(f.fiat, src), nil
	case coincore.ActionFiatWithdraw:
		return NewFiatWithdrawal(f.fiat, src), nil
	}
	return nil, unsupported(src, src, action)
}

func unsupported(source coincore.Account, target coincore.TransactionTarget, action coincore.Action) error {
	return fmt.Errorf("%s from %s to %s: %w",
		action, source.Label(), target.TargetLabel(), coincore.ErrUnsupportedTransfer)
}
