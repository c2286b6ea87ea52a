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

package prime

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coinbase-samples/prime-sdk-go/client"
	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/coinbase-samples/prime-sdk-go/model"
	"github.com/coinbase-samples/prime-sdk-go/portfolios"
	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"github.com/coinbase-samples/prime-sdk-go/wallets"
	"golang.org/x/net/http2"

	"coincore-go/internal/database"
	"coincore-go/internal/models"
)

// Service is the shared Prime API plumbing behind both the custodial and
// the wallet backends: REST client, portfolio binding and the local ledger
// the per-account state lives in.
type Service struct {
	client          client.RestClient
	portfoliosSvc   portfolios.PortfoliosService
	walletsSvc      wallets.WalletsService
	transactionsSvc transactions.TransactionsService

	ledger      *database.Service
	portfolioId string

	fundingFiats      []string
	exchangeAddresses map[string]string
}

// Params configures the Prime service.
type Params struct {
	Credentials *credentials.Credentials
	Ledger      *database.Service
	// PortfolioName selects the Prime portfolio all wallets live in.
	PortfolioName string
	// FundingFiats are the fiat currencies custodial buys may settle in.
	FundingFiats []string
	// ExchangeAddresses maps asset tickers to linked external-exchange
	// deposit addresses, when the user has linked one.
	ExchangeAddresses map[string]string
}

func NewService(ctx context.Context, params Params) (*Service, error) {
	httpClient, err := createCustomHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	restClient := client.NewRestClient(params.Credentials, httpClient)

	s := &Service{
		client:            restClient,
		portfoliosSvc:     portfolios.NewPortfoliosService(restClient),
		walletsSvc:        wallets.NewWalletsService(restClient),
		transactionsSvc:   transactions.NewTransactionsService(restClient),
		ledger:            params.Ledger,
		fundingFiats:      params.FundingFiats,
		exchangeAddresses: params.ExchangeAddresses,
	}

	portfolio, err := s.findPortfolio(ctx, params.PortfolioName)
	if err != nil {
		return nil, err
	}
	s.portfolioId = portfolio.Id

	return s, nil
}

// Custodial returns the custodial trading/interest backend view.
func (s *Service) Custodial() *CustodialService {
	return &CustodialService{Service: s}
}

// Wallets returns the user-key wallet backend view.
func (s *Service) Wallets() *WalletService {
	return &WalletService{Service: s}
}

func createCustomHttpClient() (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			DualStack: true,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

func (s *Service) listPortfolios(ctx context.Context) ([]models.Portfolio, error) {
	request := &portfolios.ListPortfoliosRequest{}

	response, err := s.portfoliosSvc.ListPortfolios(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("unable to list portfolios: %w", err)
	}

	portfolioList := make([]models.Portfolio, len(response.Portfolios))
	for i, p := range response.Portfolios {
		portfolioList[i] = models.Portfolio{
			Id:   p.Id,
			Name: p.Name,
		}
	}

	return portfolioList, nil
}

func (s *Service) findPortfolio(ctx context.Context, name string) (*models.Portfolio, error) {
	portfolioList, err := s.listPortfolios(ctx)
	if err != nil {
		return nil, err
	}

	for _, portfolio := range portfolioList {
		if portfolio.Name == name {
			return &portfolio, nil
		}
	}

	return nil, fmt.Errorf("portfolio %q not found", name)
}

func (s *Service) listWallets(ctx context.Context, walletType string, symbols []string) ([]models.Wallet, error) {
	request := &wallets.ListWalletsRequest{
		PortfolioId: s.portfolioId,
		Type:        walletType,
		Symbols:     symbols,
	}

	response, err := s.walletsSvc.ListWallets(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("unable to list wallets: %w", err)
	}

	walletList := make([]models.Wallet, len(response.Wallets))
	for i, w := range response.Wallets {
		walletList[i] = models.Wallet{
			Id:     w.Id,
			Name:   w.Name,
			Symbol: w.Symbol,
			Type:   w.Type,
		}
	}

	return walletList, nil
}

// TradingWallets lists the portfolio's trading wallets for the given
// symbols. Used by the deposit listener to discover which custodial wallets
// to watch.
func (s *Service) TradingWallets(ctx context.Context, symbols []string) ([]models.Wallet, error) {
	return s.listWallets(ctx, "TRADING", symbols)
}

// WalletTransactions lists deposits and withdrawals observed on one wallet
// since the given time.
func (s *Service) WalletTransactions(ctx context.Context, walletId string, since time.Time) ([]models.PrimeTransaction, error) {
	request := &transactions.ListWalletTransactionsRequest{
		PortfolioId: s.portfolioId,
		WalletId:    walletId,
		Start:       since,
		Types:       []string{"DEPOSIT", "WITHDRAWAL"},
		Pagination: &model.PaginationParams{
			Limit: 500,
		},
	}

	response, err := s.transactionsSvc.ListWalletTransactions(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("unable to list wallet transactions: %w", err)
	}

	txList := make([]models.PrimeTransaction, len(response.Transactions))
	for i, tx := range response.Transactions {
		txList[i] = models.PrimeTransaction{
			Id:            tx.Id,
			WalletId:      tx.WalletId,
			Type:          tx.Type,
			Status:        tx.Status,
			Symbol:        tx.Symbol,
			Amount:        tx.Amount,
			Network:       tx.Network,
			TransactionId: tx.TransactionId,
			CreatedAt:     tx.Created,
			CompletedAt:   tx.Completed,
		}
	}
	return txList, nil
}

func (s *Service) createDepositAddress(ctx context.Context, walletId, asset, network string) (*models.DepositAddress, error) {
	request := &wallets.CreateWalletAddressRequest{
		PortfolioId: s.portfolioId,
		WalletId:    walletId,
		NetworkId:   network,
	}

	response, err := s.walletsSvc.CreateWalletAddress(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("unable to create wallet address: %w", err)
	}

	return &models.DepositAddress{
		Id:      response.AccountIdentifier,
		Address: response.Address,
		Network: network,
		Asset:   asset,
	}, nil
}
