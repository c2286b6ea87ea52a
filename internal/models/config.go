package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Prime    PrimeConfig
	Formance FormanceConfig
	Wallet   WalletConfig
	Listener ListenerConfig
}

// DatabaseConfig holds the custodial ledger database settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// PrimeConfig holds Coinbase Prime settings
type PrimeConfig struct {
	PortfolioName  string
	RequestTimeout time.Duration
}

// FormanceConfig holds the fiat ledger settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// ListenerConfig holds the deposit listener settings
type ListenerConfig struct {
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
}

// WalletConfig holds wallet-level settings
type WalletConfig struct {
	AssetsFile        string
	FiatCurrency      string
	InterestAssets    []string
	FundingFiats      []string
	ExchangeAddresses map[string]string
}
