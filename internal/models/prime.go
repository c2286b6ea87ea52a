package models

import "time"

// Portfolio represents a Prime portfolio
type Portfolio struct {
	Id   string
	Name string
}

// Wallet represents a Prime wallet
type Wallet struct {
	Id     string
	Name   string
	Symbol string
	Type   string
}

// DepositAddress represents a Prime deposit address
type DepositAddress struct {
	Id      string
	Address string
	Network string
	Asset   string
}

// PrimeTransaction is a wallet transaction observed through the Prime API
type PrimeTransaction struct {
	Id            string
	WalletId      string
	Type          string
	Status        string
	Symbol        string
	Amount        string
	Network       string
	TransactionId string
	CreatedAt     time.Time
	CompletedAt   time.Time
}

// Withdrawal represents a Prime withdrawal transaction
type Withdrawal struct {
	ActivityId     string
	Asset          string
	Amount         string
	Destination    string
	IdempotencyKey string
}
