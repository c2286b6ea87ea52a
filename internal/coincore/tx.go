package coincore

import (
	"context"

	"coincore-go/internal/money"
)

// PendingTransaction is the mutable draft an execution engine builds up
// before execution. Engines own its lifecycle; callers only set Amount and
// SecondPassword.
type PendingTransaction struct {
	Source         Account
	Target         TransactionTarget
	Amount         money.Money
	Fee            money.Money
	FeeCurrency    string
	SecondPassword string
	Memo           string
	IdempotencyKey string
}

// TxResult is the outcome of an executed transaction.
type TxResult struct {
	TxID string
}

// ExecutionEngine drives one kind of transfer from draft to broadcast. An
// engine instance is bound to a single source/target pair.
type ExecutionEngine interface {
	// Start builds the initial draft for the bound source and target.
	Start(ctx context.Context) (PendingTransaction, error)
	// UpdateAmount recomputes fees and limits for a changed amount.
	UpdateAmount(ctx context.Context, tx PendingTransaction, amount money.Money) (PendingTransaction, error)
	// Validate checks the draft is executable, returning a sentinel error
	// describing the first violation found.
	Validate(ctx context.Context, tx PendingTransaction) error
	// Execute submits the transaction. It assumes a prior successful
	// Validate.
	Execute(ctx context.Context, tx PendingTransaction) (TxResult, error)
}

// EngineResolver picks the execution engine for a source/target/action
// triple. ErrUnsupportedTransfer is returned for combinations no engine
// handles.
type EngineResolver interface {
	Resolve(ctx context.Context, source Account, target TransactionTarget, action Action) (ExecutionEngine, error)
}
