package core

import (
	"context"
	"math/big"
)

// ChainTx is an unsigned transaction prepared by the executor.
type ChainTx struct {
	To    string
	Value *big.Int
	Data  []byte
}

// Signer submits transactions on behalf of the connected wallet.
// Implementations return ErrUserRejected (or an error the executor can
// classify as a rejection) when the user declines.
type Signer interface {
	Address() string
	ChainID() int64
	SignAndSend(ctx context.Context, tx ChainTx) (string, error)
}

// ConfirmationStatus is the receipt watcher's verdict on a transaction.
type ConfirmationStatus int

const (
	ConfirmationPending ConfirmationStatus = iota
	ConfirmationSuccess
	ConfirmationReverted
)

func (s ConfirmationStatus) String() string {
	switch s {
	case ConfirmationSuccess:
		return "success"
	case ConfirmationReverted:
		return "reverted"
	default:
		return "pending"
	}
}

// ReceiptWatcher reports whether a submitted transaction has been mined.
type ReceiptWatcher interface {
	WaitForConfirmation(ctx context.Context, hash string) (ConfirmationStatus, error)
}
