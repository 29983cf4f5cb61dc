package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/derek2403/token2049/core"
)

// Receipt polling defaults.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 60
)

// ReceiptPoller waits for a transaction to be mined by polling for its
// receipt. It gives up after MaxAttempts and reports ConfirmationPending.
type ReceiptPoller struct {
	Backend     Backend
	Interval    time.Duration
	MaxAttempts int
}

// NewReceiptPoller returns a poller with the default interval and attempts.
func NewReceiptPoller(backend Backend) *ReceiptPoller {
	return &ReceiptPoller{
		Backend:     backend,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// WaitForConfirmation implements core.ReceiptWatcher.
func (p *ReceiptPoller) WaitForConfirmation(ctx context.Context, hash string) (core.ConfirmationStatus, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	txHash := common.HexToHash(hash)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		receipt, err := p.Backend.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusSuccessful {
				return core.ConfirmationSuccess, nil
			}
			return core.ConfirmationReverted, nil
		case errors.Is(err, ethereum.NotFound):
		default:
			return core.ConfirmationPending, errors.Wrap(err, "get receipt")
		}

		select {
		case <-ctx.Done():
			return core.ConfirmationPending, ctx.Err()
		case <-ticker.C:
		}
	}
	return core.ConfirmationPending, nil
}
