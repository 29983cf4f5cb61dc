// Package executor turns validated action requests into chain transactions
// and tracks each one through Pending, Submitted, Confirmed or Failed.
package executor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/chain"
	"github.com/derek2403/token2049/core"
)

// Observer is notified after every state transition of an execution.
type Observer func(e *Execution)

// Execution is a single attempt to carry out an action request.
type Execution struct {
	ID      string
	Request core.ActionRequest

	mu      sync.Mutex
	state   core.ExecutionState
	result  core.ActionResult
	updated time.Time
}

// State returns the current state.
func (e *Execution) State() core.ExecutionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Result returns the outcome so far. It is only final once State is terminal
// or the receipt watcher gave up with the execution still Submitted.
func (e *Execution) Result() core.ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// UpdatedAt returns the time of the last transition.
func (e *Execution) UpdatedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updated
}

// Executor submits transfers and stakes through a core.Signer.
// It does not deduplicate; every Execute call produces its own signing
// request.
type Executor struct {
	signer          core.Signer
	watcher         core.ReceiptWatcher
	stakingContract string
	observers       []Observer
	logger          *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithReceiptWatcher confirms submitted transactions with w.
func WithReceiptWatcher(w core.ReceiptWatcher) Option {
	return func(x *Executor) {
		x.watcher = w
	}
}

// WithStakingContract overrides the liquid staking contract address.
func WithStakingContract(addr string) Option {
	return func(x *Executor) {
		x.stakingContract = addr
	}
}

// WithObserver registers an observer for every execution.
func WithObserver(o Observer) Option {
	return func(x *Executor) {
		x.observers = append(x.observers, o)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(x *Executor) {
		x.logger = l
	}
}

// New creates an executor. signer may be nil, in which case every chain
// action fails with core.ErrNoSigner.
func New(signer core.Signer, opts ...Option) *Executor {
	x := &Executor{
		signer:          signer,
		stakingContract: chain.DefaultStakingContract,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	x.logger = x.logger.Named("executor")
	return x
}

// WithSigner returns a copy of the executor bound to a different signer.
// Sessions use it to execute with their own connected wallet.
func (x *Executor) WithSigner(signer core.Signer) *Executor {
	cp := *x
	cp.signer = signer
	return &cp
}

// Execute runs req to completion. It returns once the transaction is
// confirmed, failed, or the receipt watcher gave up waiting.
func (x *Executor) Execute(ctx context.Context, req core.ActionRequest) *Execution {
	exec := &Execution{
		ID:      uuid.New().String(),
		Request: req,
	}
	x.transition(exec, core.StatePending, core.ActionResult{})

	if req == nil {
		x.fail(exec, core.ErrorKindUnsupported, errors.Wrap(core.ErrValidation, "empty action request"))
		return exec
	}

	// Payment requests never touch the chain; the caller publishes them.
	if req.Kind() == core.ActionRequestPayment {
		x.transition(exec, core.StateConfirmed, core.ActionResult{Success: true})
		return exec
	}

	if x.signer == nil {
		x.fail(exec, core.ErrorKindExecution, core.ErrNoSigner)
		return exec
	}
	chainID := x.signer.ChainID()

	tx, err := x.build(chainID, req)
	if err != nil {
		x.fail(exec, core.ErrorKindUnsupported, err)
		return exec
	}

	hash, err := x.signer.SignAndSend(ctx, tx)
	if err != nil {
		x.fail(exec, classify(err), err)
		return exec
	}

	result := core.ActionResult{
		Success:         true,
		TransactionHash: hash,
		ExplorerURL:     core.ExplorerURL(chainID, hash),
	}
	x.transition(exec, core.StateSubmitted, result)
	x.logger.Info("action submitted",
		zap.String("execution_id", exec.ID),
		zap.String("kind", string(req.Kind())),
		zap.String("hash", hash))

	if x.watcher == nil {
		return exec
	}

	status, err := x.watcher.WaitForConfirmation(ctx, hash)
	if err != nil {
		x.logger.Warn("receipt lookup failed, leaving execution submitted",
			zap.String("hash", hash), zap.Error(err))
		return exec
	}
	switch status {
	case core.ConfirmationSuccess:
		x.transition(exec, core.StateConfirmed, result)
	case core.ConfirmationReverted:
		result.Success = false
		result.ErrorKind = core.ErrorKindReverted
		result.Error = "transaction reverted"
		x.transition(exec, core.StateFailed, result)
	}
	return exec
}

func (x *Executor) build(chainID int64, req core.ActionRequest) (core.ChainTx, error) {
	switch r := req.(type) {
	case *core.TransferRequest:
		return chain.BuildTransfer(chainID, r)
	case *core.StakeRequest:
		if chainID != core.ChainCeloMainnet {
			return core.ChainTx{}, errors.Errorf("staking is only available on %s", core.ChainName(core.ChainCeloMainnet))
		}
		return chain.BuildStake(x.stakingContract, r)
	default:
		return core.ChainTx{}, errors.Errorf("unsupported action %q", req.Kind())
	}
}

func (x *Executor) fail(exec *Execution, kind core.ErrorKind, err error) {
	result := core.ActionResult{
		ErrorKind:    kind,
		UserRejected: kind == core.ErrorKindUserRejected,
		Error:        err.Error(),
	}
	x.transition(exec, core.StateFailed, result)
	x.logger.Warn("action failed",
		zap.String("execution_id", exec.ID),
		zap.String("error_kind", string(kind)),
		zap.Error(err))
}

func (x *Executor) transition(exec *Execution, state core.ExecutionState, result core.ActionResult) {
	exec.mu.Lock()
	exec.state = state
	exec.result = result
	exec.updated = time.Now()
	exec.mu.Unlock()

	for _, o := range x.observers {
		o(exec)
	}
}

// userRejectedCode is the EIP-1193 code wallets return when the user
// declines a request.
const userRejectedCode = 4001

// classify maps a signer error to an ErrorKind.
func classify(err error) core.ErrorKind {
	if errors.Is(err, core.ErrUserRejected) {
		return core.ErrorKindUserRejected
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return core.ErrorKindUserRejected
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"):
		return core.ErrorKindUserRejected
	case strings.Contains(msg, "insufficient funds"):
		return core.ErrorKindInsufficientFunds
	case strings.Contains(msg, "execution reverted"):
		return core.ErrorKindReverted
	default:
		return core.ErrorKindExecution
	}
}
