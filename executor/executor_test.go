package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/chain"
	"github.com/derek2403/token2049/core"
)

const wallet = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"

type fakeSigner struct {
	mu      sync.Mutex
	chainID int64
	err     error
	sent    []core.ChainTx
}

func (f *fakeSigner) Address() string { return "0x0000000000000000000000000000000000000001" }
func (f *fakeSigner) ChainID() int64  { return f.chainID }

func (f *fakeSigner) SignAndSend(_ context.Context, tx core.ChainTx) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, tx)
	return fmt.Sprintf("0x%064x", len(f.sent)), nil
}

type fakeWatcher struct {
	status core.ConfirmationStatus
	err    error
}

func (f fakeWatcher) WaitForConfirmation(context.Context, string) (core.ConfirmationStatus, error) {
	return f.status, f.err
}

type codeError struct{ code int }

func (e codeError) Error() string  { return "wallet error" }
func (e codeError) ErrorCode() int { return e.code }

func transfer(token core.Token) *core.TransferRequest {
	return &core.TransferRequest{Destination: wallet, Amount: "1.5", Token: token}
}

func TestExecuteTransferConfirmed(t *testing.T) {
	signer := &fakeSigner{chainID: core.ChainAlfajores}
	var states []core.ExecutionState
	x := New(signer,
		WithReceiptWatcher(fakeWatcher{status: core.ConfirmationSuccess}),
		WithObserver(func(e *Execution) { states = append(states, e.State()) }))

	exec := x.Execute(context.Background(), transfer(core.TokenCELO))

	assert.Equal(t, core.StateConfirmed, exec.State())
	assert.Equal(t, []core.ExecutionState{core.StatePending, core.StateSubmitted, core.StateConfirmed}, states)

	result := exec.Result()
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.TransactionHash)
	assert.Equal(t, "https://alfajores.celoscan.io/tx/"+result.TransactionHash, result.ExplorerURL)

	require.Len(t, signer.sent, 1)
	assert.Equal(t, "1500000000000000000", signer.sent[0].Value.String())
	assert.Empty(t, signer.sent[0].Data)
}

func TestExecuteStablecoinCallsTokenContract(t *testing.T) {
	signer := &fakeSigner{chainID: core.ChainCeloMainnet}
	exec := New(signer).Execute(context.Background(), transfer(core.TokenCUSD))

	assert.Equal(t, core.StateSubmitted, exec.State())
	assert.True(t, exec.Result().Success)

	require.Len(t, signer.sent, 1)
	cusd, _ := core.TokenCUSD.Address(core.ChainCeloMainnet)
	assert.Equal(t, cusd, signer.sent[0].To)
	assert.Zero(t, signer.sent[0].Value.Sign())
	assert.Len(t, signer.sent[0].Data, 4+32+32)
}

func TestExecuteReverted(t *testing.T) {
	signer := &fakeSigner{chainID: core.ChainAlfajores}
	x := New(signer, WithReceiptWatcher(fakeWatcher{status: core.ConfirmationReverted}))

	exec := x.Execute(context.Background(), transfer(core.TokenCELO))
	assert.Equal(t, core.StateFailed, exec.State())
	assert.False(t, exec.Result().Success)
	assert.Equal(t, core.ErrorKindReverted, exec.Result().ErrorKind)
	assert.NotEmpty(t, exec.Result().TransactionHash)
}

func TestExecuteWatcherGivesUp(t *testing.T) {
	signer := &fakeSigner{chainID: core.ChainAlfajores}
	x := New(signer, WithReceiptWatcher(fakeWatcher{status: core.ConfirmationPending}))

	exec := x.Execute(context.Background(), transfer(core.TokenCELO))
	assert.Equal(t, core.StateSubmitted, exec.State())
	assert.True(t, exec.Result().Success)

	x = New(signer, WithReceiptWatcher(fakeWatcher{err: errors.New("rpc down")}))
	exec = x.Execute(context.Background(), transfer(core.TokenCELO))
	assert.Equal(t, core.StateSubmitted, exec.State())
}

func TestExecuteUserRejected(t *testing.T) {
	cases := map[string]error{
		"sentinel": errors.Wrap(core.ErrUserRejected, "wallet"),
		"message":  errors.New("MetaMask Tx Signature: User rejected the request."),
		"code":     errors.Wrap(codeError{code: 4001}, "sign"),
	}
	for name, err := range cases {
		t.Run(name, func(t *testing.T) {
			exec := New(&fakeSigner{chainID: core.ChainAlfajores, err: err}).
				Execute(context.Background(), transfer(core.TokenCELO))

			assert.Equal(t, core.StateFailed, exec.State())
			result := exec.Result()
			assert.False(t, result.Success)
			assert.True(t, result.UserRejected)
			assert.Equal(t, core.ErrorKindUserRejected, result.ErrorKind)
		})
	}
}

func TestExecuteInsufficientFunds(t *testing.T) {
	signer := &fakeSigner{chainID: core.ChainAlfajores, err: errors.New("insufficient funds for gas * price + value")}
	exec := New(signer).Execute(context.Background(), transfer(core.TokenCELO))

	assert.Equal(t, core.StateFailed, exec.State())
	assert.Equal(t, core.ErrorKindInsufficientFunds, exec.Result().ErrorKind)
	assert.False(t, exec.Result().UserRejected)
}

func TestExecuteOtherError(t *testing.T) {
	signer := &fakeSigner{chainID: core.ChainAlfajores, err: errors.New("nonce too low")}
	exec := New(signer).Execute(context.Background(), transfer(core.TokenCELO))

	assert.Equal(t, core.ErrorKindExecution, exec.Result().ErrorKind)
	assert.Contains(t, exec.Result().Error, "nonce too low")
}

func TestExecuteNoSigner(t *testing.T) {
	exec := New(nil).Execute(context.Background(), transfer(core.TokenCELO))
	assert.Equal(t, core.StateFailed, exec.State())
	assert.Equal(t, core.ErrNoSigner.Error(), exec.Result().Error)
}

func TestExecuteStake(t *testing.T) {
	signer := &fakeSigner{chainID: core.ChainCeloMainnet}
	exec := New(signer).Execute(context.Background(), &core.StakeRequest{Amount: "2"})

	assert.Equal(t, core.StateSubmitted, exec.State())
	require.Len(t, signer.sent, 1)
	assert.True(t, strings.EqualFold(chain.DefaultStakingContract, signer.sent[0].To))
	assert.Equal(t, "2000000000000000000", signer.sent[0].Value.String())
	assert.NotEmpty(t, signer.sent[0].Data)
}

func TestExecuteStakeWrongChain(t *testing.T) {
	signer := &fakeSigner{chainID: core.ChainAlfajores}
	exec := New(signer).Execute(context.Background(), &core.StakeRequest{Amount: "2"})

	assert.Equal(t, core.StateFailed, exec.State())
	assert.Equal(t, core.ErrorKindUnsupported, exec.Result().ErrorKind)
	assert.Empty(t, signer.sent)
}

func TestExecutePaymentRequestSkipsChain(t *testing.T) {
	signer := &fakeSigner{chainID: core.ChainAlfajores}
	exec := New(signer).Execute(context.Background(), &core.PaymentRequest{
		FromAddresses: []string{wallet},
		TotalAmount:   "10",
		Token:         core.TokenCUSD,
	})

	assert.Equal(t, core.StateConfirmed, exec.State())
	assert.True(t, exec.Result().Success)
	assert.Empty(t, signer.sent)
}

func TestExecuteDoesNotDeduplicate(t *testing.T) {
	signer := &fakeSigner{chainID: core.ChainAlfajores}
	x := New(signer)
	req := transfer(core.TokenCUSD)

	first := x.Execute(context.Background(), req)
	second := x.Execute(context.Background(), req)

	assert.Len(t, signer.sent, 2)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Result().TransactionHash, second.Result().TransactionHash)
}

func TestWithSigner(t *testing.T) {
	base := New(nil)
	signer := &fakeSigner{chainID: core.ChainAlfajores}

	exec := base.WithSigner(signer).Execute(context.Background(), transfer(core.TokenCELO))
	assert.Equal(t, core.StateSubmitted, exec.State())

	exec = base.Execute(context.Background(), transfer(core.TokenCELO))
	assert.Equal(t, core.StateFailed, exec.State())
}
