package chain

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/core"
)

const (
	testKey    = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testWallet = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"
)

type fakeBackend struct {
	mu       sync.Mutex
	baseFee  *big.Int
	sent     []*types.Transaction
	receipts map[common.Hash][]*types.Receipt
	balances map[common.Address]*big.Int
	calls    []ethereum.CallMsg
	callOut  []byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		receipts: make(map[common.Hash][]*types.Receipt),
		balances: make(map[common.Address]*big.Int),
	}
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(core.ChainAlfajores), nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: f.baseFee}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(5_000_000_000), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

// TransactionReceipt pops queued receipts; a nil entry means not yet mined.
func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.receipts[hash]
	if len(queue) == 0 {
		return nil, ethereum.NotFound
	}
	next := queue[0]
	if len(queue) > 1 {
		f.receipts[hash] = queue[1:]
	}
	if next == nil {
		return nil, ethereum.NotFound
	}
	return next, nil
}

func (f *fakeBackend) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	if v, ok := f.balances[account]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	return f.callOut, nil
}

func TestToBaseUnits(t *testing.T) {
	v, err := ToBaseUnits("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = ToBaseUnits("0.000000000000000001", 18)
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())

	_, err = ToBaseUnits("0.0000000000000000001", 18)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = ToBaseUnits("-1", 18)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = ToBaseUnits("abc", 18)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestFromBaseUnits(t *testing.T) {
	assert.Equal(t, "2.25", FromBaseUnits(big.NewInt(0).Mul(big.NewInt(225), big.NewInt(1e16)), 18))
	assert.Equal(t, "0", FromBaseUnits(nil, 18))
}

func TestBuildTransferNative(t *testing.T) {
	tx, err := BuildTransfer(core.ChainAlfajores, &core.TransferRequest{
		Destination: testWallet,
		Amount:      "2",
		Token:       core.TokenCELO,
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testWallet).Hex(), tx.To)
	assert.Equal(t, "2000000000000000000", tx.Value.String())
	assert.Empty(t, tx.Data)
}

func TestBuildTransferStablecoin(t *testing.T) {
	tx, err := BuildTransfer(core.ChainAlfajores, &core.TransferRequest{
		Destination: testWallet,
		Amount:      "10",
		Token:       core.TokenCUSD,
	})
	require.NoError(t, err)

	cusd, _ := core.TokenCUSD.Address(core.ChainAlfajores)
	assert.Equal(t, cusd, tx.To)
	assert.Zero(t, tx.Value.Sign())

	method, err := erc20ABI.MethodById(tx.Data[:4])
	require.NoError(t, err)
	assert.Equal(t, "transfer", method.Name)

	args, err := method.Inputs.Unpack(tx.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testWallet), args[0])
	assert.Equal(t, "10000000000000000000", args[1].(*big.Int).String())
}

func TestBuildTransferUnknownChain(t *testing.T) {
	_, err := BuildTransfer(1, &core.TransferRequest{Destination: testWallet, Amount: "1", Token: core.TokenCEUR})
	assert.Error(t, err)
}

func TestBuildStake(t *testing.T) {
	tx, err := BuildStake("", &core.StakeRequest{Amount: "3"})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(DefaultStakingContract).Hex(), tx.To)
	assert.Equal(t, "3000000000000000000", tx.Value.String())

	method, err := stakedCeloABI.MethodById(tx.Data[:4])
	require.NoError(t, err)
	assert.Equal(t, "deposit", method.Name)
}

func TestKeySignerLegacy(t *testing.T) {
	backend := newFakeBackend()
	signer, err := NewKeySigner(backend, "0x"+testKey, core.ChainAlfajores, nil)
	require.NoError(t, err)

	key, _ := crypto.HexToECDSA(testKey)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), signer.Address())
	assert.Equal(t, core.ChainAlfajores, signer.ChainID())

	hash, err := signer.SignAndSend(context.Background(), core.ChainTx{To: testWallet, Value: big.NewInt(42)})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	sent := backend.sent[0]
	assert.Equal(t, hash, sent.Hash().Hex())
	assert.Equal(t, uint8(types.LegacyTxType), sent.Type())
	assert.Equal(t, "42", sent.Value().String())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(core.ChainAlfajores)), sent)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), from.Hex())
}

func TestKeySignerDynamicFee(t *testing.T) {
	backend := newFakeBackend()
	backend.baseFee = big.NewInt(25_000_000_000)
	signer, err := NewKeySigner(backend, testKey, core.ChainAlfajores, nil)
	require.NoError(t, err)

	_, err = signer.SignAndSend(context.Background(), core.ChainTx{To: testWallet})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	sent := backend.sent[0]
	assert.Equal(t, uint8(types.DynamicFeeTxType), sent.Type())
	assert.Equal(t, "51000000000", sent.GasFeeCap().String())
	assert.Equal(t, uint64(1), mustNonce(t, signer, backend))
}

func mustNonce(t *testing.T, s *KeySigner, b *fakeBackend) uint64 {
	t.Helper()
	n, err := b.PendingNonceAt(context.Background(), common.HexToAddress(s.Address()))
	require.NoError(t, err)
	return n
}

func TestKeySignerRejectsBadKey(t *testing.T) {
	_, err := NewKeySigner(newFakeBackend(), "not-a-key", core.ChainAlfajores, nil)
	assert.Error(t, err)
}

func TestReceiptPoller(t *testing.T) {
	backend := newFakeBackend()
	ok := common.HexToHash("0x01")
	bad := common.HexToHash("0x02")
	backend.receipts[ok] = []*types.Receipt{nil, nil, {Status: types.ReceiptStatusSuccessful}}
	backend.receipts[bad] = []*types.Receipt{{Status: types.ReceiptStatusFailed}}

	poller := &ReceiptPoller{Backend: backend, Interval: time.Millisecond, MaxAttempts: 10}

	status, err := poller.WaitForConfirmation(context.Background(), ok.Hex())
	require.NoError(t, err)
	assert.Equal(t, core.ConfirmationSuccess, status)

	status, err = poller.WaitForConfirmation(context.Background(), bad.Hex())
	require.NoError(t, err)
	assert.Equal(t, core.ConfirmationReverted, status)

	status, err = poller.WaitForConfirmation(context.Background(), common.HexToHash("0x03").Hex())
	require.NoError(t, err)
	assert.Equal(t, core.ConfirmationPending, status)
}

func TestReceiptPollerCancelled(t *testing.T) {
	poller := &ReceiptPoller{Backend: newFakeBackend(), Interval: time.Hour, MaxAttempts: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := poller.WaitForConfirmation(ctx, common.HexToHash("0x04").Hex())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, core.ConfirmationPending, status)
}

func TestBalances(t *testing.T) {
	backend := newFakeBackend()
	backend.balances[common.HexToAddress(testWallet)] = big.NewInt(0).Mul(big.NewInt(3), big.NewInt(1e18))
	out, err := erc20ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(5e17))
	require.NoError(t, err)
	backend.callOut = out

	reader := NewBalanceReader(backend, core.ChainAlfajores)
	balances, err := reader.Balances(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, balances, 3)

	assert.Equal(t, core.TokenCELO, balances[0].Token)
	assert.Equal(t, "3", balances[0].Amount)
	assert.Equal(t, core.TokenCUSD, balances[1].Token)
	assert.Equal(t, "0.5", balances[1].Amount)
	assert.Equal(t, "0.5", balances[2].Amount)
	assert.Len(t, backend.calls, 2)
}

func TestBalanceOfInvalidWallet(t *testing.T) {
	_, err := NewBalanceReader(newFakeBackend(), core.ChainAlfajores).BalanceOf(context.Background(), "bob", core.TokenCELO)
	assert.ErrorIs(t, err, core.ErrValidation)
}
