package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Backend is the subset of the JSON-RPC client used here.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Default public RPC endpoints.
const (
	MainnetRPC   = "https://forno.celo.org"
	AlfajoresRPC = "https://alfajores-forno.celo-testnet.org"
)

// Dial connects to the first reachable endpoint. The first URL is primary;
// the rest are fallbacks. An endpoint counts as reachable once it answers
// eth_chainId.
func Dial(ctx context.Context, logger *zap.Logger, urls ...string) (*ethclient.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var lastErr error
	for _, url := range urls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			lastErr = err
			logger.Warn("rpc dial failed", zap.String("url", url), zap.Error(err))
			continue
		}
		if _, err := client.ChainID(ctx); err != nil {
			client.Close()
			lastErr = err
			logger.Warn("rpc endpoint unhealthy", zap.String("url", url), zap.Error(err))
			continue
		}
		logger.Info("connected to rpc", zap.String("url", url))
		return client, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no rpc endpoints configured")
	}
	return nil, errors.Wrap(lastErr, "all rpc endpoints failed")
}
