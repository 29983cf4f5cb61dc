package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/derek2403/token2049/core"
)

// Balance is a wallet's holding of one token.
type Balance struct {
	Token  core.Token `json:"tokenSymbol"`
	Amount string     `json:"amount"`
	Raw    *big.Int   `json:"-"`
}

// BalanceReader reads native and ERC-20 balances for a wallet.
type BalanceReader struct {
	backend Backend
	chainID int64
}

// NewBalanceReader reads balances on chainID through backend.
func NewBalanceReader(backend Backend, chainID int64) *BalanceReader {
	return &BalanceReader{backend: backend, chainID: chainID}
}

// BalanceOf returns the wallet's balance of a single token.
func (r *BalanceReader) BalanceOf(ctx context.Context, wallet string, token core.Token) (Balance, error) {
	if !common.IsHexAddress(wallet) {
		return Balance{}, errors.Wrapf(core.ErrValidation, "invalid wallet %q", wallet)
	}
	account := common.HexToAddress(wallet)

	var raw *big.Int
	if token.Native() {
		v, err := r.backend.BalanceAt(ctx, account, nil)
		if err != nil {
			return Balance{}, errors.Wrap(err, "get native balance")
		}
		raw = v
	} else {
		tokenAddr, ok := token.Address(r.chainID)
		if !ok {
			return Balance{}, errors.Errorf("token %s not supported on chain %d", token, r.chainID)
		}
		data, err := erc20ABI.Pack("balanceOf", account)
		if err != nil {
			return Balance{}, errors.Wrap(err, "pack balanceOf")
		}
		contract := common.HexToAddress(tokenAddr)
		out, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
		if err != nil {
			return Balance{}, errors.Wrapf(err, "call balanceOf on %s", token)
		}
		values, err := erc20ABI.Unpack("balanceOf", out)
		if err != nil {
			return Balance{}, errors.Wrapf(err, "decode %s balance", token)
		}
		v, ok := values[0].(*big.Int)
		if len(values) != 1 || !ok {
			return Balance{}, errors.Errorf("unexpected %s balance type %T", token, values[0])
		}
		raw = v
	}
	return Balance{Token: token, Amount: FromBaseUnits(raw, core.TokenDecimals), Raw: raw}, nil
}

// Balances reads every supported token concurrently, in core.Tokens order.
func (r *BalanceReader) Balances(ctx context.Context, wallet string) ([]Balance, error) {
	out := make([]Balance, len(core.Tokens))
	g, ctx := errgroup.WithContext(ctx)
	for i, token := range core.Tokens {
		g.Go(func() error {
			b, err := r.BalanceOf(ctx, wallet, token)
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
