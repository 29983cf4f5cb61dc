package chain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/core"
)

// KeySigner signs with a local private key and submits through a Backend.
// It stands in for a browser wallet in the CLI and server deployments.
type KeySigner struct {
	backend Backend
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	logger  *zap.Logger
}

// NewKeySigner parses a hex private key (with or without 0x) for chainID.
func NewKeySigner(backend Backend, hexKey string, chainID int64, logger *zap.Logger) (*KeySigner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	return &KeySigner{
		backend: backend,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: big.NewInt(chainID),
		logger:  logger.Named("signer"),
	}, nil
}

// Address returns the checksummed signer address.
func (s *KeySigner) Address() string { return s.address.Hex() }

// ChainID returns the chain the signer submits to.
func (s *KeySigner) ChainID() int64 { return s.chainID.Int64() }

// SignAndSend fills nonce, gas and fees, signs and broadcasts tx.
// A dynamic fee transaction is used when the latest header carries a base
// fee, otherwise a legacy one.
func (s *KeySigner) SignAndSend(ctx context.Context, tx core.ChainTx) (string, error) {
	if !common.IsHexAddress(tx.To) {
		return "", errors.Wrapf(core.ErrValidation, "invalid recipient %q", tx.To)
	}
	to := common.HexToAddress(tx.To)
	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := s.backend.PendingNonceAt(ctx, s.address)
	if err != nil {
		return "", errors.Wrap(err, "get nonce")
	}
	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.address,
		To:    &to,
		Value: value,
		Data:  tx.Data,
	})
	if err != nil {
		return "", errors.Wrap(err, "estimate gas")
	}

	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "get latest header")
	}

	var unsigned *types.Transaction
	if head.BaseFee != nil {
		tip, err := s.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return "", errors.Wrap(err, "suggest tip cap")
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		unsigned = types.NewTx(&types.DynamicFeeTx{
			ChainID:   s.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      tx.Data,
		})
	} else {
		price, err := s.backend.SuggestGasPrice(ctx)
		if err != nil {
			return "", errors.Wrap(err, "suggest gas price")
		}
		unsigned = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     tx.Data,
		})
	}

	signed, err := types.SignTx(unsigned, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return "", errors.Wrap(err, "sign transaction")
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return "", errors.Wrap(err, "send transaction")
	}

	hash := signed.Hash().Hex()
	s.logger.Info("transaction submitted",
		zap.String("hash", hash),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas))
	return hash, nil
}
