package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/derek2403/token2049/core"
)

// BuildTransfer prepares a transfer. CELO is sent as native value; the
// stablecoins call transfer(address,uint256) on their token contract.
func BuildTransfer(chainID int64, req *core.TransferRequest) (core.ChainTx, error) {
	amount, err := ToBaseUnits(req.Amount, core.TokenDecimals)
	if err != nil {
		return core.ChainTx{}, err
	}
	if !common.IsHexAddress(req.Destination) {
		return core.ChainTx{}, errors.Wrapf(core.ErrValidation, "invalid destination %q", req.Destination)
	}
	to := common.HexToAddress(req.Destination)

	if req.Token.Native() {
		return core.ChainTx{To: to.Hex(), Value: amount}, nil
	}

	tokenAddr, ok := req.Token.Address(chainID)
	if !ok {
		return core.ChainTx{}, errors.Errorf("token %s not supported on chain %d", req.Token, chainID)
	}
	data, err := erc20ABI.Pack("transfer", to, amount)
	if err != nil {
		return core.ChainTx{}, errors.Wrap(err, "pack transfer")
	}
	return core.ChainTx{To: tokenAddr, Value: new(big.Int), Data: data}, nil
}

// BuildStake prepares a payable deposit on the staking contract.
func BuildStake(contract string, req *core.StakeRequest) (core.ChainTx, error) {
	amount, err := ToBaseUnits(req.Amount, core.TokenDecimals)
	if err != nil {
		return core.ChainTx{}, err
	}
	if contract == "" {
		contract = DefaultStakingContract
	}
	data, err := stakedCeloABI.Pack("deposit", StakeMinOut)
	if err != nil {
		return core.ChainTx{}, errors.Wrap(err, "pack deposit")
	}
	return core.ChainTx{To: common.HexToAddress(contract).Hex(), Value: amount, Data: data}, nil
}
