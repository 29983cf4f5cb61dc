package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20JSON = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

// stakedCeloJSON pins the liquid staking entry point: a payable
// deposit(uint256 minOut) returning the minted shares.
const stakedCeloJSON = `[
	{"type":"function","name":"deposit","stateMutability":"payable",
	 "inputs":[{"name":"minOut","type":"uint256"}],
	 "outputs":[{"name":"shares","type":"uint256"}]}
]`

var (
	erc20ABI      = mustParseABI(erc20JSON)
	stakedCeloABI = mustParseABI(stakedCeloJSON)
)

// DefaultStakingContract is the stCELO contract on Celo mainnet.
const DefaultStakingContract = "0xC668583dcbDc9ae6FA3CE46462758188adfdfC24"

// StakeMinOut is the minimum share output accepted by deposit.
var StakeMinOut = big.NewInt(1)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("invalid ABI: " + err.Error())
	}
	return parsed
}
