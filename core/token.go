package core

import (
	"fmt"
	"strings"
)

// Token is a supported Celo asset.
type Token string

const (
	TokenCELO Token = "CELO"
	TokenCUSD Token = "cUSD"
	TokenCEUR Token = "cEUR"
)

// TokenDecimals is shared by every supported token.
const TokenDecimals = 18

// Celo chain identifiers.
const (
	ChainCeloMainnet int64 = 42220
	ChainAlfajores   int64 = 44787
)

// Tokens lists every supported token in display order.
var Tokens = []Token{TokenCELO, TokenCUSD, TokenCEUR}

var tokenAddresses = map[int64]map[Token]string{
	ChainCeloMainnet: {
		TokenCELO: "0x471EcE3750Da237f93B8E339c536989b8978a438",
		TokenCUSD: "0x765DE816845861e75A25fCA122bb6898B8B1282a",
		TokenCEUR: "0xD8763CBa276a3738E6DE85b4b3bF5FDed6D6cA73",
	},
	ChainAlfajores: {
		TokenCELO: "0xF194afDf50B03e69Bd7D057c1Aa9e10c9954E4C9",
		TokenCUSD: "0x874069Fa1Eb16D44d622F2e0Ca25eeA172369bC1",
		TokenCEUR: "0x10c892A6EC43a53E45D0B916B4b7D383B1b78C0F",
	},
}

// ParseToken matches a token symbol case-insensitively.
func ParseToken(s string) (Token, error) {
	for _, t := range Tokens {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unsupported token %q", s)
}

// Native reports whether the token is the chain's native currency.
// Native transfers carry value instead of calling the ERC-20 contract.
func (t Token) Native() bool {
	return t == TokenCELO
}

// Address returns the token contract on the given chain.
func (t Token) Address(chainID int64) (string, bool) {
	byToken, ok := tokenAddresses[chainID]
	if !ok {
		return "", false
	}
	addr, ok := byToken[t]
	return addr, ok
}

// ExplorerURL returns the block explorer link for a transaction hash.
func ExplorerURL(chainID int64, hash string) string {
	if chainID == ChainAlfajores {
		return "https://alfajores.celoscan.io/tx/" + hash
	}
	return "https://celoscan.io/tx/" + hash
}

// ChainName returns a human readable network name.
func ChainName(chainID int64) string {
	switch chainID {
	case ChainCeloMainnet:
		return "Celo"
	case ChainAlfajores:
		return "Celo Alfajores"
	default:
		return fmt.Sprintf("chain %d", chainID)
	}
}
