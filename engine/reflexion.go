package engine

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/tools"
)

// GenerateIdempotencyKey derives a stable key for a wallet proposing the
// same call with the same arguments.
func GenerateIdempotencyKey(wallet, tool string, input json.RawMessage) string {
	h := crypto.Keccak256Hash([]byte(strings.ToLower(wallet)), []byte(tool), input)
	return h.Hex()[2:34]
}

// categorizeError maps an execution failure to an error type for reflexion.
func categorizeError(kind core.ErrorKind, errMsg string) string {
	switch kind {
	case core.ErrorKindInsufficientFunds:
		return "insufficient_balance"
	case core.ErrorKindUserRejected:
		return "user_rejected"
	case core.ErrorKindReverted:
		return "reverted"
	case core.ErrorKindUnsupported:
		return "unsupported"
	}
	if errMsg == "" {
		return "unknown"
	}

	errLower := strings.ToLower(errMsg)
	switch {
	case strings.Contains(errLower, "insufficient"), strings.Contains(errLower, "not enough"):
		return "insufficient_balance"
	case strings.Contains(errLower, "nonce"):
		return "nonce"
	case strings.Contains(errLower, "gas"):
		return "gas"
	case strings.Contains(errLower, "invalid"), strings.Contains(errLower, "malformed"):
		return "invalid_input"
	case strings.Contains(errLower, "timeout"), strings.Contains(errLower, "deadline"):
		return "timeout"
	case strings.Contains(errLower, "rate limit"), strings.Contains(errLower, "too many"):
		return "rate_limit"
	case strings.Contains(errLower, "network"), strings.Contains(errLower, "connection"):
		return "network_error"
	default:
		return "unknown"
	}
}

var preventions = map[string]string{
	tools.TransferFunds + ":insufficient_balance": "Check the token balance covers the amount and gas before transferring",
	tools.TransferFunds + ":reverted":             "Confirm the token is supported on this network and the amount fits the balance",
	tools.TransferFunds + ":invalid_input":        "Resolve the recipient to a full 0x address before transferring",
	tools.StakeCelo + ":insufficient_balance":     "Keep enough CELO for the stake plus gas",
	tools.StakeCelo + ":unsupported":              "Staking is only available on Celo mainnet",
	tools.StakeCelo + ":reverted":                 "Check the staking contract accepts deposits of this size",
	tools.RequestPayment + ":invalid_input":       "Use resolved wallet addresses for every payer",
}

// generatePrevention suggests how to avoid this failure next time.
func generatePrevention(action, errorType string) string {
	if prevention, ok := preventions[action+":"+errorType]; ok {
		return prevention
	}

	switch errorType {
	case "insufficient_balance":
		return "Check balance before attempting the action"
	case "user_rejected":
		return "The user declined in their wallet; ask before retrying"
	case "invalid_input":
		return "Validate input parameters before submission"
	case "rate_limit":
		return "Retry after a short wait"
	case "timeout", "network_error":
		return "Retry once the network is reachable"
	default:
		return "Review error message and adjust approach accordingly"
	}
}
