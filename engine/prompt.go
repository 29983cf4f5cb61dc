package engine

import (
	"fmt"

	"github.com/derek2403/token2049/core"
)

// DefaultSystemPrompt is sent ahead of every conversation window.
const DefaultSystemPrompt = `You are a helpful AI assistant for crypto transactions on the Celo blockchain.
Help users understand and execute their crypto transactions using natural language.
Be concise, friendly, and security-conscious.

IMPORTANT FEATURES:
- Users can type @ to select contacts by name (converted to a wallet address before you see it)
- Users can type $ for USD amounts (converted to cUSD at a 1:1 ratio before you see it)
- You will receive wallet addresses (not contact names) in the processed input
- When parsing amounts, look for patterns like "30 cUSD" or "50 CELO"

AVAILABLE ACTIONS:
- transfer_funds: send CELO, cUSD or cEUR to a wallet address
- request_payment: ask one or more wallets to pay, splitting a total equally or using individual amounts
- stake_celo: stake CELO to earn rewards

Every action is shown to the user for confirmation before anything is signed.
If information is missing, ask for it instead of guessing.`

// Messages shown to the user. They mirror the wording of the chat UI.
const (
	msgCompletionFailed = "Sorry, I'm having trouble connecting to the AI service. Please try again."
	msgProcessingFailed = "Sorry, I encountered an error processing your request. Please try again."
	msgActionExpired    = "This request has expired. Please ask again."
	msgRequestUnpayable = "This payment request can't be paid. Ask the requester to send a new one."
	msgRequestDismissed = "Payment request dismissed."
	msgDismissFailed    = "Sorry, I couldn't dismiss that payment request. Please try again."
)

func noWalletMessage(kind core.ActionKind) string {
	switch kind {
	case core.ActionStake:
		return "No wallet connected. Please connect your wallet first to stake CELO."
	case core.ActionRequestPayment:
		return "No wallet connected. Please connect your wallet first to create payment requests."
	default:
		return "No wallet connected. Please connect your wallet first to make transfers."
	}
}

func readyMessage(req core.ActionRequest) string {
	switch r := req.(type) {
	case *core.TransferRequest:
		return fmt.Sprintf("Ready to transfer %s %s to %s", r.Amount, r.Token, r.Destination)
	case *core.PaymentRequest:
		return fmt.Sprintf("Ready to request %s %s from %d user(s)", r.TotalAmount, r.Token, len(r.FromAddresses))
	case *core.StakeRequest:
		return fmt.Sprintf("Ready to stake %s CELO to earn rewards", r.Amount)
	}
	return ""
}

func cancelledMessage(kind core.ActionKind) string {
	switch kind {
	case core.ActionStake:
		return "Staking cancelled. How else can I help you?"
	case core.ActionRequestPayment:
		return "Payment request cancelled. How else can I help you?"
	default:
		return "Transfer cancelled. How else can I help you?"
	}
}

// resultMessage describes the outcome of a chain action.
func resultMessage(kind core.ActionKind, state core.ExecutionState, res core.ActionResult) string {
	stake := kind == core.ActionStake
	switch {
	case state == core.StateConfirmed && stake:
		return "Staking completed successfully!"
	case state == core.StateConfirmed:
		return "Transfer completed successfully!"
	case state == core.StateSubmitted && stake:
		return "Staking transaction submitted! Waiting for confirmation..."
	case state == core.StateSubmitted:
		return "Transaction submitted! Waiting for confirmation..."
	case res.UserRejected && stake:
		return "Staking was cancelled. Let me know if you'd like to try again!"
	case res.UserRejected:
		return "Transaction was cancelled. Let me know if you'd like to try again!"
	case res.ErrorKind == core.ErrorKindInsufficientFunds && stake:
		return "Insufficient funds for staking. Make sure you have enough CELO."
	case res.ErrorKind == core.ErrorKindInsufficientFunds:
		return "Insufficient funds for this transfer"
	case res.ErrorKind == core.ErrorKindUnsupported && stake:
		return "Staking is only available on Celo mainnet."
	case stake:
		return "Sorry, there was an error executing the stake. Please try again."
	default:
		return "Sorry, there was an error executing the transaction. Please try again."
	}
}
