package tools

import (
	"github.com/derek2403/token2049/core"
)

// Function names advertised to the completion model.
const (
	TransferFunds  = "transfer_funds"
	RequestPayment = "request_payment"
	StakeCelo      = "stake_celo"
)

func tokenProperty(description string) map[string]interface{} {
	return StringEnumProperty(description,
		string(core.TokenCELO), string(core.TokenCUSD), string(core.TokenCEUR))
}

// CeloToolDefinitions returns the payment functions the assistant may call.
// Every one of them prepares an action that the user must confirm.
func CeloToolDefinitions() []core.ToolDefinition {
	return []core.ToolDefinition{
		{
			ToolName:                 TransferFunds,
			ToolDescription:          "Transfer cryptocurrency tokens from the connected wallet to a destination address. Use this when the user wants to send, transfer, or pay tokens to someone.",
			RequiresUserConfirmation: true,
			SummaryTemplate:          "Transfer {{.amount}} {{.tokenSymbol}} to {{.destinationAddress}}",
			InputSchema: ObjectSchema(map[string]interface{}{
				"destinationAddress": StringProperty("The recipient's wallet address (0x... format). Must be a valid Ethereum/Celo address."),
				"amount":             StringProperty("The amount of tokens to transfer (e.g., '100', '0.5'). Must be a positive number."),
				"tokenSymbol":        tokenProperty("The token symbol to transfer (e.g., 'CELO', 'cUSD', 'cEUR'). Default is 'cUSD'."),
			}, "destinationAddress", "amount", "tokenSymbol"),
		},
		{
			ToolName:                 RequestPayment,
			ToolDescription:          "Request payment from one or more users. Can split a total amount equally among users, or specify individual amounts for each user. Use this when someone wants to request money, split a bill, or ask for payment.",
			RequiresUserConfirmation: true,
			SummaryTemplate:          "Request {{if .totalAmount}}{{.totalAmount}} {{end}}{{.tokenSymbol}} from {{len .fromAddresses}} user(s)",
			InputSchema: ObjectSchema(map[string]interface{}{
				"fromAddresses": ArrayProperty(
					"Array of wallet addresses to request payment from (0x... format). These are the people who need to pay.",
					map[string]interface{}{"type": "string"},
				),
				"totalAmount": StringProperty("The total amount being requested (e.g., '100', '45.50'). If splitting equally, this will be divided among all users. Optional if individualAmounts is provided."),
				"individualAmounts": MapProperty(
					"Optional: Specific amounts for each address. Keys are wallet addresses, values are amounts as strings.",
					map[string]interface{}{"type": "string"},
				),
				"tokenSymbol": tokenProperty("The token symbol for the payment request (e.g., 'CELO', 'cUSD', 'cEUR'). Default is 'cUSD'."),
				"description": StringProperty("Optional description of what the payment is for (e.g., 'Dinner at restaurant')"),
				"includeRequester": BooleanProperty("Set to true when the user also shares the bill, so the total is split among the listed users plus the user (e.g., 'I paid 60 for dinner with Bob and Carol, split it equally' means three shares of 20)."),
			}, "fromAddresses", "tokenSymbol"),
		},
		{
			ToolName:                 StakeCelo,
			ToolDescription:          "Stake CELO tokens to earn rewards. Use this when the user wants to save money, earn yield, or stake CELO for passive income.",
			RequiresUserConfirmation: true,
			SummaryTemplate:          "Stake {{.amount}} CELO",
			InputSchema: ObjectSchema(map[string]interface{}{
				"amount": StringProperty("The amount of CELO to stake (e.g., '100', '50.5'). Must be a positive number."),
			}, "amount"),
		},
	}
}
