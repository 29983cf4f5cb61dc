package core

// Contact is an entry of the static contact directory.
type Contact struct {
	Name   string `json:"name" yaml:"name"`
	Phone  string `json:"phone" yaml:"phone"`
	Wallet string `json:"wallet" yaml:"wallet"`
}

// ResolvedMention is an @name token that matched a directory contact.
type ResolvedMention struct {
	// Original is the token exactly as it appeared in the input, including "@".
	Original      string `json:"original"`
	WalletAddress string `json:"walletAddress"`
	DisplayName   string `json:"displayName"`
}

// ResolvedAmount is a $amount token converted to the settlement token.
type ResolvedAmount struct {
	// Original is the token exactly as it appeared in the input, including "$".
	Original    string `json:"original"`
	USDValue    string `json:"usdValue"`
	TokenAmount string `json:"tokenAmount"`
}
