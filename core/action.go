package core

import (
	"encoding/json"
	"time"
)

// ActionKind names the three actions the assistant can prepare.
type ActionKind string

const (
	ActionTransfer       ActionKind = "transfer"
	ActionRequestPayment ActionKind = "requestPayment"
	ActionStake          ActionKind = "stake"
)

// ActionRequest is a validated, executable intent. Exactly one of
// TransferRequest, PaymentRequest or StakeRequest.
type ActionRequest interface {
	Kind() ActionKind
}

// TransferRequest sends Amount of Token to Destination.
type TransferRequest struct {
	Destination string `json:"destinationAddress"`
	Amount      string `json:"amount"`
	Token       Token  `json:"tokenSymbol"`
}

func (*TransferRequest) Kind() ActionKind { return ActionTransfer }

// PaymentRequest asks one or more payers for funds. Amounts maps each payer
// address to the amount owed; it is filled by the split calculator.
type PaymentRequest struct {
	FromAddresses []string          `json:"fromAddresses"`
	TotalAmount   string            `json:"totalAmount,omitempty"`
	Amounts       map[string]string `json:"individualAmounts,omitempty"`
	Token         Token             `json:"tokenSymbol"`
	Description   string            `json:"description,omitempty"`
}

func (*PaymentRequest) Kind() ActionKind { return ActionRequestPayment }

// StakeRequest deposits Amount CELO into the liquid staking contract.
type StakeRequest struct {
	Amount string `json:"amount"`
}

func (*StakeRequest) Kind() ActionKind { return ActionStake }

// ErrorKind classifies a failed execution.
type ErrorKind string

const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindUserRejected      ErrorKind = "user_rejected"
	ErrorKindInsufficientFunds ErrorKind = "insufficient_funds"
	ErrorKindReverted          ErrorKind = "reverted"
	ErrorKindUnsupported       ErrorKind = "unsupported"
	ErrorKindExecution         ErrorKind = "execution"
)

// ActionResult is the outcome of executing an ActionRequest.
type ActionResult struct {
	Success         bool      `json:"success"`
	TransactionHash string    `json:"transactionHash,omitempty"`
	ExplorerURL     string    `json:"explorerUrl,omitempty"`
	ErrorKind       ErrorKind `json:"errorKind,omitempty"`
	UserRejected    bool      `json:"userRejected,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// ExecutionState tracks an action through the executor.
type ExecutionState string

const (
	StatePending   ExecutionState = "pending"
	StateSubmitted ExecutionState = "submitted"
	StateConfirmed ExecutionState = "confirmed"
	StateFailed    ExecutionState = "failed"
)

// Terminal reports whether no further transition can happen.
func (s ExecutionState) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// PendingAction is an action awaiting user confirmation.
type PendingAction struct {
	ID             string         `json:"id"`
	IdempotencyKey string         `json:"idempotencyKey"`
	SessionID      string         `json:"sessionId"`
	Request        ActionRequest  `json:"request"`
	Summary        string         `json:"summary"`
	State          ExecutionState `json:"state"`
	CreatedAt      int64          `json:"createdAt"`
	ExpiresAt      int64          `json:"expiresAt"`
}

// Expired reports whether the confirmation window has passed.
func (p *PendingAction) Expired(now time.Time) bool {
	return p.ExpiresAt > 0 && now.Unix() > p.ExpiresAt
}

// MarshalJSON includes the action kind so clients can render the request.
func (p *PendingAction) MarshalJSON() ([]byte, error) {
	type alias PendingAction
	var kind ActionKind
	if p.Request != nil {
		kind = p.Request.Kind()
	}
	return json.Marshal(struct {
		*alias
		Kind ActionKind `json:"kind"`
	}{alias: (*alias)(p), Kind: kind})
}

// Trace records one executed action for memory and audit.
type Trace struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"sessionId"`
	Action      string            `json:"action"`
	ActionInput json.RawMessage   `json:"actionInput"`
	Observation string            `json:"observation"`
	Success     bool              `json:"success"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   int64             `json:"timestamp"`
}
