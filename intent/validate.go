// Package intent validates proposed actions and turns them into executable
// requests. Nothing in this package performs I/O.
package intent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/derek2403/token2049/core"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddress reports whether s is a 0x-prefixed 40 hex digit address.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// ParseAmount parses a positive finite decimal amount.
func ParseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// Fields are the proposed arguments of an action, as extracted from a
// function call. Any of them may be empty.
type Fields struct {
	Destination   string            `json:"destinationAddress,omitempty"`
	Amount        string            `json:"amount,omitempty"`
	Token         string            `json:"tokenSymbol,omitempty"`
	FromAddresses []string          `json:"fromAddresses,omitempty"`
	TotalAmount   string            `json:"totalAmount,omitempty"`
	Amounts       map[string]string `json:"individualAmounts,omitempty"`
	Description   string            `json:"description,omitempty"`

	// IncludeRequester counts the requester as one of the people sharing
	// the total.
	IncludeRequester bool `json:"includeRequester,omitempty"`
}

// Validation is the verdict on a set of Fields. Missing lists absent
// fields, Errors lists malformed ones, so the caller can ask a follow-up
// question for the former and reject the latter.
type Validation struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Err returns nil for a valid result and an ErrValidation otherwise.
func (v Validation) Err() error {
	if v.Valid {
		return nil
	}
	var parts []string
	if len(v.Missing) > 0 {
		parts = append(parts, "missing required information: "+strings.Join(v.Missing, ", "))
	}
	parts = append(parts, v.Errors...)
	return errors.Wrap(core.ErrValidation, strings.Join(parts, ". "))
}

func (v *Validation) missing(field string) { v.Missing = append(v.Missing, field) }

func (v *Validation) errorf(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) done() Validation {
	v.Valid = len(v.Missing) == 0 && len(v.Errors) == 0
	return *v
}

// Validator checks Fields per action kind.
type Validator struct {
	// MinStake is the smallest accepted stake; zero disables the check.
	MinStake decimal.Decimal
}

// DefaultMinStake is the smallest stake, in CELO, accepted by default.
var DefaultMinStake = decimal.NewFromInt(1)

// NewValidator returns a validator enforcing the default minimum stake.
func NewValidator() *Validator {
	return &Validator{MinStake: DefaultMinStake}
}

// Validate checks fields for the given action kind.
func Validate(kind core.ActionKind, f Fields) Validation {
	return NewValidator().Validate(kind, f)
}

// Validate checks fields for the given action kind.
func (val *Validator) Validate(kind core.ActionKind, f Fields) Validation {
	switch kind {
	case core.ActionTransfer:
		return val.transfer(f)
	case core.ActionRequestPayment:
		return val.requestPayment(f)
	case core.ActionStake:
		return val.stake(f)
	default:
		v := Validation{}
		v.errorf("unknown action %q", kind)
		return v.done()
	}
}

func (val *Validator) transfer(f Fields) Validation {
	var v Validation
	if f.Destination == "" {
		v.missing("destination address")
	} else if !IsAddress(f.Destination) {
		v.errorf("invalid destination address format %q, must be a 0x-prefixed 40 character hex address", f.Destination)
	}
	val.checkAmount(&v, "amount", f.Amount)
	val.checkToken(&v, f.Token)
	return v.done()
}

func (val *Validator) requestPayment(f Fields) Validation {
	var v Validation
	if len(f.FromAddresses) == 0 {
		v.missing("recipient addresses (people to request from)")
	}
	for _, addr := range f.FromAddresses {
		if !IsAddress(addr) {
			v.errorf("invalid address format %q", addr)
		}
	}
	val.checkToken(&v, f.Token)

	if f.TotalAmount == "" && len(f.Amounts) == 0 {
		v.missing("amount (either total amount to split or individual amounts)")
	}
	if f.TotalAmount != "" {
		if _, ok := ParseAmount(f.TotalAmount); !ok {
			v.errorf("invalid total amount %q, must be a positive number", f.TotalAmount)
		}
	}
	for _, addr := range sortedKeys(f.Amounts) {
		if !IsAddress(addr) {
			v.errorf("invalid address in individual amounts %q", addr)
		}
		if _, ok := ParseAmount(f.Amounts[addr]); !ok {
			v.errorf("invalid amount for %s: %q, must be a positive number", addr, f.Amounts[addr])
		}
	}
	return v.done()
}

func (val *Validator) stake(f Fields) Validation {
	var v Validation
	amount, ok := val.checkAmount(&v, "amount", f.Amount)
	if ok && val.MinStake.IsPositive() && amount.LessThan(val.MinStake) {
		v.errorf("amount too small, minimum stake is %s CELO", val.MinStake.String())
	}
	return v.done()
}

func (val *Validator) checkAmount(v *Validation, name, s string) (decimal.Decimal, bool) {
	if s == "" {
		v.missing(name)
		return decimal.Zero, false
	}
	d, ok := ParseAmount(s)
	if !ok {
		v.errorf("invalid %s %q, must be a positive number", name, s)
	}
	return d, ok
}

func (val *Validator) checkToken(v *Validation, s string) {
	if s == "" {
		v.missing("token symbol")
		return
	}
	if _, err := core.ParseToken(s); err != nil {
		v.errorf("invalid token symbol %q, must be CELO, cUSD, or cEUR", s)
	}
}
