package intent

import (
	"github.com/pkg/errors"

	"github.com/derek2403/token2049/core"
)

// Build turns validated fields into an executable request. For payment
// requests the split is computed and returned alongside.
func (val *Validator) Build(kind core.ActionKind, f Fields) (core.ActionRequest, *Split, error) {
	if err := val.Validate(kind, f).Err(); err != nil {
		return nil, nil, err
	}

	switch kind {
	case core.ActionTransfer:
		token, _ := core.ParseToken(f.Token)
		return &core.TransferRequest{
			Destination: f.Destination,
			Amount:      f.Amount,
			Token:       token,
		}, nil, nil

	case core.ActionRequestPayment:
		token, _ := core.ParseToken(f.Token)
		compute := ComputeSplit
		if f.IncludeRequester {
			compute = ComputeSharedSplit
		}
		split, err := compute(f.TotalAmount, f.FromAddresses, f.Amounts)
		if err != nil {
			return nil, nil, err
		}
		// A shared bill requests only the payers' part of the total.
		total := f.TotalAmount
		if total == "" || f.IncludeRequester {
			total = split.Total
		}
		description := f.Description
		if description == "" {
			description = "Payment request"
		}
		return &core.PaymentRequest{
			FromAddresses: f.FromAddresses,
			TotalAmount:   total,
			Amounts:       split.Amounts,
			Token:         token,
			Description:   description,
		}, &split, nil

	case core.ActionStake:
		return &core.StakeRequest{Amount: f.Amount}, nil, nil
	}
	return nil, nil, errors.Wrapf(core.ErrValidation, "unknown action %q", kind)
}
