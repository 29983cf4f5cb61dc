package intent

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/derek2403/token2049/core"
)

// SplitPlaces is the precision of computed per-head amounts.
const SplitPlaces = 6

// SplitType records how the amounts were derived.
type SplitType string

const (
	SplitIndividual SplitType = "individual"
	SplitEqual      SplitType = "equal_split"
	SplitRemainder  SplitType = "remainder"
)

// Split is the per-payer breakdown of a payment request.
type Split struct {
	Amounts map[string]string `json:"amounts"`
	Total   string            `json:"total"`
	Type    SplitType         `json:"splitType"`
}

// ComputeSplit derives the amount each address owes.
//
// A non-empty explicit map is used verbatim when it covers every address or
// no total is given. Otherwise the total, less any explicit amounts, is
// divided evenly across the remaining addresses at SplitPlaces precision.
// Rounding drift is not redistributed.
func ComputeSplit(total string, addresses []string, explicit map[string]string) (Split, error) {
	return computeSplit(total, addresses, explicit, 0)
}

// ComputeSharedSplit is ComputeSplit for a bill the requester also pays a
// share of. The requester's share is left out of the amounts, so $60
// shared with two payers asks each of them for 20.
func ComputeSharedSplit(total string, addresses []string, explicit map[string]string) (Split, error) {
	return computeSplit(total, addresses, explicit, 1)
}

// computeSplit divides among the payers plus extra shares kept by the
// requester.
func computeSplit(total string, addresses []string, explicit map[string]string, extra int) (Split, error) {
	if len(explicit) > 0 {
		uncovered := uncoveredAddresses(addresses, explicit)
		if len(uncovered) == 0 || total == "" {
			if len(uncovered) > 0 {
				return Split{}, errors.Wrapf(core.ErrValidation,
					"no amount given for %s and no total to split", strings.Join(uncovered, ", "))
			}
			amounts := make(map[string]string, len(explicit))
			for k, v := range explicit {
				amounts[k] = v
			}
			return newSplit(amounts, SplitIndividual)
		}
		return remainderSplit(total, uncovered, explicit, extra)
	}

	if len(addresses) == 0 {
		return Split{}, errors.Wrap(core.ErrValidation, "no addresses to split between")
	}
	t, ok := ParseAmount(total)
	if !ok {
		return Split{}, errors.Wrapf(core.ErrValidation, "invalid total amount %q", total)
	}
	share := t.DivRound(decimal.NewFromInt(int64(len(addresses)+extra)), SplitPlaces).StringFixed(SplitPlaces)
	amounts := make(map[string]string, len(addresses))
	for _, addr := range addresses {
		amounts[addr] = share
	}
	return newSplit(amounts, SplitEqual)
}

func remainderSplit(total string, uncovered []string, explicit map[string]string, extra int) (Split, error) {
	t, ok := ParseAmount(total)
	if !ok {
		return Split{}, errors.Wrapf(core.ErrValidation, "invalid total amount %q", total)
	}
	remaining := t
	for addr, v := range explicit {
		d, ok := ParseAmount(v)
		if !ok {
			return Split{}, errors.Wrapf(core.ErrValidation, "invalid amount for %s: %q", addr, v)
		}
		remaining = remaining.Sub(d)
	}
	share := remaining.DivRound(decimal.NewFromInt(int64(len(uncovered)+extra)), SplitPlaces)
	if !share.IsPositive() {
		return Split{}, errors.Wrapf(core.ErrValidation,
			"explicit amounts leave %s for %d remaining payer(s)", remaining.String(), len(uncovered))
	}

	amounts := make(map[string]string, len(explicit)+len(uncovered))
	for k, v := range explicit {
		amounts[k] = v
	}
	for _, addr := range uncovered {
		amounts[addr] = share.StringFixed(SplitPlaces)
	}
	return newSplit(amounts, SplitRemainder)
}

func newSplit(amounts map[string]string, typ SplitType) (Split, error) {
	sum := decimal.Zero
	for addr, v := range amounts {
		d, ok := ParseAmount(v)
		if !ok {
			return Split{}, errors.Wrapf(core.ErrValidation, "invalid amount for %s: %q", addr, v)
		}
		sum = sum.Add(d)
	}
	return Split{Amounts: amounts, Total: sum.StringFixed(SplitPlaces), Type: typ}, nil
}

// uncoveredAddresses returns the addresses without an explicit amount,
// matching keys case-insensitively.
func uncoveredAddresses(addresses []string, explicit map[string]string) []string {
	var out []string
	for _, addr := range addresses {
		if _, ok := lookupFold(explicit, addr); !ok {
			out = append(out, addr)
		}
	}
	return out
}

func lookupFold(m map[string]string, key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
