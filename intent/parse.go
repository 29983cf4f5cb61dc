package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/tools"
)

// KindForFunction maps an advertised function name to its action kind.
func KindForFunction(name string) (core.ActionKind, bool) {
	switch name {
	case tools.TransferFunds:
		return core.ActionTransfer, true
	case tools.RequestPayment:
		return core.ActionRequestPayment, true
	case tools.StakeCelo:
		return core.ActionStake, true
	default:
		return "", false
	}
}

// ParseArguments decodes function-call arguments into Fields. Models
// routinely send numbers where strings are declared, so numeric values are
// accepted and kept in their literal form.
func ParseArguments(name, arguments string) (core.ActionKind, Fields, error) {
	kind, ok := KindForFunction(name)
	if !ok {
		return "", Fields{}, fmt.Errorf("unknown function %q", name)
	}

	raw := map[string]interface{}{}
	if strings.TrimSpace(arguments) != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(arguments)))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return kind, Fields{}, errors.Wrapf(core.ErrValidation, "malformed arguments for %s: %v", name, err)
		}
	}

	f := Fields{
		Destination: stringField(raw, "destinationAddress"),
		Amount:      stringField(raw, "amount"),
		Token:       stringField(raw, "tokenSymbol"),
		TotalAmount: stringField(raw, "totalAmount"),
		Description: stringField(raw, "description"),
	}
	switch v := raw["includeRequester"].(type) {
	case bool:
		f.IncludeRequester = v
	case string:
		f.IncludeRequester = strings.EqualFold(v, "true")
	}
	if list, ok := raw["fromAddresses"].([]interface{}); ok {
		for _, v := range list {
			if s := scalarString(v); s != "" {
				f.FromAddresses = append(f.FromAddresses, s)
			}
		}
	}
	if m, ok := raw["individualAmounts"].(map[string]interface{}); ok && len(m) > 0 {
		f.Amounts = make(map[string]string, len(m))
		for k, v := range m {
			f.Amounts[k] = scalarString(v)
		}
	}
	return kind, f, nil
}

func stringField(raw map[string]interface{}, key string) string {
	return strings.TrimSpace(scalarString(raw[key]))
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
