package gateway

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/derek2403/token2049/core"
)

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// actionKeys are argument names that identify a bare argument object
// emitted alongside a function name.
var actionKeys = []string{"destinationAddress", "fromAddresses", "individualAmounts", "totalAmount", "amount"}

// ExtractFunctionCall recovers a function call that a model wrote into its
// text channel. It looks for the outermost {...} span and accepts it when it
// decodes to an object with a name and either an arguments field or
// recognisable action parameters. Any failure reports false.
func ExtractFunctionCall(text string) (core.FunctionCall, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") &&
		!strings.Contains(trimmed, `"name"`) &&
		!strings.Contains(trimmed, `"arguments"`) {
		return core.FunctionCall{}, false
	}

	span := jsonObjectPattern.FindString(trimmed)
	if span == "" {
		return core.FunctionCall{}, false
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return core.FunctionCall{}, false
	}

	var name string
	if err := json.Unmarshal(parsed["name"], &name); err != nil || name == "" {
		return core.FunctionCall{}, false
	}

	if raw, ok := parsed["arguments"]; ok && !isNull(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return core.FunctionCall{Name: name, Arguments: s}, true
		}
		return core.FunctionCall{Name: name, Arguments: string(raw)}, true
	}

	if !hasActionKey(parsed) {
		return core.FunctionCall{}, false
	}
	delete(parsed, "name")
	args, err := json.Marshal(parsed)
	if err != nil {
		return core.FunctionCall{}, false
	}
	return core.FunctionCall{Name: name, Arguments: string(args)}, true
}

func hasActionKey(m map[string]json.RawMessage) bool {
	for _, k := range actionKeys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
