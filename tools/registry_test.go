package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, RequestPayment, defs[0].ToolName)
	assert.Equal(t, StakeCelo, defs[1].ToolName)
	assert.Equal(t, TransferFunds, defs[2].ToolName)

	for _, d := range defs {
		assert.True(t, d.RequiresUserConfirmation, d.ToolName)
		assert.Equal(t, "object", d.InputSchema["type"])
	}

	_, ok := r.Get("send_money")
	assert.False(t, ok)
}

func TestTransferSchema(t *testing.T) {
	d, ok := DefaultRegistry().Get(TransferFunds)
	require.True(t, ok)

	assert.ElementsMatch(t, []string{"destinationAddress", "amount", "tokenSymbol"}, Required(d.InputSchema))

	token := Properties(d.InputSchema)["tokenSymbol"].(map[string]interface{})
	assert.Equal(t, []string{"CELO", "cUSD", "cEUR"}, token["enum"])
}

func TestSummaryTemplates(t *testing.T) {
	r := DefaultRegistry()

	transfer, _ := r.Get(TransferFunds)
	assert.Equal(t,
		"Transfer 20 cUSD to 0x1111111111111111111111111111111111111111",
		transfer.Summary([]byte(`{"destinationAddress":"0x1111111111111111111111111111111111111111","amount":"20","tokenSymbol":"cUSD"}`)),
	)

	request, _ := r.Get(RequestPayment)
	assert.Equal(t,
		"Request 60 cUSD from 2 user(s)",
		request.Summary([]byte(`{"fromAddresses":["0xa","0xb"],"totalAmount":"60","tokenSymbol":"cUSD"}`)),
	)

	stake, _ := r.Get(StakeCelo)
	assert.Equal(t, "Stake 5 CELO", stake.Summary([]byte(`{"amount":"5"}`)))

	// Unparseable arguments fall back to the function name.
	assert.Equal(t, StakeCelo, stake.Summary([]byte(`not json`)))
}

func TestRequiredAcceptsDecodedSchemas(t *testing.T) {
	schema := map[string]interface{}{"required": []interface{}{"a", "b", 3}}
	assert.Equal(t, []string{"a", "b"}, Required(schema))
	assert.Nil(t, Required(map[string]interface{}{}))
}
