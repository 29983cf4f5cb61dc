package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/tools"
)

func claudeMessage(content string) string {
	return `{"id":"msg_1","type":"message","role":"assistant","model":"test",
		"content":` + content + `,"stop_reason":"end_turn","stop_sequence":null,
		"usage":{"input_tokens":1,"output_tokens":1}}`
}

func newTestAnthropic(t *testing.T, fake *fakeOpenAI) *Anthropic {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewAnthropic(AnthropicConfig{APIKey: "test", BaseURL: srv.URL}, tools.DefaultRegistry(), nil,
		option.WithMaxRetries(0))
}

func TestAnthropicToolUse(t *testing.T) {
	fake := &fakeOpenAI{replies: []func(http.ResponseWriter){
		jsonReply(http.StatusOK, claudeMessage(`[
			{"type":"text","text":"Preparing the transfer."},
			{"type":"tool_use","id":"toolu_1","name":"transfer_funds","input":{"amount":"100","tokenSymbol":"cUSD"}}
		]`)),
	}}
	g := newTestAnthropic(t, fake)

	resp, err := g.Complete(context.Background(), []core.ChatTurn{core.UserTurn("send 100 cUSD")}, "system")
	require.NoError(t, err)
	assert.Equal(t, TypeFunctionCall, resp.Type)
	assert.Equal(t, "transfer_funds", resp.Name)
	assert.JSONEq(t, `{"amount":"100","tokenSymbol":"cUSD"}`, resp.Arguments)

	require.Len(t, fake.requests, 1)
	assert.Len(t, fake.requests[0]["tools"], 3)
}

func TestAnthropicTextFallback(t *testing.T) {
	fake := &fakeOpenAI{replies: []func(http.ResponseWriter){
		jsonReply(http.StatusOK, claudeMessage(`[{"type":"text","text":"{\"name\":\"stake_celo\",\"arguments\":{\"amount\":\"2\"}}"}]`)),
	}}
	g := newTestAnthropic(t, fake)

	resp, err := g.Complete(context.Background(), []core.ChatTurn{core.UserTurn("stake 2")}, "")
	require.NoError(t, err)
	assert.Equal(t, "stake_celo", resp.Name)
}

func TestAnthropicRetryWithoutTools(t *testing.T) {
	fake := &fakeOpenAI{replies: []func(http.ResponseWriter){
		jsonReply(http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error","message":"tools unsupported"}}`),
		jsonReply(http.StatusOK, claudeMessage(`[{"type":"text","text":"Plain answer"}]`)),
	}}
	g := newTestAnthropic(t, fake)

	resp, err := g.Complete(context.Background(), []core.ChatTurn{core.UserTurn("hi")}, "")
	require.NoError(t, err)
	assert.Equal(t, Response{Type: TypeMessage, Text: "Plain answer"}, resp)
	require.Len(t, fake.requests, 2)
	assert.NotContains(t, fake.requests[1], "tools")
}

func TestAnthropicFailure(t *testing.T) {
	fake := &fakeOpenAI{replies: []func(http.ResponseWriter){
		jsonReply(http.StatusInternalServerError, `{"type":"error","error":{"type":"api_error","message":"boom"}}`),
	}}
	g := newTestAnthropic(t, fake)

	_, err := g.Complete(context.Background(), []core.ChatTurn{core.UserTurn("hi")}, "")
	assert.True(t, errors.Is(err, core.ErrCompletionFailure))
}

func TestAnthropicMessagesAlternate(t *testing.T) {
	g := NewAnthropic(AnthropicConfig{APIKey: "test"}, nil, nil)

	msgs := g.messages([]core.ChatTurn{
		core.AssistantTurn("hello, how can I help?"),
		core.UserTurn("stake 5"),
		{Role: core.RoleAssistant, FunctionCall: &core.FunctionCall{Name: "stake_celo", Arguments: `{"amount":"5"}`}},
		core.FunctionResultTurn("stake_celo", `{"success":true}`),
		core.UserTurn("thanks"),
	})
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Equal(t, "user", string(msgs[2].Role))
}
