package gateway

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/tools"
)

// Defaults for the OpenAI-compatible provider.
const (
	DefaultOpenAIBaseURL = "https://api.redpill.ai/v1"
	DefaultOpenAIModel   = "phala/gpt-oss-20b"
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 1000
)

// OpenAIConfig configures an OpenAI-compatible chat-completion endpoint.
type OpenAIConfig struct {
	BaseURL       string
	APIKey        string
	Model         string
	Temperature   float32
	MaxTokens     int
	HistoryWindow int
}

// OpenAI completes conversations against any endpoint speaking the
// OpenAI chat-completions protocol. Functions are advertised through the
// legacy functions/function_call fields, which the broadest set of
// compatible backends understands.
type OpenAI struct {
	client    *openai.Client
	cfg       OpenAIConfig
	functions []openai.FunctionDefinition
	logger    *zap.Logger
}

// NewOpenAI creates a provider advertising the registry's functions.
// A nil registry disables function calling.
func NewOpenAI(cfg OpenAIConfig, registry *tools.Registry, logger *zap.Logger) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.HistoryWindow == 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	var functions []openai.FunctionDefinition
	if registry != nil {
		for _, d := range registry.Definitions() {
			functions = append(functions, openai.FunctionDefinition{
				Name:        d.ToolName,
				Description: d.ToolDescription,
				Parameters:  d.InputSchema,
			})
		}
	}

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientCfg),
		cfg:       cfg,
		functions: functions,
		logger:    logger,
	}
}

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, history []core.ChatTurn, systemPrompt string) (Response, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		Messages:    o.messages(history, systemPrompt),
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
	}
	if len(o.functions) > 0 {
		req.Functions = o.functions
		req.FunctionCall = "auto"
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if len(req.Functions) > 0 && isBadRequest(err) {
			o.logger.Warn("endpoint rejected function definitions, retrying without them", zap.Error(err))
			return o.completePlain(ctx, req, err)
		}
		return Response{}, errors.Wrapf(core.ErrCompletionFailure, "chat completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.Wrap(core.ErrCompletionFailure, "chat completion returned no choices")
	}

	msg := resp.Choices[0].Message
	if msg.FunctionCall != nil && msg.FunctionCall.Name != "" {
		o.logger.Debug("structured function call", zap.String("name", msg.FunctionCall.Name))
		return Response{Type: TypeFunctionCall, Name: msg.FunctionCall.Name, Arguments: msg.FunctionCall.Arguments}, nil
	}
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name != "" {
			return Response{Type: TypeFunctionCall, Name: tc.Function.Name, Arguments: tc.Function.Arguments}, nil
		}
	}
	return textResponse(msg.Content), nil
}

// completePlain retries once without functions. The reply is returned as
// a plain message; on failure the original rejection is reported.
func (o *OpenAI) completePlain(ctx context.Context, req openai.ChatCompletionRequest, original error) (Response, error) {
	req.Functions = nil
	req.FunctionCall = nil

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.logger.Warn("retry without functions failed", zap.Error(err))
		return Response{}, errors.Wrapf(core.ErrCompletionFailure, "chat completion: %v", original)
	}
	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	if text == "" {
		text = FallbackReply
	}
	return Response{Type: TypeMessage, Text: text}, nil
}

func (o *OpenAI) messages(history []core.ChatTurn, systemPrompt string) []openai.ChatCompletionMessage {
	turns := Window(history, o.cfg.HistoryWindow)
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, t := range turns {
		switch t.Role {
		case core.RoleUser:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: t.Content})
		case core.RoleAssistant:
			m := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: t.Content}
			if t.FunctionCall != nil {
				m.FunctionCall = &openai.FunctionCall{Name: t.FunctionCall.Name, Arguments: t.FunctionCall.Arguments}
			}
			msgs = append(msgs, m)
		case core.RoleFunction:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleFunction,
				Name:    t.Name,
				Content: t.Content,
			})
		}
	}
	return msgs
}

func isBadRequest(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusBadRequest
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusBadRequest
	}
	return false
}
