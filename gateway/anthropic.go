package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/tools"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicConfig configures the Claude provider.
type AnthropicConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxTokens     int64
	HistoryWindow int
}

// Anthropic completes conversations with Claude. Functions are advertised
// as tools and the first tool_use block becomes the function call. Claude
// requires tool results to reference tool_use ids, which the stored history
// does not keep, so earlier calls and results are replayed as text.
type Anthropic struct {
	client *anthropic.Client
	cfg    AnthropicConfig
	tools  []anthropic.ToolUnionParam
	logger *zap.Logger
}

// NewAnthropic creates a Claude provider advertising the registry's
// functions. A nil registry disables tool use.
func NewAnthropic(cfg AnthropicConfig, registry *tools.Registry, logger *zap.Logger, opts ...option.RequestOption) *Anthropic {
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
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

	if cfg.APIKey != "" {
		opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	var toolParams []anthropic.ToolUnionParam
	if registry != nil {
		for _, d := range registry.Definitions() {
			toolParams = append(toolParams, anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        d.ToolName,
					Description: anthropic.String(d.ToolDescription),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: tools.Properties(d.InputSchema),
						ExtraFields: map[string]interface{}{
							"required": tools.Required(d.InputSchema),
						},
					},
				},
			})
		}
	}

	return &Anthropic{client: &client, cfg: cfg, tools: toolParams, logger: logger}
}

// Complete implements Completer.
func (a *Anthropic) Complete(ctx context.Context, history []core.ChatTurn, systemPrompt string) (Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Model),
		MaxTokens: a.cfg.MaxTokens,
		Messages:  a.messages(history),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if len(a.tools) > 0 {
		params.Tools = a.tools
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if len(params.Tools) > 0 && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			a.logger.Warn("endpoint rejected tool definitions, retrying without them", zap.Error(err))
			params.Tools = nil
			retry, retryErr := a.client.Messages.New(ctx, params)
			if retryErr != nil {
				return Response{}, errors.Wrapf(core.ErrCompletionFailure, "claude: %v", err)
			}
			text := collectText(retry)
			if text == "" {
				text = FallbackReply
			}
			return Response{Type: TypeMessage, Text: text}, nil
		}
		return Response{}, errors.Wrapf(core.ErrCompletionFailure, "claude: %v", err)
	}

	for _, block := range resp.Content {
		if block.Type == "tool_use" {
			a.logger.Debug("tool use", zap.String("name", block.Name))
			return Response{Type: TypeFunctionCall, Name: block.Name, Arguments: string(block.Input)}, nil
		}
	}
	return textResponse(collectText(resp)), nil
}

func collectText(msg *anthropic.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// messages converts history to alternating user/assistant turns starting
// with a user turn, merging neighbours that share a role.
func (a *Anthropic) messages(history []core.ChatTurn) []anthropic.MessageParam {
	type turn struct {
		assistant bool
		text      string
	}
	var merged []turn
	for _, t := range Window(history, a.cfg.HistoryWindow) {
		var cur turn
		switch t.Role {
		case core.RoleUser:
			cur = turn{text: t.Content}
		case core.RoleFunction:
			cur = turn{text: fmt.Sprintf("Result of %s: %s", t.Name, t.Content)}
		case core.RoleAssistant:
			text := t.Content
			if t.FunctionCall != nil {
				call := fmt.Sprintf("Called %s with %s", t.FunctionCall.Name, t.FunctionCall.Arguments)
				text = strings.TrimSpace(text + "\n" + call)
			}
			cur = turn{assistant: true, text: text}
		default:
			continue
		}
		if strings.TrimSpace(cur.text) == "" {
			continue
		}
		if len(merged) == 0 && cur.assistant {
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].assistant == cur.assistant {
			merged[n-1].text += "\n\n" + cur.text
			continue
		}
		merged = append(merged, cur)
	}

	out := make([]anthropic.MessageParam, 0, len(merged))
	for _, t := range merged {
		if t.assistant {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.text)))
		} else {
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(t.text)))
		}
	}
	return out
}
