// Package gateway talks to remote chat-completion endpoints and reduces
// their replies to either a plain message or a function call.
package gateway

import (
	"context"

	"github.com/derek2403/token2049/core"
)

// ResponseType discriminates Response.
type ResponseType string

const (
	TypeMessage      ResponseType = "message"
	TypeFunctionCall ResponseType = "functionCall"
)

// Response is the reduced completion result. Text is set for TypeMessage;
// Name and Arguments for TypeFunctionCall.
type Response struct {
	Type      ResponseType `json:"type"`
	Text      string       `json:"text,omitempty"`
	Name      string       `json:"name,omitempty"`
	Arguments string       `json:"argumentsJson,omitempty"`
}

// FunctionCall returns the response as a core.FunctionCall.
func (r Response) FunctionCall() *core.FunctionCall {
	if r.Type != TypeFunctionCall {
		return nil
	}
	return &core.FunctionCall{Name: r.Name, Arguments: r.Arguments}
}

// Completer sends a conversation to a completion model.
// Remote failures are returned wrapped in core.ErrCompletionFailure and are
// never retried, except for the single retry without function definitions
// when an endpoint rejects them.
type Completer interface {
	Complete(ctx context.Context, history []core.ChatTurn, systemPrompt string) (Response, error)
}

// DefaultHistoryWindow is the number of trailing turns sent per request.
const DefaultHistoryWindow = 10

// FallbackReply is returned when the model produced no text at all.
const FallbackReply = "Sorry, I could not process that request."

// Window returns the trailing n turns of history. System turns are dropped;
// the system prompt is always sent separately.
func Window(history []core.ChatTurn, n int) []core.ChatTurn {
	turns := make([]core.ChatTurn, 0, len(history))
	for _, t := range history {
		if t.Role != core.RoleSystem {
			turns = append(turns, t)
		}
	}
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns
}

// textResponse reduces model text to a Response, trying the embedded JSON
// fallback first.
func textResponse(text string) Response {
	if call, ok := ExtractFunctionCall(text); ok {
		return Response{Type: TypeFunctionCall, Name: call.Name, Arguments: call.Arguments}
	}
	if text == "" {
		text = FallbackReply
	}
	return Response{Type: TypeMessage, Text: text}
}
