package core

// Role identifies the author of a chat turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// FunctionCall is a structured request from the model to invoke one of the
// advertised functions. Arguments is the raw JSON object text.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatTurn is one entry of a session's conversation history.
// History is append-only; turns are never edited once recorded.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Name carries the function name on RoleFunction turns.
	Name string `json:"name,omitempty"`

	// FunctionCall is set on assistant turns that requested a function.
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

// UserTurn builds a user turn.
func UserTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleUser, Content: content}
}

// AssistantTurn builds a plain assistant turn.
func AssistantTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleAssistant, Content: content}
}

// FunctionResultTurn builds the turn that reports a function's outcome back
// to the model.
func FunctionResultTurn(name, content string) ChatTurn {
	return ChatTurn{Role: RoleFunction, Name: name, Content: content}
}
