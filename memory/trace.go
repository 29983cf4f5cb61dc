package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/derek2403/token2049/core"
)

// ActionMemory remembers one executed action: what was asked, what the
// chain said, and whether it worked.
type ActionMemory struct {
	id         string
	ownerID    string
	sessionID  string
	createdAt  time.Time
	embedding  []float32
	importance float64
	metadata   map[string]interface{}

	Action      string
	Input       string
	Observation string
	Success     bool
}

// NewActionMemory creates an ActionMemory from an executed trace.
func NewActionMemory(owner string, trace *core.Trace) *ActionMemory {
	metadata := map[string]interface{}{
		"action":  trace.Action,
		"success": trace.Success,
	}
	for k, v := range trace.Metadata {
		metadata[k] = v
	}

	createdAt := time.Now()
	if trace.Timestamp > 0 {
		createdAt = time.Unix(trace.Timestamp, 0)
	}

	return &ActionMemory{
		id:          uuid.New().String(),
		ownerID:     owner,
		sessionID:   trace.SessionID,
		createdAt:   createdAt,
		importance:  assessImportance(trace),
		metadata:    metadata,
		Action:      trace.Action,
		Input:       string(trace.ActionInput),
		Observation: trace.Observation,
		Success:     trace.Success,
	}
}

// RestoreActionMemory rebuilds an ActionMemory read back from a Store.
func RestoreActionMemory(
	id, owner, sessionID string,
	createdAt time.Time,
	embedding []float32,
	action, input, observation string,
	success bool,
	metadata map[string]interface{},
) *ActionMemory {
	return &ActionMemory{
		id:          id,
		ownerID:     owner,
		sessionID:   sessionID,
		createdAt:   createdAt,
		embedding:   embedding,
		importance:  0.5,
		metadata:    metadata,
		Action:      action,
		Input:       input,
		Observation: observation,
		Success:     success,
	}
}

func (a *ActionMemory) ID() string        { return a.id }
func (a *ActionMemory) OwnerID() string   { return a.ownerID }
func (a *ActionMemory) SessionID() string { return a.sessionID }
func (a *ActionMemory) Type() string      { return "action" }

func (a *ActionMemory) Content() interface{} {
	return map[string]interface{}{
		"action":      a.Action,
		"input":       a.Input,
		"observation": a.Observation,
		"success":     a.Success,
	}
}

func (a *ActionMemory) Metadata() map[string]interface{} { return a.metadata }
func (a *ActionMemory) CreatedAt() time.Time             { return a.createdAt }
func (a *ActionMemory) Embedding() []float32             { return a.embedding }
func (a *ActionMemory) SetEmbedding(emb []float32)       { a.embedding = emb }

// Importance scores the memory in [0, 1].
func (a *ActionMemory) Importance() float64 { return a.importance }

// Format renders the action for the system prompt.
func (a *ActionMemory) Format(ctx FormatContext) string {
	status := "Success"
	if !a.Success {
		status = "Failed"
	}

	parts := []string{fmt.Sprintf("[%s] %s", status, a.Action)}
	if a.Input != "" {
		parts = append(parts, fmt.Sprintf("  Request: %s", truncate(a.Input, ctx.MaxLength/2)))
	}
	if a.Observation != "" {
		parts = append(parts, fmt.Sprintf("  Outcome: %q", truncate(a.Observation, ctx.MaxLength/2)))
	}
	if !a.Success {
		if prevention, ok := a.metadata["prevention"]; ok {
			parts = append(parts, fmt.Sprintf("  Prevention: %s", prevention))
		}
	}
	return strings.Join(parts, "\n")
}

// EmbeddingText is the text the manager embeds for this memory.
func (a *ActionMemory) EmbeddingText() string {
	return fmt.Sprintf("Action: %s\nRequest: %s\nOutcome: %s", a.Action, a.Input, a.Observation)
}

func assessImportance(trace *core.Trace) float64 {
	importance := 0.5

	// Failures teach the most.
	if !trace.Success {
		importance += 0.3
	}
	if trace.Metadata["confirmed"] == "true" {
		importance += 0.2
	}
	if importance > 1.0 {
		importance = 1.0
	}
	return importance
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
