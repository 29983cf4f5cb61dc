package core

import (
	"bytes"
	"encoding/json"
	"text/template"
)

// ToolDefinition describes a function advertised to the completion model.
type ToolDefinition struct {
	ToolName        string
	ToolDescription string
	InputSchema     map[string]interface{}

	// RequiresUserConfirmation marks functions whose result is an action the
	// user must approve before anything is executed.
	RequiresUserConfirmation bool

	// SummaryTemplate is a text/template rendered over the call arguments
	// to produce the confirmation summary.
	SummaryTemplate string
}

// Summary renders the summary template against the JSON arguments.
// Falls back to the tool name when the template cannot be applied.
func (d ToolDefinition) Summary(arguments []byte) string {
	if d.SummaryTemplate == "" {
		return d.ToolName
	}
	tmpl, err := template.New(d.ToolName).Option("missingkey=zero").Parse(d.SummaryTemplate)
	if err != nil {
		return d.ToolName
	}
	var data map[string]interface{}
	if err := json.Unmarshal(arguments, &data); err != nil {
		return d.ToolName
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return d.ToolName
	}
	return buf.String()
}
