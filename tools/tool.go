// Package tools provides the tool registry and executor used to run the
// function calls a model requests.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is a callable function exposed to the model.
//
// Call receives the raw JSON arguments object; the value it returns is
// marshalled to JSON and sent back to the model as the tool result.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Schema returns the JSON Schema of the arguments object.
	Schema() ToolSchema

	// Call executes the tool.
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// ToolSchema describes the parameters a tool accepts.
type ToolSchema struct {
	// JSONSchema is a JSON Schema object, for example
	// {"type": "object", "properties": {"city": {"type": "string"}}}.
	JSONSchema json.RawMessage `json:"json_schema"`
}

// Parameters returns the schema, defaulting to an empty object schema.
func (s ToolSchema) Parameters() json.RawMessage {
	if len(s.JSONSchema) == 0 {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return s.JSONSchema
}

// idempotenceReporter is implemented by tools that declare whether a failed
// call may be repeated.
type idempotenceReporter interface {
	Idempotent() bool
}
