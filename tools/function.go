package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/petal-labs/zai-go/core"
)

// functionTool is a Tool backed by a Go function, optionally validating
// arguments against a resolved schema before calling it.
type functionTool struct {
	name        string
	description string
	schema      json.RawMessage
	resolved    *jsonschema.Resolved
	call        ToolCallFunc
}

func (f *functionTool) Name() string        { return f.name }
func (f *functionTool) Description() string { return f.description }
func (f *functionTool) Schema() ToolSchema  { return ToolSchema{JSONSchema: f.schema} }

func (f *functionTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	if f.resolved != nil {
		if err := validateAgainst(f.resolved, args); err != nil {
			return nil, err
		}
	}
	return f.call(ctx, args)
}

func validateAgainst(resolved *jsonschema.Resolved, args json.RawMessage) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	var instance any
	if err := json.Unmarshal(args, &instance); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidParameters, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidParameters, err)
	}
	return nil
}

// NewFunction builds a Tool from a typed function. The parameter schema is
// inferred from In; unknown properties are rejected. Arguments are
// validated against the schema and decoded into In before fn runs.
//
//	type WeatherArgs struct {
//	    City string `json:"city" jsonschema:"the city to look up"`
//	}
//
//	weather, err := tools.NewFunction("get_weather", "Current weather for a city",
//	    func(ctx context.Context, in WeatherArgs) (Forecast, error) { ... })
func NewFunction[In, Out any](name, description string, fn func(ctx context.Context, in In) (Out, error)) (Tool, error) {
	schema, err := jsonschema.For[In](&jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: schema for %s: %v", core.ErrRegistration, name, err)
	}
	if schema.Type == "object" && schema.AdditionalProperties == nil {
		schema.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve schema for %s: %v", core.ErrRegistration, name, err)
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: encode schema for %s: %v", core.ErrRegistration, name, err)
	}

	return &functionTool{
		name:        name,
		description: description,
		schema:      raw,
		resolved:    resolved,
		call: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in In
			if len(args) > 0 {
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, fmt.Errorf("%w: %v", core.ErrInvalidParameters, err)
				}
			}
			return fn(ctx, in)
		},
	}, nil
}

// NewRawFunction builds a Tool from a function over raw JSON arguments.
// When schema is non-empty it must be a valid JSON Schema and arguments are
// validated against it.
func NewRawFunction(name, description string, schema json.RawMessage, fn ToolCallFunc) (Tool, error) {
	t := &functionTool{name: name, description: description, schema: schema, call: fn}
	if len(schema) == 0 {
		return t, nil
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(schema, &s); err != nil {
		return nil, fmt.Errorf("%w: parse schema for %s: %v", core.ErrRegistration, name, err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve schema for %s: %v", core.ErrRegistration, name, err)
	}
	t.resolved = resolved
	return t, nil
}

// FuncTool wraps fn as a Tool without argument validation.
func FuncTool(name, description string, schema json.RawMessage, fn ToolCallFunc) Tool {
	return &functionTool{name: name, description: description, schema: schema, call: fn}
}
