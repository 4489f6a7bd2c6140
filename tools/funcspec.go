package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/petal-labs/zai-go/core"
)

// FunctionSpec is a tool declaration in the OpenAI-style function format.
type FunctionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ParseFunctionSpec reads either a bare {name, description, parameters}
// object or the wrapped {"type":"function","function":{...}} form.
func ParseFunctionSpec(data []byte) (FunctionSpec, error) {
	var wrapped struct {
		Type     string        `json:"type"`
		Function *FunctionSpec `json:"function"`
		FunctionSpec
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return FunctionSpec{}, fmt.Errorf("%w: function spec: %v", core.ErrRegistration, err)
	}

	spec := wrapped.FunctionSpec
	if wrapped.Function != nil {
		if wrapped.Type != "" && wrapped.Type != "function" {
			return FunctionSpec{}, fmt.Errorf("%w: unsupported tool type %q", core.ErrRegistration, wrapped.Type)
		}
		spec = *wrapped.Function
	}
	if spec.Name == "" {
		return FunctionSpec{}, fmt.Errorf("%w: function spec has no name", core.ErrRegistration)
	}
	if len(spec.Parameters) > 0 && !json.Valid(spec.Parameters) {
		return FunctionSpec{}, fmt.Errorf("%w: function spec %q: parameters are not valid JSON", core.ErrRegistration, spec.Name)
	}
	return spec, nil
}

// Declaration converts the spec for a chat request.
func (s FunctionSpec) Declaration() core.ToolDeclaration {
	return core.ToolDeclaration{
		Name:        s.Name,
		Description: s.Description,
		Parameters:  ToolSchema{JSONSchema: s.Parameters}.Parameters(),
	}
}

// LoadSpec builds a tool from a function spec and the handler that
// implements it. Arguments are validated against the spec's parameters.
// A nil handler yields a tool whose calls fail with core.ErrExecutionFailed.
func LoadSpec(data []byte, handler ToolCallFunc) (Tool, error) {
	spec, err := ParseFunctionSpec(data)
	if err != nil {
		return nil, err
	}
	if handler == nil {
		handler = unboundHandler(spec.Name)
	}
	if len(spec.Parameters) == 0 {
		return FuncTool(spec.Name, spec.Description, nil, handler), nil
	}
	return NewRawFunction(spec.Name, spec.Description, spec.Parameters, handler)
}

func unboundHandler(name string) ToolCallFunc {
	return func(context.Context, json.RawMessage) (any, error) {
		return nil, fmt.Errorf("%w: no handler bound for %s", core.ErrExecutionFailed, name)
	}
}

// LoadDir registers a tool for every *.json function spec in dir, binding
// each to handlers[name]. With strict set, a spec without a handler is an
// error; otherwise it is registered with a handler that always fails.
// It returns the registered names in sorted order.
func (r *Registry) LoadDir(dir string, handlers map[string]ToolCallFunc, strict bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read tool dir: %v", core.ErrRegistration, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return names, fmt.Errorf("%w: %s: %v", core.ErrRegistration, path, err)
		}
		spec, err := ParseFunctionSpec(data)
		if err != nil {
			return names, fmt.Errorf("%s: %w", path, err)
		}
		handler := handlers[spec.Name]
		if handler == nil && strict {
			return names, fmt.Errorf("%w: %s: no handler for tool %q", core.ErrRegistration, path, spec.Name)
		}
		tool, err := LoadSpec(data, handler)
		if err != nil {
			return names, fmt.Errorf("%s: %w", path, err)
		}
		if err := r.Register(tool); err != nil {
			return names, fmt.Errorf("%s: %w", path, err)
		}
		names = append(names, spec.Name)
	}
	sort.Strings(names)
	return names, nil
}
