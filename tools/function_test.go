package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/tools"
)

type searchArgs struct {
	Query string `json:"query" jsonschema:"the text to search for"`
	Limit int    `json:"limit,omitempty"`
}

type searchResult struct {
	Hits []string `json:"hits"`
}

func newSearchTool(t *testing.T) tools.Tool {
	t.Helper()
	tool, err := tools.NewFunction("search", "Search documents", func(_ context.Context, in searchArgs) (searchResult, error) {
		hits := []string{in.Query}
		if in.Limit > 1 {
			hits = append(hits, in.Query+"-2")
		}
		return searchResult{Hits: hits}, nil
	})
	if err != nil {
		t.Fatalf("NewFunction() error = %v", err)
	}
	return tool
}

func TestNewFunctionSchema(t *testing.T) {
	tool := newSearchTool(t)

	if tool.Name() != "search" || tool.Description() != "Search documents" {
		t.Errorf("tool = %q/%q", tool.Name(), tool.Description())
	}

	var schema map[string]any
	if err := json.Unmarshal(tool.Schema().JSONSchema, &schema); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if schema["type"] != "object" {
		t.Errorf("schema type = %v, want object", schema["type"])
	}
	props, _ := schema["properties"].(map[string]any)
	if _, ok := props["query"]; !ok {
		t.Errorf("schema properties = %v, want query", props)
	}
	if _, ok := schema["additionalProperties"]; !ok {
		t.Error("schema does not restrict additional properties")
	}
	if !strings.Contains(string(tool.Schema().JSONSchema), "the text to search for") {
		t.Error("field description missing from schema")
	}
}

func TestNewFunctionCall(t *testing.T) {
	tool := newSearchTool(t)

	got, err := tool.Call(context.Background(), json.RawMessage(`{"query":"go","limit":2}`))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	res, ok := got.(searchResult)
	if !ok {
		t.Fatalf("Call() returned %T, want searchResult", got)
	}
	if len(res.Hits) != 2 || res.Hits[0] != "go" {
		t.Errorf("Hits = %v", res.Hits)
	}
}

func TestNewFunctionRejectsInvalidArguments(t *testing.T) {
	tool := newSearchTool(t)

	tests := []struct {
		name string
		args string
	}{
		{"wrong type", `{"query":1}`},
		{"unknown property", `{"query":"go","extra":true}`},
		{"missing required", `{"limit":3}`},
		{"not an object", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tool.Call(context.Background(), json.RawMessage(tt.args))
			if !errors.Is(err, core.ErrInvalidParameters) {
				t.Errorf("Call(%s) error = %v, want ErrInvalidParameters", tt.args, err)
			}
		})
	}
}

func TestNewRawFunction(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"n":{"type":"integer","minimum":0}},"required":["n"]}`)
	tool, err := tools.NewRawFunction("square", "Square a number", schema, func(_ context.Context, args json.RawMessage) (any, error) {
		var in struct{ N int }
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, err
		}
		return in.N * in.N, nil
	})
	if err != nil {
		t.Fatalf("NewRawFunction() error = %v", err)
	}

	got, err := tool.Call(context.Background(), json.RawMessage(`{"n":4}`))
	if err != nil || got != 16 {
		t.Errorf("Call() = %v, %v; want 16", got, err)
	}
	if _, err := tool.Call(context.Background(), json.RawMessage(`{"n":-1}`)); !errors.Is(err, core.ErrInvalidParameters) {
		t.Errorf("Call(n=-1) error = %v, want ErrInvalidParameters", err)
	}
}

func TestNewRawFunctionBadSchema(t *testing.T) {
	_, err := tools.NewRawFunction("bad", "", json.RawMessage(`{"type":`), func(context.Context, json.RawMessage) (any, error) {
		return nil, nil
	})
	if !errors.Is(err, core.ErrRegistration) {
		t.Errorf("NewRawFunction() error = %v, want ErrRegistration", err)
	}
}

func TestFuncToolSkipsValidation(t *testing.T) {
	tool := tools.FuncTool("raw", "", json.RawMessage(`{"type":"object","required":["x"]}`),
		func(_ context.Context, args json.RawMessage) (any, error) { return string(args), nil })

	got, err := tool.Call(context.Background(), json.RawMessage(`{}`))
	if err != nil || got != "{}" {
		t.Errorf("Call() = %v, %v; want {} without validation", got, err)
	}
}
