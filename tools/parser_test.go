package tools_test

import (
	"errors"
	"testing"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/tools"
)

type weatherArgs struct {
	City  string `json:"city"`
	Units string `json:"units,omitempty"`
	Days  int    `json:"days,omitempty"`
}

func TestParseArgs(t *testing.T) {
	call := core.ToolCall{
		ID:        "call_1",
		Name:      "get_weather",
		Arguments: `{"city":"Beijing","days":3}`,
	}

	args, err := tools.ParseArgs[weatherArgs](call)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	if args.City != "Beijing" {
		t.Errorf("City = %q, want %q", args.City, "Beijing")
	}
	if args.Days != 3 {
		t.Errorf("Days = %d, want 3", args.Days)
	}
	if args.Units != "" {
		t.Errorf("Units = %q, want empty", args.Units)
	}
}

func TestParseArgsEmptyIsObject(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		args, err := tools.ParseArgs[weatherArgs](core.ToolCall{Name: "get_weather", Arguments: raw})
		if err != nil {
			t.Fatalf("ParseArgs(%q) error = %v", raw, err)
		}
		if args.City != "" {
			t.Errorf("ParseArgs(%q) City = %q, want empty", raw, args.City)
		}
	}
}

func TestParseArgsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"malformed", `{"city":`},
		{"array", `["Beijing"]`},
		{"string", `"Beijing"`},
		{"null", `null`},
		{"wrong field type", `{"city":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tools.ParseArgs[weatherArgs](core.ToolCall{Name: "get_weather", Arguments: tt.args})
			if !errors.Is(err, core.ErrInvalidParameters) {
				t.Errorf("ParseArgs(%s) error = %v, want ErrInvalidParameters", tt.args, err)
			}
		})
	}
}
