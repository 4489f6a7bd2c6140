package tools

import (
	"encoding/json"
	"fmt"

	"github.com/petal-labs/zai-go/core"
)

// ParseArgs decodes a tool call's arguments into T. Empty arguments decode
// as {}. Malformed or non-object arguments fail with core.ErrInvalidParameters.
//
// Example:
//
//	type WeatherArgs struct {
//	    City string `json:"city"`
//	}
//
//	args, err := tools.ParseArgs[WeatherArgs](call)
//	if err != nil {
//	    return nil, err
//	}
func ParseArgs[T any](call core.ToolCall) (*T, error) {
	if err := call.ValidateArguments(); err != nil {
		return nil, err
	}
	var result T
	if err := json.Unmarshal(call.RawArguments(), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidParameters, err)
	}
	return &result, nil
}
