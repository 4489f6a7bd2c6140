//go:build integration

// Package integration runs the SDK and CLI against the live Z.ai API.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"github.com/petal-labs/zai-go/tools"
)

// isCI returns true if running in a CI environment.
func isCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "TRAVIS", "JENKINS_URL"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// skipIfNoZaiKey skips the test if ZAI_API_KEY is not set.
// In CI, it fails unless ZAI_SKIP_INTEGRATION is set.
func skipIfNoZaiKey(t *testing.T) {
	t.Helper()
	if os.Getenv("ZAI_API_KEY") != "" {
		return
	}
	if isCI() && os.Getenv("ZAI_SKIP_INTEGRATION") == "" {
		t.Fatal("ZAI_API_KEY not set (CI environment detected; set ZAI_SKIP_INTEGRATION=1 to skip)")
	}
	t.Skip("ZAI_API_KEY not set")
}

// getZaiKey returns the Z.ai API key from environment.
func getZaiKey(t *testing.T) string {
	t.Helper()
	key := os.Getenv("ZAI_API_KEY")
	if key == "" {
		t.Fatal("ZAI_API_KEY not set")
	}
	return key
}

// cliResult holds the result of running a CLI command.
type cliResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runCLI executes the zai CLI with the given arguments.
// It uses the pre-built binary from TestMain and runs in a temp dir so a
// developer's .env is not picked up.
func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	return runCLIWithEnv(t, nil, args...)
}

// runCLIWithEnv is runCLI with an explicit environment. A nil env inherits
// the test process environment.
func runCLIWithEnv(t *testing.T, env []string, args ...string) cliResult {
	t.Helper()

	binaryPath := getCliBinary()
	if binaryPath == "" {
		t.Fatal("CLI binary not built - TestMain may not have run")
	}

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("Failed to run CLI: %v", err)
		}
	}

	return cliResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// envWithout returns the process environment minus the named variables,
// with HOME pointed at a temp dir so no user config is read.
func envWithout(t *testing.T, names ...string) []string {
	t.Helper()
	var env []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if key == "HOME" || slices.Contains(names, key) {
			continue
		}
		env = append(env, kv)
	}
	return append(env, "HOME="+t.TempDir())
}

// createWeatherRegistry registers a get_weather tool that always reports sunshine.
func createWeatherRegistry(t *testing.T) *tools.Registry {
	t.Helper()

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "The city and state, e.g. San Francisco, CA",
			},
		},
		"required": []string{"location"},
	}
	schemaJSON, _ := json.Marshal(schema)

	tool, err := tools.NewRawFunction("get_weather", "Get the current weather in a given location", schemaJSON,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return map[string]any{"conditions": "sunny", "temperature_c": 21}, nil
		})
	if err != nil {
		t.Fatalf("NewRawFunction() error = %v", err)
	}

	reg := tools.NewRegistry()
	reg.MustRegister(tool)
	return reg
}
