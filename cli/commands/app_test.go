package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petal-labs/zai-go/cli/config"
	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/providers/zai"
)

type testApp struct {
	app    *App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// newTestApp builds an App whose config and env file point into a temp dir.
func newTestApp(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	var stdout, stderr bytes.Buffer
	app := NewApp(
		WithIO(strings.NewReader(""), &stdout, &stderr),
		WithConfigLoader(func(string) (*config.Config, error) { return cfg, nil }),
		WithTerminalCheck(func(io.Writer) bool { return false }),
	)
	return &testApp{app: app, stdout: &stdout, stderr: &stderr}
}

func (ta *testApp) run(t *testing.T, args ...string) error {
	t.Helper()
	envFile := filepath.Join(t.TempDir(), "missing.env")
	ta.app.SetArgs(append([]string{"--env-file", envFile}, args...))
	return ta.app.Execute()
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ee *exitError
	require.True(t, errors.As(err, &ee), "error %v has no exit code", err)
	return ee.ExitCode()
}

func chatServer(t *testing.T, handler http.HandlerFunc) *config.Config {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv(config.APIKeyEnv, "test-key")
	return &config.Config{BaseURL: server.URL}
}

func TestExitError(t *testing.T) {
	cause := errors.New("test error")
	err := exitWithCode(ExitNetwork, cause)

	assert.Equal(t, "test error", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitNetwork, exitCode(t, err))
}

func TestVersionCommand(t *testing.T) {
	ta := newTestApp(t, nil)
	require.NoError(t, ta.run(t, "version"))
	assert.Contains(t, ta.stdout.String(), "zai "+Version)
	assert.Contains(t, ta.stdout.String(), "go version:")
}

func TestVersionCommandJSON(t *testing.T) {
	ta := newTestApp(t, nil)
	require.NoError(t, ta.run(t, "version", "--json"))

	var out map[string]string
	require.NoError(t, json.Unmarshal(ta.stdout.Bytes(), &out))
	assert.Equal(t, Version, out["version"])
	assert.Equal(t, Commit, out["commit"])
	assert.NotEmpty(t, out["platform"])
}

func TestChatCommand(t *testing.T) {
	var body map[string]any
	cfg := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		io.WriteString(w, `{"id":"r1","model":"glm-4.6","choices":[{"index":0,"message":{"role":"assistant","content":"Hi!"},"finish_reason":"stop"}],"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}`)
	})

	ta := newTestApp(t, cfg)
	require.NoError(t, ta.run(t, "chat", "--model", "glm-4.6", "--prompt", "Hello", "--system", "be brief", "--thinking"))

	assert.Equal(t, "Hi!\n", ta.stdout.String())
	assert.Equal(t, "glm-4.6", body["model"])
	assert.Equal(t, map[string]any{"type": "enabled"}, body["thinking"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestChatCommandDefaultModelFromConfig(t *testing.T) {
	var model string
	cfg := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		model = req.Model
		io.WriteString(w, `{"id":"r","choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	})
	cfg.DefaultModel = "glm-4.5-air"

	ta := newTestApp(t, cfg)
	require.NoError(t, ta.run(t, "chat", "--prompt", "Hello"))
	assert.Equal(t, "glm-4.5-air", model)
}

func TestChatCommandJSON(t *testing.T) {
	cfg := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"r1","model":"glm-4.6","choices":[{"index":0,"message":{"role":"assistant","content":"Hi!","reasoning_content":"short"},"finish_reason":"stop"}],"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}`)
	})

	ta := newTestApp(t, cfg)
	require.NoError(t, ta.run(t, "chat", "--prompt", "Hello", "--json"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(ta.stdout.Bytes(), &out))
	assert.Equal(t, "r1", out["id"])
	assert.Equal(t, "Hi!", out["output"])
	assert.Equal(t, "short", out["reasoning"])
	assert.Equal(t, float64(1), out["iterations"])
	assert.Equal(t, float64(6), out["usage"].(map[string]any)["total_tokens"])
}

func TestChatCommandStream(t *testing.T) {
	cfg := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"id\":\"s\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		io.WriteString(w, "data: {\"id\":\"s\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	})

	ta := newTestApp(t, cfg)
	require.NoError(t, ta.run(t, "chat", "--prompt", "Hi", "--stream"))
	assert.Equal(t, "Hello\n", ta.stdout.String())
}

func TestChatCommandProviderError(t *testing.T) {
	cfg := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req-42")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"code":"1001","message":"invalid api key"}}`)
	})

	ta := newTestApp(t, cfg)
	err := ta.run(t, "chat", "--prompt", "Hello")
	require.Error(t, err)
	assert.Equal(t, ExitProvider, exitCode(t, err))
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Contains(t, ta.stderr.String(), "invalid api key")
	assert.Contains(t, ta.stderr.String(), "req-42")
	assert.Equal(t, 1, strings.Count(ta.stderr.String(), "Error:"))
}

func TestChatCommandProviderErrorJSON(t *testing.T) {
	cfg := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":1214,"message":"bad model"}}`)
	})

	ta := newTestApp(t, cfg)
	err := ta.run(t, "chat", "--prompt", "Hello", "--json")
	require.Error(t, err)

	var out struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
			Status  int    `json:"status"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(ta.stderr.Bytes(), &out))
	assert.Equal(t, "1214", out.Error.Type)
	assert.Equal(t, "bad model", out.Error.Message)
	assert.Equal(t, http.StatusBadRequest, out.Error.Status)
}

func TestHandleChatErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"network", &core.TransportError{Op: "POST", URL: "http://x", Err: io.ErrUnexpectedEOF}, ExitNetwork},
		{"deadline", fmt.Errorf("%w: %w", core.ErrTimeout, context.DeadlineExceeded), ExitNetwork},
		{"model required", core.ErrModelRequired, ExitValidation},
		{"empty message", core.ErrEmptyMessage, ExitValidation},
		{"not supported", core.ErrNotSupported, ExitValidation},
		{"decode", core.NewDecodeError("chat response", []byte("{"), io.ErrUnexpectedEOF), ExitProvider},
		{"provider", &core.ProviderError{Provider: "zai", Status: 500, Message: "boom", Err: core.ErrServer}, ExitProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, nil)
			err := ta.app.handleChatError(tt.err)
			assert.Equal(t, tt.want, exitCode(t, err))
			assert.ErrorIs(t, err, tt.err)
			assert.True(t, strings.HasPrefix(ta.stderr.String(), "Error: "))
		})
	}
}

func TestHandleChatErrorJSON(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.app.jsonOutput = true
	err := ta.app.handleChatError(&core.TransportError{Op: "POST", Err: io.ErrUnexpectedEOF})
	assert.Equal(t, ExitNetwork, exitCode(t, err))

	var out map[string]map[string]string
	require.NoError(t, json.Unmarshal(ta.stderr.Bytes(), &out))
	assert.Equal(t, "network_error", out["error"]["type"])
}

func TestChatCommandMissingAPIKey(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")

	ta := newTestApp(t, nil)
	err := ta.run(t, "chat", "--prompt", "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, zai.ErrAPIKeyNotFound)
	assert.Equal(t, ExitValidation, exitCode(t, err))
	assert.Contains(t, ta.stderr.String(), "ZAI_API_KEY")
}

func TestChatCommandAPIKeyFromEnvFile(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		io.WriteString(w, `{"id":"r","choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer server.Close()

	t.Setenv(config.APIKeyEnv, "")
	require.NoError(t, os.Unsetenv(config.APIKeyEnv))
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ZAI_API_KEY=from-dotenv\n"), 0o600))

	ta := newTestApp(t, &config.Config{BaseURL: server.URL})
	ta.app.SetArgs([]string{"--env-file", envFile, "chat", "--prompt", "Hello"})
	require.NoError(t, ta.app.Execute())
	assert.Equal(t, "Bearer from-dotenv", auth)
}

func TestChatCommandRequiresPrompt(t *testing.T) {
	ta := newTestApp(t, nil)
	err := ta.run(t, "chat")
	require.Error(t, err)
	assert.Equal(t, ExitValidation, exitCode(t, err))
	assert.Contains(t, ta.stderr.String(), "prompt")
}

func TestChatCommandToolsDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weather.json"), []byte(`{"name":"get_weather","description":"Weather","parameters":{"type":"object"}}`), 0o600))

	var declared []any
	cfg := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		declared, _ = req["tools"].([]any)
		io.WriteString(w, `{"id":"r","choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	})

	ta := newTestApp(t, cfg)
	require.NoError(t, ta.run(t, "chat", "--prompt", "weather?", "--tools-dir", dir))
	require.Len(t, declared, 1)
	fn := declared[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "get_weather", fn["name"])
}

func TestToolsExport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"type":"function","function":{"name":"b_tool","parameters":{"type":"object","properties":{"q":{"type":"string"}}}}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"name":"a_tool","description":"first"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	ta := newTestApp(t, nil)
	require.NoError(t, ta.run(t, "tools", "export", "--dir", dir))

	var decls []core.ToolDeclaration
	require.NoError(t, json.Unmarshal(ta.stdout.Bytes(), &decls))
	require.Len(t, decls, 2)
	assert.Equal(t, "a_tool", decls[0].Name)
	assert.Equal(t, "first", decls[0].Description)
	assert.Equal(t, "b_tool", decls[1].Name)
	assert.JSONEq(t, `{"type":"object","properties":{"q":{"type":"string"}}}`, string(decls[1].Parameters))
}

func TestToolsExportUsesConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.json"), []byte(`{"name":"x"}`), 0o600))

	ta := newTestApp(t, &config.Config{ToolsDir: dir})
	require.NoError(t, ta.run(t, "tools", "export"))
	assert.Contains(t, ta.stdout.String(), `"name": "x"`)
}

func TestToolsExportErrors(t *testing.T) {
	ta := newTestApp(t, nil)
	err := ta.run(t, "tools", "export")
	require.Error(t, err)
	assert.Equal(t, ExitValidation, exitCode(t, err))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"description":"no name"}`), 0o600))
	ta = newTestApp(t, nil)
	err = ta.run(t, "tools", "export", "--dir", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRegistration)
}

func TestRealtimeCommand(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan []string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var types []string
		readType := func() {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev struct {
				Type string `json:"type"`
			}
			_ = json.Unmarshal(data, &ev)
			types = append(types, ev.Type)
		}

		readType()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.created","session":{"model":"glm-realtime-flash","modalities":["text"]}}`))
		readType()
		readType()
		received <- types

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.text.delta","delta":"Bon"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.text.delta","delta":"jour"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.done","response":{"status":"completed"}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	t.Setenv(config.APIKeyEnv, "test-key")
	ta := newTestApp(t, &config.Config{RealtimeURL: "ws" + strings.TrimPrefix(server.URL, "http")})
	require.NoError(t, ta.run(t, "realtime", "--text", "Hello"))

	assert.Equal(t, "Bonjour\n", ta.stdout.String())
	assert.Equal(t, []string{"session.update", "conversation.item.create", "response.create"}, <-received)
}

func TestRealtimeCommandServerError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.created","session":{}}`))
		_, _, _ = conn.ReadMessage()
		_, _, _ = conn.ReadMessage()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","error":{"code":"quota","message":"out of credit"}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	t.Setenv(config.APIKeyEnv, "test-key")
	ta := newTestApp(t, &config.Config{RealtimeURL: "ws" + strings.TrimPrefix(server.URL, "http")})
	err := ta.run(t, "realtime", "--text", "Hello")
	require.Error(t, err)
	assert.Equal(t, ExitProvider, exitCode(t, err))
	assert.Contains(t, ta.stderr.String(), "out of credit")
}

func TestRealtimeCommandRejectsChatModel(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "test-key")
	ta := newTestApp(t, nil)
	err := ta.run(t, "realtime", "--model", "glm-4.6", "--text", "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotSupported)
	assert.Equal(t, ExitValidation, exitCode(t, err))
}
