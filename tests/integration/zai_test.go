//go:build integration

package integration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/protocol"
	"github.com/petal-labs/zai-go/providers/zai"
	"github.com/petal-labs/zai-go/realtime"
	"github.com/petal-labs/zai-go/tools"
)

// zaiTestMutex ensures Z.ai tests run sequentially to avoid rate limiting.
var zaiTestMutex sync.Mutex

// zaiTestSetup acquires the mutex and returns cleanup function.
func zaiTestSetup(t *testing.T) func() {
	t.Helper()
	zaiTestMutex.Lock()
	return func() {
		// Small delay between tests to avoid rate limiting
		time.Sleep(500 * time.Millisecond)
		zaiTestMutex.Unlock()
	}
}

func newZaiClient(t *testing.T) *core.Client {
	t.Helper()
	return core.NewClient(zai.New(getZaiKey(t)))
}

func TestZai_ChatCompletion(t *testing.T) {
	skipIfNoZaiKey(t)
	cleanup := zaiTestSetup(t)
	defer cleanup()

	client := newZaiClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := client.Chat(zai.ModelGLM47Flash).
		User("Say 'hello' and nothing else.").
		GetResponse(ctx)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if resp.Output == "" {
		t.Error("Response output is empty")
	}
	if resp.Usage.TotalTokens == 0 {
		t.Error("Response usage total tokens is 0")
	}

	t.Logf("Response: %s", resp.Output)
	t.Logf("Usage: %d prompt + %d completion = %d total",
		resp.Usage.PromptTokens,
		resp.Usage.CompletionTokens,
		resp.Usage.TotalTokens)
}

func TestZai_ChatCompletion_Streaming(t *testing.T) {
	skipIfNoZaiKey(t)
	cleanup := zaiTestSetup(t)
	defer cleanup()

	client := newZaiClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var chunks []string
	resp, err := client.Chat(zai.ModelGLM47Flash).
		User("Count from 1 to 5, each number on a new line.").
		Stream(ctx, func(_ context.Context, chunk core.ChatChunk) error {
			if chunk.Content != "" {
				chunks = append(chunks, chunk.Content)
			}
			return nil
		})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	if len(chunks) == 0 {
		t.Error("No chunks received")
	}
	if combined := strings.Join(chunks, ""); combined != resp.Output {
		t.Errorf("assembled output %q does not match streamed content %q", resp.Output, combined)
	}

	t.Logf("Received %d chunks", len(chunks))
	t.Logf("Output: %s", resp.Output)
}

func TestZai_ChatCompletion_WithTools(t *testing.T) {
	skipIfNoZaiKey(t)
	cleanup := zaiTestSetup(t)
	defer cleanup()

	client := newZaiClient(t)
	reg := createWeatherRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := client.Chat(zai.ModelGLM47Flash).
		User("What's the weather like in San Francisco?").
		Tools(reg.Declarations()...).
		GetResponse(ctx)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	// The model should either call the tool or respond with text
	if resp.Output == "" && !resp.HasToolCalls() {
		t.Error("Response has no output and no tool calls")
	}

	for _, call := range resp.ToolCalls {
		t.Logf("Tool call: %s(%s)", call.Name, call.Arguments)
		if call.ID == "" {
			t.Error("Tool call ID is empty")
		}
		if err := call.ValidateArguments(); err != nil {
			t.Errorf("tool call arguments are not a JSON object: %v", err)
		}
	}
}

func TestZai_Conversation_ToolLoop(t *testing.T) {
	skipIfNoZaiKey(t)
	cleanup := zaiTestSetup(t)
	defer cleanup()

	client := newZaiClient(t)
	executor := tools.NewExecutor(createWeatherRegistry(t), tools.DefaultExecutorConfig())
	conv := core.NewConversation(client, zai.ModelGLM47Flash,
		core.WithSystemMessage("Always use get_weather to answer weather questions."),
		core.WithExecutor(executor),
		core.WithMaxIterations(4),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	turn, err := conv.Send(ctx, "What's the weather in Paris?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if turn.Response.Output == "" {
		t.Error("final answer is empty")
	}
	for _, r := range turn.Failed() {
		t.Errorf("tool %s failed: %s", r.ToolName, r.Error)
	}
	t.Logf("%d iterations, %d tool results: %s", turn.Iterations, len(turn.ToolResults), turn.Response.Output)
}

func TestZai_ChatCompletion_SystemMessage(t *testing.T) {
	skipIfNoZaiKey(t)
	cleanup := zaiTestSetup(t)
	defer cleanup()

	client := newZaiClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := client.Chat(zai.ModelGLM47Flash).
		System("You are a pirate. Always respond like a pirate.").
		User("Say hello.").
		GetResponse(ctx)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Output == "" {
		t.Error("Response output is empty")
	}
	t.Logf("Response: %s", resp.Output)
}

func TestZai_ChatCompletion_MaxTokens(t *testing.T) {
	skipIfNoZaiKey(t)
	cleanup := zaiTestSetup(t)
	defer cleanup()

	client := newZaiClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := client.Chat(zai.ModelGLM45Flash).
		User("Write a long story about a dragon.").
		MaxTokens(20).
		Thinking(false).
		GetResponse(ctx)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Usage.CompletionTokens > 40 {
		t.Errorf("CompletionTokens = %d, want a response capped near 20", resp.Usage.CompletionTokens)
	}
	t.Logf("finish_reason=%s output=%q", resp.FinishReason, resp.Output)
}

func TestZai_ChatCompletion_Reasoning(t *testing.T) {
	skipIfNoZaiKey(t)
	cleanup := zaiTestSetup(t)
	defer cleanup()

	client := newZaiClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	resp, err := client.Chat(zai.ModelGLM47).
		User("What is 15% of 240?").
		Thinking(true).
		GetResponse(ctx)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !strings.Contains(resp.Output, "36") {
		t.Errorf("Output = %q, want it to mention 36", resp.Output)
	}
	if resp.Reasoning == "" {
		t.Log("Note: no reasoning content returned")
	}
}

func TestZai_Unauthorized(t *testing.T) {
	skipIfNoZaiKey(t)
	cleanup := zaiTestSetup(t)
	defer cleanup()

	client := core.NewClient(zai.New("invalid-key"), core.WithRetry(core.NoRetry()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := client.Chat(zai.ModelGLM47Flash).User("hi").GetResponse(ctx)
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestZai_RealtimeText(t *testing.T) {
	skipIfNoZaiKey(t)
	cleanup := zaiTestSetup(t)
	defer cleanup()

	p := zai.New(getZaiKey(t))
	sess, err := p.Realtime(zai.ModelGLMRealtimeFlash)
	if err != nil {
		t.Fatalf("Realtime() error = %v", err)
	}
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := sess.Connect(ctx, protocol.Session{Modalities: []string{protocol.ModalityText}}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	item := protocol.ConversationItem{
		Type:    "message",
		Role:    "user",
		Content: []protocol.ItemContent{{Type: "input_text", Text: "Say hello."}},
	}
	if err := sess.CreateConversationItem(item); err != nil {
		t.Fatalf("CreateConversationItem() error = %v", err)
	}
	if err := sess.CreateResponse(&protocol.ResponseConfig{Modalities: []string{protocol.ModalityText}}); err != nil {
		t.Fatalf("CreateResponse() error = %v", err)
	}

	var text strings.Builder
	var serverErr error
	err = sess.ListenForEvents(ctx, realtime.HandlerFuncs{
		TextDelta: func(e protocol.TextDeltaEvent) { text.WriteString(e.Delta) },
		ResponseDone: func(protocol.ResponseDoneEvent) {
			_ = sess.Close()
		},
		Error: func(e protocol.ErrorEvent) {
			serverErr = &realtime.ServerError{Detail: e.Error}
			_ = sess.Close()
		},
	})
	if err != nil {
		t.Fatalf("ListenForEvents() error = %v", err)
	}
	if serverErr != nil {
		t.Fatalf("server error: %v", serverErr)
	}
	if text.Len() == 0 {
		t.Error("no text deltas received")
	}
	t.Logf("Realtime reply: %s", text.String())
}
