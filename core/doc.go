// Package core provides the zai-go client, the conversation orchestrator and
// the types shared by every other package.
//
// # Client and Provider
//
// The primary entry point is [Client]. It wraps a [Provider] and adds
// request validation, capability checks, telemetry and retry:
//
//	provider, _ := zai.NewFromEnv()
//	client := core.NewClient(provider,
//	    core.WithTelemetry(core.NewSlogTelemetry(logger)),
//	    core.WithRetry(core.DefaultRetryConfig()),
//	)
//
// # ChatBuilder
//
//	resp, err := client.Chat(zai.ModelGLM46).
//	    System("You are a helpful assistant.").
//	    User("Hello!").
//	    Temperature(0.7).
//	    GetResponse(ctx)
//
// ChatBuilder is NOT thread-safe; build one per request.
//
// # Streaming
//
// Streaming is callback driven. The callback for chunk N returns before the
// body is read for chunk N+1, so a slow consumer throttles the network read:
//
//	resp, err := client.Chat(model).User("Tell me a story.").
//	    Stream(ctx, core.WriteContent(os.Stdout))
//
// The returned [ChatResponse] is the accumulation of every chunk, with tool
// call fragments reassembled by index.
//
// # Capabilities
//
// [Provider.Models] returns a capability table. Before a request is sent the
// client checks the model against it: tools require [FeatureToolCalling],
// image and file parts require [FeatureVision], video parts require
// [FeatureVideo]. Models missing from the table are passed through.
//
// # Conversations and tools
//
// [Conversation] owns an ordered message history. When a reply carries tool
// calls it hands them to a [ToolExecutor], appends the assistant turn and the
// role=tool replies, and re-issues the request:
//
//	conv := core.NewConversation(client, model,
//	    core.WithSystemMessage("Use tools when helpful."),
//	    core.WithExecutor(tools.NewExecutor(registry, tools.ExecutorConfig{})),
//	)
//	turn, err := conv.Send(ctx, "What's the weather in Paris?")
//
// [Turn] is returned even when err is non-nil and lists which tool calls
// succeeded or failed.
//
// # Error Handling
//
// Failures are classified with sentinel errors checked via errors.Is:
//   - [ErrNetwork]: connection or I/O failure ([TransportError])
//   - [ErrDecode]: malformed JSON on the wire ([DecodeError])
//   - [ErrUnauthorized], [ErrRateLimited], [ErrBadRequest], [ErrServer]: HTTP status classes ([ProviderError])
//   - [ErrToolNotFound], [ErrInvalidParameters], [ErrExecutionFailed], [ErrTimeout], [ErrRegistration]: tool engine
//   - [ErrEmptyMessage], [ErrModelRequired], [ErrNoMessages]: request validation
//
// Rate limits and 5xx responses are retried with exponential backoff.
// Decode errors, 4xx responses and context cancellation are not.
package core
