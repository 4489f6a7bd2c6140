package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/tools"
)

func (a *App) newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send a chat completion request",
		Long: `Send a chat completion request to a GLM model.

With --tools-dir the function specs in that directory are offered to the model.
Specs have no local handler, so a call reports an error result to the model.

Examples:
  zai chat --model glm-4.6 --prompt "Hello"
  zai chat --prompt "Hello" --stream
  zai chat --prompt "Hello" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&a.chatPrompt, "prompt", "", "User message (required)")
	cmd.Flags().StringVar(&a.chatSystem, "system", "", "System message")
	cmd.Flags().Float32Var(&a.chatTemperature, "temperature", 0, "Temperature (0 = use default)")
	cmd.Flags().IntVar(&a.chatMaxTokens, "max-tokens", 0, "Max tokens (0 = use default)")
	cmd.Flags().BoolVar(&a.chatStream, "stream", false, "Enable streaming output")
	cmd.Flags().BoolVar(&a.chatThinking, "thinking", false, "Enable deep-thinking output")
	cmd.Flags().StringVar(&a.toolsDir, "tools-dir", "", "Directory of JSON function specs to offer the model")

	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func (a *App) runChat(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := a.provider()
	if err != nil {
		return err
	}

	clientOpts := []core.ClientOption{}
	if a.verbose {
		clientOpts = append(clientOpts, core.WithTelemetry(core.NewSlogTelemetry(a.logger())))
	}
	client := core.NewClient(p, clientOpts...)

	convOpts := []core.ConversationOption{}
	if a.chatSystem != "" {
		convOpts = append(convOpts, core.WithSystemMessage(a.chatSystem))
	}
	if a.chatTemperature > 0 {
		convOpts = append(convOpts, core.WithConversationTemperature(a.chatTemperature))
	}
	if a.chatMaxTokens > 0 {
		convOpts = append(convOpts, core.WithConversationMaxTokens(a.chatMaxTokens))
	}
	if a.chatThinking {
		convOpts = append(convOpts, core.WithConversationThinking(true))
	}
	if a.toolsDir != "" {
		reg := tools.NewRegistry()
		if _, err := reg.LoadDir(a.toolsDir, nil, false); err != nil {
			return exitWithCode(ExitValidation, err)
		}
		cfg := tools.DefaultExecutorConfig()
		cfg.Logger = a.logger()
		convOpts = append(convOpts, core.WithExecutor(tools.NewExecutor(reg, cfg)))
	}

	model := a.chatModel()
	conv := core.NewConversation(client, model, convOpts...)

	if a.chatStream && !a.jsonOutput {
		return a.runStreamingChat(ctx, conv)
	}

	turn, err := conv.Send(ctx, a.chatPrompt)
	if err != nil {
		return a.handleChatError(err)
	}
	if a.jsonOutput {
		return a.outputJSON(turn)
	}

	if a.isTerminal(a.stdout) {
		fmt.Fprintf(a.stdout, "> %s\n", a.chatPrompt)
	}
	fmt.Fprintln(a.stdout, turn.Response.Output)
	return nil
}

func (a *App) runStreamingChat(ctx context.Context, conv *core.Conversation) error {
	interactive := a.isTerminal(a.stdout)
	if interactive {
		fmt.Fprintf(a.stdout, "> %s\n", a.chatPrompt)
	}

	turn, err := conv.Stream(ctx, a.chatPrompt, core.WriteContent(a.stdout))
	fmt.Fprintln(a.stdout)
	if err != nil {
		return a.handleChatError(err)
	}

	if a.verbose {
		fmt.Fprintf(a.stderr, "Usage: %d prompt + %d completion = %d total tokens\n",
			turn.Usage.PromptTokens,
			turn.Usage.CompletionTokens,
			turn.Usage.TotalTokens)
	}
	return nil
}

func (a *App) outputJSON(turn *core.Turn) error {
	resp := turn.Response
	output := map[string]any{
		"id":            resp.ID,
		"model":         resp.Model,
		"output":        resp.Output,
		"finish_reason": resp.FinishReason,
		"iterations":    turn.Iterations,
		"usage": map[string]int{
			"prompt_tokens":     turn.Usage.PromptTokens,
			"completion_tokens": turn.Usage.CompletionTokens,
			"total_tokens":      turn.Usage.TotalTokens,
		},
	}
	if resp.Reasoning != "" {
		output["reasoning"] = resp.Reasoning
	}
	if len(turn.ToolResults) > 0 {
		output["tool_results"] = turn.ToolResults
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
