package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/zai-go/protocol"
	"github.com/petal-labs/zai-go/realtime"
)

func (a *App) newRealtimeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Send one text turn over a realtime session",
		Long: `Open a text-modality realtime session, send one user message and print
the streamed reply. The command exits when the response is done.

Examples:
  zai realtime --text "Tell me a joke"
  zai realtime --model glm-realtime-air --text "Hi" --instructions "Answer in French"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRealtime(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&a.realtimeText, "text", "", "User message (required)")
	cmd.Flags().StringVar(&a.realtimeInstructions, "instructions", "", "Session instructions")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func (a *App) runRealtime(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := a.provider()
	if err != nil {
		return err
	}

	sess, err := p.Realtime(a.realtimeModel(), realtime.WithLogger(a.logger()))
	if err != nil {
		return a.handleChatError(err)
	}
	defer sess.Close()

	err = sess.Connect(ctx, protocol.Session{
		Modalities:   []string{protocol.ModalityText},
		Instructions: a.realtimeInstructions,
	})
	if err != nil {
		return a.handleRealtimeError(err)
	}

	item := protocol.ConversationItem{
		Type:    "message",
		Role:    "user",
		Content: []protocol.ItemContent{{Type: "input_text", Text: a.realtimeText}},
	}
	if err := sess.CreateConversationItem(item); err != nil {
		return a.handleRealtimeError(err)
	}
	if err := sess.CreateResponse(&protocol.ResponseConfig{Modalities: []string{protocol.ModalityText}}); err != nil {
		return a.handleRealtimeError(err)
	}

	var serverErr error
	handler := realtime.HandlerFuncs{
		TextDelta: func(e protocol.TextDeltaEvent) {
			fmt.Fprint(a.stdout, e.Delta)
		},
		ResponseDone: func(protocol.ResponseDoneEvent) {
			fmt.Fprintln(a.stdout)
			_ = sess.Close()
		},
		Error: func(e protocol.ErrorEvent) {
			serverErr = &realtime.ServerError{Detail: e.Error}
			_ = sess.Close()
		},
	}

	if err := sess.ListenForEvents(ctx, handler); err != nil {
		return a.handleRealtimeError(err)
	}
	if serverErr != nil {
		return a.handleRealtimeError(serverErr)
	}
	return nil
}

func (a *App) handleRealtimeError(err error) error {
	var se *realtime.ServerError
	if errors.As(err, &se) {
		if a.jsonOutput {
			a.outputSimpleErrorJSON("realtime_error", se.Error())
		} else {
			fmt.Fprintf(a.stderr, "Error: %v\n", se)
		}
		return reportedExit(ExitProvider, err)
	}
	return a.handleChatError(err)
}
