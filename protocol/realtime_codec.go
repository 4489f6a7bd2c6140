package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/petal-labs/zai-go/core"
)

type envelope struct {
	Type string `json:"type"`
}

// EncodeClientEvent marshals e with its `type` discriminator injected.
func EncodeClientEvent(e ClientEvent) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("protocol: nil client event")
	}
	return withType(string(e.ClientEventType()), e)
}

// EncodeServerEvent marshals e with its `type` discriminator injected.
// An UnknownEvent encodes to its raw payload.
func EncodeServerEvent(e ServerEvent) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("protocol: nil server event")
	}
	if u, ok := e.(UnknownEvent); ok {
		return u.Raw, nil
	}
	return withType(string(e.ServerEventType()), e)
}

func withType(typ string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(typ)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 9)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 2 {
		buf.WriteByte(',')
		buf.Write(trimmed[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// DecodeClientEvent decodes a client event. Unlike server events, an
// unrecognized client type is an error.
func DecodeClientEvent(data []byte) (ClientEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, core.NewDecodeError("client event", data, err)
	}
	var e ClientEvent
	switch ClientEventType(env.Type) {
	case ClientEventSessionUpdate:
		e = &SessionUpdateEvent{}
	case ClientEventTranscriptionSessionUpdate:
		e = &TranscriptionSessionUpdateEvent{}
	case ClientEventInputAudioAppend:
		e = &InputAudioAppendEvent{}
	case ClientEventInputVideoFrameAppend:
		e = &InputVideoFrameAppendEvent{}
	case ClientEventInputAudioCommit:
		e = &InputAudioCommitEvent{}
	case ClientEventInputAudioClear:
		e = &InputAudioClearEvent{}
	case ClientEventConversationItemCreate:
		e = &ConversationItemCreateEvent{}
	case ClientEventConversationItemDelete:
		e = &ConversationItemDeleteEvent{}
	case ClientEventConversationItemRetrieve:
		e = &ConversationItemRetrieveEvent{}
	case ClientEventResponseCreate:
		e = &ResponseCreateEvent{}
	case ClientEventResponseCancel:
		e = &ResponseCancelEvent{}
	default:
		return nil, core.NewDecodeError("client event", data, fmt.Errorf("unknown type %q", env.Type))
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, core.NewDecodeError(env.Type, data, err)
	}
	return e, nil
}

// DecodeServerEvent decodes a server event. Malformed JSON is a
// *core.DecodeError. A missing or unrecognized type yields an UnknownEvent
// holding the complete payload.
func DecodeServerEvent(data []byte) (ServerEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, core.NewDecodeError("server event", data, err)
	}
	switch ServerEventType(env.Type) {
	case ServerEventError:
		return decodeAs[ErrorEvent](env.Type, data)
	case ServerEventSessionCreated:
		return decodeAs[SessionCreatedEvent](env.Type, data)
	case ServerEventSessionUpdated:
		return decodeAs[SessionUpdatedEvent](env.Type, data)
	case ServerEventTranscriptionSessionUpdated:
		return decodeAs[TranscriptionSessionUpdatedEvent](env.Type, data)
	case ServerEventConversationItemCreated:
		return decodeAs[ConversationItemCreatedEvent](env.Type, data)
	case ServerEventConversationItemDeleted:
		return decodeAs[ConversationItemDeletedEvent](env.Type, data)
	case ServerEventConversationItemRetrieved:
		return decodeAs[ConversationItemRetrievedEvent](env.Type, data)
	case ServerEventInputTranscriptionCompleted:
		return decodeAs[InputTranscriptionCompletedEvent](env.Type, data)
	case ServerEventInputTranscriptionFailed:
		return decodeAs[InputTranscriptionFailedEvent](env.Type, data)
	case ServerEventInputAudioCommitted:
		return decodeAs[InputAudioCommittedEvent](env.Type, data)
	case ServerEventInputAudioCleared:
		return decodeAs[InputAudioClearedEvent](env.Type, data)
	case ServerEventSpeechStarted:
		return decodeAs[SpeechStartedEvent](env.Type, data)
	case ServerEventSpeechStopped:
		return decodeAs[SpeechStoppedEvent](env.Type, data)
	case ServerEventResponseCreated:
		return decodeAs[ResponseCreatedEvent](env.Type, data)
	case ServerEventResponseCancelled:
		return decodeAs[ResponseCancelledEvent](env.Type, data)
	case ServerEventResponseDone:
		return decodeAs[ResponseDoneEvent](env.Type, data)
	case ServerEventOutputItemAdded:
		return decodeAs[OutputItemAddedEvent](env.Type, data)
	case ServerEventOutputItemDone:
		return decodeAs[OutputItemDoneEvent](env.Type, data)
	case ServerEventContentPartAdded:
		return decodeAs[ContentPartAddedEvent](env.Type, data)
	case ServerEventContentPartDone:
		return decodeAs[ContentPartDoneEvent](env.Type, data)
	case ServerEventFunctionCallArgumentsDone:
		return decodeAs[FunctionCallArgumentsDoneEvent](env.Type, data)
	case ServerEventFunctionCallSimpleBrowser:
		return decodeAs[SimpleBrowserEvent](env.Type, data)
	case ServerEventTextDelta:
		return decodeAs[TextDeltaEvent](env.Type, data)
	case ServerEventTextDone:
		return decodeAs[TextDoneEvent](env.Type, data)
	case ServerEventAudioTranscriptDelta:
		return decodeAs[AudioTranscriptDeltaEvent](env.Type, data)
	case ServerEventAudioTranscriptDone:
		return decodeAs[AudioTranscriptDoneEvent](env.Type, data)
	case ServerEventAudioDelta:
		return decodeAs[AudioDeltaEvent](env.Type, data)
	case ServerEventAudioDone:
		return decodeAs[AudioDoneEvent](env.Type, data)
	case ServerEventRateLimitsUpdated:
		return decodeAs[RateLimitsUpdatedEvent](env.Type, data)
	case ServerEventHeartbeat:
		return decodeAs[HeartbeatEvent](env.Type, data)
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return UnknownEvent{Type: env.Type, Raw: raw}, nil
	}
}

func decodeAs[T ServerEvent](typ string, data []byte) (ServerEvent, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, core.NewDecodeError(typ, data, err)
	}
	return v, nil
}
