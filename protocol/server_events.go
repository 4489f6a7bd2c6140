package protocol

import "encoding/json"

// ServerEventType is the `type` discriminator of server→client events.
type ServerEventType string

const (
	ServerEventError                          ServerEventType = "error"
	ServerEventSessionCreated                 ServerEventType = "session.created"
	ServerEventSessionUpdated                 ServerEventType = "session.updated"
	ServerEventTranscriptionSessionUpdated    ServerEventType = "transcription_session.updated"
	ServerEventConversationItemCreated        ServerEventType = "conversation.item.created"
	ServerEventConversationItemDeleted        ServerEventType = "conversation.item.deleted"
	ServerEventConversationItemRetrieved      ServerEventType = "conversation.item.retrieved"
	ServerEventInputTranscriptionCompleted    ServerEventType = "conversation.item.input_audio_transcription.completed"
	ServerEventInputTranscriptionFailed       ServerEventType = "conversation.item.input_audio_transcription.failed"
	ServerEventInputAudioCommitted            ServerEventType = "input_audio_buffer.committed"
	ServerEventInputAudioCleared              ServerEventType = "input_audio_buffer.cleared"
	ServerEventSpeechStarted                  ServerEventType = "input_audio_buffer.speech_started"
	ServerEventSpeechStopped                  ServerEventType = "input_audio_buffer.speech_stopped"
	ServerEventResponseCreated                ServerEventType = "response.created"
	ServerEventResponseCancelled              ServerEventType = "response.cancelled"
	ServerEventResponseDone                   ServerEventType = "response.done"
	ServerEventOutputItemAdded                ServerEventType = "response.output_item.added"
	ServerEventOutputItemDone                 ServerEventType = "response.output_item.done"
	ServerEventContentPartAdded               ServerEventType = "response.content_part.added"
	ServerEventContentPartDone                ServerEventType = "response.content_part.done"
	ServerEventFunctionCallArgumentsDone      ServerEventType = "response.function_call_arguments.done"
	ServerEventFunctionCallSimpleBrowser      ServerEventType = "response.function_call.simple_browser"
	ServerEventTextDelta                      ServerEventType = "response.text.delta"
	ServerEventTextDone                       ServerEventType = "response.text.done"
	ServerEventAudioTranscriptDelta           ServerEventType = "response.audio_transcript.delta"
	ServerEventAudioTranscriptDone            ServerEventType = "response.audio_transcript.done"
	ServerEventAudioDelta                     ServerEventType = "response.audio.delta"
	ServerEventAudioDone                      ServerEventType = "response.audio.done"
	ServerEventRateLimitsUpdated              ServerEventType = "rate_limits.updated"
	ServerEventHeartbeat                      ServerEventType = "heartbeat"
)

// ServerEvent is a decoded server→client event. Unrecognized types decode
// to UnknownEvent.
type ServerEvent interface {
	ServerEventType() ServerEventType
}

// ServerEventBase holds fields common to every server event.
type ServerEventBase struct {
	EventID         string `json:"event_id,omitempty"`
	ClientTimestamp int64  `json:"client_timestamp,omitempty"`
}

// UnknownEvent preserves an event whose type is not recognized, or which
// has no type at all. Raw is the complete original payload.
type UnknownEvent struct {
	Type string
	Raw  json.RawMessage
}

func (e UnknownEvent) ServerEventType() ServerEventType { return ServerEventType(e.Type) }

type ErrorEvent struct {
	ServerEventBase
	Error ErrorDetail `json:"error"`
}

type SessionCreatedEvent struct {
	ServerEventBase
	Session Session `json:"session"`
}

type SessionUpdatedEvent struct {
	ServerEventBase
	Session Session `json:"session"`
}

type TranscriptionSessionUpdatedEvent struct {
	ServerEventBase
	Session TranscriptionSession `json:"session"`
}

type ConversationItemCreatedEvent struct {
	ServerEventBase
	PreviousItemID string           `json:"previous_item_id,omitempty"`
	Item           ConversationItem `json:"item"`
}

type ConversationItemDeletedEvent struct {
	ServerEventBase
	ItemID string `json:"item_id"`
}

type ConversationItemRetrievedEvent struct {
	ServerEventBase
	Item ConversationItem `json:"item"`
}

type InputTranscriptionCompletedEvent struct {
	ServerEventBase
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	Transcript   string `json:"transcript"`
}

type InputTranscriptionFailedEvent struct {
	ServerEventBase
	ItemID       string      `json:"item_id"`
	ContentIndex int         `json:"content_index"`
	Error        ErrorDetail `json:"error"`
}

type InputAudioCommittedEvent struct {
	ServerEventBase
	PreviousItemID string `json:"previous_item_id,omitempty"`
	ItemID         string `json:"item_id"`
}

type InputAudioClearedEvent struct {
	ServerEventBase
}

type SpeechStartedEvent struct {
	ServerEventBase
	AudioStartMS int64  `json:"audio_start_ms"`
	ItemID       string `json:"item_id"`
}

type SpeechStoppedEvent struct {
	ServerEventBase
	AudioEndMS int64  `json:"audio_end_ms"`
	ItemID     string `json:"item_id"`
}

type ResponseCreatedEvent struct {
	ServerEventBase
	Response Response `json:"response"`
}

type ResponseCancelledEvent struct {
	ServerEventBase
	Response Response `json:"response"`
}

// ResponseDoneEvent closes a response and carries its final usage.
type ResponseDoneEvent struct {
	ServerEventBase
	Response Response `json:"response"`
}

type OutputItemAddedEvent struct {
	ServerEventBase
	ResponseID  string           `json:"response_id"`
	OutputIndex int              `json:"output_index"`
	Item        ConversationItem `json:"item"`
}

type OutputItemDoneEvent struct {
	ServerEventBase
	ResponseID  string           `json:"response_id"`
	OutputIndex int              `json:"output_index"`
	Item        ConversationItem `json:"item"`
}

// ContentPosition locates a content part within a response.
type ContentPosition struct {
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
}

type ContentPartAddedEvent struct {
	ServerEventBase
	ContentPosition
	Part ItemContent `json:"part"`
}

type ContentPartDoneEvent struct {
	ServerEventBase
	ContentPosition
	Part ItemContent `json:"part"`
}

type FunctionCallArgumentsDoneEvent struct {
	ServerEventBase
	ResponseID  string `json:"response_id"`
	ItemID      string `json:"item_id,omitempty"`
	OutputIndex int    `json:"output_index"`
	CallID      string `json:"call_id,omitempty"`
	Name        string `json:"name"`
	Arguments   string `json:"arguments"`
}

// SimpleBrowserEvent reports a server-side web search invocation.
type SimpleBrowserEvent struct {
	ServerEventBase
	Name    string `json:"name"`
	Session struct {
		BetaFields BetaFields `json:"beta_fields"`
	} `json:"session"`
}

type TextDeltaEvent struct {
	ServerEventBase
	ContentPosition
	Delta string `json:"delta"`
}

type TextDoneEvent struct {
	ServerEventBase
	ContentPosition
	Text string `json:"text"`
}

type AudioTranscriptDeltaEvent struct {
	ServerEventBase
	ContentPosition
	Delta string `json:"delta"`
}

type AudioTranscriptDoneEvent struct {
	ServerEventBase
	ContentPosition
	Transcript string `json:"transcript"`
}

// AudioDeltaEvent carries a base64 audio fragment.
type AudioDeltaEvent struct {
	ServerEventBase
	ContentPosition
	Delta string `json:"delta"`
}

type AudioDoneEvent struct {
	ServerEventBase
	ContentPosition
}

type RateLimitsUpdatedEvent struct {
	ServerEventBase
	RateLimits []RateLimit `json:"rate_limits"`
}

// HeartbeatEvent is a keep-alive. It is informational only.
type HeartbeatEvent struct {
	ServerEventBase
}

func (ErrorEvent) ServerEventType() ServerEventType          { return ServerEventError }
func (SessionCreatedEvent) ServerEventType() ServerEventType { return ServerEventSessionCreated }
func (SessionUpdatedEvent) ServerEventType() ServerEventType { return ServerEventSessionUpdated }
func (TranscriptionSessionUpdatedEvent) ServerEventType() ServerEventType {
	return ServerEventTranscriptionSessionUpdated
}
func (ConversationItemCreatedEvent) ServerEventType() ServerEventType {
	return ServerEventConversationItemCreated
}
func (ConversationItemDeletedEvent) ServerEventType() ServerEventType {
	return ServerEventConversationItemDeleted
}
func (ConversationItemRetrievedEvent) ServerEventType() ServerEventType {
	return ServerEventConversationItemRetrieved
}
func (InputTranscriptionCompletedEvent) ServerEventType() ServerEventType {
	return ServerEventInputTranscriptionCompleted
}
func (InputTranscriptionFailedEvent) ServerEventType() ServerEventType {
	return ServerEventInputTranscriptionFailed
}
func (InputAudioCommittedEvent) ServerEventType() ServerEventType { return ServerEventInputAudioCommitted }
func (InputAudioClearedEvent) ServerEventType() ServerEventType   { return ServerEventInputAudioCleared }
func (SpeechStartedEvent) ServerEventType() ServerEventType       { return ServerEventSpeechStarted }
func (SpeechStoppedEvent) ServerEventType() ServerEventType       { return ServerEventSpeechStopped }
func (ResponseCreatedEvent) ServerEventType() ServerEventType     { return ServerEventResponseCreated }
func (ResponseCancelledEvent) ServerEventType() ServerEventType   { return ServerEventResponseCancelled }
func (ResponseDoneEvent) ServerEventType() ServerEventType        { return ServerEventResponseDone }
func (OutputItemAddedEvent) ServerEventType() ServerEventType     { return ServerEventOutputItemAdded }
func (OutputItemDoneEvent) ServerEventType() ServerEventType      { return ServerEventOutputItemDone }
func (ContentPartAddedEvent) ServerEventType() ServerEventType    { return ServerEventContentPartAdded }
func (ContentPartDoneEvent) ServerEventType() ServerEventType     { return ServerEventContentPartDone }
func (FunctionCallArgumentsDoneEvent) ServerEventType() ServerEventType {
	return ServerEventFunctionCallArgumentsDone
}
func (SimpleBrowserEvent) ServerEventType() ServerEventType { return ServerEventFunctionCallSimpleBrowser }
func (TextDeltaEvent) ServerEventType() ServerEventType     { return ServerEventTextDelta }
func (TextDoneEvent) ServerEventType() ServerEventType      { return ServerEventTextDone }
func (AudioTranscriptDeltaEvent) ServerEventType() ServerEventType {
	return ServerEventAudioTranscriptDelta
}
func (AudioTranscriptDoneEvent) ServerEventType() ServerEventType {
	return ServerEventAudioTranscriptDone
}
func (AudioDeltaEvent) ServerEventType() ServerEventType        { return ServerEventAudioDelta }
func (AudioDoneEvent) ServerEventType() ServerEventType         { return ServerEventAudioDone }
func (RateLimitsUpdatedEvent) ServerEventType() ServerEventType { return ServerEventRateLimitsUpdated }
func (HeartbeatEvent) ServerEventType() ServerEventType         { return ServerEventHeartbeat }
