package protocol

// ClientEventType is the `type` discriminator of client→server events.
type ClientEventType string

const (
	ClientEventSessionUpdate              ClientEventType = "session.update"
	ClientEventTranscriptionSessionUpdate ClientEventType = "transcription_session.update"
	ClientEventInputAudioAppend           ClientEventType = "input_audio_buffer.append"
	ClientEventInputVideoFrameAppend      ClientEventType = "input_audio_buffer.append_video_frame"
	ClientEventInputAudioCommit           ClientEventType = "input_audio_buffer.commit"
	ClientEventInputAudioClear            ClientEventType = "input_audio_buffer.clear"
	ClientEventConversationItemCreate     ClientEventType = "conversation.item.create"
	ClientEventConversationItemDelete     ClientEventType = "conversation.item.delete"
	ClientEventConversationItemRetrieve   ClientEventType = "conversation.item.retrieve"
	ClientEventResponseCreate             ClientEventType = "response.create"
	ClientEventResponseCancel             ClientEventType = "response.cancel"
)

// ClientEvent is the closed set of events a client sends.
type ClientEvent interface {
	ClientEventType() ClientEventType
	base() *ClientEventBase
}

// ClientEventBase holds fields common to every client event.
type ClientEventBase struct {
	EventID         string `json:"event_id,omitempty"`
	ClientTimestamp int64  `json:"client_timestamp,omitempty"`
}

func (b *ClientEventBase) base() *ClientEventBase { return b }

// Stamp fills in event_id and client_timestamp when they are unset.
func Stamp(e ClientEvent, id func() string, nowMillis int64) {
	b := e.base()
	if b == nil {
		return
	}
	if b.EventID == "" && id != nil {
		b.EventID = id()
	}
	if b.ClientTimestamp == 0 {
		b.ClientTimestamp = nowMillis
	}
}

// SessionUpdateEvent configures the session. The first one on a
// connection makes the server create the session.
type SessionUpdateEvent struct {
	ClientEventBase
	Session Session `json:"session"`
}

// TranscriptionSessionUpdateEvent configures a transcription-only session.
type TranscriptionSessionUpdateEvent struct {
	ClientEventBase
	Session TranscriptionSession `json:"session"`
}

// InputAudioAppendEvent appends base64 audio to the input buffer.
type InputAudioAppendEvent struct {
	ClientEventBase
	Audio string `json:"audio"`
}

// InputVideoFrameAppendEvent appends one base64-encoded video frame.
type InputVideoFrameAppendEvent struct {
	ClientEventBase
	VideoFrame string `json:"video_frame"`
}

// InputAudioCommitEvent commits the input buffer as a user item.
type InputAudioCommitEvent struct {
	ClientEventBase
}

// InputAudioClearEvent discards the input buffer.
type InputAudioClearEvent struct {
	ClientEventBase
}

// ConversationItemCreateEvent adds an item to the conversation.
type ConversationItemCreateEvent struct {
	ClientEventBase
	PreviousItemID string           `json:"previous_item_id,omitempty"`
	Item           ConversationItem `json:"item"`
}

// ConversationItemDeleteEvent removes an item.
type ConversationItemDeleteEvent struct {
	ClientEventBase
	ItemID string `json:"item_id"`
}

// ConversationItemRetrieveEvent asks the server to echo an item.
type ConversationItemRetrieveEvent struct {
	ClientEventBase
	ItemID string `json:"item_id"`
}

// ResponseCreateEvent asks the model to respond.
type ResponseCreateEvent struct {
	ClientEventBase
	Response *ResponseConfig `json:"response,omitempty"`
}

// ResponseConfig overrides session settings for one response.
type ResponseConfig struct {
	Modalities   []string       `json:"modalities,omitempty"`
	Instructions string         `json:"instructions,omitempty"`
	Voice        string         `json:"voice,omitempty"`
	Temperature  *float64       `json:"temperature,omitempty"`
	Tools        []RealtimeTool `json:"tools,omitempty"`
}

// ResponseCancelEvent cancels the in-progress response.
type ResponseCancelEvent struct {
	ClientEventBase
}

func (*SessionUpdateEvent) ClientEventType() ClientEventType { return ClientEventSessionUpdate }
func (*TranscriptionSessionUpdateEvent) ClientEventType() ClientEventType {
	return ClientEventTranscriptionSessionUpdate
}
func (*InputAudioAppendEvent) ClientEventType() ClientEventType { return ClientEventInputAudioAppend }
func (*InputVideoFrameAppendEvent) ClientEventType() ClientEventType {
	return ClientEventInputVideoFrameAppend
}
func (*InputAudioCommitEvent) ClientEventType() ClientEventType { return ClientEventInputAudioCommit }
func (*InputAudioClearEvent) ClientEventType() ClientEventType  { return ClientEventInputAudioClear }
func (*ConversationItemCreateEvent) ClientEventType() ClientEventType {
	return ClientEventConversationItemCreate
}
func (*ConversationItemDeleteEvent) ClientEventType() ClientEventType {
	return ClientEventConversationItemDelete
}
func (*ConversationItemRetrieveEvent) ClientEventType() ClientEventType {
	return ClientEventConversationItemRetrieve
}
func (*ResponseCreateEvent) ClientEventType() ClientEventType { return ClientEventResponseCreate }
func (*ResponseCancelEvent) ClientEventType() ClientEventType { return ClientEventResponseCancel }
