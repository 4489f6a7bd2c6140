package protocol

import "encoding/json"

// Modalities accepted by realtime sessions.
const (
	ModalityText  = "text"
	ModalityAudio = "audio"
)

// Audio formats accepted by realtime sessions.
const (
	AudioFormatPCM16 = "pcm16"
	AudioFormatWAV   = "wav"
	AudioFormatPCM   = "pcm"
	AudioFormatMP3   = "mp3"
)

// Turn detection modes.
const (
	TurnDetectionServerVAD = "server_vad"
	TurnDetectionClientVAD = "client_vad"
)

// Session is the negotiated realtime session configuration.
// Zero-valued fields are omitted so a session.update only changes what is set.
type Session struct {
	ID                       string          `json:"id,omitempty"`
	Object                   string          `json:"object,omitempty"`
	Model                    string          `json:"model,omitempty"`
	Modalities               []string        `json:"modalities,omitempty"`
	Instructions             string          `json:"instructions,omitempty"`
	Voice                    string          `json:"voice,omitempty"`
	InputAudioFormat         string          `json:"input_audio_format,omitempty"`
	OutputAudioFormat        string          `json:"output_audio_format,omitempty"`
	InputAudioNoiseReduction *NoiseReduction `json:"input_audio_noise_reduction,omitempty"`
	TurnDetection            *TurnDetection  `json:"turn_detection,omitempty"`
	Temperature              *float64        `json:"temperature,omitempty"`
	MaxResponseOutputTokens  string          `json:"max_response_output_tokens,omitempty"`
	Tools                    []RealtimeTool  `json:"tools,omitempty"`
	BetaFields               *BetaFields     `json:"beta_fields,omitempty"`
}

// TranscriptionSession configures transcription-only sessions.
type TranscriptionSession struct {
	InputAudioFormat         string          `json:"input_audio_format,omitempty"`
	InputAudioNoiseReduction *NoiseReduction `json:"input_audio_noise_reduction,omitempty"`
	Modalities               []string        `json:"modalities,omitempty"`
	TurnDetection            *TurnDetection  `json:"turn_detection,omitempty"`
}

// NoiseReduction selects an input denoiser: "near_field" or "far_field".
type NoiseReduction struct {
	Type string `json:"type"`
}

// TurnDetection configures voice activity detection.
type TurnDetection struct {
	Type              string   `json:"type"`
	CreateResponse    *bool    `json:"create_response,omitempty"`
	InterruptResponse *bool    `json:"interrupt_response,omitempty"`
	PrefixPaddingMS   *int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMS *int     `json:"silence_duration_ms,omitempty"`
	Threshold         *float64 `json:"threshold,omitempty"`
}

// RealtimeTool declares a function the realtime model may call.
type RealtimeTool struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// BetaFields carries service-specific session extensions.
type BetaFields struct {
	ChatMode       string          `json:"chat_mode,omitempty"` // audio, video_passive
	TTSSource      string          `json:"tts_source,omitempty"`
	AutoSearch     *bool           `json:"auto_search,omitempty"`
	GreetingConfig *GreetingConfig `json:"greeting_config,omitempty"`
}

// GreetingConfig controls the spoken greeting at session start.
type GreetingConfig struct {
	Enable  *bool  `json:"enable,omitempty"`
	Content string `json:"content,omitempty"`
}

// ConversationItem is a message, function call or function output in a realtime conversation.
type ConversationItem struct {
	ID        string        `json:"id,omitempty"`
	Type      string        `json:"type"` // message, function_call, function_call_output
	Object    string        `json:"object,omitempty"`
	Status    string        `json:"status,omitempty"`
	Role      string        `json:"role,omitempty"`
	Content   []ItemContent `json:"content,omitempty"`
	Name      string        `json:"name,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Output    string        `json:"output,omitempty"`
}

// ItemContent is one part of a conversation item.
type ItemContent struct {
	Type       string `json:"type"` // input_text, input_audio, text, audio
	Text       string `json:"text,omitempty"`
	Audio      string `json:"audio,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// ErrorDetail describes a server-side failure.
type ErrorDetail struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

// Response describes one model response in a realtime session.
type Response struct {
	ID     string         `json:"id"`
	Object string         `json:"object,omitempty"`
	Status string         `json:"status,omitempty"` // in_progress, completed, cancelled, failed, incomplete
	Usage  *ResponseUsage `json:"usage,omitempty"`
}

// ResponseUsage reports the tokens consumed by one response.
type ResponseUsage struct {
	TotalTokens        int           `json:"total_tokens"`
	InputTokens        int           `json:"input_tokens"`
	OutputTokens       int           `json:"output_tokens"`
	InputTokenDetails  *TokenDetails `json:"input_token_details,omitempty"`
	OutputTokenDetails *TokenDetails `json:"output_token_details,omitempty"`
}

// TokenDetails breaks usage down by modality.
type TokenDetails struct {
	CachedTokens int `json:"cached_tokens,omitempty"`
	TextTokens   int `json:"text_tokens,omitempty"`
	AudioTokens  int `json:"audio_tokens,omitempty"`
}

// RateLimit is one entry of a rate_limits.updated event.
type RateLimit struct {
	Name         string  `json:"name"`
	Limit        int     `json:"limit"`
	Remaining    int     `json:"remaining"`
	ResetSeconds float64 `json:"reset_seconds"`
}
