package realtime

import "github.com/petal-labs/zai-go/protocol"

// Handler receives server events from ListenForEvents. Each event is
// delivered to exactly one method, on the receive goroutine, in arrival
// order. The next frame is not read until the method returns.
type Handler interface {
	OnSessionCreated(protocol.SessionCreatedEvent)
	OnSessionUpdated(protocol.SessionUpdatedEvent)
	OnTextDelta(protocol.TextDeltaEvent)
	OnTextDone(protocol.TextDoneEvent)
	OnAudioDelta(protocol.AudioDeltaEvent)
	OnAudioDone(protocol.AudioDoneEvent)
	OnResponseDone(protocol.ResponseDoneEvent)
	OnError(protocol.ErrorEvent)
	OnHeartbeat(protocol.HeartbeatEvent)
	// OnEvent receives every other recognized event.
	OnEvent(protocol.ServerEvent)
	// OnUnknown receives events with an unrecognized or missing type.
	OnUnknown(protocol.UnknownEvent)
}

// BaseHandler implements Handler with no-ops. Embed it and override the
// methods of interest.
type BaseHandler struct{}

func (BaseHandler) OnSessionCreated(protocol.SessionCreatedEvent) {}
func (BaseHandler) OnSessionUpdated(protocol.SessionUpdatedEvent) {}
func (BaseHandler) OnTextDelta(protocol.TextDeltaEvent)           {}
func (BaseHandler) OnTextDone(protocol.TextDoneEvent)             {}
func (BaseHandler) OnAudioDelta(protocol.AudioDeltaEvent)         {}
func (BaseHandler) OnAudioDone(protocol.AudioDoneEvent)           {}
func (BaseHandler) OnResponseDone(protocol.ResponseDoneEvent)     {}
func (BaseHandler) OnError(protocol.ErrorEvent)                   {}
func (BaseHandler) OnHeartbeat(protocol.HeartbeatEvent)           {}
func (BaseHandler) OnEvent(protocol.ServerEvent)                  {}
func (BaseHandler) OnUnknown(protocol.UnknownEvent)               {}

// HandlerFuncs adapts optional callbacks to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	SessionCreated func(protocol.SessionCreatedEvent)
	SessionUpdated func(protocol.SessionUpdatedEvent)
	TextDelta      func(protocol.TextDeltaEvent)
	TextDone       func(protocol.TextDoneEvent)
	AudioDelta     func(protocol.AudioDeltaEvent)
	AudioDone      func(protocol.AudioDoneEvent)
	ResponseDone   func(protocol.ResponseDoneEvent)
	Error          func(protocol.ErrorEvent)
	Heartbeat      func(protocol.HeartbeatEvent)
	Event          func(protocol.ServerEvent)
	Unknown        func(protocol.UnknownEvent)
}

func (h HandlerFuncs) OnSessionCreated(e protocol.SessionCreatedEvent) {
	if h.SessionCreated != nil {
		h.SessionCreated(e)
	}
}

func (h HandlerFuncs) OnSessionUpdated(e protocol.SessionUpdatedEvent) {
	if h.SessionUpdated != nil {
		h.SessionUpdated(e)
	}
}

func (h HandlerFuncs) OnTextDelta(e protocol.TextDeltaEvent) {
	if h.TextDelta != nil {
		h.TextDelta(e)
	}
}

func (h HandlerFuncs) OnTextDone(e protocol.TextDoneEvent) {
	if h.TextDone != nil {
		h.TextDone(e)
	}
}

func (h HandlerFuncs) OnAudioDelta(e protocol.AudioDeltaEvent) {
	if h.AudioDelta != nil {
		h.AudioDelta(e)
	}
}

func (h HandlerFuncs) OnAudioDone(e protocol.AudioDoneEvent) {
	if h.AudioDone != nil {
		h.AudioDone(e)
	}
}

func (h HandlerFuncs) OnResponseDone(e protocol.ResponseDoneEvent) {
	if h.ResponseDone != nil {
		h.ResponseDone(e)
	}
}

func (h HandlerFuncs) OnError(e protocol.ErrorEvent) {
	if h.Error != nil {
		h.Error(e)
	}
}

func (h HandlerFuncs) OnHeartbeat(e protocol.HeartbeatEvent) {
	if h.Heartbeat != nil {
		h.Heartbeat(e)
	}
}

func (h HandlerFuncs) OnEvent(e protocol.ServerEvent) {
	if h.Event != nil {
		h.Event(e)
	}
}

func (h HandlerFuncs) OnUnknown(e protocol.UnknownEvent) {
	if h.Unknown != nil {
		h.Unknown(e)
	}
}

// Dispatch delivers e to the matching Handler method.
func Dispatch(h Handler, e protocol.ServerEvent) {
	switch ev := e.(type) {
	case protocol.SessionCreatedEvent:
		h.OnSessionCreated(ev)
	case protocol.SessionUpdatedEvent:
		h.OnSessionUpdated(ev)
	case protocol.TextDeltaEvent:
		h.OnTextDelta(ev)
	case protocol.TextDoneEvent:
		h.OnTextDone(ev)
	case protocol.AudioDeltaEvent:
		h.OnAudioDelta(ev)
	case protocol.AudioDoneEvent:
		h.OnAudioDone(ev)
	case protocol.ResponseDoneEvent:
		h.OnResponseDone(ev)
	case protocol.ErrorEvent:
		h.OnError(ev)
	case protocol.HeartbeatEvent:
		h.OnHeartbeat(ev)
	case protocol.UnknownEvent:
		h.OnUnknown(ev)
	default:
		h.OnEvent(e)
	}
}
