package realtime

// State is the lifecycle state of a Session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	// StateListening means the server detected user speech.
	StateListening
	// StateProcessing means user input was committed and a response is pending.
	StateProcessing
	// StateSpeaking means the model is streaming a response.
	StateSpeaking
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Active reports whether the session has a usable connection.
func (s State) Active() bool {
	switch s {
	case StateConnected, StateListening, StateProcessing, StateSpeaking:
		return true
	}
	return false
}
