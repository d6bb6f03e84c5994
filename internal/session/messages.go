package session

// Failure kinds the session maps to fixed messages. Values match the
// classification kinds reported by the analysis adapter.
const (
	KindUnclearVideo  = "unclear_video"
	KindConfig        = "config"
	KindEmptyResponse = "empty_response"
	KindMalformed     = "malformed_response"
	KindSafety        = "safety"
	KindRateLimit     = "rate_limit"
	KindUnavailable   = "unavailable"
	KindTransport     = "transport"
	KindCanceled      = "canceled"
)

// Fixed user-facing messages per failure kind.
const (
	MsgUnclearVideo = "The video was unclear or the drill was not recognized. Record a well-lit clip of a single kick and try again."
	MsgConfig       = "Analysis is not configured. Set GEMINI_API_KEY in your environment and restart the app."
	MsgEmpty        = "The analysis service returned an empty response. Try again."
	MsgMalformed    = "The analysis service returned an unreadable response. Try again."
	MsgSafety       = "The analysis service declined to process this clip. Try different footage."
	MsgRateLimit    = "Too many requests right now. Wait a minute and try again."
	MsgUnavailable  = "The analysis service is temporarily overloaded. Try again shortly."
	MsgTransport    = "Could not reach the analysis service. Check your connection and try again."
	MsgCanceled     = "Analysis was canceled."
)

// MessageFor resolves the fixed message for a failure kind. The raw
// error text is the last-resort fallback for kinds with no mapping.
func MessageFor(kind, raw string) string {
	switch kind {
	case KindUnclearVideo:
		return MsgUnclearVideo
	case KindConfig:
		return MsgConfig
	case KindEmptyResponse:
		return MsgEmpty
	case KindMalformed:
		return MsgMalformed
	case KindSafety:
		return MsgSafety
	case KindRateLimit:
		return MsgRateLimit
	case KindUnavailable:
		return MsgUnavailable
	case KindTransport:
		return MsgTransport
	case KindCanceled:
		return MsgCanceled
	default:
		if raw != "" {
			return raw
		}
		return "Analysis failed. Try again."
	}
}
