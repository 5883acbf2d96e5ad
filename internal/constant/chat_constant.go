package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// DefaultSessionTitle is assigned on creation until the first user
	// message rewrites it.
	DefaultSessionTitle = "New Chat"

	// SessionTitleMaxRunes caps auto-derived titles before the ellipsis kicks in.
	SessionTitleMaxRunes = 30

	// StreamStoppedMarker is appended to the chunked response when the
	// client (or the stop endpoint) cancels a stream mid-flight.
	StreamStoppedMarker = "\n[Stream stopped by user]"

	// StreamFailedMarker terminates the chunked response when the upstream
	// inference call fails after bytes were already sent.
	StreamFailedMarker = "\n[Stream error]"

	OllamaDefaultBaseURL   = "http://127.0.0.1:11434"
	OllamaDefaultModel     = "gemma3:1b"
	OllamaGenerateEndpoint = "/api/generate"
)
