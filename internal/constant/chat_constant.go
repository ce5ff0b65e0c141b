package constant

import "time"

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	FeedbackTypeUp   = "up"
	FeedbackTypeDown = "down"
)

const (
	// RequestTimeout bounds every remote call issued by the chat client.
	// The backend Lambda itself allows up to 300s, but the client gives up
	// well before that so the UI can re-enable the composer.
	RequestTimeout = 30 * time.Second

	ChatEndpoint     = "/chat"
	FeedbackEndpoint = "/feedback"
	SourcesEndpoint  = "/sources"
)

const (
	// GenericServerError is shown when a non-2xx response carries no
	// usable error or message field in its body.
	GenericServerError = "server error"

	DefaultGreeting = "Hello! How can I help you today?"
)

const (
	// TranscriptTTL is how long an archived transcript survives after a
	// session clear before the cache purges it.
	TranscriptTTL = 1 * time.Hour
)
