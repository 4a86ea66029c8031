package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel          = "info"
	DefaultLogJSON           = false
	DefaultLogBufferCapacity = 1000

	DefaultServerAddr            = ":3000"
	DefaultServerStaticDir       = "./web"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 2 * time.Minute
	DefaultServerShutdownTimeout = 10 * time.Second
	DefaultServerRequestTimeout  = 90 * time.Second

	DefaultGeminiTemperature       = 0.2
	DefaultGeminiMaxRetries        = 2
	DefaultGeminiRetryDelaySeconds = 1

	DefaultAssistantCity       = "Tel Aviv"
	DefaultAssistantMaxResults = 5

	DefaultConversationTTL        = time.Hour
	DefaultConversationMaxHistory = 50

	DefaultDatasetDir = "./data"

	DefaultDatabasePath      = "cityguide.db"
	DefaultDatabaseRetention = 30 * 24 * time.Hour
)

// DefaultGeminiModels is the fallback chain tried in order when a model is rate limited.
var DefaultGeminiModels = []string{
	"gemini-2.0-flash-lite",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
	"gemini-2.5-flash",
}

// DefaultAllowedOrigins allows any origin, matching a plain cors() setup.
var DefaultAllowedOrigins = []string{"*"}

// Default assistant replies
const (
	DefaultGreetingMsg     = "Hello%s! I can help you find places and events in %s. What are you looking for?"
	DefaultIntroductionMsg = "I'm a city guide for %s. Ask me for places to eat, drink or visit, or for events on a given day."
	DefaultSmalltalkMsg    = "I'm doing great, thanks for asking! Ask me about places to visit or events in %s."
	DefaultGratitudeMsg    = "You're welcome%s! Let me know if you need anything else."
	DefaultUnknownMsg      = "I'm not sure I understood. Try asking about restaurants, cafes, museums or events in %s."
	DefaultNoResultsMsg    = "I couldn't find anything matching your request in %s."
)

// DefaultSchedulerTasks registers the built-in maintenance tasks.
var DefaultSchedulerTasks = map[string]any{
	"conversation_sweep": map[string]any{
		"enabled":  true,
		"schedule": "0 */5 * * * *",
	},
	"journal_maintenance": map[string]any{
		"enabled":  true,
		"schedule": "0 30 3 * * *",
	},
}
