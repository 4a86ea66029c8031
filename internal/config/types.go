package config

import "time"

// Config defines the complete application configuration.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger"`
	Server       ServerConfig       `mapstructure:"server"`
	Gemini       GeminiConfig       `mapstructure:"gemini"`
	Assistant    AssistantConfig    `mapstructure:"assistant"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Dataset      DatasetConfig      `mapstructure:"dataset"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
}

// LoggerConfig controls log level, output format and the size of the
// in-memory log buffer served by the debug endpoint.
type LoggerConfig struct {
	Level          string `mapstructure:"level"           validate:"required,oneof=debug info warn error"`
	JSON           bool   `mapstructure:"json"`
	BufferCapacity int    `mapstructure:"buffer_capacity" validate:"required,min=1,max=100000"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	StaticDir       string        `mapstructure:"static_dir"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"  validate:"required,min=1"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"required,min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,min=1s"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  validate:"required,min=1s,max=10m"`
}

// GeminiConfig holds settings for the Gemini API client. An empty APIKey
// leaves the client unavailable; the assistant then runs on its fallbacks.
type GeminiConfig struct {
	APIKey            string   `mapstructure:"api_key"`
	Models            []string `mapstructure:"models"              validate:"required,min=1,dive,required"`
	Temperature       float32  `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxRetries        int      `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int      `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
}

// AssistantConfig holds conversational behaviour settings.
type AssistantConfig struct {
	City            string `mapstructure:"city"             validate:"required"`
	MaxResults      int    `mapstructure:"max_results"      validate:"required,min=1,max=50"`
	GreetingMsg     string `mapstructure:"greeting_msg"     validate:"required"`
	IntroductionMsg string `mapstructure:"introduction_msg" validate:"required"`
	SmalltalkMsg    string `mapstructure:"smalltalk_msg"    validate:"required"`
	GratitudeMsg    string `mapstructure:"gratitude_msg"    validate:"required"`
	UnknownMsg      string `mapstructure:"unknown_msg"      validate:"required"`
	NoResultsMsg    string `mapstructure:"no_results_msg"   validate:"required"`
}

// ConversationConfig controls per-user conversation state.
type ConversationConfig struct {
	TTL        time.Duration `mapstructure:"ttl"         validate:"required,min=1s"`
	MaxHistory int           `mapstructure:"max_history" validate:"required,min=1,max=1000"`
}

// DatasetConfig points at the directory holding places.json and events.json.
type DatasetConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// DatabaseConfig holds settings for the query journal database.
type DatabaseConfig struct {
	Path      string        `mapstructure:"path"      validate:"required"`
	Retention time.Duration `mapstructure:"retention" validate:"required,min=1h"`
}

// SchedulerConfig lists the scheduled tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig defines a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// TelegramConfig enables the optional Telegram transport when Token is set.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}
