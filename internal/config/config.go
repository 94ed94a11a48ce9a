// Package config handles loading and validating the readmebot configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the readmebot daemon.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Transports   TransportsConfig   `mapstructure:"transports"`
	Providers    ProvidersConfig    `mapstructure:"providers"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Store        StoreConfig        `mapstructure:"store"`
	Icons        IconsConfig        `mapstructure:"icons"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TelegramConfig configures the Telegram bot transport.
type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Token       string `mapstructure:"token"`
	PollTimeout int    `mapstructure:"poll_timeout"` // seconds
	Debug       bool   `mapstructure:"debug"`
}

// ProvidersConfig selects the backend order per capability and configures
// each backend.
type ProvidersConfig struct {
	Transcription []string      `mapstructure:"transcription"` // ordered backend names
	Extraction    []string      `mapstructure:"extraction"`    // ordered backend names
	Timeout       time.Duration `mapstructure:"timeout"`       // per call
	OpenAI        OpenAIConfig  `mapstructure:"openai"`
	Groq          OpenAIConfig  `mapstructure:"groq"`
	Gemini        GeminiConfig  `mapstructure:"gemini"`
	Local         LocalConfig   `mapstructure:"local"`
}

// OpenAIConfig holds settings for an OpenAI-compatible API. Groq uses the
// same shape with its own base URL.
type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	CompletionModel    string `mapstructure:"completion_model"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// LocalConfig holds self-hosted model settings.
type LocalConfig struct {
	WhisperEndpoint string `mapstructure:"whisper_endpoint"`
	WhisperType     string `mapstructure:"whisper_type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	LLMEndpoint     string `mapstructure:"llm_endpoint"`
	LLMModel        string `mapstructure:"llm_model"` // Ollama model name (e.g., "llama3.2:3b")
	VADFilter       bool   `mapstructure:"vad_filter"`
	Language        string `mapstructure:"language"` // ISO-639-1 hint, empty for auto-detect
}

// ConversationConfig holds the limits enforced by the state machine.
type ConversationConfig struct {
	MinTextLength        int      `mapstructure:"min_text_length"`
	MaxTextLength        int      `mapstructure:"max_text_length"`
	MaxSkillsPerCategory int      `mapstructure:"max_skills_per_category"`
	MaxAudioBytes        int      `mapstructure:"max_audio_bytes"`
	AudioFormats         []string `mapstructure:"audio_formats"`
	RequiredFields       []string `mapstructure:"required_fields"`
}

// StoreConfig selects where conversation state and archives are kept.
type StoreConfig struct {
	Backend  string        `mapstructure:"backend"` // memory, redis, postgres, sqlite
	RedisURL string        `mapstructure:"redis_url"`
	DSN      string        `mapstructure:"dsn"`
	TTL      time.Duration `mapstructure:"ttl"` // inactivity expiry, 0 keeps state forever
}

// IconsConfig configures icon image URLs.
type IconsConfig struct {
	CDNBase string `mapstructure:"cdn_base"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./readmebot.yaml, ./configs/readmebot.yaml, /etc/readmebot/readmebot.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.telegram.enabled", false)
	v.SetDefault("transports.telegram.token", "${TELEGRAM_BOT_TOKEN}")
	v.SetDefault("transports.telegram.poll_timeout", 30)
	v.SetDefault("transports.telegram.debug", false)
	v.SetDefault("providers.transcription", []string{"groq", "gemini"})
	v.SetDefault("providers.extraction", []string{"gemini", "openai", "keyword"})
	v.SetDefault("providers.timeout", 30*time.Second)
	v.SetDefault("providers.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.openai.transcription_model", "whisper-1")
	v.SetDefault("providers.openai.completion_model", "gpt-4o-mini")
	v.SetDefault("providers.groq.api_key", "${GROQ_API_KEY}")
	v.SetDefault("providers.groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("providers.groq.transcription_model", "whisper-large-v3-turbo")
	v.SetDefault("providers.groq.completion_model", "llama-3.3-70b-versatile")
	v.SetDefault("providers.gemini.api_key", "${GEMINI_API_KEY}")
	v.SetDefault("providers.gemini.model", "gemini-2.0-flash")
	v.SetDefault("providers.local.whisper_endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("providers.local.whisper_type", "openai")
	v.SetDefault("providers.local.llm_endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("providers.local.llm_model", "llama3.2:3b")
	v.SetDefault("providers.local.vad_filter", false)
	v.SetDefault("providers.local.language", "")
	v.SetDefault("conversation.min_text_length", 50)
	v.SetDefault("conversation.max_text_length", 5000)
	v.SetDefault("conversation.max_skills_per_category", 20)
	v.SetDefault("conversation.max_audio_bytes", 20<<20)
	v.SetDefault("conversation.audio_formats", []string{"ogg", "mp3", "wav", "m4a", "flac"})
	v.SetDefault("conversation.required_fields", []string{"name"})
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.ttl", 24*time.Hour)
	v.SetDefault("icons.cdn_base", "https://cdn.jsdelivr.net/gh/devicons/devicon/icons")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("readmebot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/readmebot")
	}

	// Environment variables: READMEBOT_SERVER_HEALTH_PORT, READMEBOT_STORE_BACKEND, etc.
	v.SetEnvPrefix("READMEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional, env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${GROQ_API_KEY}")
	cfg.Providers.OpenAI.APIKey = resolveEnvRef(cfg.Providers.OpenAI.APIKey)
	cfg.Providers.Groq.APIKey = resolveEnvRef(cfg.Providers.Groq.APIKey)
	cfg.Providers.Gemini.APIKey = resolveEnvRef(cfg.Providers.Gemini.APIKey)
	cfg.Transports.Telegram.Token = resolveEnvRef(cfg.Transports.Telegram.Token)
	cfg.Store.RedisURL = resolveEnvRef(cfg.Store.RedisURL)
	cfg.Store.DSN = resolveEnvRef(cfg.Store.DSN)

	cfg.Providers.Transcription = splitList(cfg.Providers.Transcription)
	cfg.Providers.Extraction = splitList(cfg.Providers.Extraction)
	cfg.Conversation.AudioFormats = splitList(cfg.Conversation.AudioFormats)
	cfg.Conversation.RequiredFields = splitList(cfg.Conversation.RequiredFields)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
// An unset variable resolves to the empty string.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
