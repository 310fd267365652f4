package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenRouter LLMProvider = "openrouter"
	ProviderYandex     LLMProvider = "yandex"
)

type StorageBackend string

const (
	StorageFile   StorageBackend = "file"
	StorageMemory StorageBackend = "memory"
	StorageBolt   StorageBackend = "bolt"
)

type Config struct {
	// LLM settings
	LLMProvider        LLMProvider `env:"LLM_PROVIDER" envDefault:"openrouter"`
	Model              string      `env:"AI_MODEL" envDefault:"anthropic/claude-3-sonnet"`
	OpenRouterAPIKey   string      `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL  string      `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterReferrer string      `env:"OPENROUTER_REFERRER" envDefault:"https://jarvis-ai-agent.onrender.com"`
	OpenRouterTitle    string      `env:"OPENROUTER_TITLE" envDefault:"Jarvis AI Agent"`
	YandexOAuthToken   string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID     string      `env:"YANDEX_FOLDER_ID"`

	// Front-ends
	Port                int    `env:"PORT" envDefault:"8000"`
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookURL  string `env:"TELEGRAM_WEBHOOK_URL"`
	TelegramWebhookAddr string `env:"TELEGRAM_WEBHOOK_ADDR" envDefault:":8443"`

	// Slack heartbeat
	SlackBotToken  string `env:"SLACK_BOT_TOKEN"`
	SlackChannelID string `env:"SLACK_CHANNEL_ID"`
	HeartbeatCron  string `env:"HEARTBEAT_CRON" envDefault:"@every 1m"`

	// Conversation storage
	Storage         StorageBackend `env:"STORAGE" envDefault:"file"`
	HistoryFilePath string         `env:"HISTORY_FILE_PATH" envDefault:"message_history.json"`
	BoltPath        string         `env:"BOLT_PATH" envDefault:"data/history.db"`
	HistoryWindow   int            `env:"HISTORY_WINDOW" envDefault:"50"`

	// Knowledge base (disabled when empty)
	KnowledgeDBPath string `env:"KNOWLEDGE_DB_PATH"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`

	// Interaction log
	LogFilePath string `env:"LOG_FILE_PATH" envDefault:"logs/interactions.jsonl"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// TelegramEnabled reports whether the Telegram front-end should start.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// SlackEnabled reports whether the Slack heartbeat should start.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}
