package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"jarvis-agent/internal/agent"
	"jarvis-agent/internal/command"
	"jarvis-agent/internal/config"
	"jarvis-agent/internal/history"
	"jarvis-agent/internal/knowledge"
	"jarvis-agent/internal/llm"
	"jarvis-agent/internal/prompt"
	"jarvis-agent/internal/scheduler"
	"jarvis-agent/internal/slack"
	"jarvis-agent/internal/storage"
	"jarvis-agent/internal/telegram"
	"jarvis-agent/internal/web"
	"jarvis-agent/internal/websearch"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	log.Println("🚀 Jarvis AI Agent starting up...")
	log.Printf("Using model: %s", cfg.Model)

	store := newHistoryStore(cfg)
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}
	log.Printf("Storage: %s", store.Label())

	factory := llm.Factory{
		APIKey:           cfg.OpenRouterAPIKey,
		BaseURL:          cfg.OpenRouterBaseURL,
		Referrer:         cfg.OpenRouterReferrer,
		Title:            cfg.OpenRouterTitle,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
	}
	gateway, err := factory.CreateGateway(string(cfg.LLMProvider), cfg.Model)
	if err != nil {
		log.Fatalf("failed to create completion gateway: %v", err)
	}
	if gateway.Configured() {
		log.Printf("AI API: %s", cfg.LLMProvider)
	} else {
		log.Println("AI API: Simulation mode")
	}

	systemPrompt := readSystemPrompt(cfg.SystemPromptPath)
	builder := prompt.NewBuilder(systemPrompt, cfg.HistoryWindow)

	var rec storage.Recorder
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Printf("failed to init file recorder: %v", err)
		} else {
			rec = fr
		}
	}

	var kb knowledge.Store = knowledge.Disabled{}
	if cfg.KnowledgeDBPath != "" {
		sqliteStore, err := knowledge.Open(cfg.KnowledgeDBPath)
		if err != nil {
			log.Printf("failed to open knowledge base: %v", err)
		} else {
			defer sqliteStore.Close()
			kb = sqliteStore
			log.Println("🧠 Knowledge base ready")
		}
	}

	commands := command.DefaultTable(websearch.NewClient(), kb)
	svc := agent.NewService(store, builder, gateway, commands, rec)

	srv := web.NewServer(cfg.Port, svc, web.Health{
		Model:           cfg.Model,
		Storage:         store.Label(),
		AIReady:         gateway.Configured(),
		SlackEnabled:    cfg.SlackEnabled(),
		TelegramEnabled: cfg.TelegramEnabled(),
	})

	if cfg.SlackEnabled() {
		hb := scheduler.NewHeartbeat(slack.NewClient(cfg.SlackBotToken, cfg.SlackChannelID), cfg.HeartbeatCron)
		if err := hb.Start(); err != nil {
			log.Printf("❌ Failed to start heartbeat: %v", err)
		} else {
			defer hb.Stop()
			log.Println("✅ Heartbeat loop started")
		}
	} else {
		log.Println("⚠️ Heartbeat loop not started (Slack not configured)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TelegramEnabled() {
		var source telegram.UpdateSource
		if cfg.TelegramWebhookURL != "" {
			source = &telegram.Webhook{PublicURL: cfg.TelegramWebhookURL, ListenAddr: cfg.TelegramWebhookAddr}
		}
		bot, err := telegram.New(cfg.TelegramBotToken, svc, source)
		if err != nil {
			log.Printf("❌ Failed to start Telegram bot: %v", err)
		} else {
			go func() {
				if err := bot.Run(ctx); err != nil {
					log.Printf("❌ Telegram bot stopped: %v", err)
				}
			}()
		}
	} else {
		log.Println("Telegram bot is disabled (no TELEGRAM_BOT_TOKEN)")
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("❌ HTTP server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🔌 Jarvis AI Agent shutting down...")
	cancel()
	if err := srv.Stop(); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
	}
}

func newHistoryStore(cfg *config.Config) history.Store {
	switch cfg.Storage {
	case config.StorageMemory:
		return history.NewMemoryStore()
	case config.StorageBolt:
		store, err := history.NewBoltStore(cfg.BoltPath)
		if err != nil {
			log.Fatalf("failed to open bolt store: %v", err)
		}
		return store
	default:
		store, err := history.NewFileStore(cfg.HistoryFilePath)
		if err != nil {
			log.Fatalf("failed to open history file: %v", err)
		}
		return store
	}
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return string(data)
}
