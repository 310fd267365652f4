// Package telegram adapts Telegram chats to the conversation service.
// All update kinds funnel through one dispatch path; how updates are
// delivered (polling or webhook) is chosen by the UpdateSource.
package telegram

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jarvis-agent/internal/agent"
	"jarvis-agent/internal/history"
)

// conversation is the slice of the agent service the bot needs.
type conversation interface {
	Talk(ctx context.Context, userID, text string) (agent.Reply, error)
	History(userID string) []history.Turn
	Clear(userID string) error
}

type Bot struct {
	api    *tgbotapi.BotAPI
	s      sender
	svc    conversation
	source UpdateSource
}

// New connects to the Telegram API. A nil source defaults to long
// polling.
func New(botToken string, svc conversation, source UpdateSource) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	log.Printf("✅ Connected to Telegram bot: %s", api.Self.UserName)

	if source == nil {
		source = Poller{}
	}
	return &Bot{
		api:    api,
		s:      botAPISender{api: api},
		svc:    svc,
		source: source,
	}, nil
}

// Run consumes updates until ctx is cancelled or the stream closes.
func (b *Bot) Run(ctx context.Context) error {
	updates, err := b.source.Updates(b.api)
	if err != nil {
		return fmt.Errorf("failed to open update stream: %w", err)
	}
	defer b.source.Close(b.api)

	log.Println("🤖 Telegram bot is running")
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}
