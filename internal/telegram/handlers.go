package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jarvis-agent/internal/history"
)

const (
	// Telegram rejects messages longer than this.
	maxMessageRunes = 4096

	historyPreview      = 5
	historyPreviewRunes = 100
)

const welcomeMessage = "🤖 **Welcome to Jarvis AI Agent!**\n\n" +
	"I'm your personal AI assistant. You can:\n" +
	"• Send me any message and I'll respond\n" +
	"• Use /history to see our conversation\n" +
	"• Use /clear to start fresh\n" +
	"• Use /help for more commands\n\n" +
	"Just start chatting with me!"

const helpMessage = "🤖 **Jarvis AI Agent Commands:**\n\n" +
	"• Just send me a message to chat!\n" +
	"• `/start` - Welcome message\n" +
	"• `/help` - Show this help\n" +
	"• `/history` - Show our conversation history\n" +
	"• `/clear` - Clear our conversation history\n\n" +
	"I remember our conversations and can help with anything!"

// dispatch routes one update. The four chat-management commands are
// handled here; every other text (service commands included) is
// relayed to the conversation service.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	chatID := msg.Chat.ID
	userID := strconv.FormatInt(msg.From.ID, 10)
	text := strings.TrimSpace(msg.Text)

	log.Printf("📨 Message from %s (@%s): %q", userID, msg.From.UserName, text)

	switch text {
	case "/start":
		b.sendMarkdown(chatID, welcomeMessage)
	case "/help":
		b.sendMarkdown(chatID, helpMessage)
	case "/history":
		b.sendHistory(chatID, userID)
	case "/clear":
		b.clearHistory(chatID, userID)
	default:
		b.relay(ctx, chatID, userID, text)
	}
}

func (b *Bot) relay(ctx context.Context, chatID int64, userID, text string) {
	b.sendTyping(chatID)

	reply, err := b.svc.Talk(ctx, userID, text)
	if err != nil {
		log.Printf("❌ Talk failed for user %s: %v", userID, err)
		b.send(chatID, "❌ Sorry, I encountered an error. Please try again later.")
		return
	}
	b.send(chatID, reply.Text)
}

func (b *Bot) sendHistory(chatID int64, userID string) {
	turns := b.svc.History(userID)
	if len(turns) == 0 {
		b.send(chatID, "No conversation history yet. Start chatting with me!")
		return
	}
	if len(turns) > historyPreview {
		turns = turns[len(turns)-historyPreview:]
	}

	var sb strings.Builder
	sb.WriteString("📚 **Recent Conversation:**\n\n")
	for _, turn := range turns {
		who := "👤 You"
		if turn.Role == history.RoleAssistant {
			who = "🤖 Jarvis"
		}
		content := turn.Content
		if utf8.RuneCountInString(content) > historyPreviewRunes {
			content = string([]rune(content)[:historyPreviewRunes]) + "..."
		}
		fmt.Fprintf(&sb, "**%s:** %s\n\n", who, content)
	}
	b.sendMarkdown(chatID, sb.String())
}

func (b *Bot) clearHistory(chatID int64, userID string) {
	if err := b.svc.Clear(userID); err != nil {
		log.Printf("❌ Clear failed for user %s: %v", userID, err)
		b.send(chatID, "❌ Could not clear conversation history.")
		return
	}
	log.Printf("🗑️ Cleared history for user %s", userID)
	b.send(chatID, "🗑️ Conversation history cleared! Let's start fresh.")
}

func (b *Bot) send(chatID int64, text string) {
	b.sendWithParseMode(chatID, text, "")
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	b.sendWithParseMode(chatID, text, tgbotapi.ModeMarkdown)
}

func (b *Bot) sendWithParseMode(chatID int64, text, parseMode string) {
	if runes := []rune(text); len(runes) > maxMessageRunes {
		text = string(runes[:maxMessageRunes])
	}
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = parseMode
	if _, err := b.s.Send(out); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) sendTyping(chatID int64) {
	if _, err := b.s.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("failed to send chat action: %v", err)
	}
}
