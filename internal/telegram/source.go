package telegram

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateSource yields the update stream the bot consumes. Long polling
// and webhooks are interchangeable behind this.
type UpdateSource interface {
	Updates(api *tgbotapi.BotAPI) (tgbotapi.UpdatesChannel, error)
	Close(api *tgbotapi.BotAPI)
}

// Poller receives updates via long polling.
type Poller struct {
	Timeout int
}

func (p Poller) Updates(api *tgbotapi.BotAPI) (tgbotapi.UpdatesChannel, error) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.Timeout
	if u.Timeout == 0 {
		u.Timeout = 60
	}
	return api.GetUpdatesChan(u), nil
}

func (p Poller) Close(api *tgbotapi.BotAPI) {
	api.StopReceivingUpdates()
}

// Webhook registers a Telegram webhook and serves it on ListenAddr.
type Webhook struct {
	PublicURL  string
	ListenAddr string

	server *http.Server
}

func (w *Webhook) Updates(api *tgbotapi.BotAPI) (tgbotapi.UpdatesChannel, error) {
	wh, err := tgbotapi.NewWebhook(w.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook config: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return nil, fmt.Errorf("failed to register webhook: %w", err)
	}

	updates := api.ListenForWebhook("/" + api.Token)
	w.server = &http.Server{Addr: w.ListenAddr}
	go func() {
		if err := w.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("❌ Webhook listener failed: %v", err)
		}
	}()

	log.Printf("🌐 Webhook registered at %s, listening on %s", w.PublicURL, w.ListenAddr)
	return updates, nil
}

func (w *Webhook) Close(api *tgbotapi.BotAPI) {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.Printf("⚠️ Failed to delete webhook: %v", err)
	}
	if w.server != nil {
		_ = w.server.Close()
	}
}
