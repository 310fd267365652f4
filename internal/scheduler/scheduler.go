// Package scheduler runs the periodic liveness heartbeat.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec fires the heartbeat once per minute.
const DefaultSpec = "@every 1m"

// Notifier delivers heartbeat messages to an external channel.
type Notifier interface {
	PostMessage(ctx context.Context, text string) error
}

// Heartbeat posts a numbered liveness message on a cron schedule.
type Heartbeat struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	notifier Notifier
	spec     string

	mu    sync.Mutex
	count int
}

// NewHeartbeat creates a Heartbeat on the given cron spec. An empty
// spec falls back to DefaultSpec.
func NewHeartbeat(notifier Notifier, spec string) *Heartbeat {
	if spec == "" {
		spec = DefaultSpec
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Heartbeat{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		ctx:      ctx,
		cancel:   cancel,
		notifier: notifier,
		spec:     spec,
	}
}

// Start schedules the heartbeat and begins firing.
func (h *Heartbeat) Start() error {
	if _, err := h.cron.AddFunc(h.spec, h.beat); err != nil {
		return fmt.Errorf("failed to schedule heartbeat: %w", err)
	}
	h.cron.Start()
	log.Printf("💓 Heartbeat started (%s)", h.spec)
	return nil
}

// Stop halts the schedule and waits for a running beat to finish.
func (h *Heartbeat) Stop() {
	if h.cron != nil {
		ctx := h.cron.Stop()
		<-ctx.Done()
	}
	if h.cancel != nil {
		h.cancel()
	}
	log.Println("💓 Heartbeat stopped")
}

// Count returns how many beats have fired so far.
func (h *Heartbeat) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *Heartbeat) beat() {
	h.mu.Lock()
	h.count++
	n := h.count
	h.mu.Unlock()

	message := fmt.Sprintf("💓 Heartbeat #%d - Jarvis is alive and well!", n)
	if err := h.notifier.PostMessage(h.ctx, message); err != nil {
		log.Printf("❌ Heartbeat delivery failed: %v", err)
	}
}
