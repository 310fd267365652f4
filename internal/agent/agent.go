// Package agent implements the conversation core shared by every
// front-end: append the user's message, obtain a reply, persist both.
package agent

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"jarvis-agent/internal/command"
	"jarvis-agent/internal/history"
	"jarvis-agent/internal/llm"
	"jarvis-agent/internal/prompt"
	"jarvis-agent/internal/storage"
)

// Reply is the outcome of one Talk call.
type Reply struct {
	Text      string    `json:"reply"`
	UserID    string    `json:"user_id"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Service runs the conversation pipeline. Calls for the same user are
// serialized so concurrent messages never lose history updates;
// different users proceed in parallel.
type Service struct {
	store    history.Store
	builder  *prompt.Builder
	gateway  llm.Gateway
	commands command.Table
	recorder storage.Recorder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires the conversation core. commands and recorder are
// optional: a nil table intercepts nothing, a nil recorder skips the
// interaction log.
func NewService(store history.Store, builder *prompt.Builder, gateway llm.Gateway, commands command.Table, recorder storage.Recorder) *Service {
	return &Service{
		store:    store,
		builder:  builder,
		gateway:  gateway,
		commands: commands,
		recorder: recorder,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Talk appends the user's message to their conversation, obtains a
// reply (command table first, completion gateway otherwise) and
// persists both turns with a single store replace. Gateway failures
// are absorbed into a placeholder assistant turn; only a failed
// persist is reported as an error.
func (s *Service) Talk(ctx context.Context, userID, text string) (Reply, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	past := s.store.Get(userID)
	userTurn := history.NewTurn(history.RoleUser, text)

	replyText, intercepted := s.commands.Dispatch(ctx, userID, text)
	if !intercepted {
		response, err := s.gateway.Complete(ctx, s.builder.Build(past, text))
		if err != nil {
			log.Printf("⚠️ Completion failed for user %s: %v", userID, err)
			replyText = llm.FallbackReply(err)
		} else {
			replyText = response.Content
		}
	}

	turns := append(past, userTurn, history.NewTurn(history.RoleAssistant, replyText))
	if err := s.store.Replace(userID, turns); err != nil {
		return Reply{}, fmt.Errorf("failed to persist conversation for user %s: %w", userID, err)
	}

	thoughts := ExtractThoughts(replyText)
	s.logThoughts(userID, thoughts, len(turns))
	s.record(userID, text, replyText, thoughts)

	now := time.Now().UTC()
	return Reply{
		Text:      replyText,
		UserID:    userID,
		MessageID: fmt.Sprintf("%s_%d", userID, now.UnixNano()),
		Timestamp: now,
	}, nil
}

// History returns the user's conversation turns, empty for unseen users.
func (s *Service) History(userID string) []history.Turn {
	return s.store.Get(userID)
}

// Clear removes the user's conversation. Clearing an unseen user is a
// no-op.
func (s *Service) Clear(userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	return s.store.Clear(userID)
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *Service) logThoughts(userID string, thoughts []string, historyLen int) {
	if len(thoughts) > 0 {
		log.Printf("💭 Agent thoughts: %s", strings.Join(thoughts, " | "))
		return
	}
	log.Printf("💭 Agent thoughts: analyzed message from user %s, considered context with %d previous messages", userID, historyLen)
}

func (s *Service) record(userID, text, replyText string, thoughts []string) {
	if s.recorder == nil {
		return
	}
	event := storage.Event{
		Timestamp:      time.Now().UTC(),
		UserID:         userID,
		UserMessage:    text,
		AssistantReply: replyText,
		Thoughts:       thoughts,
	}
	if err := s.recorder.AppendInteraction(event); err != nil {
		log.Printf("⚠️ Failed to record interaction for user %s: %v", userID, err)
	}
}

var thoughtPattern = regexp.MustCompile(`\*\((.*?)\)\*`)

// ExtractThoughts pulls the italicized asides the assistant embeds in
// replies, e.g. *(I should check my memories about this...)*.
func ExtractThoughts(replyText string) []string {
	matches := thoughtPattern.FindAllStringSubmatch(replyText, -1)
	if len(matches) == 0 {
		return nil
	}
	thoughts := make([]string, 0, len(matches))
	for _, m := range matches {
		thoughts = append(thoughts, m[1])
	}
	return thoughts
}
