// Package command routes slash-prefixed messages to local lookup
// capabilities before any completion request is made.
package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"jarvis-agent/internal/knowledge"
	"jarvis-agent/internal/websearch"
)

// Handler produces the reply text for one recognized command.
type Handler func(ctx context.Context, userID, args string) string

// Command binds a message prefix to its handler.
type Command struct {
	Prefix  string
	Handler Handler
}

// Table is an ordered command list. Dispatch tries prefixes in order
// and the first match wins, so more specific prefixes belong first.
type Table []Command

// Dispatch runs the handler of the first command matching text. A
// prefix matches when text equals it or continues with a space. The
// second return value reports whether any command matched.
func (t Table) Dispatch(ctx context.Context, userID, text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	for _, cmd := range t {
		if trimmed != cmd.Prefix && !strings.HasPrefix(trimmed, cmd.Prefix+" ") {
			continue
		}
		args := strings.TrimSpace(trimmed[len(cmd.Prefix):])
		return cmd.Handler(ctx, userID, args), true
	}
	return "", false
}

// Searcher is the web lookup capability behind /search and /summarize.
type Searcher interface {
	Search(ctx context.Context, query string) string
	Summarize(ctx context.Context, url string) string
}

const memoryLimit = 5

// DefaultTable wires the standard lookup capabilities: web search,
// page summaries, the clock and the knowledge base.
func DefaultTable(search Searcher, memory knowledge.Store) Table {
	return Table{
		{Prefix: "/search", Handler: func(ctx context.Context, _, args string) string {
			if args == "" {
				return "Usage: /search <query>"
			}
			return search.Search(ctx, args)
		}},
		{Prefix: "/summarize", Handler: func(ctx context.Context, _, args string) string {
			if args == "" {
				return "Usage: /summarize <url>"
			}
			return search.Summarize(ctx, args)
		}},
		{Prefix: "/time", Handler: func(context.Context, string, string) string {
			return websearch.TimeInfo(time.Now())
		}},
		{Prefix: "/remember", Handler: func(ctx context.Context, userID, args string) string {
			return remember(ctx, memory, userID, args)
		}},
		{Prefix: "/recall", Handler: func(ctx context.Context, userID, args string) string {
			return recall(ctx, memory, userID, args)
		}},
		{Prefix: "/memories", Handler: func(ctx context.Context, userID, _ string) string {
			return recent(ctx, memory, userID)
		}},
	}
}

func remember(ctx context.Context, memory knowledge.Store, userID, args string) string {
	category, content, found := strings.Cut(args, ":")
	category = strings.TrimSpace(category)
	content = strings.TrimSpace(content)
	if !found || category == "" || content == "" {
		return "Usage: /remember <category>: <text>"
	}

	if err := memory.Remember(ctx, userID, category, content); err != nil {
		if errors.Is(err, knowledge.ErrUnavailable) {
			return "Sorry, my memory is not configured."
		}
		log.Printf("⚠️ Failed to store memory for user %s: %v", userID, err)
		return "Sorry, I couldn't store that memory."
	}
	return fmt.Sprintf("🧠 **Memory Stored**\n\n**Category:** %s\n**Content:** %s", category, content)
}

func recall(ctx context.Context, memory knowledge.Store, userID, args string) string {
	if args == "" {
		return "Usage: /recall <query>"
	}

	entries, err := memory.Recall(ctx, userID, args, memoryLimit)
	if err != nil {
		if errors.Is(err, knowledge.ErrUnavailable) {
			return "Sorry, my memory is not configured."
		}
		log.Printf("⚠️ Failed to search memories for user %s: %v", userID, err)
		return "Sorry, I couldn't search my memories."
	}
	if len(entries) == 0 {
		return fmt.Sprintf("I don't have any memories matching '%s'.", args)
	}
	return formatEntries(fmt.Sprintf("🧠 **Memory Recall for: '%s'**", args), entries)
}

func recent(ctx context.Context, memory knowledge.Store, userID string) string {
	entries, err := memory.Recent(ctx, userID, memoryLimit)
	if err != nil {
		if errors.Is(err, knowledge.ErrUnavailable) {
			return "Sorry, my memory is not configured."
		}
		log.Printf("⚠️ Failed to list memories for user %s: %v", userID, err)
		return "Sorry, I couldn't list my memories."
	}
	if len(entries) == 0 {
		return "I don't have any memories stored yet."
	}
	return formatEntries("🧠 **Recent Memories**", entries)
}

func formatEntries(header string, entries []knowledge.Entry) string {
	var b strings.Builder
	b.WriteString(header + "\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "**%d. [%s]** %s\n", i+1, e.Category, e.Content)
	}
	return b.String()
}
