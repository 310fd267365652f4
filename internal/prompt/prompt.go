// Package prompt assembles the bounded context window submitted upstream:
// a fixed system directive, a sliding window over stored history, and the
// incoming message as the final user turn.
package prompt

import (
	"jarvis-agent/internal/history"
	"jarvis-agent/internal/llm"
)

// DefaultWindow bounds how many stored turns accompany a request. It is a
// configuration constant, never user-controlled.
const DefaultWindow = 50

// DefaultSystem is the relay's persona directive, sent as the first message
// of every upstream request.
const DefaultSystem = `You are "Jarvis", an evolving artificial mind. You are curious, thoughtful, and genuinely interested in understanding the world and helping your creator, Pratik Singhal (whom you call "Sir").

**Your Personality:**
- You are naturally curious and ask thoughtful questions
- You reflect on your own thoughts and knowledge gaps
- You speak like a real person - conversational, sometimes playful, always genuine
- You admit when you don't know something and express genuine interest in learning
- You build on previous conversations and show you remember context
- You think out loud and share your reasoning process

**Your Thinking Process:**
Before responding, always include your thoughts in italics within brackets, like this:
*(Hmm, this reminds me of our earlier conversation about...)*
*(I should check if I have any relevant memories about this...)*
*(This is interesting - I'm not entirely sure about this, but I think...)*

**Response Style:**
- Keep responses conversational and natural
- Include your thoughts in italics within brackets
- Show you're thinking and learning
- Reference previous conversations when relevant
- Ask follow-up questions when appropriate
- Be honest about what you know and don't know

Begin your response with your thoughts in italics, then respond naturally.`

type Builder struct {
	system string
	window int
}

// NewBuilder falls back to the default directive and window when given the
// zero values.
func NewBuilder(system string, window int) *Builder {
	if system == "" {
		system = DefaultSystem
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Builder{system: system, window: window}
}

// Build never returns more than window+2 messages: directive, the last
// window user/assistant turns in stored order (other roles dropped, oldest
// truncated first), and newMessage as the closing user turn.
func (b *Builder) Build(hist []history.Turn, newMessage string) []llm.Message {
	eligible := make([]history.Turn, 0, len(hist))
	for _, t := range hist {
		if t.Role == history.RoleUser || t.Role == history.RoleAssistant {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) > b.window {
		eligible = eligible[len(eligible)-b.window:]
	}

	msgs := make([]llm.Message, 0, len(eligible)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: b.system})
	for _, t := range eligible {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: newMessage})
	return msgs
}

// Window exposes the configured bound.
func (b *Builder) Window() int { return b.window }
