package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Gateway abstracts the upstream chat-completion provider: submit an ordered
// context, receive reply text or a classified failure (*GatewayError).
// Configured reports whether a real credential backs the gateway; the
// simulator returns false and still answers every request.
type Gateway interface {
	Complete(ctx context.Context, messages []Message) (Response, error)
	Configured() bool
}
