package llm

import (
	"errors"
	"fmt"
)

// FailureKind classifies why an upstream completion call failed.
type FailureKind string

const (
	FailureNotConfigured FailureKind = "not_configured"
	FailureUnauthorized  FailureKind = "unauthorized"
	FailureRateLimited   FailureKind = "rate_limited"
	FailureUpstream      FailureKind = "upstream_error"
	FailureTransport     FailureKind = "transport_error"
)

// GatewayError is the classified failure returned by Gateway implementations.
// Status carries the upstream HTTP status when one was received.
type GatewayError struct {
	Kind   FailureKind
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("gateway %s", e.Kind)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, defaulting to transport for
// anything unclassified.
func KindOf(err error) FailureKind {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return FailureTransport
}

// User-facing placeholder replies, one per failure kind. Raw upstream error
// bodies never reach the user; these stand in for the assistant's turn so a
// failed call still leaves a complete exchange in history.
const (
	notConfiguredReply = "🤖 **AI Service Not Configured**\n\n" +
		"I'm currently in simulation mode because no valid AI API key is configured.\n\n" +
		"**To fix this:**\n" +
		"1. Get an API key from https://openrouter.ai/\n" +
		"2. Add it to your environment variables:\n" +
		"   `OPENROUTER_API_KEY=your_actual_key_here`\n" +
		"3. Restart the service\n\n" +
		"For now, I can help with basic responses!"

	unauthorizedReply = "🔑 **Authentication Error**\n\n" +
		"I can't access the AI service because the API key is invalid or missing.\n\n" +
		"**To fix this:**\n" +
		"1. Get a valid API key from https://openrouter.ai/\n" +
		"2. Update your environment variables with the correct key\n" +
		"3. Restart the service\n\n" +
		"For now, I can help with basic responses!"

	rateLimitedReply = "⏰ **Rate Limit Exceeded**\n\n" +
		"I've hit the rate limit for AI requests. Please try again in a few minutes."

	transportErrorReply = "🌐 **Connection Error**\n\n" +
		"I'm having trouble connecting to my AI services right now. This could be due to:\n" +
		"• Network connectivity issues\n" +
		"• AI service being temporarily unavailable\n" +
		"• Invalid API configuration\n\n" +
		"Please try again in a moment."
)

// FallbackReply maps a gateway failure to the placeholder text shown to the
// user in place of a real completion.
func FallbackReply(err error) string {
	var gerr *GatewayError
	if !errors.As(err, &gerr) {
		return transportErrorReply
	}
	switch gerr.Kind {
	case FailureNotConfigured:
		return notConfiguredReply
	case FailureUnauthorized:
		return unauthorizedReply
	case FailureRateLimited:
		return rateLimitedReply
	case FailureUpstream:
		if gerr.Status > 0 {
			return fmt.Sprintf("❌ **Service Error**\n\nI encountered an error while processing your request (HTTP %d). Please try again later.", gerr.Status)
		}
		return "❌ **Service Error**\n\nI encountered an error while processing your request. Please try again later."
	default:
		return transportErrorReply
	}
}
