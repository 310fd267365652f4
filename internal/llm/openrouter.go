package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// One bounded wait per completion call; retries belong to higher layers.
const requestTimeout = 30 * time.Second

// OpenRouterClient talks to OpenRouter (or any OpenAI-compatible endpoint)
// through the go-openai client.
type OpenRouterClient struct {
	client *openai.Client
	model  string
}

type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone request to avoid mutating the original
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

// NewOpenRouter builds a gateway against baseURL with the given model.
// referrer and title become the HTTP-Referer / X-Title headers OpenRouter
// uses for app attribution.
func NewOpenRouter(apiKey, baseURL, model, referrer, title string) *OpenRouterClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	httpClient := &http.Client{Timeout: requestTimeout}
	if referrer != "" || title != "" {
		h := http.Header{}
		if referrer != "" {
			h.Set("HTTP-Referer", referrer)
		}
		if title != "" {
			h.Set("X-Title", title)
		}
		httpClient.Transport = headerTransport{rt: http.DefaultTransport, headers: h}
	}
	config.HTTPClient = httpClient
	return &OpenRouterClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *OpenRouterClient) Complete(ctx context.Context, messages []Message) (Response, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		MaxTokens:   2000,
		Temperature: 0.8,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, &GatewayError{Kind: FailureUpstream, Err: errors.New("completion returned no choices")}
	}

	out := Response{
		Content: resp.Choices[0].Message.Content,
		Model:   c.model,
	}
	out.PromptTokens = resp.Usage.PromptTokens
	out.CompletionTokens = resp.Usage.CompletionTokens
	out.TotalTokens = resp.Usage.TotalTokens
	return out, nil
}

func (c *OpenRouterClient) Configured() bool { return true }

// classify converts go-openai errors into GatewayErrors by upstream status:
// 401 unauthorized, 429 rate limited, other statuses upstream, anything
// without a status (network, timeout, cancelled context) transport.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fromStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fromStatus(reqErr.HTTPStatusCode, err)
	}
	return &GatewayError{Kind: FailureTransport, Err: err}
}

func fromStatus(status int, err error) error {
	switch {
	case status == http.StatusUnauthorized:
		return &GatewayError{Kind: FailureUnauthorized, Status: status, Err: err}
	case status == http.StatusTooManyRequests:
		return &GatewayError{Kind: FailureRateLimited, Status: status, Err: err}
	case status == 0:
		return &GatewayError{Kind: FailureTransport, Err: err}
	default:
		return &GatewayError{Kind: FailureUpstream, Status: status, Err: err}
	}
}
