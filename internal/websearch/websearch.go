// Package websearch gives the bot live internet access: DuckDuckGo
// instant-answer search, webpage summarization and current time info.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	searchEndpoint = "https://api.duckduckgo.com/"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	requestTimeout = 10 * time.Second

	maxResults    = 3
	snippetLimit  = 200
	summaryLimit  = 500
	pageTextLimit = 2000
)

// Client performs web lookups. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	searchURL  string
}

// NewClient creates a Client with a bounded request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		searchURL:  searchEndpoint,
	}
}

// Search queries the DuckDuckGo instant answer API and returns a
// formatted result block. Failures degrade to apologetic text.
func (c *Client) Search(ctx context.Context, query string) string {
	results, err := c.instantAnswers(ctx, query)
	if err != nil {
		log.Printf("⚠️ Web search for %q failed: %v", query, err)
		return "Sorry, I encountered an error while searching the web."
	}
	if len(results) == 0 {
		return "I couldn't find any information about that on the web."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌐 **Web Search Results for: '%s'**\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, r.title)
		fmt.Fprintf(&b, "%s...\n", truncateRunes(r.snippet, snippetLimit))
		if r.url != "" {
			fmt.Fprintf(&b, "Source: %s\n", r.url)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Summarize fetches a webpage and returns the leading text as a
// formatted summary block.
func (c *Client) Summarize(ctx context.Context, pageURL string) string {
	content, err := c.fetchPageText(ctx, pageURL)
	if err != nil || content == "" {
		if err != nil {
			log.Printf("⚠️ Fetching %s failed: %v", pageURL, err)
		}
		return fmt.Sprintf("Sorry, I couldn't access the webpage at %s", pageURL)
	}

	summary := content
	if utf8.RuneCountInString(summary) > summaryLimit {
		summary = truncateRunes(summary, summaryLimit) + "..."
	}
	return fmt.Sprintf("📄 **Webpage Summary: %s**\n\n%s", pageURL, summary)
}

// TimeInfo formats the current local time, date and day of week.
func TimeInfo(now time.Time) string {
	return fmt.Sprintf("🕐 **Current Time Information**\n\n"+
		"**Time:** %s\n"+
		"**Date:** %s\n"+
		"**Day:** %s\n"+
		"**Timezone:** Local time",
		now.Format("15:04:05"), now.Format("2006-01-02"), now.Format("Monday"))
}

type searchResult struct {
	title   string
	snippet string
	url     string
}

// instantAnswer mirrors the fields of interest in the DuckDuckGo
// instant answer response. Topic groups decode with an empty Text and
// are skipped.
type instantAnswer struct {
	Heading       string         `json:"Heading"`
	Abstract      string         `json:"Abstract"`
	AbstractURL   string         `json:"AbstractURL"`
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

type relatedTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

func (c *Client) instantAnswers(ctx context.Context, query string) ([]searchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var results []searchResult
	if answer.Abstract != "" {
		title := answer.Heading
		if title == "" {
			title = "Instant Answer"
		}
		results = append(results, searchResult{
			title:   title,
			snippet: answer.Abstract,
			url:     answer.AbstractURL,
		})
	}
	for _, topic := range answer.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, searchResult{
			title:   topicTitle(topic.FirstURL),
			snippet: topic.Text,
			url:     topic.FirstURL,
		})
	}
	return results, nil
}

// topicTitle derives a readable title from the last path segment of a
// related-topic URL.
func topicTitle(rawURL string) string {
	segment := rawURL
	if i := strings.LastIndex(segment, "/"); i >= 0 {
		segment = segment[i+1:]
	}
	return strings.ReplaceAll(segment, "_", " ")
}

func (c *Client) fetchPageText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	text := extractText(doc)
	if utf8.RuneCountInString(text) > pageTextLimit {
		text = truncateRunes(text, pageTextLimit) + "..."
	}
	return text, nil
}

// extractText collects the visible text of a parsed page, skipping
// script and style subtrees and collapsing whitespace.
func extractText(root *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			parts = append(parts, strings.Fields(n.Data)...)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return strings.Join(parts, " ")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
