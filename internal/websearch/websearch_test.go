package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server) *Client {
	return &Client{httpClient: srv.Client(), searchURL: srv.URL}
}

func TestSearchFormatsAnswerAndTopics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "gophers" {
			t.Errorf("expected query %q, got %q", "gophers", got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("expected format json, got %q", got)
		}
		w.Write([]byte(`{
			"Heading": "Gopher",
			"Abstract": "A gopher is a burrowing rodent.",
			"AbstractURL": "https://en.wikipedia.org/wiki/Gopher",
			"RelatedTopics": [
				{"Text": "Pocket gopher - a rodent family", "FirstURL": "https://duckduckgo.com/Pocket_gopher"},
				{"Name": "See also"},
				{"Text": "Gopher protocol - a predecessor of the web", "FirstURL": "https://duckduckgo.com/Gopher_protocol"}
			]
		}`))
	}))
	defer srv.Close()

	got := newTestClient(srv).Search(context.Background(), "gophers")

	if !strings.HasPrefix(got, "🌐 **Web Search Results for: 'gophers'**\n\n") {
		t.Fatalf("unexpected header: %q", got)
	}
	for _, want := range []string{
		"**1. Gopher**",
		"A gopher is a burrowing rodent....",
		"Source: https://en.wikipedia.org/wiki/Gopher",
		"**2. Pocket gopher**",
		"**3. Gopher protocol**",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected result to contain %q, got:\n%s", want, got)
		}
	}
	if strings.Contains(got, "**4.") {
		t.Errorf("expected at most 3 results, got:\n%s", got)
	}
}

func TestSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Abstract": "", "RelatedTopics": []}`))
	}))
	defer srv.Close()

	got := newTestClient(srv).Search(context.Background(), "nonsense")
	want := "I couldn't find any information about that on the web."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSearchUpstreamFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	got := newTestClient(srv).Search(context.Background(), "anything")
	want := "Sorry, I encountered an error while searching the web."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSummarizeStripsScriptsAndFormats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<style>body { color: red }</style>
			<script>var secret = "hidden";</script>
		</head><body>
			<h1>Welcome</h1>
			<p>This   page has
			plenty of    whitespace.</p>
		</body></html>`))
	}))
	defer srv.Close()

	got := newTestClient(srv).Summarize(context.Background(), srv.URL)

	if !strings.HasPrefix(got, "📄 **Webpage Summary: "+srv.URL+"**\n\n") {
		t.Fatalf("unexpected header: %q", got)
	}
	if !strings.Contains(got, "Welcome This page has plenty of whitespace.") {
		t.Errorf("expected collapsed page text, got: %q", got)
	}
	if strings.Contains(got, "hidden") || strings.Contains(got, "color: red") {
		t.Errorf("expected script/style content to be stripped, got: %q", got)
	}
}

func TestSummarizeTruncatesLongPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>" + strings.Repeat("word ", 400) + "</p></body></html>"))
	}))
	defer srv.Close()

	got := newTestClient(srv).Summarize(context.Background(), srv.URL)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated summary to end with ellipsis, got tail %q", got[len(got)-20:])
	}
}

func TestSummarizeUnreachablePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	got := newTestClient(srv).Summarize(context.Background(), srv.URL)
	want := "Sorry, I couldn't access the webpage at " + srv.URL
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTimeInfo(t *testing.T) {
	now := time.Date(2024, time.March, 15, 14, 30, 5, 0, time.UTC)
	got := TimeInfo(now)
	want := "🕐 **Current Time Information**\n\n" +
		"**Time:** 14:30:05\n" +
		"**Date:** 2024-03-15\n" +
		"**Day:** Friday\n" +
		"**Timezone:** Local time"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTopicTitle(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://duckduckgo.com/Gopher_protocol", "Gopher protocol"},
		{"https://duckduckgo.com/c/Rodents", "Rodents"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := topicTitle(tc.url); got != tc.want {
			t.Errorf("topicTitle(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
