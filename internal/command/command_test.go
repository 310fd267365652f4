package command

import (
	"context"
	"strings"
	"testing"

	"jarvis-agent/internal/knowledge"
)

type fakeSearcher struct {
	searched   []string
	summarized []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) string {
	f.searched = append(f.searched, query)
	return "results for " + query
}

func (f *fakeSearcher) Summarize(_ context.Context, url string) string {
	f.summarized = append(f.summarized, url)
	return "summary of " + url
}

type fakeMemory struct {
	entries []knowledge.Entry
	err     error
}

func (f *fakeMemory) Remember(_ context.Context, userID, category, content string) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, knowledge.Entry{UserID: userID, Category: category, Content: content})
	return nil
}

func (f *fakeMemory) Recall(_ context.Context, userID, query string, _ int) ([]knowledge.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []knowledge.Entry
	for _, e := range f.entries {
		if e.UserID == userID && strings.Contains(e.Content, query) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeMemory) Recent(_ context.Context, userID string, limit int) ([]knowledge.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []knowledge.Entry
	for _, e := range f.entries {
		if e.UserID == userID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestDispatchFirstMatchWins(t *testing.T) {
	table := Table{
		{Prefix: "/echo loud", Handler: func(_ context.Context, _, args string) string {
			return "LOUD " + args
		}},
		{Prefix: "/echo", Handler: func(_ context.Context, _, args string) string {
			return "echo " + args
		}},
	}

	reply, ok := table.Dispatch(context.Background(), "alice", "/echo loud hello")
	if !ok {
		t.Fatal("expected a match")
	}
	if reply != "LOUD hello" {
		t.Fatalf("expected first matching command to win, got %q", reply)
	}
}

func TestDispatchPrefixBoundaries(t *testing.T) {
	var calls int
	table := Table{
		{Prefix: "/time", Handler: func(context.Context, string, string) string {
			calls++
			return "now"
		}},
	}
	ctx := context.Background()

	if _, ok := table.Dispatch(ctx, "alice", "/timeout is too short"); ok {
		t.Fatal("expected /timeout not to match /time")
	}
	if _, ok := table.Dispatch(ctx, "alice", "what /time is it"); ok {
		t.Fatal("expected mid-text prefix not to match")
	}
	if _, ok := table.Dispatch(ctx, "alice", "/time"); !ok {
		t.Fatal("expected bare /time to match")
	}
	if _, ok := table.Dispatch(ctx, "alice", "  /time  "); !ok {
		t.Fatal("expected surrounding whitespace to be ignored")
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestDefaultTableSearchCommands(t *testing.T) {
	search := &fakeSearcher{}
	table := DefaultTable(search, knowledge.Disabled{})
	ctx := context.Background()

	reply, ok := table.Dispatch(ctx, "alice", "/search best gophers")
	if !ok || reply != "results for best gophers" {
		t.Fatalf("unexpected /search result: %q (ok=%v)", reply, ok)
	}
	if len(search.searched) != 1 || search.searched[0] != "best gophers" {
		t.Fatalf("unexpected search calls: %+v", search.searched)
	}

	reply, ok = table.Dispatch(ctx, "alice", "/summarize https://example.com")
	if !ok || reply != "summary of https://example.com" {
		t.Fatalf("unexpected /summarize result: %q (ok=%v)", reply, ok)
	}

	reply, _ = table.Dispatch(ctx, "alice", "/search")
	if reply != "Usage: /search <query>" {
		t.Fatalf("expected usage text, got %q", reply)
	}
}

func TestDefaultTableTime(t *testing.T) {
	table := DefaultTable(&fakeSearcher{}, knowledge.Disabled{})

	reply, ok := table.Dispatch(context.Background(), "alice", "/time")
	if !ok {
		t.Fatal("expected /time to match")
	}
	if !strings.HasPrefix(reply, "🕐 **Current Time Information**") {
		t.Fatalf("unexpected /time reply: %q", reply)
	}
}

func TestRememberAndRecallCommands(t *testing.T) {
	memory := &fakeMemory{}
	table := DefaultTable(&fakeSearcher{}, memory)
	ctx := context.Background()

	reply, ok := table.Dispatch(ctx, "alice", "/remember work: deploys happen on Fridays")
	if !ok {
		t.Fatal("expected /remember to match")
	}
	if !strings.Contains(reply, "**Category:** work") || !strings.Contains(reply, "deploys happen on Fridays") {
		t.Fatalf("unexpected /remember reply: %q", reply)
	}
	if len(memory.entries) != 1 || memory.entries[0].Category != "work" {
		t.Fatalf("unexpected stored entries: %+v", memory.entries)
	}

	reply, _ = table.Dispatch(ctx, "alice", "/remember missing separator")
	if reply != "Usage: /remember <category>: <text>" {
		t.Fatalf("expected usage text, got %q", reply)
	}

	reply, _ = table.Dispatch(ctx, "alice", "/recall Fridays")
	if !strings.Contains(reply, "🧠 **Memory Recall for: 'Fridays'**") || !strings.Contains(reply, "**1. [work]**") {
		t.Fatalf("unexpected /recall reply: %q", reply)
	}

	reply, _ = table.Dispatch(ctx, "alice", "/recall unknown topic")
	if reply != "I don't have any memories matching 'unknown topic'." {
		t.Fatalf("unexpected empty /recall reply: %q", reply)
	}
}

func TestMemoriesCommand(t *testing.T) {
	memory := &fakeMemory{}
	table := DefaultTable(&fakeSearcher{}, memory)
	ctx := context.Background()

	reply, _ := table.Dispatch(ctx, "alice", "/memories")
	if reply != "I don't have any memories stored yet." {
		t.Fatalf("unexpected empty /memories reply: %q", reply)
	}

	table.Dispatch(ctx, "alice", "/remember pets: has a cat")
	reply, _ = table.Dispatch(ctx, "alice", "/memories")
	if !strings.Contains(reply, "🧠 **Recent Memories**") || !strings.Contains(reply, "has a cat") {
		t.Fatalf("unexpected /memories reply: %q", reply)
	}
}

func TestMemoryCommandsDegradeWhenUnavailable(t *testing.T) {
	table := DefaultTable(&fakeSearcher{}, knowledge.Disabled{})
	ctx := context.Background()

	for _, text := range []string{"/remember a: b", "/recall something", "/memories"} {
		reply, ok := table.Dispatch(ctx, "alice", text)
		if !ok {
			t.Fatalf("expected %q to match", text)
		}
		if reply != "Sorry, my memory is not configured." {
			t.Fatalf("expected degraded reply for %q, got %q", text, reply)
		}
	}
}

func TestDispatchPlainTextDoesNotMatch(t *testing.T) {
	table := DefaultTable(&fakeSearcher{}, knowledge.Disabled{})

	if _, ok := table.Dispatch(context.Background(), "alice", "tell me about gophers"); ok {
		t.Fatal("expected plain text to fall through")
	}
}
