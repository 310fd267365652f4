package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"jarvis-agent/internal/command"
	"jarvis-agent/internal/history"
	"jarvis-agent/internal/llm"
	"jarvis-agent/internal/prompt"
	"jarvis-agent/internal/storage"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls [][]llm.Message
	reply string
	err   error
}

func (f *fakeGateway) Complete(_ context.Context, messages []llm.Message) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.reply, Model: "fake"}, nil
}

func (f *fakeGateway) Configured() bool { return true }

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []storage.Event
}

func (f *fakeRecorder) AppendInteraction(event storage.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeRecorder) LoadInteractions() ([]storage.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events, nil
}

type failingStore struct {
	history.Store
}

func (failingStore) Replace(string, []history.Turn) error {
	return errors.New("disk full")
}

func newTestService(gateway llm.Gateway, commands command.Table, recorder storage.Recorder) *Service {
	return NewService(history.NewMemoryStore(), prompt.NewBuilder("", 0), gateway, commands, recorder)
}

func TestTalkRoundTrip(t *testing.T) {
	gateway := &fakeGateway{reply: "hi there"}
	svc := newTestService(gateway, nil, nil)

	reply, err := svc.Talk(context.Background(), "alice", "hello")
	if err != nil {
		t.Fatalf("Talk returned error: %+v", err)
	}
	if reply.Text != "hi there" {
		t.Fatalf("expected reply %q, got %q", "hi there", reply.Text)
	}
	if reply.UserID != "alice" {
		t.Fatalf("expected user alice, got %q", reply.UserID)
	}
	if !strings.HasPrefix(reply.MessageID, "alice_") {
		t.Fatalf("expected message id prefixed with user id, got %q", reply.MessageID)
	}
	if reply.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}

	turns := svc.History("alice")
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != history.RoleUser || turns[0].Content != "hello" {
		t.Fatalf("unexpected user turn: %+v", turns[0])
	}
	if turns[1].Role != history.RoleAssistant || turns[1].Content != "hi there" {
		t.Fatalf("unexpected assistant turn: %+v", turns[1])
	}
}

func TestTalkAlternatesOverManyCalls(t *testing.T) {
	svc := newTestService(&fakeGateway{reply: "ok"}, nil, nil)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		if _, err := svc.Talk(ctx, "alice", fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("Talk %d returned error: %+v", i, err)
		}
	}

	turns := svc.History("alice")
	if len(turns) != 2*n {
		t.Fatalf("expected %d turns, got %d", 2*n, len(turns))
	}
	for i, turn := range turns {
		wantRole := history.RoleUser
		if i%2 == 1 {
			wantRole = history.RoleAssistant
		}
		if turn.Role != wantRole {
			t.Fatalf("turn %d: expected role %q, got %q", i, wantRole, turn.Role)
		}
	}
	for i := 0; i < n; i++ {
		if got := turns[2*i].Content; got != fmt.Sprintf("msg-%d", i) {
			t.Fatalf("turn %d: expected msg-%d, got %q", 2*i, i, got)
		}
	}
}

func TestTalkBuildsContextFromPriorHistoryOnly(t *testing.T) {
	gateway := &fakeGateway{reply: "sure"}
	svc := newTestService(gateway, nil, nil)
	ctx := context.Background()

	if _, err := svc.Talk(ctx, "alice", "first message"); err != nil {
		t.Fatalf("Talk returned error: %+v", err)
	}
	if _, err := svc.Talk(ctx, "alice", "second message"); err != nil {
		t.Fatalf("Talk returned error: %+v", err)
	}

	messages := gateway.calls[1]
	if messages[0].Role != "system" {
		t.Fatalf("expected system message first, got %+v", messages[0])
	}
	if got := messages[len(messages)-1]; got.Role != "user" || got.Content != "second message" {
		t.Fatalf("expected new message last, got %+v", got)
	}

	var occurrences int
	for _, m := range messages {
		if m.Content == "second message" {
			occurrences++
		}
	}
	if occurrences != 1 {
		t.Fatalf("expected new message to appear once in context, got %d", occurrences)
	}
	// prior exchange: system + first + reply + new message
	if len(messages) != 4 {
		t.Fatalf("expected 4 context messages, got %d: %+v", len(messages), messages)
	}
}

func TestTalkWithUnconfiguredGateway(t *testing.T) {
	svc := newTestService(llm.NewSimulator(), nil, nil)

	reply, err := svc.Talk(context.Background(), "alice", "hello")
	if err != nil {
		t.Fatalf("Talk returned error: %+v", err)
	}
	if reply.Text == "" || !strings.Contains(reply.Text, "simulation mode") {
		t.Fatalf("expected placeholder reply, got %q", reply.Text)
	}

	turns := svc.History("alice")
	if len(turns) != 2 {
		t.Fatalf("expected both turns persisted, got %d", len(turns))
	}
	if turns[1].Content != reply.Text {
		t.Fatalf("expected persisted assistant turn to match reply, got %q", turns[1].Content)
	}
}

func TestTalkAbsorbsGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{err: &llm.GatewayError{Kind: llm.FailureRateLimited, Status: 429, Err: errors.New("too many requests")}}
	svc := newTestService(gateway, nil, nil)

	reply, err := svc.Talk(context.Background(), "alice", "hello")
	if err != nil {
		t.Fatalf("expected gateway failure to be absorbed, got error: %+v", err)
	}
	if !strings.Contains(reply.Text, "Rate Limit Exceeded") {
		t.Fatalf("expected rate limit wording, got %q", reply.Text)
	}

	turns := svc.History("alice")
	if len(turns) != 2 {
		t.Fatalf("expected both turns persisted, got %d", len(turns))
	}
	if turns[1].Content != reply.Text {
		t.Fatalf("expected persisted assistant turn to match reply, got %q", turns[1].Content)
	}
}

func TestTalkConcurrentSameUser(t *testing.T) {
	svc := newTestService(&fakeGateway{reply: "ok"}, nil, nil)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Talk(ctx, "alice", fmt.Sprintf("msg-%d", i)); err != nil {
				t.Errorf("Talk %d returned error: %+v", i, err)
			}
		}(i)
	}
	wg.Wait()

	turns := svc.History("alice")
	if len(turns) != 2*n {
		t.Fatalf("expected %d turns, got %d", 2*n, len(turns))
	}
	seen := make(map[string]bool)
	for _, turn := range turns {
		if turn.Role == history.RoleUser {
			seen[turn.Content] = true
		}
	}
	for i := 0; i < n; i++ {
		if !seen[fmt.Sprintf("msg-%d", i)] {
			t.Fatalf("lost user message msg-%d: %+v", i, turns)
		}
	}
}

func TestTalkCommandShortCircuitsGateway(t *testing.T) {
	gateway := &fakeGateway{reply: "should not be used"}
	table := command.Table{
		{Prefix: "/ping", Handler: func(context.Context, string, string) string { return "pong" }},
	}
	svc := newTestService(gateway, table, nil)

	reply, err := svc.Talk(context.Background(), "alice", "/ping")
	if err != nil {
		t.Fatalf("Talk returned error: %+v", err)
	}
	if reply.Text != "pong" {
		t.Fatalf("expected command reply, got %q", reply.Text)
	}
	if gateway.callCount() != 0 {
		t.Fatalf("expected gateway to be skipped, got %d calls", gateway.callCount())
	}

	turns := svc.History("alice")
	if len(turns) != 2 || turns[1].Content != "pong" {
		t.Fatalf("expected command reply persisted as assistant turn, got %+v", turns)
	}
}

func TestClearThenHistoryEmpty(t *testing.T) {
	svc := newTestService(&fakeGateway{reply: "ok"}, nil, nil)
	ctx := context.Background()

	if _, err := svc.Talk(ctx, "alice", "hello"); err != nil {
		t.Fatalf("Talk returned error: %+v", err)
	}
	if err := svc.Clear("alice"); err != nil {
		t.Fatalf("Clear returned error: %+v", err)
	}
	if turns := svc.History("alice"); len(turns) != 0 {
		t.Fatalf("expected empty history after clear, got %+v", turns)
	}
	if turns := svc.History("stranger"); len(turns) != 0 {
		t.Fatalf("expected empty history for unseen user, got %+v", turns)
	}
}

func TestTalkSurfacesPersistFailure(t *testing.T) {
	store := failingStore{Store: history.NewMemoryStore()}
	svc := NewService(store, prompt.NewBuilder("", 0), &fakeGateway{reply: "ok"}, nil, nil)

	if _, err := svc.Talk(context.Background(), "alice", "hello"); err == nil {
		t.Fatal("expected persist failure to surface as error")
	}
}

func TestTalkRecordsInteraction(t *testing.T) {
	recorder := &fakeRecorder{}
	gateway := &fakeGateway{reply: "*(checking my notes)* here you go"}
	svc := newTestService(gateway, nil, recorder)

	if _, err := svc.Talk(context.Background(), "alice", "hello"); err != nil {
		t.Fatalf("Talk returned error: %+v", err)
	}

	events, _ := recorder.LoadInteractions()
	if len(events) != 1 {
		t.Fatalf("expected 1 recorded event, got %d", len(events))
	}
	ev := events[0]
	if ev.UserID != "alice" || ev.UserMessage != "hello" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(ev.Thoughts) != 1 || ev.Thoughts[0] != "checking my notes" {
		t.Fatalf("expected extracted thought, got %+v", ev.Thoughts)
	}
}

func TestExtractThoughts(t *testing.T) {
	cases := []struct {
		reply string
		want  []string
	}{
		{"plain reply without asides", nil},
		{"*(first thought)* hello *(second thought)* bye", []string{"first thought", "second thought"}},
		{"*(only one)* and *(unclosed", []string{"only one"}},
	}
	for _, tc := range cases {
		got := ExtractThoughts(tc.reply)
		if len(got) != len(tc.want) {
			t.Fatalf("ExtractThoughts(%q) = %+v, want %+v", tc.reply, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("ExtractThoughts(%q)[%d] = %q, want %q", tc.reply, i, got[i], tc.want[i])
			}
		}
	}
}
