// Package web exposes the conversation service over HTTP: a health
// endpoint, the /talk endpoint and per-user history access.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"jarvis-agent/internal/agent"
	"jarvis-agent/internal/history"
)

// conversation is the slice of the agent service the server needs.
type conversation interface {
	Talk(ctx context.Context, userID, text string) (agent.Reply, error)
	History(userID string) []history.Turn
	Clear(userID string) error
}

// Health describes the configuration reported at the root endpoint.
type Health struct {
	Model           string
	Storage         string
	AIReady         bool
	SlackEnabled    bool
	TelegramEnabled bool
}

type Server struct {
	svc    conversation
	health Health
	server *http.Server
}

// NewServer builds the HTTP surface on the given port.
func NewServer(port int, svc conversation, health Health) *Server {
	s := &Server{svc: svc, health: health}

	mux := http.NewServeMux()
	mux.HandleFunc("/talk", s.handleTalk)
	mux.HandleFunc("/history/", s.handleHistory)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
		// The write timeout must outlast the bounded gateway call.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	log.Printf("🚀 Jarvis web server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting up to 5s for in-flight requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type talkRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

type healthResponse struct {
	Message         string `json:"message"`
	Status          string `json:"status"`
	Model           string `json:"model"`
	Storage         string `json:"storage"`
	AIReady         bool   `json:"ai_ready"`
	SlackEnabled    bool   `json:"slack_enabled"`
	TelegramEnabled bool   `json:"telegram_enabled"`
}

type historyResponse struct {
	UserID   string         `json:"user_id"`
	Messages []history.Turn `json:"messages"`
	Count    int            `json:"count"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Message:         "Jarvis AI Agent is running!",
		Status:          "healthy",
		Model:           s.health.Model,
		Storage:         s.health.Storage,
		AIReady:         s.health.AIReady,
		SlackEnabled:    s.health.SlackEnabled,
		TelegramEnabled: s.health.TelegramEnabled,
	})
}

func (s *Server) handleTalk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req talkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing text or user_id")
		return
	}
	if req.Text == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing text or user_id")
		return
	}

	log.Printf("📨 Received message from user %s: %s", req.UserID, preview(req.Text))

	reply, err := s.svc.Talk(r.Context(), req.UserID, req.Text)
	if err != nil {
		log.Printf("❌ Talk failed for user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimPrefix(r.URL.Path, "/history/")
	if userID == "" || strings.Contains(userID, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		turns := s.svc.History(userID)
		if turns == nil {
			turns = []history.Turn{}
		}
		writeJSON(w, http.StatusOK, historyResponse{UserID: userID, Messages: turns, Count: len(turns)})
	case http.MethodDelete:
		if err := s.svc.Clear(userID); err != nil {
			log.Printf("❌ Clear failed for user %s: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		log.Printf("🗑️ Cleared history for user %s", userID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "History cleared successfully"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func preview(text string) string {
	const max = 100
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max]) + "..."
}
