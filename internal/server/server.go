package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/goanswer/internal/answer"
	"github.com/hyperifyio/goanswer/internal/compose"
)

// Server exposes the pipeline over HTTP: a synchronous chat endpoint and a
// streaming one that reports phase transitions before the final answer. Both
// run the same composer.
type Server struct {
	Composer *compose.Composer
	Log      zerolog.Logger
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/stream", s.handleChatStream)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ans, err := s.Composer.Answer(r.Context(), req.Message, nil)
	if err != nil {
		if errors.Is(err, compose.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "empty message")
			return
		}
		s.Log.Error().Err(err).Msg("chat request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// Stream event bodies. Every event is canonical JSON; the answer payload has
// exactly the same shape as the synchronous response.
type searchingEvent struct {
	Phase string `json:"phase"`
}

type readingEvent struct {
	Phase string `json:"phase"`
	Count int    `json:"count"`
}

type answerEvent struct {
	Phase   string        `json:"phase"`
	Payload answer.Answer `json:"payload"`
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	message := strings.TrimSpace(r.URL.Query().Get("message"))
	if message == "" {
		writeError(w, http.StatusBadRequest, "empty message")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	obs := &streamObserver{w: w, flusher: flusher}
	// Client disconnect cancels r.Context(), which zeroes the budget for
	// in-flight fetches without touching other requests.
	ans, err := s.Composer.Answer(r.Context(), message, obs)
	if err != nil {
		// The query was validated above, so this is a cancelled client; there
		// is no one left to write a terminal event to.
		s.Log.Debug().Err(err).Msg("stream aborted")
		return
	}
	obs.emit(answerEvent{Phase: "answer", Payload: ans})
}

type streamObserver struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (o *streamObserver) OnSearching() {
	o.emit(searchingEvent{Phase: "searching"})
}

func (o *streamObserver) OnReading(count int) {
	o.emit(readingEvent{Phase: "reading", Count: count})
}

func (o *streamObserver) emit(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(o.w, "data: %s\n\n", b)
	o.flusher.Flush()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
