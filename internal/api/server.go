package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/x360-io/x360/internal/logbuf"
	"github.com/x360-io/x360/pkg/protocol"
)

// Version is reported by the health endpoint.
const Version = "0.3.0"

// LogQuerier abstracts log entry querying to avoid coupling to logbuf directly.
type LogQuerier interface {
	Query(since time.Time, minLevel slog.Level, limit int) []logbuf.Entry
}

// Service is the interface the API server needs from the core.
type Service interface {
	Chat(ctx context.Context, mode protocol.Mode, message string, history []protocol.ConversationTurn, chatCtx protocol.ChatContext) (*protocol.AgentReply, error)
	GenerateBriefing(ctx context.Context, data []map[string]any) *protocol.Briefing
	LatestBriefing() (*protocol.Briefing, time.Time, bool)
	Snapshot() ([]protocol.Ticket, error)
	IngestDocument(ctx context.Context, url string) (string, error)
}

// Config holds API server configuration.
type Config struct {
	Host string
	Port int
	Key  string // API key for Bearer auth, "" disables auth
}

// Server is the x360 REST API server.
type Server struct {
	svc    Service
	cfg    Config
	logger *slog.Logger
	logs   LogQuerier
	srv    *http.Server
}

// NewServer creates a new API server. logs may be nil.
func NewServer(svc Service, cfg Config, logger *slog.Logger, logs LogQuerier) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		logs:   logs,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/briefing", s.requireAuth(s.handleBriefing))
	mux.HandleFunc("GET /api/v1/briefing/latest", s.requireAuth(s.handleLatestBriefing))
	mux.HandleFunc("POST /api/v1/chat", s.requireAuth(s.handleChat))
	mux.HandleFunc("GET /api/v1/data", s.requireAuth(s.handleData))
	mux.HandleFunc("POST /api/v1/kb/documents", s.requireAuth(s.handleIngestDocument))
	mux.HandleFunc("GET /api/v1/logs", s.requireAuth(s.handleGetLogs))

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins listening. Blocks until context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutCtx)
	}()

	s.logger.Info("api server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// --- Middleware ---

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Key == "" {
			next(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.cfg.Key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

type briefingRequest struct {
	Data []map[string]any `json:"data"`
}

// handleBriefing generates a briefing on demand. When the body carries no
// data the stored snapshot is analyzed instead.
func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	var req briefingRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
	}

	b := s.svc.GenerateBriefing(r.Context(), req.Data)
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleLatestBriefing(w http.ResponseWriter, _ *http.Request) {
	b, at, ok := s.svc.LatestBriefing()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no briefing generated yet"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"briefing":    b,
		"generatedAt": at.UnixMilli(),
	})
}

type chatRequest struct {
	Message string                      `json:"message"`
	History []protocol.ConversationTurn `json:"history"`
	Mode    protocol.Mode               `json:"mode"`
	Context protocol.ChatContext        `json:"context"`
}

type chatResponse struct {
	Response  string              `json:"response"`
	Timestamp int64               `json:"timestamp"`
	Citations []protocol.Citation `json:"citations"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}
	if !req.Mode.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid mode %q", req.Mode)})
		return
	}

	reply, err := s.svc.Chat(r.Context(), req.Mode, req.Message, req.History, req.Context)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  reply.Response,
		Timestamp: time.Now().UnixMilli(),
		Citations: reply.Citations,
	})
}

func (s *Server) handleData(w http.ResponseWriter, _ *http.Request) {
	tickets, err := s.svc.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if tickets == nil {
		tickets = []protocol.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

type ingestRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return
	}

	docID, err := s.svc.IngestDocument(r.Context(), req.URL)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"documentId": docID})
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		writeJSON(w, http.StatusOK, []logbuf.Entry{})
		return
	}

	limit := 200
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	minLevel := slog.LevelDebug
	if lvl := r.URL.Query().Get("level"); lvl != "" {
		switch strings.ToLower(lvl) {
		case "info":
			minLevel = slog.LevelInfo
		case "warn":
			minLevel = slog.LevelWarn
		case "error":
			minLevel = slog.LevelError
		}
	}

	var since time.Time
	if sv := r.URL.Query().Get("since"); sv != "" {
		if ms, err := strconv.ParseInt(sv, 10, 64); err == nil {
			since = time.UnixMilli(ms)
		}
	}

	entries := s.logs.Query(since, minLevel, limit)
	if entries == nil {
		entries = []logbuf.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
