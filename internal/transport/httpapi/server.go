// Package httpapi exposes analyses over HTTP and streams progress over
// WebSocket.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/usecase"
)

const writeTimeout = 10 * time.Second

// Runner is the slice of usecase.Pipeline the API needs.
type Runner interface {
	Run(ctx context.Context, id domain.ProjectIdentifier, opts usecase.RunOptions) (domain.AnalysisResult, error)
	History(ctx context.Context, projectName string, limit int) ([]domain.StoredReport, error)
}

// Server routes the analysis API.
type Server struct {
	runner   Runner
	metrics  http.Handler
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer wires the runner; metrics may be nil to omit /metrics. The
// stream endpoint accepts same-origin requests plus allowedOrigins.
func NewServer(runner Runner, metrics http.Handler, logger *slog.Logger, allowedOrigins ...string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner:  runner,
		metrics: metrics,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	trusted := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			trusted[strings.ToLower(origin)] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := trusted[strings.ToLower(origin)]
		return ok
	}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/analyze/stream", s.handleStream)
	mux.HandleFunc("GET /api/reports/{name}", s.handleReports)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	domain.ProjectIdentifier
	Refresh bool `json:"refresh,omitempty"`
	Notify  bool `json:"notify,omitempty"`
}

// AnalyzeResponse carries the result and the states the run went through.
type AnalyzeResponse struct {
	States []domain.AnalysisState `json:"states"`
	Result domain.AnalysisResult  `json:"result"`
}

// StreamMessage is one WebSocket frame: a state, the final result or an error.
type StreamMessage struct {
	Type    string                 `json:"type"`
	State   domain.AnalysisState   `json:"state,omitempty"`
	Message string                 `json:"message,omitempty"`
	Result  *domain.AnalysisResult `json:"result,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var (
		mu     sync.Mutex
		states []domain.AnalysisState
	)
	observer := func(_ context.Context, state domain.AnalysisState) error {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
		return nil
	}

	result, err := s.runner.Run(r.Context(), req.ProjectIdentifier, usecase.RunOptions{
		Observer: observer,
		Notify:   req.Notify,
		Refresh:  req.Refresh,
	})
	if err != nil {
		s.logger.Warn("analysis request failed", "project", req.Name, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if states == nil {
		states = []domain.AnalysisState{}
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{States: states, Result: result})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := domain.ProjectIdentifier{
		Name:      q.Get("name"),
		Symbol:    q.Get("symbol"),
		Website:   q.Get("website"),
		DocsURL:   q.Get("docsUrl"),
		GitHubURL: q.Get("githubUrl"),
	}
	refresh, _ := strconv.ParseBool(q.Get("refresh"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client only ever closes; a read error means it went away.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	var mu sync.Mutex
	send := func(msg StreamMessage) error {
		mu.Lock()
		defer mu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteJSON(msg)
	}

	observer := func(_ context.Context, state domain.AnalysisState) error {
		return send(StreamMessage{Type: "state", State: state, Message: state.Describe()})
	}

	result, err := s.runner.Run(ctx, id, usecase.RunOptions{Observer: observer, Refresh: refresh})
	if err != nil {
		_ = send(StreamMessage{Type: "error", Error: err.Error()})
	} else {
		_ = send(StreamMessage{Type: "result", Result: &result})
	}

	mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	mu.Unlock()
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	reports, err := s.runner.History(r.Context(), r.PathValue("name"), limit)
	if err != nil {
		s.logger.Error("report history failed", "error", err)
		http.Error(w, "Failed to load reports", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidIdentifier), errors.Is(err, domain.ErrInvalidGitHubURL):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
