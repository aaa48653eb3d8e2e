// Package api exposes the huddle daemon over HTTP and a realtime websocket.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/huddleai/huddle/pkg/config"
	hudderr "github.com/huddleai/huddle/pkg/errors"
	"github.com/huddleai/huddle/pkg/logging"
	"github.com/huddleai/huddle/pkg/session"
	"github.com/huddleai/huddle/pkg/telemetry"
)

// Server is the huddle API server.
type Server struct {
	cfg        *config.Config
	session    *session.Session
	logger     *logging.Logger
	realtime   *RealtimeHandler
	httpServer *http.Server
}

// NewServer creates the API server over an existing session.
func NewServer(cfg *config.Config, sess *session.Session, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		cfg:      cfg,
		session:  sess,
		logger:   logger,
		realtime: NewRealtimeHandler(sess, logger),
	}

	router := chi.NewRouter()
	router.Use(s.corsMiddleware)

	router.Get("/", s.handleRoot)
	router.Route("/api", func(r chi.Router) {
		r.Post("/session/token", s.handleSessionToken)
		r.Post("/capture/start", s.handleCaptureStart)
		r.Post("/capture/stop", s.handleCaptureStop)
		r.Get("/capture/status", s.handleCaptureStatus)
		r.Post("/analyze/screen", s.handleAnalyzeScreen)
		r.Get("/screenshots/latest", s.handleLatestScreenshot)
		r.Post("/answer", s.handleAnswer)
	})
	router.Get("/ws/meeting", s.realtime.HandleWebSocket)
	router.Get("/metrics", telemetry.Handler().ServeHTTP)

	s.httpServer = &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: h2c.NewHandler(router, &http2.Server{}),
	}
	return s
}

// Router returns the HTTP handler, for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving the API.
func (s *Server) ListenAndServe() error {
	s.logger.Info(logging.CategoryServer, "listening", "api server listening", map[string]any{
		"addr": s.cfg.Server.Listen,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(s.cfg.Server.CORSOrigins))
	for _, origin := range s.cfg.Server.CORSOrigins {
		allowed[origin] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "huddle meeting assistant",
		"status":  "running",
	})
}

func (s *Server) handleSessionToken(w http.ResponseWriter, r *http.Request) {
	tok, err := session.IssueRealtimeToken(s.cfg.Session, s.session.ID())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

type captureStatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleCaptureStart(w http.ResponseWriter, r *http.Request) {
	status := s.session.StartCapture()
	msg := "screen capture started"
	if status != "started" {
		msg = "screen capture already active"
	}
	writeJSON(w, http.StatusOK, captureStatusResponse{Status: string(status), Message: msg})
}

func (s *Server) handleCaptureStop(w http.ResponseWriter, r *http.Request) {
	status := s.session.StopCapture()
	msg := "screen capture stopped"
	if status != "stopped" {
		msg = "screen capture was not active"
	}
	writeJSON(w, http.StatusOK, captureStatusResponse{Status: string(status), Message: msg})
}

func (s *Server) handleCaptureStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.CaptureState())
}

type analyzeRequest struct {
	Query string `json:"query,omitempty"`
}

func (s *Server) handleAnalyzeScreen(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if r.Body != nil {
		// Body is optional; an empty or absent body means the default prompt.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	analysis, err := s.session.Dispatcher().AnalyzeScreen(r.Context(), req.Query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type latestScreenshotResponse struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

func (s *Server) handleLatestScreenshot(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.session.Store().Latest()
	if !ok {
		s.writeError(w, hudderr.New(hudderr.ErrCodeScreenshotNotFound, "no screenshots available"))
		return
	}
	writeJSON(w, http.StatusOK, latestScreenshotResponse{
		Path:      rec.Path,
		Timestamp: rec.Timestamp,
		Count:     s.session.Store().Count(),
	})
}

type answerRequest struct {
	Question   string `json:"question"`
	Transcript string `json:"transcript,omitempty"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, hudderr.Wrap(err, hudderr.ErrCodeInvalidInput, "decoding answer request"))
		return
	}

	result, err := s.session.Dispatcher().Answer(r.Context(), req.Question, req.Transcript)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := hudderr.GetCode(err)
	writeJSON(w, statusForCode(code), errorResponse{Error: err.Error(), Code: string(code)})
}

func statusForCode(code hudderr.ErrorCode) int {
	switch code {
	case hudderr.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case hudderr.ErrCodeScreenshotNotFound:
		return http.StatusNotFound
	case hudderr.ErrCodeAnalysisFailed, hudderr.ErrCodeCompletionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
