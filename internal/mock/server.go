package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sciencetwins/twins/internal/files"
	"github.com/sciencetwins/twins/internal/types"
)

const (
	maxLogs       = 1000
	maxUploadSize = files.MaxFileSize
)

// Server is a stand-in for the analysis service
type Server struct {
	config     *Config
	router     chi.Router
	httpServer *http.Server
	listener   net.Listener
	logger     *slog.Logger
	logs       []RequestLog
	logsMutex  sync.RWMutex
	workdir    string
	notifyCh   chan struct{} // signalled on every logged request
}

// NewServer creates a new mock server. Relative bodyFile paths resolve
// against workdir.
func NewServer(config *Config, workdir string, logger *slog.Logger) *Server {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Host == "" {
		config.Host = DefaultHost
	}
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		config:   config,
		logger:   logger.With("component", "mock"),
		logs:     make([]RequestLog, 0),
		workdir:  workdir,
		notifyCh: make(chan struct{}, 100),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Options(s.config.Path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post(s.config.Path, s.handleAnalyze)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router = r
}

// Handler exposes the router, mainly for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("mock server stopped", "error", err)
		}
	}()

	s.logger.Info("mock server listening", "address", s.GetAddress())
	return nil
}

// Stop stops the mock server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// analyzeInput is what the handler extracted from either encoding
type analyzeInput struct {
	encoding string
	mode     types.Mode
	text     string
	fileName string
}

// handleAnalyze validates the request the way the real service does before
// answering with the first matching canned response
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	in, status, detail := s.parseRequest(r)
	if status != http.StatusOK {
		writeJSON(w, status, map[string]string{"detail": detail})
		s.record(start, in, "invalid: "+detail, status)
		return
	}

	if in.encoding == "multipart" && in.text == "" {
		// same answer the service gives for scanned PDFs
		writeJSON(w, http.StatusOK, map[string]any{
			"mode":   in.mode,
			"result": map[string]string{"type": "error", "message": "PDF contains no extractable text"},
		})
		s.record(start, in, "empty pdf", http.StatusOK)
		return
	}

	resp := s.findMatchingResponse(in)
	if resp == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"mode":   in.mode,
			"result": map[string]string{"type": "error", "message": "Mock server: no response configured for mode " + string(in.mode)},
		})
		s.record(start, in, "none", http.StatusOK)
		return
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(time.Duration(resp.Delay) * time.Millisecond):
		case <-r.Context().Done():
			s.record(start, in, "cancelled", 0)
			return
		}
	}

	status = resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	body := resp.Body
	if resp.BodyFile != "" {
		path := resp.BodyFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.workdir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			status = http.StatusInternalServerError
			body = fmt.Sprintf(`{"detail":"Mock server: failed to read body file %s"}`, resp.BodyFile)
		} else {
			body = string(data)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))

	rule := resp.Name
	if rule == "" {
		rule = string(resp.Mode)
	}
	s.record(start, in, rule, status)
}

// parseRequest returns the input plus http.StatusOK, or an error status
// with a detail message
func (s *Server) parseRequest(r *http.Request) (analyzeInput, int, string) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		in := analyzeInput{encoding: "json"}
		var body struct {
			Mode string `json:"mode"`
			Text any    `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return in, http.StatusBadRequest, "Invalid JSON"
		}
		in.mode = types.Mode(body.Mode)
		if !in.mode.Valid() {
			return in, http.StatusBadRequest, `mode must be "plagiarism" or "doppelganger"`
		}
		text, ok := body.Text.(string)
		if !ok || strings.TrimSpace(text) == "" {
			return in, http.StatusBadRequest, "text is required and must be a non-empty string"
		}
		in.text = text
		return in, http.StatusOK, ""

	case "multipart/form-data":
		in := analyzeInput{encoding: "multipart"}
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return in, http.StatusBadRequest, "Invalid multipart body"
		}
		in.mode = types.Mode(r.FormValue("mode"))
		if !in.mode.Valid() {
			return in, http.StatusBadRequest, `mode must be "plagiarism" or "doppelganger"`
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			return in, http.StatusBadRequest, "file is required in multipart request"
		}
		defer f.Close()
		in.fileName = header.Filename
		if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
			return in, http.StatusBadRequest, "Only PDF files are allowed"
		}
		data, err := io.ReadAll(f)
		if err != nil {
			return in, http.StatusBadRequest, "failed to read file"
		}
		text, err := files.PlainText(data)
		if err != nil {
			s.logger.Debug("pdf text extraction failed", "file", header.Filename, "error", err)
		}
		in.text = strings.TrimSpace(text)
		return in, http.StatusOK, ""

	default:
		return analyzeInput{}, http.StatusBadRequest, "Unsupported Content-Type. Use application/json or multipart/form-data."
	}
}

// findMatchingResponse finds the first response for the mode whose match
// string occurs in the text or file name
func (s *Server) findMatchingResponse(in analyzeInput) *Response {
	haystack := strings.ToLower(in.text + "\n" + in.fileName)
	for i := range s.config.Responses {
		resp := &s.config.Responses[i]
		if resp.Mode != in.mode {
			continue
		}
		if resp.Match == "" || strings.Contains(haystack, strings.ToLower(resp.Match)) {
			return resp
		}
	}
	return nil
}

func (s *Server) record(start time.Time, in analyzeInput, rule string, status int) {
	duration := time.Since(start)
	s.logger.Info("analyze request",
		"mode", string(in.mode),
		"encoding", in.encoding,
		"rule", rule,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	)

	if !s.config.Logging {
		return
	}

	input := in.text
	if in.fileName != "" {
		input = in.fileName
	}
	s.logRequest(RequestLog{
		Timestamp:   start,
		Encoding:    in.encoding,
		Mode:        string(in.mode),
		Input:       input,
		MatchedRule: rule,
		Status:      status,
		Duration:    duration,
	})
}

func (s *Server) logRequest(log RequestLog) {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = append(s.logs, log)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}

	// Notify listeners (non-blocking)
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// NotifyChannel returns the notification channel
func (s *Server) NotifyChannel() <-chan struct{} {
	return s.notifyCh
}

// GetLogs returns a copy of the logged requests
func (s *Server) GetLogs() []RequestLog {
	s.logsMutex.RLock()
	defer s.logsMutex.RUnlock()

	logs := make([]RequestLog, len(s.logs))
	copy(logs, s.logs)
	return logs
}

// ClearLogs clears all logged requests
func (s *Server) ClearLogs() {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = make([]RequestLog, 0)
}

// GetAddress returns the analyze endpoint URL
func (s *Server) GetAddress() string {
	host := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	if s.listener != nil {
		host = s.listener.Addr().String()
	}
	return "http://" + host + s.config.Path
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
