// Package server serves a built documentation tree for local preview and
// tells connected browsers to reload after every rebuild.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/sketchdoc/internal/config"
	"github.com/conneroisu/sketchdoc/internal/logging"
	"github.com/conneroisu/sketchdoc/internal/version"
)

// URLs reserved by the server. Pages built for serving load ReloadScriptPath.
const (
	ReloadScriptPath = "/_sketchdoc/reload.js"
	WebSocketPath    = "/_sketchdoc/ws"
	OverlayPath      = "/_sketchdoc/overlay"
	HealthPath       = "/_sketchdoc/health"
)

// BuildStatus exposes the state of the last build.
type BuildStatus interface {
	// ErrorOverlay returns the HTML shown over every page, or "".
	ErrorOverlay() string
}

// Client represents a WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// UpdateMessage is sent to every browser after a rebuild.
type UpdateMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Server serves the output directory with live reload.
type Server struct {
	cfg    config.ServerConfig
	root   string
	status BuildStatus
	logger logging.Logger

	httpServer   *http.Server
	serverMutex  sync.Mutex
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	done         chan struct{}
	stopOnce     sync.Once
	shutdownOnce sync.Once
}

// New creates a server for the files under root.
func New(cfg config.ServerConfig, root string, status BuildStatus, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		cfg:        cfg,
		root:       root,
		status:     status,
		logger:     logger.WithComponent("server"),
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Addr is the listen address from the configuration.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
}

// Handler returns the HTTP handler with every route and the request log.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, s.handleWebSocket)
	mux.HandleFunc(ReloadScriptPath, s.handleReloadScript)
	mux.HandleFunc(OverlayPath, s.handleOverlay)
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.Handle("/", noCache(http.FileServer(http.Dir(s.root))))
	return s.logRequests(mux)
}

// Start runs the hub and serves until ctx is done or the server fails.
func (s *Server) Start(ctx context.Context) error {
	go s.RunHub(ctx)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, err, "server shutdown failed")
		}
	}()

	s.logger.Info(ctx, "serving documentation", "url", "http://"+s.Addr(), "root", s.root)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// NotifyReload asks every connected browser to reload.
func (s *Server) NotifyReload() {
	msg, err := json.Marshal(UpdateMessage{Type: "reload", Timestamp: time.Now().UTC()})
	if err != nil {
		msg = []byte(`{"type":"reload"}`)
	}
	select {
	case s.broadcast <- msg:
	default:
		// a reload is already queued
	}
}

func (s *Server) stopHub() {
	s.stopOnce.Do(func() { close(s.done) })
}

// ClientCount returns the number of connected browsers.
func (s *Server) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// Shutdown closes every websocket connection and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.Lock()
		server := s.httpServer
		s.serverMutex.Unlock()
		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})
	return shutdownErr
}

func (s *Server) handleReloadScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = fmt.Fprintf(w, reloadScript, WebSocketPath, OverlayPath)
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if s.status != nil {
		_, _ = w.Write([]byte(s.status.ErrorOverlay()))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":  "healthy",
		"version": version.GetShortVersion(),
		"clients": s.ClientCount(),
		"errors":  s.status != nil && s.status.ErrorOverlay() != "",
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "failed to encode health response")
	}
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the hijacker for websockets.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == WebSocketPath {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
