package lcdrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/rs/cors"
)

// DefaultAddr is where the server listens unless told otherwise.
const DefaultAddr = "127.0.0.1:3030"

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr           string   // Default: DefaultAddr
	AllowedOrigins []string // Default: "null", i.e. pages loaded from file://
	Version        string   // Reported by /health
}

// Server serves the JSON-RPC endpoint and a health check.
type Server struct {
	config ServerConfig
	logger *slog.Logger
	rpc    *rpc.Server
	mux    *http.ServeMux
	server *http.Server
}

// NewServer creates a server for svc. logger may be nil to discard logs.
func NewServer(cfg ServerConfig, svc *Service, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		return nil, errors.New("lcdrpc: service is nil")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"null"}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		config: cfg,
		logger: logger,
		rpc:    rpc.NewServer(),
		mux:    http.NewServeMux(),
	}
	s.rpc.RegisterCodec(newCodec(), "application/json")
	if err := s.rpc.RegisterService(svc, ServiceName); err != nil {
		return nil, fmt.Errorf("lcdrpc: register service: %w", err)
	}
	s.rpc.RegisterInterceptFunc(s.intercept)
	s.rpc.RegisterBeforeFunc(s.before)
	s.rpc.RegisterAfterFunc(s.after)

	s.registerRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           c.Handler(s.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("/", s.rpc)
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// ListenAndServe listens on the configured address and serves until
// Shutdown. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("lcdrpc: listen: %w", err)
	}
	return s.Serve(l)
}

// Serve serves on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("serving", "addr", l.Addr().String(), "origins", s.config.AllowedOrigins)
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting calls and waits for running ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version := s.config.Version
	if version == "" {
		version = "dev"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version,
	})
}

type callKey struct{}

type call struct {
	id    string
	start time.Time
}

// intercept tags the request with a call id and start time for the hooks.
func (s *Server) intercept(i *rpc.RequestInfo) *http.Request {
	c := &call{id: uuid.NewString(), start: time.Now()}
	return i.Request.WithContext(context.WithValue(i.Request.Context(), callKey{}, c))
}

func callOf(r *http.Request) *call {
	if c, ok := r.Context().Value(callKey{}).(*call); ok {
		return c
	}
	return &call{start: time.Now()}
}

func (s *Server) before(i *rpc.RequestInfo) {
	c := callOf(i.Request)
	s.logger.Debug("rpc call", "id", c.id, "method", i.Method, "remote", i.Request.RemoteAddr)
}

func (s *Server) after(i *rpc.RequestInfo) {
	c := callOf(i.Request)
	attrs := []any{"id", c.id, "method", i.Method, "duration", time.Since(c.start)}
	if i.Error == nil {
		s.logger.Info("rpc done", attrs...)
		return
	}
	var je *json2.Error
	if errors.As(WireError(i.Error), &je) {
		attrs = append(attrs, "code", int(je.Code))
	}
	attrs = append(attrs, "error", i.Error)
	s.logger.Warn("rpc failed", attrs...)
}
