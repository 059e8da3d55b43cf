package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/momentum/backend/pkg/config"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Mode reports which optional surfaces are mounted
type Mode struct {
	AllowExecute bool `json:"allow_execute"` // POST /api/runs 실제 실행 허용
	Scheduler    bool `json:"scheduler"`     // 스케줄러 동시 실행
	Events       bool `json:"events"`        // /ws/events
}

// ModeOf derives the server mode from the mounted handlers
func ModeOf(h Handlers) Mode {
	return Mode{
		AllowExecute: h.Runs != nil && h.Runs.AllowExecute(),
		Scheduler:    h.Scheduler != nil,
		Events:       h.Events != nil,
	}
}

// Server represents the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	mode       Mode
	logger     *logger.Logger
	config     *config.Config
}

// New creates the API server with the router for h
func New(cfg *config.Config, h Handlers, log *logger.Logger) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      NewRouter(h, log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		mode:   ModeOf(h),
		logger: log,
		config: cfg,
	}

	// Shutdown은 hijack된 WebSocket 연결을 기다리지도 닫지도 않음
	if h.Events != nil {
		s.httpServer.RegisterOnShutdown(h.Events.Close)
	}
	return s
}

// Mode returns the mounted surfaces
func (s *Server) Mode() Mode {
	return s.mode
}

// Listen binds the port so bind errors surface before serving
// PORT=0 이면 임의 포트
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Start serves until Shutdown, binding first if Listen was not called
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"addr":          s.Addr(),
		"env":           s.config.Env,
		"allow_execute": s.mode.AllowExecute,
		"scheduler":     s.mode.Scheduler,
	}).Info("Starting API server")
	if s.mode.AllowExecute {
		s.logger.Warn("POST /api/runs may execute orders (dry_run=false accepted)")
	}

	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and disconnects event subscribers
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
