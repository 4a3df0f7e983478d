package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NasaVasa/pricewatch/internal/infra/metrics"
	"github.com/NasaVasa/pricewatch/internal/usecase"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Server struct {
	users         *usecase.UserUsecase
	alerts        *usecase.AlertUsecase
	monitor       *usecase.Monitor
	notifications *usecase.NotificationUsecase
	hub           *Hub
	pollInterval  time.Duration
	adminToken    string
	upgrader      websocket.Upgrader
	logger        *zap.Logger
}

type Options struct {
	PollInterval time.Duration
	AdminToken   string
}

func NewServer(users *usecase.UserUsecase, alerts *usecase.AlertUsecase, monitor *usecase.Monitor, notifications *usecase.NotificationUsecase, hub *Hub, opts Options, logger *zap.Logger) *Server {
	return &Server{
		users:         users,
		alerts:        alerts,
		monitor:       monitor,
		notifications: notifications,
		hub:           hub,
		pollInterval:  opts.PollInterval,
		adminToken:    opts.AdminToken,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// bearer tokens, not cookies, authenticate the upgrade
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /v1/alerts/check", s.authed(s.handleCheck))
	mux.HandleFunc("GET /v1/alerts", s.authed(s.handleListAlerts))
	mux.HandleFunc("POST /v1/alerts", s.authed(s.handleCreateAlert))
	mux.HandleFunc("DELETE /v1/alerts/{id}", s.authed(s.handleDeleteAlert))
	mux.HandleFunc("POST /v1/alerts/{id}/pause", s.authed(s.handlePauseAlert))
	mux.HandleFunc("POST /v1/alerts/{id}/resume", s.authed(s.handleResumeAlert))

	mux.HandleFunc("GET /v1/notifications", s.authed(s.handleListNotifications))
	mux.HandleFunc("POST /v1/notifications/{id}/read", s.authed(s.handleMarkRead))
	mux.HandleFunc("POST /v1/admin/notifications", s.handleAdminNotify)

	mux.HandleFunc("GET /v1/session", s.handleSession)
	return mux
}

// Run serves until ctx is done, then drains requests and closes sessions.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http server shutdown failed", zap.Error(err))
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
