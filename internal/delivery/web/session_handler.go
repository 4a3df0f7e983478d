package web

import (
	"context"
	"net/http"

	"github.com/NasaVasa/pricewatch/internal/usecase"
	"go.uber.org/zap"
)

// handleSession upgrades to a websocket and polls the caller's alerts for as
// long as the connection stays open.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	principal, err := s.users.Authenticate(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Uint("user_id", principal.UserID), zap.Error(err))
		return
	}

	session := newSession(principal.UserID, conn, s.logger)
	s.hub.Register(session)
	defer s.hub.Unregister(session)

	poller := usecase.NewPoller(s.pollInterval, s.monitor.PassFor(principal, session), session.logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session.logger.Info("ws session opened")
	go session.writeLoop()
	poller.Start(ctx)

	session.readLoop()
	poller.Stop()
	session.logger.Info("ws session closed")
}
