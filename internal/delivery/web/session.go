package web

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	frameToast        = "toast"
	frameNotification = "notification"

	sendBuffer   = 32
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 45 * time.Second
)

var (
	errSessionClosed = errors.New("session closed")
	errSessionBusy   = errors.New("session send buffer full")
)

type frame struct {
	Type         string            `json:"type"`
	Toast        *domain.Toast     `json:"toast,omitempty"`
	Notification *notificationView `json:"notification,omitempty"`
}

// wsConn is the part of *websocket.Conn a session needs.
type wsConn interface {
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	ReadMessage() (int, []byte, error)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Session is one authenticated websocket connection. It is the toast surface
// for its owner's poller.
type Session struct {
	id     string
	userID uint
	conn   wsConn
	send   chan frame
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func newSession(userID uint, conn wsConn, logger *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		userID: userID,
		conn:   conn,
		send:   make(chan frame, sendBuffer),
		done:   make(chan struct{}),
		logger: logger.With(zap.String("session_id", id), zap.Uint("user_id", userID)),
	}
}

func (s *Session) Toast(_ context.Context, toast domain.Toast) error {
	return s.enqueue(frame{Type: frameToast, Toast: &toast})
}

func (s *Session) enqueue(f frame) error {
	select {
	case <-s.done:
		return errSessionClosed
	default:
	}
	select {
	case s.send <- f:
		return nil
	case <-s.done:
		return errSessionClosed
	default:
		return errSessionBusy
	}
}

// Close is idempotent.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.Close()

	for {
		select {
		case <-s.done:
			return
		case f := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteJSON(f); err != nil {
				s.logger.Debug("ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				s.logger.Debug("ws ping failed", zap.Error(err))
				return
			}
		}
	}
}

// readLoop discards client messages and returns when the peer goes away.
func (s *Session) readLoop() {
	defer s.Close()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info("ws session closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}
