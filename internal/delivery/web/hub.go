package web

import (
	"context"
	"sync"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/NasaVasa/pricewatch/internal/infra/metrics"
	"go.uber.org/zap"
)

// Hub tracks the live websocket sessions of this replica by user.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[string]*Session
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{sessions: make(map[uint]map[string]*Session), logger: logger}
}

func (h *Hub) Register(session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byID, ok := h.sessions[session.userID]
	if !ok {
		byID = make(map[string]*Session)
		h.sessions[session.userID] = byID
	}
	byID[session.id] = session
	metrics.ActiveSessions.Inc()
}

func (h *Hub) Unregister(session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byID, ok := h.sessions[session.userID]
	if !ok {
		return
	}
	if _, ok := byID[session.id]; !ok {
		return
	}
	delete(byID, session.id)
	if len(byID) == 0 {
		delete(h.sessions, session.userID)
	}
	metrics.ActiveSessions.Dec()
}

// Count returns the number of open sessions for userID.
func (h *Hub) Count(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// PublishInApp pushes a persisted notification to every open session of its
// recipient. Users without a session pick it up on their next fetch.
func (h *Hub) PublishInApp(_ context.Context, record domain.NotificationRecord) error {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions[record.RecipientID]))
	for _, session := range h.sessions[record.RecipientID] {
		targets = append(targets, session)
	}
	h.mu.RUnlock()

	view := newNotificationView(record)
	for _, session := range targets {
		if err := session.enqueue(frame{Type: frameNotification, Notification: &view}); err != nil {
			h.logger.Debug("notification not pushed", zap.String("session_id", session.id), zap.Error(err))
		}
	}
	return nil
}

// CloseAll closes every session. Used on shutdown since hijacked
// connections outlive http.Server.Shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var all []*Session
	for _, byID := range h.sessions {
		for _, session := range byID {
			all = append(all, session)
		}
	}
	h.mu.RUnlock()

	for _, session := range all {
		session.Close()
	}
}
