package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/NasaVasa/pricewatch/internal/usecase"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

type authedHandler func(w http.ResponseWriter, r *http.Request, principal domain.Principal)

// authed resolves the bearer token before the handler does any work.
func (s *Server) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.users.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			s.writeError(w, err)
			return
		}
		next(w, r, principal)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request, principal domain.Principal) {
	triggered, err := s.monitor.Check(r.Context(), principal)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTriggeredViews(triggered))
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request, principal domain.Principal) {
	alerts, err := s.alerts.ListAlerts(r.Context(), principal)
	if err != nil {
		s.writeError(w, err)
		return
	}
	views := make([]alertView, 0, len(alerts))
	for _, alert := range alerts {
		views = append(views, newAlertView(alert))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request, principal domain.Principal) {
	var req alertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorView{Error: "invalid request body"})
		return
	}
	alert, err := s.alerts.CreateAlert(r.Context(), principal, usecase.AlertInput{
		Symbol:          req.Symbol,
		Venue:           req.Venue,
		Condition:       req.Condition,
		Target:          req.Target,
		TriggerLimit:    req.TriggerLimit,
		CooldownSeconds: req.CooldownSeconds,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("alert created", zap.Uint("owner_id", principal.UserID), zap.Uint("alert_id", alert.ID))
	writeJSON(w, http.StatusCreated, newAlertView(*alert))
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request, principal domain.Principal) {
	s.alertMutation(w, r, principal, s.alerts.DeleteAlert)
}

func (s *Server) handlePauseAlert(w http.ResponseWriter, r *http.Request, principal domain.Principal) {
	s.alertMutation(w, r, principal, s.alerts.PauseAlert)
}

func (s *Server) handleResumeAlert(w http.ResponseWriter, r *http.Request, principal domain.Principal) {
	s.alertMutation(w, r, principal, s.alerts.ResumeAlert)
}

func (s *Server) alertMutation(w http.ResponseWriter, r *http.Request, principal domain.Principal, mutate func(context.Context, domain.Principal, uint) error) {
	alertID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || alertID == 0 {
		writeJSON(w, http.StatusBadRequest, errorView{Error: "invalid alert id"})
		return
	}
	if err := mutate(r.Context(), principal, uint(alertID)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, principal domain.Principal) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	records, err := s.notifications.List(r.Context(), principal, unreadOnly)
	if err != nil {
		s.writeError(w, err)
		return
	}
	views := make([]notificationView, 0, len(records))
	for _, record := range records {
		views = append(views, newNotificationView(record))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request, principal domain.Principal) {
	if err := s.notifications.MarkRead(r.Context(), principal, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminNotify(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Admin-Token")), []byte(s.adminToken)) != 1 {
		writeJSON(w, http.StatusForbidden, errorView{Error: "forbidden"})
		return
	}

	var req adminNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorView{Error: "invalid request body"})
		return
	}
	channels := make(domain.Channels, 0, len(req.Channels))
	for _, raw := range req.Channels {
		channel, ok := domain.ParseChannel(raw)
		if !ok {
			writeJSON(w, http.StatusUnprocessableEntity, errorView{Error: "unknown channel " + strconv.Quote(raw), Field: "channels"})
			return
		}
		channels = append(channels, channel)
	}

	records, err := s.notifications.Send(r.Context(), domain.NotificationRequest{
		RecipientIDs: req.RecipientIDs,
		Broadcast:    req.Broadcast,
		Title:        req.Title,
		Message:      req.Message,
		Channels:     channels,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("admin notification sent", zap.Int("records", len(records)), zap.Bool("broadcast", req.Broadcast))
	writeJSON(w, http.StatusAccepted, map[string]int{"created": len(records)})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validation *usecase.ValidationError
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorView{Error: "unauthenticated"})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, errorView{Error: validation.Reason, Field: validation.Field})
	case errors.Is(err, usecase.ErrInvalidNotification):
		writeJSON(w, http.StatusUnprocessableEntity, errorView{Error: err.Error()})
	case errors.Is(err, usecase.ErrAlertNotFound), errors.Is(err, usecase.ErrNotificationNotFound):
		writeJSON(w, http.StatusNotFound, errorView{Error: err.Error()})
	default:
		s.logger.Warn("unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorView{Error: "internal error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
