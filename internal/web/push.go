package web

import (
	"net/http"

	"github.com/edvart/inhouse-scheduler/internal/auth"
	"github.com/edvart/inhouse-scheduler/internal/push"
	"github.com/edvart/inhouse-scheduler/internal/store"
)

type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (s *Server) pushEnabled() bool {
	return s.pushService != nil && s.pushService.Enabled()
}

// handleSubscribePush stores a browser push subscription for the caller.
func (s *Server) handleSubscribePush(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req PushSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil || req.Endpoint == "" {
		writeBadRequest(w, "endpoint is required")
		return
	}

	sub := &store.PushSubscription{
		UserID:   user.ID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := s.store.SavePushSubscription(r.Context(), sub); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleUnsubscribePush(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Endpoint == "" {
		writeBadRequest(w, "endpoint is required")
		return
	}

	if err := s.store.DeletePushSubscription(r.Context(), req.Endpoint); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleGetVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	if !s.pushEnabled() {
		writeJSON(w, http.StatusServiceUnavailable, errorJSON{Error: "push notifications not configured"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": s.pushService.GetPublicKey()})
}

// handleTestPush sends a test notification to the caller's devices.
func (s *Server) handleTestPush(w http.ResponseWriter, r *http.Request) {
	if !s.pushEnabled() {
		writeJSON(w, http.StatusServiceUnavailable, errorJSON{Error: "push notifications not configured"})
		return
	}

	user := auth.UserFromContext(r.Context())
	payload := push.NotificationPayload{
		Title: "Test notification",
		Body:  "If you see this, push notifications are working.",
		Tag:   "test-notification",
		Data:  map[string]any{"url": "/"},
	}
	if err := s.pushService.SendToUser(r.Context(), user.ID, payload); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
