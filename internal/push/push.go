package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"
	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/store"
)

type sendFunc func(message []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

type Service struct {
	store        store.Store
	vapidPublic  string
	vapidPrivate string
	vapidSubject string
	send         sendFunc
}

type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string // mailto:your-email@example.com
}

func NewService(st store.Store, cfg Config) *Service {
	return &Service{
		store:        st,
		vapidPublic:  cfg.VAPIDPublicKey,
		vapidPrivate: cfg.VAPIDPrivateKey,
		vapidSubject: cfg.VAPIDSubject,
		send:         webpush.SendNotification,
	}
}

// Enabled reports whether VAPID keys are configured.
func (s *Service) Enabled() bool {
	return s.vapidPublic != "" && s.vapidPrivate != ""
}

type NotificationPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Tag   string         `json:"tag,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// SendToUser sends a push notification to all subscriptions of a user.
// Subscriptions the push service reports as gone are removed.
func (s *Service) SendToUser(ctx context.Context, userID string, payload NotificationPayload) error {
	subs, err := s.store.GetPushSubscriptions(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get subscriptions: %w", err)
	}
	if len(subs) == 0 {
		log.WithField("user", userID).Debug("No push subscriptions")
		return nil
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error
	successCount := 0
	for _, sub := range subs {
		resp, err := s.send(payloadBytes, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}, &webpush.Options{
			Subscriber:      s.vapidSubject,
			VAPIDPublicKey:  s.vapidPublic,
			VAPIDPrivateKey: s.vapidPrivate,
			TTL:             3600,
		})
		if err != nil {
			log.WithError(err).WithField("endpoint", sub.Endpoint).Warn("Failed to send push")
			lastErr = err
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
			log.WithField("endpoint", sub.Endpoint).Info("Subscription expired, removing")
			if err := s.store.DeletePushSubscription(ctx, sub.Endpoint); err != nil {
				log.WithError(err).Warn("Failed to delete subscription")
			}
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			lastErr = fmt.Errorf("push failed with status %d", resp.StatusCode)
		default:
			successCount++
		}
	}

	if successCount > 0 {
		return nil
	}
	return lastErr
}

// SendToMultipleUsers sends the same notification to several users in parallel and waits for all of them.
func (s *Service) SendToMultipleUsers(ctx context.Context, userIDs []string, payload NotificationPayload) {
	var wg sync.WaitGroup
	for _, id := range userIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.SendToUser(ctx, id, payload); err != nil {
				log.WithError(err).WithField("user", id).Warn("Failed to notify user")
			}
		}()
	}
	wg.Wait()
}

// GetPublicKey returns the VAPID public key for clients.
func (s *Service) GetPublicKey() string {
	return s.vapidPublic
}
