package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// Headers set by the chat-platform relay on every forwarded interaction.
const (
	HeaderRelayToken = "X-Relay-Token"
	HeaderUserID     = "X-User-ID"
	HeaderUserName   = "X-User-Name"
)

var (
	ErrBadRelayToken = errors.New("invalid relay token")
	ErrMissingUser   = errors.New("missing user identity")
)

// User is the chat user on whose behalf a request is made.
type User struct {
	ID   string
	Name string
}

// Relay authenticates requests forwarded by the chat-platform adapter.
type Relay struct {
	token []byte
}

// NewRelay creates a relay authenticator. An empty token disables the token check.
func NewRelay(token string) *Relay {
	return &Relay{token: []byte(token)}
}

// Authenticate checks the relay token and extracts the acting user.
func (rl *Relay) Authenticate(r *http.Request) (*User, error) {
	if len(rl.token) > 0 {
		got := []byte(r.Header.Get(HeaderRelayToken))
		if subtle.ConstantTimeCompare(got, rl.token) != 1 {
			return nil, ErrBadRelayToken
		}
	}

	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return nil, ErrMissingUser
	}
	name := strings.TrimSpace(r.Header.Get(HeaderUserName))
	if name == "" {
		name = id
	}
	return &User{ID: id, Name: name}, nil
}

// RequireAuth middleware ensures the request comes from the relay on behalf of a user.
func RequireAuth(rl *Relay) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := rl.Authenticate(r)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext retrieves the user from the request context.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
