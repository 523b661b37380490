package auth

import "net/http"

// AdminConfig holds the chat user IDs allowed to run admin commands.
type AdminConfig struct {
	AdminUserIDs map[string]bool
}

// NewAdminConfig creates admin config from a list of user IDs.
func NewAdminConfig(userIDs []string) *AdminConfig {
	cfg := &AdminConfig{
		AdminUserIDs: make(map[string]bool),
	}
	for _, id := range userIDs {
		if id != "" {
			cfg.AdminUserIDs[id] = true
		}
	}
	return cfg
}

// IsAdmin checks if a user ID is an admin.
func (c *AdminConfig) IsAdmin(userID string) bool {
	return c.AdminUserIDs[userID]
}

// AdminMiddleware requires an admin user. It must run after RequireAuth.
// With an empty admin list every authenticated user is allowed.
func AdminMiddleware(cfg *AdminConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if len(cfg.AdminUserIDs) > 0 && !cfg.IsAdmin(user.ID) {
				http.Error(w, "Forbidden: Admin access required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
