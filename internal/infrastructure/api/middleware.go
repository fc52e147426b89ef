package api

import (
	"net/http"

	"orderdesk/internal/domain"
	"orderdesk/internal/ports"

	"github.com/rs/zerolog"
)

// requireUser resolves the current user through the auth provider and puts it
// in the request context. Requests without a valid session get 401.
func requireUser(provider ports.AuthProvider, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := provider.UserFromRequest(r.Context(), r)
			if err != nil || user == nil {
				if err != nil {
					logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Request not authenticated")
				}
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), user)))
		})
	}
}
