package api

import (
	"net/http"

	"orderdesk/internal/application"
)

// handleOAuthCallback is the redirect target Shopify sends the merchant back
// to. It never renders errors itself: every outcome becomes a redirect to the
// dashboard's stores page with a success or error query parameter. The state
// cookie is cleared either way.
func (h *Handler) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	// The session is resolved best-effort here: a missing or invalid
	// session yields a nil user and the unauthorized result downstream.
	user, err := h.authProvider.UserFromRequest(r.Context(), r)
	if err != nil {
		h.logger.Debug().Err(err).Msg("OAuth callback without a resolvable session")
		user = nil
	}

	cookieState := ""
	if cookie, cookieErr := r.Cookie(stateCookieName); cookieErr == nil {
		cookieState = cookie.Value
	}

	result := h.oauthService.HandleCallback(r.Context(), application.CallbackParams{
		User:        user,
		Code:        r.URL.Query().Get("code"),
		State:       r.URL.Query().Get("state"),
		Shop:        r.URL.Query().Get("shop"),
		CookieState: cookieState,
	})
	h.metrics.OAuthCallbacks.WithLabelValues(result).Inc()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	target := h.dashboardURL + "/stores?error=" + result
	if result == application.ResultConnected {
		target = h.dashboardURL + "/stores?success=connected"
	}
	http.Redirect(w, r, target, http.StatusFound)
}
