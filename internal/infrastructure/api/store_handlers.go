package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"orderdesk/internal/application"
	"orderdesk/internal/domain"

	"github.com/go-chi/chi/v5"
)

// stateCookieName holds the OAuth state for the redirect round-trip. Ten
// minutes matches the lifetime of the authorization code.
const (
	stateCookieName   = "shopify_oauth_state"
	stateCookieMaxAge = 10 * time.Minute
)

func (h *Handler) handleListStores(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())
	stores, err := h.storeService.List(r.Context(), user)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if stores == nil {
		stores = []*domain.Store{}
	}
	writeJSON(w, http.StatusOK, stores)
}

func (h *Handler) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())

	var input application.StoreInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	store, err := h.storeService.Create(r.Context(), user, &input)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, store)
}

func (h *Handler) handleGetStore(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())
	store, err := h.storeService.Get(r.Context(), user, chi.URLParam(r, "storeID"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store)
}

func (h *Handler) handleUpdateStore(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())

	var input application.StoreUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	store, err := h.storeService.Update(r.Context(), user, chi.URLParam(r, "storeID"), &input)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store)
}

func (h *Handler) handleDeleteStore(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())
	if err := h.storeService.Delete(r.Context(), user, chi.URLParam(r, "storeID")); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConnectStore starts the OAuth flow: issues the state, mirrors it into
// a short-lived http-only cookie and redirects the browser to Shopify.
func (h *Handler) handleConnectStore(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())

	authURL, state, err := h.oauthService.BeginConnect(r.Context(), user, chi.URLParam(r, "storeID"))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) handleDisconnectStore(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())
	store, err := h.storeService.Disconnect(r.Context(), user, chi.URLParam(r, "storeID"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store)
}

func (h *Handler) handleSyncStore(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())
	synced, err := h.orderService.Sync(r.Context(), user, chi.URLParam(r, "storeID"))
	if err != nil {
		if errors.Is(err, application.ErrStoreNotConnected) {
			writeError(w, http.StatusConflict, "store is not connected")
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"synced": synced})
}
