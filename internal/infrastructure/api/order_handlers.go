package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"orderdesk/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	orders, err := h.orderService.List(r.Context(), user, r.URL.Query().Get("store_id"), limit)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleListStoreOrders(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())
	orders, err := h.orderService.List(r.Context(), user, chi.URLParam(r, "storeID"), 0)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())
	order, err := h.orderService.Get(r.Context(), user, chi.URLParam(r, "orderID"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleUpdateOrderShipping(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())

	var input struct {
		AWBNumber     *string `json:"awb_number"`
		AWBPDFURL     *string `json:"awb_pdf_url"`
		InvoiceNumber *string `json:"invoice_number"`
		InvoicePDFURL *string `json:"invoice_pdf_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.UpdateShipping(r.Context(), user, chi.URLParam(r, "orderID"), &domain.OrderShippingUpdate{
		AWBNumber:     input.AWBNumber,
		AWBPDFURL:     input.AWBPDFURL,
		InvoiceNumber: input.InvoiceNumber,
		InvoicePDFURL: input.InvoicePDFURL,
	})
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())
	stats, err := h.orderService.Stats(r.Context(), user)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
