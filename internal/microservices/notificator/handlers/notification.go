package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"drone-delivery/internal/common/httpx"
	"drone-delivery/internal/domain"
	"drone-delivery/internal/microservices/notificator/service"
)

// Readiness: consumer держит канал к брокеру.
type Readiness interface {
	Ready() bool
}

type NotificationHandler struct {
	service service.DispatcherInterface
	ready   Readiness
}

func NewNotificationHandler(s service.DispatcherInterface, ready Readiness) *NotificationHandler {
	return &NotificationHandler{service: s, ready: ready}
}

func (h *NotificationHandler) Notify(w http.ResponseWriter, r *http.Request) {
	req, err := httpx.DecodeJSON[domain.NotificationRequest](r)
	if err != nil {
		httpx.Error(w, "", err)
		return
	}
	if err := req.Validate(); err != nil {
		httpx.OK(w, http.StatusBadRequest, "Missing required fields (customer_id, message, order_id)", nil)
		return
	}

	out, err := h.service.Send(r.Context(), req)
	if errors.Is(err, service.ErrNotDelivered) {
		httpx.ErrorData(w, "Failed to send notification", err, out)
		return
	}
	if err != nil {
		httpx.Error(w, "Failed to send notification", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Notification sent successfully", out)
}

func (h *NotificationHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httpx.OK(w, http.StatusBadRequest, "Missing email query parameter", nil)
		return
	}
	if err := h.service.SendTestEmail(r.Context(), email); err != nil {
		writeError(w, "Failed to send test email", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Test email sent to "+email, nil)
}

func (h *NotificationHandler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.Atoi(chi.URLParam(r, "order_id"))
	if err != nil || orderID <= 0 {
		httpx.OK(w, http.StatusBadRequest, "Invalid order_id", nil)
		return
	}
	limit := atoiDefault(r.URL.Query().Get("limit"), 0)
	offset := atoiDefault(r.URL.Query().Get("offset"), 0)

	deliveries, err := h.service.History(r.Context(), orderID, limit, offset)
	if err != nil {
		writeError(w, "Failed to load notification history", err)
		return
	}
	httpx.OK(w, http.StatusOK, "", map[string]any{"order_id": orderID, "deliveries": deliveries})
}

func (h *NotificationHandler) Ready(w http.ResponseWriter, _ *http.Request) {
	if !h.ready.Ready() {
		httpx.OK(w, http.StatusServiceUnavailable, "Notification consumer is not connected to the broker.", nil)
		return
	}
	httpx.OK(w, http.StatusOK, "Notification consumer is ready.", nil)
}

func Router(r chi.Router, h *NotificationHandler) {
	r.Post("/notify", h.Notify)
	r.Get("/test-email", h.TestEmail)
	r.Get("/notifications/orders/{order_id}", h.OrderHistory)
}

func writeError(w http.ResponseWriter, prefix string, err error) {
	if errors.Is(err, service.ErrEmailDisabled) || errors.Is(err, service.ErrLedgerDisabled) {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.Envelope{
			Code:    http.StatusServiceUnavailable,
			Message: prefix + ": " + err.Error(),
		})
		return
	}
	httpx.Error(w, prefix, err)
}

// atoiDefault: int из query с дефолтом
func atoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}
