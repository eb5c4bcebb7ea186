package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drone-delivery/internal/common/httpx"
	"drone-delivery/internal/domain"
	"drone-delivery/internal/microservices/processing/service"
)

type orderRequest struct {
	OrderID int `json:"order_id"`
}

type ProcessingHandler struct {
	service service.ProcessingServiceInterface
}

func NewProcessingHandler(s service.ProcessingServiceInterface) *ProcessingHandler {
	return &ProcessingHandler{service: s}
}

func (h *ProcessingHandler) ProcessOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOrderRequest(w, r)
	if !ok {
		return
	}
	res, err := h.service.ProcessOrder(r.Context(), req.OrderID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Order has been processed successfully and scheduled for delivery.", res)
}

func (h *ProcessingHandler) OrderDelivered(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOrderRequest(w, r)
	if !ok {
		return
	}
	res, err := h.service.OrderDelivered(r.Context(), req.OrderID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Order has been marked as delivered.", res)
}

func Router(r chi.Router, h *ProcessingHandler) {
	r.Post("/process_order", h.ProcessOrder)
	r.Post("/order_delivered", h.OrderDelivered)
}

func decodeOrderRequest(w http.ResponseWriter, r *http.Request) (orderRequest, bool) {
	req, err := httpx.DecodeJSON[orderRequest](r)
	if err != nil {
		httpx.Error(w, "", err)
		return req, false
	}
	if req.OrderID <= 0 {
		httpx.OK(w, http.StatusBadRequest, "Missing order_id in request", nil)
		return req, false
	}
	return req, true
}

func writeError(w http.ResponseWriter, err error) {
	var se *service.StepError
	if errors.As(err, &se) {
		httpx.Error(w, se.Step, se.Err)
		return
	}
	if httpx.StatusOf(err) == http.StatusInternalServerError && !errors.Is(err, domain.ErrValidation) {
		httpx.Error(w, "processing-order internal error", err)
		return
	}
	httpx.Error(w, "", err)
}
