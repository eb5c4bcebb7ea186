package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drone-delivery/internal/common/httpx"
	"drone-delivery/internal/domain"
)

type Navigator interface {
	Navigate(ctx context.Context, req domain.NavigationRequest) (domain.NavigationResult, error)
}

type NavigationHandler struct {
	service Navigator
}

func NewNavigationHandler(s Navigator) *NavigationHandler {
	return &NavigationHandler{service: s}
}

func (h *NavigationHandler) NavigateDrone(w http.ResponseWriter, r *http.Request) {
	req, err := httpx.DecodeJSON[domain.NavigationRequest](r)
	if err != nil {
		httpx.Error(w, "", err)
		return
	}

	res, err := h.service.Navigate(r.Context(), req)
	if err != nil {
		httpx.Error(w, "Drone navigation failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Drone navigation initiated", res)
}

func Router(r chi.Router, h *NavigationHandler) {
	r.Post("/navigate-drone", h.NavigateDrone)
}
