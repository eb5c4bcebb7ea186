package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drone-delivery/internal/common/httpx"
	"drone-delivery/internal/domain"
	"drone-delivery/internal/microservices/condition/service"
)

type ConditionHandler struct {
	service service.ConditionServiceInterface
}

func NewConditionHandler(s service.ConditionServiceInterface) *ConditionHandler {
	return &ConditionHandler{service: s}
}

func (h *ConditionHandler) CheckCondition(w http.ResponseWriter, r *http.Request) {
	req, err := httpx.DecodeJSON[domain.NavigationRequest](r)
	if err != nil {
		httpx.Error(w, "", err)
		return
	}

	res, err := h.service.Check(r.Context(), req)
	var unsafe *domain.UnsafeConditionsError
	switch {
	case errors.As(err, &unsafe):
		httpx.OK(w, http.StatusBadRequest, "Weather conditions not suitable for drone flight", unsafe.Weather)
	case errors.Is(err, domain.ErrNoAvailableDrones):
		httpx.OK(w, http.StatusNotFound, "No available drones", nil)
	case err != nil:
		httpx.Error(w, "Condition check failed", err)
	default:
		httpx.OK(w, http.StatusOK, "Drone scheduled successfully", res)
	}
}

func Router(r chi.Router, h *ConditionHandler) {
	r.Post("/check-condition", h.CheckCondition)
}
