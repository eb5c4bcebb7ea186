package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-delivery/internal/domain"
)

type stubService struct {
	res domain.ConditionResult
	err error
}

func (s stubService) Check(context.Context, domain.NavigationRequest) (domain.ConditionResult, error) {
	return s.res, s.err
}

func TestCheckConditionHandler(t *testing.T) {
	tests := []struct {
		name     string
		svc      stubService
		body     string
		wantCode int
	}{
		{"scheduled", stubService{res: domain.ConditionResult{Drone: domain.Drone{ID: 1}}}, `{"pickUpLocation":123456,"storeId":1,"deliveryLocation":111111,"order_id":1}`, http.StatusOK},
		{"unsafe", stubService{err: &domain.UnsafeConditionsError{Weather: domain.Weather{Condition: "rainy"}}}, `{"pickUpLocation":654321,"storeId":1,"deliveryLocation":111111,"order_id":1}`, http.StatusBadRequest},
		{"no drones", stubService{err: domain.ErrNoAvailableDrones}, `{"pickUpLocation":1,"storeId":1,"deliveryLocation":1,"order_id":1}`, http.StatusNotFound},
		{"bad json", stubService{}, `{`, http.StatusBadRequest},
		{"upstream", stubService{err: &domain.UpstreamError{Service: "scheduling", StatusCode: http.StatusServiceUnavailable}}, `{"pickUpLocation":1,"storeId":1,"deliveryLocation":1,"order_id":1}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			Router(r, NewConditionHandler(tt.svc))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check-condition", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantCode, rec.Code)
			var env struct {
				Code int             `json:"code"`
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}
}
