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

	"drone-delivery/internal/common/httpx"
	"drone-delivery/internal/domain"
)

type stubNavigator struct {
	err error
	got domain.NavigationRequest
}

func (s *stubNavigator) Navigate(_ context.Context, req domain.NavigationRequest) (domain.NavigationResult, error) {
	s.got = req
	return domain.NavigationResult{DroneID: 2, Drone: domain.Drone{ID: 2, Status: domain.DroneOnDelivery}}, s.err
}

func TestNavigateDrone(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		code    int
		message string
	}{
		{"ok", `{"pickUpLocation":123456,"storeId":2,"deliveryLocation":111111,"order_id":1}`, nil, 200, "Drone navigation initiated"},
		{"bad json", `{`, nil, 400, "Invalid JSON input"},
		{"unsafe", `{"pickUpLocation":654321,"storeId":2,"deliveryLocation":111111,"order_id":1}`,
			&domain.UnsafeConditionsError{Weather: domain.Weather{Location: 654321, Condition: "rainy"}}, 400,
			"Drone navigation failed: weather conditions not suitable for drone flight: rainy"},
		{"no drones", `{"pickUpLocation":123456,"storeId":2,"deliveryLocation":111111,"order_id":1}`,
			domain.ErrNoAvailableDrones, 404, "Drone navigation failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			nav := &stubNavigator{err: tc.err}
			r := chi.NewRouter()
			Router(r, NewNavigationHandler(nav))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/navigate-drone", strings.NewReader(tc.body)))

			var env httpx.Envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, env.Message, tc.message)
			if tc.code == 200 {
				assert.Equal(t, domain.NavigationRequest{PickupLocation: 123456, StoreID: 2, DeliveryLocation: 111111, OrderID: 1}, nav.got)
			}
		})
	}
}
