package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"drone-delivery/internal/domain"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 200},
		{"unsafe", &domain.UnsafeConditionsError{}, 400},
		{"upstream 404", &domain.UpstreamError{Service: "store", StatusCode: 404}, 404},
		{"upstream without status", &domain.UpstreamError{Service: "store"}, 502},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), 504},
		{"no drones", domain.ErrNoAvailableDrones, 404},
		{"validation", fmt.Errorf("%w: x", domain.ErrValidation), 400},
		{"conflict", fmt.Errorf("%w: x", domain.ErrConflict), 409},
		{"other", errors.New("boom"), 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.err))
		})
	}
}

func TestError_UsesUpstreamMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, "Failed to retrieve store information", &domain.UpstreamError{Service: "store", StatusCode: 404, Message: "Store not found"})

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, Envelope{Code: 404, Message: "Failed to retrieve store information: Store not found"}, env)
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		OrderID int `json:"order_id"`
	}
	got, err := DecodeJSON[body](httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"order_id":5}`)))
	require.NoError(t, err)
	assert.Equal(t, 5, got.OrderID)

	_, err = DecodeJSON[body](httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`nope`)))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "Invalid JSON input: nope")
}

func TestRouterHealthAndDeadline(t *testing.T) {
	r := NewRouter(zap.NewNop(), "Test Service")
	r.With(Deadline(10*time.Millisecond)).Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		Error(w, "", r.Context().Err())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "Test Service is healthy.")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}
