package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"drone-delivery/internal/domain"
)

// Envelope: единый формат ответов всех сервисов.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, code int, message string, data any) {
	WriteJSON(w, code, Envelope{Code: code, Message: message, Data: data})
}

// Error пишет ошибку в конверте; prefix задаёт шаг, на котором всё сломалось.
func Error(w http.ResponseWriter, prefix string, err error) {
	ErrorData(w, prefix, err, nil)
}

// ErrorData: то же, что Error, но с частичным результатом в data.
func ErrorData(w http.ResponseWriter, prefix string, err error, data any) {
	code := StatusOf(err)
	msg := err.Error()
	var up *domain.UpstreamError
	if errors.As(err, &up) && up.Message != "" {
		msg = up.Message
	}
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	WriteJSON(w, code, Envelope{Code: code, Message: msg, Data: data})
}

// StatusOf сопоставляет таксономию ошибок с HTTP-статусом.
func StatusOf(err error) int {
	var (
		up     *domain.UpstreamError
		unsafe *domain.UnsafeConditionsError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &unsafe):
		return http.StatusBadRequest
	case errors.As(err, &up):
		if up.StatusCode >= 400 {
			return up.StatusCode
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
