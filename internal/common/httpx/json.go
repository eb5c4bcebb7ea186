package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"drone-delivery/internal/domain"
)

const maxBody = 1 << 20

// DecodeJSON читает тело запроса в T; ошибка оборачивает domain.ErrValidation.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var v T
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return v, fmt.Errorf("%w: read body: %v", domain.ErrValidation, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: Invalid JSON input: %s", domain.ErrValidation, string(raw))
	}
	return v, nil
}
