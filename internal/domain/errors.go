package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrNoAvailableDrones = fmt.Errorf("%w: no available drones", ErrNotFound)
)

// UpstreamError: коллаборатор вернул не-2xx или недоступен.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %d %s", e.Service, e.StatusCode, msg)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// UnsafeConditionsError отклоняет вылет по погоде.
type UnsafeConditionsError struct {
	Weather Weather
}

func (e *UnsafeConditionsError) Error() string {
	return fmt.Sprintf("weather conditions not suitable for drone flight: %s", e.Weather.Condition)
}
