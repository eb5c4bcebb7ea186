package collaborator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"drone-delivery/internal/domain"
)

const weatherService = "weather"

// Weather: HTTP-провайдер погоды: GET {base}?location=N -> {code, data:{location, weather_condition, is_safe}}.
type Weather struct {
	c    *Client
	base string
}

func NewWeather(c *Client, baseURL string) *Weather {
	return &Weather{c: c, base: strings.TrimRight(baseURL, "/")}
}

func (w *Weather) Check(ctx context.Context, location int) (domain.Weather, error) {
	data, err := w.c.DoEnvelope(ctx, weatherService, http.MethodGet, fmt.Sprintf("%s?location=%d", w.base, location), nil)
	if err != nil {
		return domain.Weather{}, err
	}
	f, err := decodeFields(data)
	if err != nil {
		return domain.Weather{}, &domain.UpstreamError{Service: weatherService, StatusCode: http.StatusBadGateway, Message: "malformed weather payload", Err: err}
	}
	res := domain.Weather{Location: location}
	res.Condition, _ = f.stringField("weather_condition", "condition")
	safe, ok := f.boolField("is_safe", "isSafe")
	if !ok {
		return domain.Weather{}, &domain.UpstreamError{Service: weatherService, StatusCode: http.StatusBadGateway, Message: "weather payload has no is_safe"}
	}
	res.IsSafe = safe
	return res, nil
}

// StaticWeather: таблица из демо-окружения: для всех локаций кроме известных "sunny".
type StaticWeather struct {
	conditions map[int]string
}

func NewStaticWeather() *StaticWeather {
	return &StaticWeather{conditions: map[int]string{
		123456: "sunny",
		654321: "rainy",
		111111: "sunny",
	}}
}

func (s *StaticWeather) Check(_ context.Context, location int) (domain.Weather, error) {
	cond, ok := s.conditions[location]
	if !ok {
		cond = "sunny"
	}
	return domain.Weather{Location: location, Condition: cond, IsSafe: cond != "rainy" && cond != "stormy"}, nil
}
