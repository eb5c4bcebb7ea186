package condition

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drone-delivery/internal/collaborator"
	"drone-delivery/internal/common/httpx"
	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/common/metrics"
	"drone-delivery/internal/config"
	"drone-delivery/internal/microservices/condition/handlers"
	"drone-delivery/internal/microservices/condition/service"
)

// NewService собирает координатор из HTTP-коллабораторов конфигурации.
func NewService(cfg config.Config, m *metrics.Metrics) *service.ConditionService {
	c := collaborator.NewClient(&http.Client{}, cfg.Services.CallTimeout)

	var weather service.WeatherProvider = collaborator.NewStaticWeather()
	if cfg.Services.WeatherURL != "" {
		weather = collaborator.NewWeather(c, cfg.Services.WeatherURL)
	}
	return service.NewConditionService(
		weather,
		collaborator.NewDrones(c, cfg.Services.DroneURL),
		collaborator.NewSchedules(c, cfg.Services.SchedulingURL),
		m,
	)
}

func Run(ctx context.Context, cfg config.Config, port int, m *metrics.Metrics) error {
	lg := logger.New("condition-check")
	svc := NewService(cfg, m)

	r := httpx.NewRouter(lg.Zap(), "Condition Check Service")
	r.Handle("/metrics", m.Handler())
	r.Group(func(r chi.Router) {
		r.Use(httpx.Deadline(cfg.Services.RequestTimeout))
		handlers.Router(r, handlers.NewConditionHandler(svc))
	})

	lg.Info("service_started", map[string]any{"port": port, "weather_url": cfg.Services.WeatherURL})
	return httpx.New(fmt.Sprintf(":%d", port), r).Run(ctx)
}
