package navigation

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
	"drone-delivery/internal/microservices/navigation/handlers"
	"drone-delivery/internal/microservices/navigation/service"
)

// NewService: condition-check вызывается по HTTP, как в docker-compose развёртывании.
func NewService(cfg config.Config) *service.NavigationService {
	c := collaborator.NewClient(&http.Client{}, cfg.Services.CallTimeout)
	return service.NewNavigationService(
		collaborator.NewConditionCheck(c, cfg.Services.ConditionCheckURL),
		collaborator.NewDrones(c, cfg.Services.DroneURL),
	)
}

func Run(ctx context.Context, cfg config.Config, port int, m *metrics.Metrics) error {
	lg := logger.New("drone-navigation")
	svc := NewService(cfg)

	r := httpx.NewRouter(lg.Zap(), "Drone Navigation Service")
	r.Handle("/metrics", m.Handler())
	r.Group(func(r chi.Router) {
		r.Use(httpx.Deadline(cfg.Services.RequestTimeout))
		handlers.Router(r, handlers.NewNavigationHandler(svc))
	})

	lg.Info("service_started", map[string]any{"port": port, "condition_check_url": cfg.Services.ConditionCheckURL})
	return httpx.New(fmt.Sprintf(":%d", port), r).Run(ctx)
}
