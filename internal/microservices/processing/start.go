package processing

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"drone-delivery/internal/collaborator"
	"drone-delivery/internal/common/httpx"
	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/common/metrics"
	"drone-delivery/internal/config"
	"drone-delivery/internal/microservices/notificator/queue"
	"drone-delivery/internal/microservices/processing/handlers"
	"drone-delivery/internal/microservices/processing/service"
)

func Run(ctx context.Context, cfg config.Config, port int, m *metrics.Metrics) error {
	lg := logger.New("processing-order")

	publisher := queue.NewPublisher(queue.FromConfig(cfg), "processing-order")
	defer publisher.Close()

	c := collaborator.NewClient(&http.Client{}, cfg.Services.CallTimeout)
	svc := service.NewProcessingService(
		collaborator.NewOrders(c, cfg.Services.OrderURL),
		collaborator.NewItems(c, cfg.Services.ItemURL),
		collaborator.NewStores(c, cfg.Services.StoreURL),
		collaborator.NewNavigation(c, cfg.Services.NavigationURL),
		publisher,
		m,
		service.Options{StrictTransitions: cfg.Workflow.StrictTransitions},
	)

	r := httpx.NewRouter(lg.Zap(), "Processing Order Service")
	r.Handle("/metrics", m.Handler())
	r.Group(func(r chi.Router) {
		if cfg.HTTP.MaxConcurrent > 0 {
			// сверх лимита сразу 429
			r.Use(middleware.Throttle(cfg.HTTP.MaxConcurrent))
		}
		r.Use(httpx.Deadline(cfg.Services.RequestTimeout))
		handlers.Router(r, handlers.NewProcessingHandler(svc))
	})

	lg.Info("service_started", map[string]any{"port": port, "max_concurrent": cfg.HTTP.MaxConcurrent, "strict_transitions": cfg.Workflow.StrictTransitions})
	return httpx.New(fmt.Sprintf(":%d", port), r).Run(ctx)
}
