package notificator

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"drone-delivery/internal/collaborator"
	"drone-delivery/internal/common/httpx"
	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/common/metrics"
	"drone-delivery/internal/config"
	"drone-delivery/internal/connections/database"
	"drone-delivery/internal/microservices/notificator/channels"
	"drone-delivery/internal/microservices/notificator/handlers"
	"drone-delivery/internal/microservices/notificator/queue"
	"drone-delivery/internal/microservices/notificator/repository"
	"drone-delivery/internal/microservices/notificator/service"
)

// Run поднимает consumer очереди уведомлений и HTTP API рядом с ним.
func Run(ctx context.Context, cfg config.Config, port int, m *metrics.Metrics) error {
	lg := logger.New("notification")

	ledger, err := openLedger(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	hc := &http.Client{Timeout: cfg.Services.CallTimeout}
	c := collaborator.NewClient(hc, cfg.Services.CallTimeout)
	contacts := service.NewContactLookup(
		collaborator.NewCustomers(c, cfg.Services.CustomerURL),
		cfg.Notification.ContactCacheSize,
		cfg.Notification.ContactCacheTTL,
	)

	dispatcher := service.NewDispatcher(
		contacts,
		channels.NewSMS(),
		emailChannel(cfg, hc),
		ledger,
		m,
		service.Options{DeadLetterOnFailure: cfg.Notification.DeadLetterOnFailure},
	)

	hostname, _ := os.Hostname()
	consumer := queue.NewConsumer(queue.FromConfig(cfg), dispatcher, m, "notification-"+hostname)

	r := httpx.NewRouter(lg.Zap(), "Notification Service")
	h := handlers.NewNotificationHandler(dispatcher, consumer)
	r.Handle("/metrics", m.Handler())
	r.Get("/ready", h.Ready)
	r.Group(func(r chi.Router) {
		r.Use(httpx.Deadline(cfg.Services.RequestTimeout))
		handlers.Router(r, h)
	})

	lg.Info("service_started", map[string]any{
		"port":   port,
		"email":  cfg.Email.Enabled,
		"ledger": ledger != nil,
		"config": cfg.String(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error { return httpx.New(fmt.Sprintf(":%d", port), r).Run(gctx) })
	return g.Wait()
}

// openLedger: пустой driver выключает журнал доставки.
func openLedger(ctx context.Context, cfg config.DatabaseConfig) (repository.DeliveryRepositoryInterface, error) {
	switch strings.ToLower(cfg.Driver) {
	case "":
		return nil, nil
	case "sqlite":
		repo, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		pool, err := database.Connect(ctx, database.Config{DSN: cfg.DSN(), MaxConns: cfg.MaxConns})
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(cfg.DSN(), repository.PostgresMigrations, repository.PostgresMigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
		return repository.NewPostgresRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func emailChannel(cfg config.Config, hc *http.Client) service.Channel {
	switch {
	case !cfg.Email.Enabled:
		return nil
	case cfg.MailerSend.Enabled:
		return channels.NewMailerSend(hc, cfg.MailerSend, cfg.Email)
	default:
		return channels.NewSMTP(cfg.Email)
	}
}
