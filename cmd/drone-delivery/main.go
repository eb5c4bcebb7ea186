package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/common/metrics"
	"drone-delivery/internal/config"
	"drone-delivery/internal/microservices/condition"
	"drone-delivery/internal/microservices/navigation"
	"drone-delivery/internal/microservices/notificator"
	"drone-delivery/internal/microservices/processing"
)

const modes = "processing-order | condition-check | drone-navigation | notification"

type runner func(ctx context.Context, cfg config.Config, port int, m *metrics.Metrics) error

var services = map[string]struct {
	port int
	run  runner
}{
	"processing-order": {5400, processing.Run},
	"condition-check":  {5100, condition.Run},
	"drone-navigation": {5200, navigation.Run},
	"notification":     {5300, notificator.Run},
}

func main() {
	mode := flag.String("mode", "", modes)
	port := flag.Int("port", 0, "http port (0 = config or mode default)")
	maxConc := flag.Int("max-concurrent", 0, "processing-order: max concurrent requests (0 = config)")
	cfgPath := flag.String("config", "config.yml", "path to YAML config (optional)")
	flag.Parse()

	svc, ok := services[*mode]
	if !ok {
		fmt.Fprintln(os.Stderr, "--mode is required: "+modes)
		os.Exit(2)
	}

	// .env из docker-compose окружения; отсутствие файла не ошибка
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(2)
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.Env); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	switch {
	case *port != 0:
	case cfg.HTTP.Port != 0:
		*port = cfg.HTTP.Port
	default:
		*port = svc.port
	}

	if *maxConc > 0 {
		cfg.HTTP.MaxConcurrent = *maxConc
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lg.Info("service_starting", map[string]any{"mode": *mode, "port": *port})
	if err := svc.run(ctx, cfg, *port, m); err != nil {
		lg.Error("fatal", err, map[string]any{"mode": *mode})
		logger.Sync()
		os.Exit(1)
	}
	lg.Info("service_stopped", map[string]any{"mode": *mode})
}
