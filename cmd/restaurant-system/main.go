package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"restaurant-pubsub/internal/app"
	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/config"
)

func main() {
	mode := pflag.String("mode", string(app.ModeAll), "order-taking | kitchen | cashier | management | all")
	cfgPath := pflag.String("config", "config.yaml", "path to YAML config (optional)")
	httpAddr := pflag.String("http-addr", "", "HTTP listen address (overrides app.http_addr)")
	transport := pflag.String("transport", "", "mqtt | amqp | memory (overrides broker.transport)")
	counter := pflag.String("counter-store", "", "file | postgres | redis | memory (overrides store.counter)")
	pflag.Parse()

	m, err := app.ParseMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	cfg.Apply(config.Overrides{HTTPAddr: *httpAddr, Transport: *transport, Counter: *counter})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger.Init(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	lg := logger.New("bootstrap")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lg.Info("service_started", map[string]any{"mode": string(m), "transport": cfg.Broker.Transport, "http_addr": cfg.App.HTTPAddr})
	if err := app.Run(ctx, cfg, m); err != nil {
		lg.Error("fatal", err, nil)
		os.Exit(1)
	}
	lg.Info("service_stopped", map[string]any{"mode": string(m)})
}
