package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loan-console/internal/common/config"
	commonhttp "loan-console/internal/common/http"
	"loan-console/internal/common/logger"
	"loan-console/internal/common/observability"
	"loan-console/internal/common/session"
	"loan-console/internal/console"
	"loan-console/internal/gateway"
)

// app holds everything a command needs.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	store   session.Store
	obs     *observability.Observability
	gateway *gateway.Client
	out     *console.Output
	in      *bufio.Reader

	closers []func()
}

func newApp(ctx context.Context, configPath, metricsAddr string) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog).Named(cfg.App.Name)

	a := &app{
		cfg: cfg,
		log: log,
		out: console.NewOutput(os.Stdout),
		in:  bufio.NewReader(os.Stdin),
	}
	a.closers = append(a.closers, func() { _ = zapLog.Sync() })

	store, closeStore, err := session.Open(ctx, cfg.Session)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open session store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, func() { _ = closeStore() })

	a.obs = observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	a.closers = append(a.closers, a.obs.Shutdown)

	if metricsAddr == "" {
		metricsAddr = cfg.Observability.MetricsAddress
	}
	if metricsAddr != "" {
		a.serveMetrics(metricsAddr)
	}

	a.gateway, err = gateway.New(gateway.Options{
		BaseURL:       cfg.API.BaseURL,
		HTTP:          commonhttp.NewClient(config.GetDuration(cfg.API.Timeout), cfg.App.Name+"/"+cfg.App.Version),
		Session:       store,
		Logger:        log,
		Observability: a.obs,
		RedirectDelay: config.GetDuration(cfg.API.RedirectDelay),
		Notify:        a.out.Unauthorized,
		Redirect: func() {
			a.out.Show("Run `loan-console login` to sign in again.")
		},
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	log.Debug("console ready", map[string]interface{}{
		"base_url":    cfg.API.BaseURL,
		"environment": cfg.App.Environment,
		"redis":       cfg.Session.RedisEnabled(),
	})
	return a, nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.log.Info("metrics server listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
