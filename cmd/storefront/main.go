package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/angelmondragon/storefront/internal/app"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Debug(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"api":     cfg.API.BaseURL,
		"storage": cfg.Storage.Driver,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logg)
	requireResource(ctx, logg, "app", err)

	stopMetrics := serveMetrics(ctx, cfg.Metrics.Addr, a.Registry, logg)

	code := 0
	if err := run(ctx, a, os.Args[1:], os.Stdout); err != nil {
		logg.Debug(logg.WithField(ctx, "error_dump", pkgerrors.Dump(err)), "command failed")
		printError(err)
		code = exitCode(err)
	}

	stopMetrics()
	if err := a.Close(); err != nil {
		logg.Error(ctx, "error closing app", err)
	}
	stop()
	os.Exit(code)
}

// serveMetrics exposes the registry on addr until the returned func is called.
// An empty addr disables it.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logg *logger.Logger) func() {
	if addr == "" {
		return func() {}
	}
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logg.Info(logg.WithField(ctx, "addr", addr), "metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	typed := pkgerrors.As(err)
	if typed == nil {
		return
	}
	switch details := typed.Details().(type) {
	case nil:
	case map[string]string:
		fields := make([]string, 0, len(details))
		for field := range details {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, details[field])
		}
	default:
		fmt.Fprintf(os.Stderr, "  %v\n", details)
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errUsage):
		return 2
	case pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized):
		return 3
	default:
		return 1
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
