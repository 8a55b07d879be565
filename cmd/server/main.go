package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/events/amqpevents"
	"github.com/mmynk/splitledger/internal/httpapi"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.DBDriver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	bus := events.NewBus(cfg.EventBuffer, events.WithObserver(m), events.WithLogger(logger))
	defer bus.Close()

	host, err := ledger.New(store, ledger.Options{
		CacheSize: cfg.BalanceCacheSize,
		Publisher: bus,
		Metrics:   m,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		fwd, err := amqpevents.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to AMQP: %w", err)
		}
		defer fwd.Close()

		in, cancel := bus.Subscribe()
		defer cancel()
		g.Go(func() error { return fwd.Run(gctx, in) })
		logger.Info("Forwarding events to AMQP", "exchange", cfg.AMQPExchange)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Services: httpapi.Services{
			Users:       service.NewUserService(store),
			Groups:      service.NewGroupService(host, store, cfg.DefaultCurrency),
			Expenses:    service.NewExpenseService(host, store),
			Settlements: service.NewSettlementService(host, store),
			Balances:    service.NewBalanceService(host, store),
		},
		Verifier: auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		Health:   store,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("Connect server starting", "address", srv.Addr, "url", "http://localhost"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
