package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/kaspa"
	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/log"
)

func main() {
	bootLogger := log.NewZapLogger(log.Config{})

	config, err := LoadConfig(bootLogger)
	if err != nil {
		bootLogger.Fatal("failed to load configuration", "error", err)
	}

	logger := log.NewZapLogger(config.logConf).WithName("root")

	// Connect to the node before serving anything. A gateway pointed at a
	// dead node refuses to start.
	connectCtx := log.SetContextLogger(context.Background(), logger)
	channel, err := kaspa.Connect(connectCtx, config.KaspadRPCURL, kaspa.DefaultGRPCChannelConfig)
	if err != nil {
		logger.Fatal("failed to connect to kaspad", "url", config.KaspadRPCURL, "error", err)
	}
	defer channel.Close()
	logger.Info("connected to kaspad", "url", config.KaspadRPCURL)

	metrics := NewMetrics(logger)
	client := kaspa.NewClient(kaspa.ClientConfig{
		Channel:       channel,
		Logger:        logger,
		RecordLatency: metrics.RecordLatency,
	})

	gateway := NewGateway(nodeClientAdapter{client}, metrics, logger)

	apiMux := http.NewServeMux()
	gateway.RegisterRoutes(apiMux)

	var apiHandler http.Handler = apiMux
	if config.JWTSecret != "" {
		apiHandler = NewAuthMiddleware(config.JWTSecret, logger).Wrap(apiHandler)
	}
	apiHandler = withCORS(apiHandler)

	apiServer := &http.Server{
		Addr:    config.ListenAddr,
		Handler: apiHandler,
	}

	// Set up a separate mux for metrics
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    config.MetricsAddr,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("Prometheus metrics available", "listenAddr", config.MetricsAddr, "endpoint", "/metrics")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failure", "error", err)
		}
	}()

	go func() {
		logger.Info("API server available", "listenAddr", config.ListenAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("API server failure", "error", err)
		}
	}()

	// Wait for shutdown signal.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down metrics server", "error", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down API server", "error", err)
	}

	logger.Info("shutdown complete")
}
