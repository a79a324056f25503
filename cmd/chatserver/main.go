// Command chatserver runs one federated chat node: the TCP listener shared
// by clients and peers, UDP discovery, and the HTTP ops surface.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	nodecfg "github.com/A-Crow-Pixel/IK-SS25-G4/internal/config"
	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/events"
	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/metrics"
	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/node"
	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/ops"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/config"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/monitoring"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/server"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/translate"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLogger()

	// Load environment variables
	config.LoadEnv(logger)

	cfg, err := nodecfg.Load()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger = logging.NewLoggerWithServer(cfg.ServerID)
	logger.Info("Starting chat node")

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("chatserver", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("chatserver", version.Version, version.GitCommit)
	nodeMetrics := metrics.New(metricsCollector)

	// Translation backend
	tcfg := translate.LoadConfig()
	cfg.TranslateProvider = tcfg.Provider
	backend, err := translate.NewBackend(tcfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize translation backend")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Event fan-out: the WebSocket feed always, Kafka when brokers are set
	hub := events.NewHub(cfg.ServerID, logger, nodeMetrics.EventsPublished)
	sinks := events.Fanout{hub}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := events.NewKafkaSink(cfg.KafkaBrokers, cfg.ServerID, cfg.KafkaTopic, logger, nodeMetrics.KafkaMessages)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Kafka sink")
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		healthChecker.AddCheck("kafka", monitoring.KafkaProducerHealthCheck(kafkaSink.Client()))
	}

	chat := node.New(cfg, logger, nodeMetrics, backend, sinks)

	// Health checks
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"SERVER_ID": cfg.ServerID,
	}))
	healthChecker.AddCheck("peer_mesh", monitoring.PeerMeshHealthCheck(chat.PeerStats))

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "chatserver", healthChecker, metricsCollector)
	ops.Register(router, chat, hub)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return chat.Run(ctx) })
	g.Go(func() error { hub.Run(ctx); return nil })
	g.Go(func() error {
		serverConfig := server.DefaultConfig(cfg.ServerID, cfg.HTTPPort)
		return server.Start(ctx, serverConfig, router, logger)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Fatal("Chat node exited with error")
	}
	logger.Info("Chat node stopped")
}
