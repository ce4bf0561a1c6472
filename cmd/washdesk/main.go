package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"washdesk/internal/api"
	"washdesk/internal/backend"
	"washdesk/internal/config"
	"washdesk/internal/events"
	"washdesk/internal/exporter"
	"washdesk/internal/logging"
	"washdesk/internal/metrics"
	"washdesk/internal/models"
	"washdesk/internal/outbox"
	"washdesk/internal/poller"
	"washdesk/internal/reports"
	"washdesk/internal/session"
	"washdesk/internal/sheets"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := backend.NewClient(cfg.Backend, &logger)

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	sessions := initSessions(cfg, redisClient, &logger)

	seedCatalog(ctx, gw, &logger)

	dash := poller.New(gw.GetDashboardSummary,
		time.Duration(cfg.Dashboard.RefreshMinutes)*time.Minute, &logger)
	dash.Start(ctx)

	bus := events.NewEventBus()
	subscribeAuditLog(bus, &logger)

	exports, exportsClose, err := initExporter(ctx, cfg, redisClient, &logger)
	if err != nil {
		return err
	}
	if exportsClose != nil {
		defer exportsClose()
	}

	startMetrics(ctx, cfg, &logger)

	server := api.NewServer(cfg.API, cfg.Sessions, api.Deps{
		Gateway:  gw,
		Sessions: sessions,
		Poller:   dash,
		Reports:  reports.NewExporter(cfg.Exports.Path, &logger),
		Exports:  exports,
		Bus:      bus,
	}, &logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = server.Shutdown(shutdownCtx)
	dash.Wait()

	logger.Info().Msg("washdesk stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := session.NewRedisClient(cfg.Redis)
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initSessions picks the session store: redis when reachable, with an
// in-memory fallback behind a failover wrapper so a redis outage never locks
// everyone out.
func initSessions(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) session.Store {
	ttl := time.Duration(cfg.Sessions.TTLHours) * time.Hour
	memory := session.NewMemoryStore(ttl)

	if redisClient == nil {
		logger.Info().Msg("sessions are in-memory only")
		return memory
	}
	return session.NewFailoverStore(session.NewRedisStore(redisClient, ttl), memory, logger)
}

// seedCatalog pushes services from configs/services.yaml to the backend when
// they are missing there. Dev convenience; a missing seed file is fine.
func seedCatalog(ctx context.Context, gw *backend.Client, logger *zerolog.Logger) {
	seedPath := os.Getenv("SERVICES_PATH")
	if seedPath == "" {
		seedPath = "configs/services.yaml"
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("services_path", seedPath).Msg("read services seed")
		}
		return
	}

	var seed struct {
		Services []models.Service `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Warn().Err(err).Str("services_path", seedPath).Msg("parse services seed")
		return
	}

	existing, err := gw.GetAllServices(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("fetch catalog for seed check")
		return
	}
	known := make(map[string]bool, len(existing))
	for _, svc := range existing {
		known[strings.ToLower(svc.Name)] = true
	}

	created := 0
	for i := range seed.Services {
		svc := seed.Services[i]
		if svc.Name == "" || known[strings.ToLower(svc.Name)] {
			continue
		}
		if _, err := gw.CreateService(ctx, &svc); err != nil {
			logger.Warn().Err(err).Str("service", svc.Name).Msg("seed service")
			continue
		}
		created++
	}
	if created > 0 {
		logger.Info().Int("created", created).Msg("catalog seeded")
	}
}

// subscribeAuditLog writes every committed booking event to the log.
func subscribeAuditLog(bus *events.EventBus, logger *zerolog.Logger) {
	auditLogger := logger.With().Str("component", "audit").Logger()
	handler := func(event *events.Event) error {
		auditLogger.Info().
			Str("event", event.Type).
			RawJSON("payload", event.Payload).
			Msg("booking event")
		return nil
	}

	for _, eventType := range []string{
		events.EventBookingApproved,
		events.EventBookingRejected,
		events.EventBookingCancelled,
		events.EventBookingCompleted,
		events.EventBookingDeleted,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func initExporter(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (*exporter.Worker, func(), error) {
	if !cfg.Exporter.Enabled {
		return nil, nil, nil
	}
	if cfg.Google.CredentialsFile == "" || cfg.Google.ReportSpreadsheetID == "" {
		logger.Warn().Msg("exporter enabled but google credentials are missing, exporter disabled")
		return nil, nil, nil
	}

	db, err := outbox.Open(cfg.Exporter.OutboxPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open export outbox: %w", err)
	}

	sheetsService, err := sheets.NewService(cfg.Google.CredentialsFile, cfg.Google.ReportSpreadsheetID)
	if err != nil {
		_ = db.Close()
		logger.Warn().Err(err).Msg("google sheets init failed, exporter disabled")
		return nil, func() {}, nil
	}

	worker := exporter.NewWorker(db, sheetsService, redisClient, exporter.RetryPolicy{
		MaxRetries: cfg.Exporter.MaxRetries,
	}, logger)

	go worker.Start(ctx)
	logger.Info().Msg("sheets exporter started")

	return worker, func() { _ = db.Close() }, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
