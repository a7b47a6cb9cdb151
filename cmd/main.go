package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/api"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/auth"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/clock"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/config"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/journey"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/loop"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/messaging"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/metrics"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/orchestrator"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/registry"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/schedule"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/scraper"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/storage"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/transfer"
)

func main() {
	// Init Metrics
	metrics.Init()

	// Load Configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("Configuration loaded")

	// Setup JWT Secret
	auth.SetSecret(cfg.Auth.JWTSecret)

	// Init PostgreSQL
	db, err := storage.NewStorage(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to init DB", zap.Error(err))
	}
	defer db.DB.Close()
	if err := db.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("Failed to ensure schema", zap.Error(err))
	}
	logger.Info("PostgreSQL connected")

	// Init RabbitMQ
	rabbitClient, err := messaging.NewRabbitClient(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitClient.Close()
	logger.Info("RabbitMQ connected")

	// Recover Existing Tenants
	reg := registry.New(db, logger)
	tenants, err := db.LoadTenants(context.Background())
	if err != nil {
		logger.Fatal("Failed to load tenants", zap.Error(err))
	}
	for i := range tenants {
		t := tenants[i]
		t.IsRunning = false
		if err := reg.Add(&t); err != nil {
			logger.Warn("Failed to recover tenant", zap.String("tenant_id", t.ID.String()), zap.Error(err))
			continue
		}
		if err := rabbitClient.DeclareTenantQueues(t.ID.String()); err != nil {
			logger.Warn("Failed to declare queues", zap.String("tenant_id", t.ID.String()), zap.Error(err))
		}
		logger.Info("🔁 Recovered tenant", zap.String("tenant_id", t.ID.String()), zap.String("name", t.Name))
	}

	// Collaborators
	clk := clock.Real()
	sched := schedule.New(scheduleConfig(cfg), clk, logger)
	queue := messaging.NewCallQueue(rabbitClient, logger)
	notifier, err := messaging.NewNotifier(rabbitClient, logger)
	if err != nil {
		logger.Fatal("Failed to init notifier", zap.Error(err))
	}
	source := scraper.NewClient(cfg.Scraper.URL, logger)
	transfers := transferManager(cfg, clk, logger)
	journeys := journey.NewTracker(db, clk, logger)

	orch := orchestrator.New(
		orchestratorConfig(cfg),
		reg, sched, queue, source, notifier, transfers, journeys,
		clk, logger,
	)
	if err := orch.Start(context.Background()); err != nil {
		logger.Fatal("Failed to start orchestrator", zap.Error(err))
	}

	// Init API
	apiHandler := api.NewAPI(orch, reg, rabbitClient, logger)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiHandler.Router(),
	}

	// Graceful Shutdown Setup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("🚀 Starting API server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown initiated...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	orch.Stop()
	logger.Info("Graceful shutdown complete")
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func scheduleConfig(cfg *config.Config) schedule.Config {
	sc := schedule.DefaultConfig()
	if days := parseWeekdays(cfg.Schedule.WorkingDays); len(days) > 0 {
		sc.WorkingDays = days
	}
	if cfg.Schedule.StartHour > 0 {
		sc.StartHour = cfg.Schedule.StartHour
	}
	if cfg.Schedule.EndHour > 0 {
		sc.EndHour = cfg.Schedule.EndHour
	}
	sc.Timezone = cfg.Schedule.Timezone
	if cfg.Schedule.CallsPerHour > 0 {
		sc.CallsPerHour = cfg.Schedule.CallsPerHour
	}
	if cfg.Schedule.MaxConcurrent > 0 {
		sc.MaxConcurrent = cfg.Schedule.MaxConcurrent
	}
	if cfg.Schedule.LunchStartHour > 0 && cfg.Schedule.LunchEndHour > cfg.Schedule.LunchStartHour {
		sc.Lunch = &schedule.LunchWindow{
			StartHour: cfg.Schedule.LunchStartHour,
			EndHour:   cfg.Schedule.LunchEndHour,
		}
	}
	return sc
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(names []string) []time.Weekday {
	var days []time.Weekday
	for _, n := range names {
		if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(n))]; ok {
			days = append(days, d)
		}
	}
	return days
}

func orchestratorConfig(cfg *config.Config) orchestrator.Config {
	return orchestrator.Config{
		MonitorInterval: time.Duration(cfg.Orchestrator.MonitorSeconds) * time.Second,
		HealthInterval:  time.Duration(cfg.Orchestrator.HealthSeconds) * time.Second,
		ScrapeAllHour:   cfg.Orchestrator.ScrapeAllHour,
		ReportAllHour:   cfg.Orchestrator.ReportAllHour,
		TrialDays:       cfg.Orchestrator.TrialDays,
		Loop: loop.Config{
			CycleInterval:     time.Duration(cfg.Loop.CycleSeconds) * time.Second,
			ErrorBackoff:      time.Duration(cfg.Loop.ErrorBackoffSecs) * time.Second,
			QuotaBackoff:      time.Duration(cfg.Loop.QuotaBackoffSecs) * time.Second,
			ScrapeInterval:    time.Duration(cfg.Loop.ScrapeIntervalHrs) * time.Hour,
			MaxLeadsPerScrape: cfg.Loop.MaxLeadsPerScrape,
			MaxCallsPerCycle:  cfg.Loop.MaxCallsPerCycle,
			ReportHour:        cfg.Loop.ReportHour,
		},
		Growth: orchestrator.GrowthConfig{
			Enabled:          cfg.Growth.Enabled,
			Niches:           cfg.Growth.Niches,
			TargetCities:     cfg.Growth.TargetCities,
			MonthlyCallLimit: cfg.Growth.MonthlyCallLimit,
		},
	}
}

func transferManager(cfg *config.Config, clk clock.Clock, logger *zap.Logger) *transfer.Manager {
	if len(cfg.SalesReps) == 0 {
		return nil
	}
	reps := make([]model.SalesRep, 0, len(cfg.SalesReps))
	for _, r := range cfg.SalesReps {
		maxConc := r.MaxConcurrent
		if maxConc <= 0 {
			maxConc = 1
		}
		reps = append(reps, model.SalesRep{
			ID:              r.ID,
			Name:            r.Name,
			Phone:           r.Phone,
			Specializations: r.Specializations,
			Available:       true,
			MaxConcurrent:   maxConc,
		})
	}
	return transfer.NewManager(transfer.NewRepPool(reps), clk, logger)
}
