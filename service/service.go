package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jonboulle/clockwork"

	"pitch-pipeline/acquisition"
	"pitch-pipeline/generation"
	"pitch-pipeline/internal/models"
	"pitch-pipeline/shared/cache"
	"pitch-pipeline/shared/config"
	"pitch-pipeline/shared/monitoring"
	"pitch-pipeline/shared/storage"
)

// Service is the facade the outer system calls into: content acquisition,
// pitch generation, and the health surface.
type Service struct {
	cfg       *config.Config
	pipeline  *acquisition.Pipeline
	generator *generation.Generator
	quota     *acquisition.DailyQuota
	monitor   *monitoring.Monitor
}

func New(cfg *config.Config) (*Service, error) {
	clock := clockwork.NewRealClock()

	metadata, err := acquisition.NewYouTubeClient(&cfg.YouTube)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata client: %w", err)
	}

	enricher, err := acquisition.NewGeminiEnricher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create enricher: %w", err)
	}

	generator, err := generation.NewGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	contentCache, err := cache.New(cfg.Cache.Capacity, cfg.Cache.TTLSeconds, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	quotaStore, err := storage.NewQuotaStore(cfg.Enrichment.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota store: %w", err)
	}
	quota := acquisition.NewDailyQuota(cfg.Enrichment.DailyQuota, clock, quotaStore)

	monitor := monitoring.NewMonitor(cfg.Monitoring.EventRetention, clock)
	pipeline := acquisition.NewPipeline(cfg, metadata, enricher, contentCache, quota, monitor)

	return &Service{
		cfg:       cfg,
		pipeline:  pipeline,
		generator: generator,
		quota:     quota,
		monitor:   monitor,
	}, nil
}

// Acquire returns the best available content for url. It never returns an
// error; degradation shows up as confidence, warnings and the Degraded flag.
func (s *Service) Acquire(ctx context.Context, url string, hint models.ContentKind) *models.AcquisitionResult {
	return s.pipeline.Acquire(ctx, url, hint)
}

// GeneratePitch produces a schema-valid structured record for an acquired
// result. The record is locally synthesized when model output cannot be
// repaired, so the error path only covers model-call failures.
func (s *Service) GeneratePitch(ctx context.Context, result *models.AcquisitionResult, params generation.PromptParams) (*models.StructuredRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.AITimeout())
	defer cancel()
	return s.generator.Generate(callCtx, result, params)
}

// Repair exposes the repair parser for callers holding raw model text.
func (s *Service) Repair(raw string) (*models.StructuredRecord, *generation.RepairFailure) {
	return s.generator.Repair(raw)
}

// HealthSnapshot assembles the ops surface: success rate, cache counters,
// circuit state and recent error kinds.
func (s *Service) HealthSnapshot() monitoring.Snapshot {
	return monitoring.Snapshot{
		SuccessRate:  s.monitor.GetSuccessRate(),
		CacheStats:   s.pipeline.CacheStats(),
		CircuitState: string(s.pipeline.BreakerState()),
		RecentErrors: s.monitor.GetTopErrors(),
	}
}

// Monitor exposes the processing monitor for the health server.
func (s *Service) Monitor() *monitoring.Monitor {
	return s.monitor
}

// MaintenanceCleanup sweeps the content cache.
func (s *Service) MaintenanceCleanup() {
	s.pipeline.CleanupCache()
}

// MaintenanceQuotaReset zeroes the daily enrichment budget.
func (s *Service) MaintenanceQuotaReset() {
	s.quota.Reset()
	log.Printf("%s", s.monitor.GenerateReport())
}
