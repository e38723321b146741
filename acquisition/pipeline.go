package acquisition

import (
	"context"
	"log"

	"pitch-pipeline/internal/models"
	"pitch-pipeline/shared/cache"
	"pitch-pipeline/shared/config"
	"pitch-pipeline/shared/monitoring"
	"pitch-pipeline/shared/resilience"
)

// Pipeline orchestrates the descending acquisition strategies for one
// reference: cache, then breaker-guarded retried metadata fetch, then
// enrichment for eligible shorts, then the offline fallback tiers. Acquire
// never returns an error; degradation is expressed through confidence and
// warnings on the result.
type Pipeline struct {
	cfg      *config.Config
	metadata MetadataClient
	enricher Enricher
	cache    *cache.Cache
	breaker  *resilience.Breaker[*models.AcquisitionResult]
	quota    *DailyQuota
	monitor  *monitoring.Monitor
}

func NewPipeline(
	cfg *config.Config,
	metadata MetadataClient,
	enricher Enricher,
	contentCache *cache.Cache,
	quota *DailyQuota,
	monitor *monitoring.Monitor,
) *Pipeline {
	breaker := resilience.NewBreaker[*models.AcquisitionResult]("metadata-api", cfg.Breaker,
		func(name string, _, to resilience.State) {
			monitoring.CircuitBreakerState.WithLabelValues(name).Set(monitoring.BreakerStateValue(string(to)))
		})

	return &Pipeline{
		cfg:      cfg,
		metadata: metadata,
		enricher: enricher,
		cache:    contentCache,
		breaker:  breaker,
		quota:    quota,
		monitor:  monitor,
	}
}

// Acquire produces the best available result for url. Tier failures are
// converted into "proceed to the next tier"; the caller always receives a
// result object.
func (p *Pipeline) Acquire(ctx context.Context, url string, hint models.ContentKind) *models.AcquisitionResult {
	ref, ok := ExtractReference(url, hint)
	if !ok {
		// No tiers attempted and no event recorded: there is nothing
		// to acquire for an unparseable reference.
		log.Printf("Acquire: no reference pattern matched %q", url)
		return invalidReferenceResult(url)
	}

	key := CacheKey(ref)
	if cached, hit := p.cache.Get(key); hit {
		monitoring.CacheHits.Inc()
		eventID := p.monitor.RecordStart(ref.ID, ref.Kind)
		p.monitor.RecordComplete(eventID, models.StrategyCacheHit, models.OutcomeCacheHit, "")
		monitoring.AcquisitionsTotal.WithLabelValues(string(models.StrategyCacheHit), string(models.OutcomeCacheHit)).Inc()

		hitCopy := *cached
		hitCopy.StrategyUsed = models.StrategyCacheHit
		return &hitCopy
	}
	monitoring.CacheMisses.Inc()

	eventID := p.monitor.RecordStart(ref.ID, ref.Kind)
	result := p.acquireFresh(ctx, ref)

	outcome := models.OutcomeSuccess
	var errKind models.ErrorKind
	if result.Error != "" {
		outcome = models.OutcomeError
		errKind = models.ErrUpstreamUnavailable
		monitoring.AcquisitionErrors.WithLabelValues(string(errKind)).Inc()
	}
	p.monitor.RecordComplete(eventID, result.StrategyUsed, outcome, errKind)
	monitoring.AcquisitionsTotal.WithLabelValues(string(result.StrategyUsed), string(outcome)).Inc()

	p.cache.Set(key, result, cacheCategory(result))
	return result
}

// acquireFresh runs steps 3-5: primary tier behind breaker and retry,
// enrichment when eligible, fallback walk on total primary failure.
func (p *Pipeline) acquireFresh(ctx context.Context, ref models.Reference) *models.AcquisitionResult {
	primary, err := p.breaker.Execute(
		func() (*models.AcquisitionResult, error) {
			return resilience.Do(ctx, "metadata-fetch", p.cfg.Retry,
				func(ctx context.Context) (*models.AcquisitionResult, error) {
					callCtx, cancel := context.WithTimeout(ctx, p.cfg.MetadataTimeout())
					defer cancel()
					return p.metadata.FetchMetadata(callCtx, ref.ID)
				})
		},
		func(cause error) (*models.AcquisitionResult, error) {
			return runFallbacks(ref, cause), nil
		},
	)
	if err != nil {
		// Both the protected call and the offline fallback failed,
		// which the offline tiers should make impossible. Keep the
		// never-throw contract regardless.
		log.Printf("Acquire %s: breaker and fallback both failed: %v", ref.ID, err)
		return emergencyStub(ref, err)
	}

	if primary.StrategyUsed != "" && primary.StrategyUsed != models.StrategyStandard {
		// Fallback tier result; enrichment only applies to primary data.
		return primary
	}

	primary.ContentKind = ref.Kind
	primary.StrategyUsed = models.StrategyStandard
	primary.Confidence = ConfidenceStandard

	if p.shouldEnrich(ref, primary) {
		p.enrich(ctx, ref, primary)
	}

	return primary
}

// shouldEnrich gates the secondary tier: short-form content only, within
// the duration cap, while daily budget remains. Quota exhaustion is a skip,
// not a failure.
func (p *Pipeline) shouldEnrich(ref models.Reference, result *models.AcquisitionResult) bool {
	if p.enricher == nil || ref.Kind != models.KindShorts {
		return false
	}
	if result.DurationSeconds > p.cfg.Enrichment.MaxDurationSeconds {
		log.Printf("Enrichment skipped for %s: duration %ds exceeds cap %ds",
			ref.ID, result.DurationSeconds, p.cfg.Enrichment.MaxDurationSeconds)
		return false
	}
	if !p.quota.TryAcquire() {
		log.Printf("Enrichment skipped for %s: daily quota exhausted", ref.ID)
		return false
	}
	monitoring.EnrichmentQuotaUsed.Set(float64(p.quota.Used()))
	return true
}

// enrich attaches the deep-analysis payload when it clears the quality
// floor. Any enrichment failure keeps the unenriched primary result.
func (p *Pipeline) enrich(ctx context.Context, ref models.Reference, result *models.AcquisitionResult) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.AITimeout())
	defer cancel()

	enrichment, err := p.enricher.Analyze(callCtx, ref, result)
	if err != nil {
		log.Printf("Enrichment for %s failed (%s), keeping primary result: %v",
			ref.ID, models.KindOf(err), err)
		return
	}

	result.Enrichment = enrichment
	result.Transcript = enrichment.GeneratedTranscript
	result.StrategyUsed = models.StrategyEnhanced
	result.Confidence = ConfidenceEnhanced
}

// BreakerState exposes circuit state for the health snapshot.
func (p *Pipeline) BreakerState() resilience.State {
	return p.breaker.State()
}

// CacheStats exposes cache counters for the health snapshot.
func (p *Pipeline) CacheStats() cache.Stats {
	return p.cache.Stats()
}

// CleanupCache sweeps expired cache entries; wired to the maintenance
// scheduler.
func (p *Pipeline) CleanupCache() {
	p.cache.Cleanup()
}

// cacheCategory picks the TTL bucket for a finished result. Degraded and
// error results expire fast so recovery is retried soon.
func cacheCategory(result *models.AcquisitionResult) cache.Category {
	switch {
	case result.Error != "":
		return cache.CategoryError
	case result.StrategyUsed == models.StrategyMetadataOnly,
		result.StrategyUsed == models.StrategyURLPattern,
		result.StrategyUsed == models.StrategyTemplate,
		result.StrategyUsed == models.StrategyEmergencyStub:
		return cache.CategoryFallback
	case result.ContentKind == models.KindShorts:
		return cache.CategoryShorts
	case result.ContentKind == models.KindVideo:
		return cache.CategoryVideo
	default:
		return cache.CategoryMetadata
	}
}
