package monitoring

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"pitch-pipeline/internal/models"
)

// Metrics is an aggregate view over the retained event window.
type Metrics struct {
	Total       int                         `json:"total"`
	Successes   int                         `json:"successes"`
	CacheHits   int                         `json:"cache_hits"`
	Errors      int                         `json:"errors"`
	SuccessRate float64                     `json:"success_rate"`
	ByStrategy  map[models.Strategy]int     `json:"by_strategy"`
	ByErrorKind map[string]int              `json:"by_error_kind"`
}

// ErrorCount pairs an error kind with its occurrence count.
type ErrorCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Monitor records start/end events for acquisition attempts and aggregates
// them for the health surface. Every exported method is panic-guarded: a
// monitoring failure must never abort the pipeline it observes.
type Monitor struct {
	mu        sync.Mutex
	events    []models.ProcessingEvent // ring buffer
	next      int
	filled    bool
	retention int
	pending   map[string]int // event id -> ring slot
	clock     clockwork.Clock
}

func NewMonitor(retention int, clock clockwork.Clock) *Monitor {
	if retention <= 0 {
		retention = 1000
	}
	return &Monitor{
		events:    make([]models.ProcessingEvent, retention),
		retention: retention,
		pending:   make(map[string]int),
		clock:     clock,
	}
}

func guard(op string) {
	if r := recover(); r != nil {
		log.Printf("monitor: recovered from panic in %s: %v", op, r)
	}
}

// RecordStart opens an event for one acquisition attempt and returns its id.
func (m *Monitor) RecordStart(ref string, kind models.ContentKind) string {
	defer guard("RecordStart")

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	slot := m.next
	m.events[slot] = models.ProcessingEvent{
		ID:        id,
		Reference: ref,
		Kind:      kind,
		StartedAt: m.clock.Now(),
	}
	// Overwriting a slot orphans any still-pending event that lived there.
	for pid, pslot := range m.pending {
		if pslot == slot {
			delete(m.pending, pid)
		}
	}
	m.pending[id] = slot

	m.next++
	if m.next == m.retention {
		m.next = 0
		m.filled = true
	}
	return id
}

// RecordComplete closes a started event with its outcome.
func (m *Monitor) RecordComplete(eventID string, strategy models.Strategy, outcome models.Outcome, errKind models.ErrorKind) {
	defer guard("RecordComplete")

	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.pending[eventID]
	if !ok {
		return // Already overwritten by the ring; nothing to close.
	}
	delete(m.pending, eventID)

	ev := &m.events[slot]
	if ev.ID != eventID {
		return
	}
	ev.FinishedAt = m.clock.Now()
	ev.Strategy = strategy
	ev.Outcome = outcome
	ev.ErrorKind = string(errKind)
}

// GetMetrics aggregates the retained events.
func (m *Monitor) GetMetrics() Metrics {
	defer guard("GetMetrics")

	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := Metrics{
		ByStrategy:  make(map[models.Strategy]int),
		ByErrorKind: make(map[string]int),
	}
	for _, ev := range m.retained() {
		if ev.Outcome == "" {
			continue // Still in flight.
		}
		metrics.Total++
		switch ev.Outcome {
		case models.OutcomeSuccess:
			metrics.Successes++
		case models.OutcomeCacheHit:
			metrics.CacheHits++
		case models.OutcomeError:
			metrics.Errors++
		}
		if ev.Strategy != "" {
			metrics.ByStrategy[ev.Strategy]++
		}
		if ev.ErrorKind != "" {
			metrics.ByErrorKind[ev.ErrorKind]++
		}
	}
	if metrics.Total > 0 {
		metrics.SuccessRate = float64(metrics.Successes+metrics.CacheHits) / float64(metrics.Total)
	}
	return metrics
}

// GetSuccessRate returns the fraction of completed attempts that produced a
// usable result (including cache hits).
func (m *Monitor) GetSuccessRate() float64 {
	return m.GetMetrics().SuccessRate
}

// GetTopErrors returns error kinds ordered by frequency, most common first.
func (m *Monitor) GetTopErrors() []ErrorCount {
	defer guard("GetTopErrors")

	byKind := m.GetMetrics().ByErrorKind
	out := make([]ErrorCount, 0, len(byKind))
	for kind, count := range byKind {
		out = append(out, ErrorCount{Kind: kind, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// RecentEvents returns up to n most recent completed events, newest first.
func (m *Monitor) RecentEvents(n int) []models.ProcessingEvent {
	defer guard("RecentEvents")

	m.mu.Lock()
	defer m.mu.Unlock()

	retained := m.retained()
	out := make([]models.ProcessingEvent, 0, n)
	for i := len(retained) - 1; i >= 0 && len(out) < n; i-- {
		if retained[i].Outcome != "" {
			out = append(out, retained[i])
		}
	}
	return out
}

// GenerateReport renders a human-readable summary for logs and /status.
func (m *Monitor) GenerateReport() string {
	defer guard("GenerateReport")

	metrics := m.GetMetrics()
	var b strings.Builder
	fmt.Fprintf(&b, "acquisitions: %d total, %d success, %d cache hits, %d errors (%.1f%% success rate)\n",
		metrics.Total, metrics.Successes, metrics.CacheHits, metrics.Errors, metrics.SuccessRate*100)
	for _, strategy := range []models.Strategy{
		models.StrategyStandard, models.StrategyEnhanced, models.StrategyCacheHit,
		models.StrategyMetadataOnly, models.StrategyURLPattern,
		models.StrategyTemplate, models.StrategyEmergencyStub,
	} {
		if n := metrics.ByStrategy[strategy]; n > 0 {
			fmt.Fprintf(&b, "  strategy %s: %d\n", strategy, n)
		}
	}
	for _, ec := range m.GetTopErrors() {
		fmt.Fprintf(&b, "  error %s: %d\n", ec.Kind, ec.Count)
	}
	return b.String()
}

// retained returns the events in chronological order. Caller holds mu.
func (m *Monitor) retained() []models.ProcessingEvent {
	if !m.filled {
		return m.events[:m.next]
	}
	out := make([]models.ProcessingEvent, 0, m.retention)
	out = append(out, m.events[m.next:]...)
	out = append(out, m.events[:m.next]...)
	return out
}

// Since reports elapsed time on the monitor's clock, for duration logging.
func (m *Monitor) Since(t time.Time) time.Duration {
	return m.clock.Now().Sub(t)
}
