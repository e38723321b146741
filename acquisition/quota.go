package acquisition

import (
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"pitch-pipeline/shared/storage"
)

// DailyQuota bounds how many deep-analysis calls the process spends per
// local day. The counter rolls over lazily at midnight on the injected
// clock and persists through the store so restarts keep the day's spend.
type DailyQuota struct {
	mu    sync.Mutex
	limit int
	used  int
	day   time.Time // midnight of the day the counter belongs to
	clock clockwork.Clock
	store *storage.QuotaStore
}

func NewDailyQuota(limit int, clock clockwork.Clock, store *storage.QuotaStore) *DailyQuota {
	q := &DailyQuota{
		limit: limit,
		clock: clock,
		store: store,
		day:   midnightOf(clock.Now()),
	}
	if store != nil {
		used, err := store.Load(q.day)
		if err != nil {
			log.Printf("Quota: failed to load persisted state, starting fresh: %v", err)
		} else {
			q.used = used
		}
	}
	return q
}

// TryAcquire consumes one unit of today's budget. It returns false when the
// budget is exhausted; exhaustion is not an error, the enrichment tier is
// simply skipped.
func (q *DailyQuota) TryAcquire() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.used >= q.limit {
		return false
	}
	q.used++
	q.persist()
	return true
}

// Remaining reports today's unspent budget.
func (q *DailyQuota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return q.limit - q.used
}

// Used reports today's spend.
func (q *DailyQuota) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return q.used
}

// Reset zeroes the counter for the current day. Wired to the maintenance
// scheduler as a belt-and-braces companion to the lazy rollover.
func (q *DailyQuota) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.day = midnightOf(q.clock.Now())
	q.used = 0
	q.persist()
	log.Printf("Enrichment quota reset (%d available)", q.limit)
}

// rollover moves the counter to the current day if midnight has passed.
// Caller holds mu.
func (q *DailyQuota) rollover() {
	today := midnightOf(q.clock.Now())
	if today.After(q.day) {
		q.day = today
		q.used = 0
		q.persist()
	}
}

func (q *DailyQuota) persist() {
	if q.store == nil {
		return
	}
	if err := q.store.Save(q.day, q.used); err != nil {
		log.Printf("Quota: failed to persist state: %v", err)
	}
}

func midnightOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
