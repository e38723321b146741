package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// QuotaStore persists the daily enrichment counter so a restart mid-day
// does not hand the process a fresh budget.
type QuotaStore struct {
	filePath string
	mu       sync.Mutex
}

// QuotaState is the on-disk record: how many deep-analysis calls were spent
// and which local day they belong to.
type QuotaState struct {
	Day  string `json:"day"` // YYYY-MM-DD in local time
	Used int    `json:"used"`
}

func NewQuotaStore(dataDir string) (*QuotaStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &QuotaStore{
		filePath: filepath.Join(dataDir, "enrichment_quota.json"),
	}, nil
}

// Load returns the persisted usage for day, or zero when the stored state
// belongs to an earlier day or does not exist.
func (qs *QuotaStore) Load(day time.Time) (int, error) {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	file, err := os.Open(qs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open quota file: %w", err)
	}
	defer file.Close()

	var state QuotaState
	if err := json.NewDecoder(file).Decode(&state); err != nil {
		return 0, fmt.Errorf("failed to decode quota state: %w", err)
	}

	if state.Day != day.Format("2006-01-02") {
		return 0, nil
	}
	return state.Used, nil
}

// Save writes the current usage for day.
func (qs *QuotaStore) Save(day time.Time, used int) error {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	file, err := os.Create(qs.filePath)
	if err != nil {
		return fmt.Errorf("failed to create quota file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(QuotaState{
		Day:  day.Format("2006-01-02"),
		Used: used,
	})
}
