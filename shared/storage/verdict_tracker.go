package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"flight-check/internal/models"
)

// VerdictTracker persists the last overall verdict per location so the agent
// can tell when conditions changed between runs. Only the verdict is stored;
// weather and aviation data are never persisted.
type VerdictTracker struct {
	filePath string
	verdicts map[string]TrackedVerdict
	mu       sync.RWMutex
	maxAge   time.Duration
	clock    clockwork.Clock
}

// TrackedVerdict is the last verdict recorded for a location
type TrackedVerdict struct {
	Location  string       `json:"location"`
	Level     models.Level `json:"level"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewVerdictTracker creates a tracker backed by verdicts.json in dataDir.
// Entries older than maxAge are treated as unknown.
func NewVerdictTracker(dataDir string, maxAge time.Duration, clock clockwork.Clock) (*VerdictTracker, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &VerdictTracker{
		filePath: filepath.Join(dataDir, "verdicts.json"),
		verdicts: make(map[string]TrackedVerdict),
		maxAge:   maxAge,
		clock:    clock,
	}

	if err := tracker.load(); err != nil {
		return nil, fmt.Errorf("failed to load verdict tracker data: %w", err)
	}

	tracker.cleanup()

	return tracker, nil
}

// Previous returns the last verdict for location if it is still fresh.
func (vt *VerdictTracker) Previous(location string) (models.Level, bool) {
	vt.mu.RLock()
	defer vt.mu.RUnlock()

	v, exists := vt.verdicts[location]
	if !exists || vt.clock.Since(v.UpdatedAt) >= vt.maxAge {
		return models.LevelGo, false
	}
	return v.Level, true
}

// Record stores level for location and reports whether it differs from the
// previous fresh verdict. A first sighting counts as a change.
func (vt *VerdictTracker) Record(location string, level models.Level) (bool, error) {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	prev, exists := vt.verdicts[location]
	fresh := exists && vt.clock.Since(prev.UpdatedAt) < vt.maxAge
	changed := !fresh || prev.Level != level

	vt.verdicts[location] = TrackedVerdict{
		Location:  location,
		Level:     level,
		UpdatedAt: vt.clock.Now(),
	}
	return changed, vt.save()
}

// Count returns the number of tracked locations
func (vt *VerdictTracker) Count() int {
	vt.mu.RLock()
	defer vt.mu.RUnlock()
	return len(vt.verdicts)
}

func (vt *VerdictTracker) cleanup() {
	cutoff := vt.clock.Now().Add(-vt.maxAge)

	for location, v := range vt.verdicts {
		if v.UpdatedAt.Before(cutoff) {
			delete(vt.verdicts, location)
		}
	}
}

func (vt *VerdictTracker) load() error {
	file, err := os.Open(vt.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open tracker file: %w", err)
	}
	defer file.Close()

	var tracked []TrackedVerdict
	if err := json.NewDecoder(file).Decode(&tracked); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}

	for _, v := range tracked {
		vt.verdicts[v.Location] = v
	}

	return nil
}

// save writes all verdicts, sorted by location for stable diffs.
func (vt *VerdictTracker) save() error {
	tracked := make([]TrackedVerdict, 0, len(vt.verdicts))
	for _, v := range vt.verdicts {
		tracked = append(tracked, v)
	}
	sort.Slice(tracked, func(i, j int) bool { return tracked[i].Location < tracked[j].Location })

	tmp := vt.filePath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(tracked); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode tracker data: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close tracker file: %w", err)
	}
	return os.Rename(tmp, vt.filePath)
}
