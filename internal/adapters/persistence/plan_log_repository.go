package persistence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
)

// PlanLogRepository manages planning run log persistence
type PlanLogRepository interface {
	// Log writes a log entry to the database with deduplication
	Log(ctx context.Context, runID, message, level string, metadata map[string]interface{}) error

	// GetLogs retrieves logs of a run, oldest first, with optional level filtering
	GetLogs(ctx context.Context, runID string, limit, offset int, level *string) ([]PlanLogEntry, error)
}

// PlanLogEntry represents a log entry
type PlanLogEntry struct {
	ID        int
	RunID     string
	Timestamp time.Time
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// GormPlanLogRepository is a GORM-based implementation
type GormPlanLogRepository struct {
	db    *gorm.DB
	clock shared.Clock

	dedupCache   map[string]time.Time // key: runID+message, value: last logged time
	dedupMu      sync.Mutex
	dedupWindow  time.Duration
	dedupMaxSize int
}

// NewGormPlanLogRepository creates a new plan log repository
// If clock is nil, uses RealClock (production behavior)
func NewGormPlanLogRepository(db *gorm.DB, clock shared.Clock) *GormPlanLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormPlanLogRepository{
		db:           db,
		clock:        clock,
		dedupCache:   make(map[string]time.Time),
		dedupWindow:  60 * time.Second,
		dedupMaxSize: 10000,
	}
}

// Log writes a log entry with time-windowed deduplication.
// The same message for the same run is stored at most once per window.
func (r *GormPlanLogRepository) Log(ctx context.Context, runID, message, level string, metadata map[string]interface{}) error {
	now := r.clock.Now()
	cacheKey := runID + "|" + message

	r.dedupMu.Lock()
	if lastLogged, exists := r.dedupCache[cacheKey]; exists && now.Sub(lastLogged) < r.dedupWindow {
		r.dedupMu.Unlock()
		return nil
	}
	if len(r.dedupCache) >= r.dedupMaxSize {
		r.cleanupDedupCache(now)
	}
	r.dedupCache[cacheKey] = now
	r.dedupMu.Unlock()

	// Metadata is optional, an unencodable map is dropped rather than failing the log line
	var metadataJSON string
	if len(metadata) > 0 {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	entry := &PlanLogModel{
		RunID:     runID,
		Timestamp: now,
		Level:     level,
		Message:   message,
		Metadata:  metadataJSON,
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// cleanupDedupCache removes entries older than the deduplication window.
// Must be called while holding dedupMu
func (r *GormPlanLogRepository) cleanupDedupCache(now time.Time) {
	cutoff := now.Add(-r.dedupWindow)
	for key, timestamp := range r.dedupCache {
		if timestamp.Before(cutoff) {
			delete(r.dedupCache, key)
		}
	}
}

// GetLogs retrieves logs of a run with pagination support
func (r *GormPlanLogRepository) GetLogs(ctx context.Context, runID string, limit, offset int, level *string) ([]PlanLogEntry, error) {
	var models []PlanLogModel

	query := r.db.WithContext(ctx).Where("run_id = ?", runID)
	if level != nil {
		query = query.Where("level = ?", *level)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Order("timestamp ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]PlanLogEntry, len(models))
	for i, model := range models {
		var metadata map[string]interface{}
		if model.Metadata != "" {
			if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
				metadata = nil
			}
		}

		entries[i] = PlanLogEntry{
			ID:        model.ID,
			RunID:     model.RunID,
			Timestamp: model.Timestamp,
			Level:     model.Level,
			Message:   model.Message,
			Metadata:  metadata,
		}
	}
	return entries, nil
}
