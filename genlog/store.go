package genlog

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lessonforge/coursegen/llmrouter"
)

// Store wraps the database handle for generation log rows.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store over an open gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the generation_logs table.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&GenerationLog{})
}

// Create inserts one finalized record.
func (s *Store) Create(ctx context.Context, rec *GenerationLog) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return &llmrouter.PersistenceError{PipelineError: llmrouter.PipelineError{
			Message: "insert generation log",
			Cause:   err,
		}}
	}
	return nil
}

// CleanupExpired redacts every row whose retention window has elapsed and
// that has not been redacted yet. The "not yet redacted" predicate lives in
// the UPDATE itself, so concurrent invocations never re-redact or
// double-count a row. Returns the number of rows redacted by this call.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&GenerationLog{}).
		Where("sensitive_text_expires_at <= ? AND sensitive_text_redacted_at IS NULL", now).
		Updates(map[string]any{
			"raw_output_text":            nil,
			"raw_output_redacted":        true,
			"prompt_text":                nil,
			"prompt_redacted":            true,
			"sensitive_text_redacted_at": now,
		})
	if res.Error != nil {
		return 0, &llmrouter.PersistenceError{PipelineError: llmrouter.PipelineError{
			Message: "redact expired generation logs",
			Cause:   res.Error,
		}}
	}
	return res.RowsAffected, nil
}

// Filter narrows a Query. Zero fields are ignored.
type Filter struct {
	GenerationType string
	Outcome        string
	ModelID        string
	CourseID       string
	From           time.Time
	To             time.Time
	Limit          int
}

// Query reads records for admin inspection, newest first. It runs
// CleanupExpired first so raw payloads past their expiry are never returned,
// even if the periodic sweep has not caught up.
func (s *Store) Query(ctx context.Context, f Filter) ([]GenerationLog, error) {
	if _, err := s.CleanupExpired(ctx); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&GenerationLog{})
	if f.GenerationType != "" {
		q = q.Where("generation_type = ?", f.GenerationType)
	}
	if f.Outcome != "" {
		q = q.Where("outcome = ?", f.Outcome)
	}
	if f.ModelID != "" {
		q = q.Where("model_id = ?", f.ModelID)
	}
	if f.CourseID != "" {
		q = q.Where("course_id = ?", f.CourseID)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []GenerationLog
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, &llmrouter.PersistenceError{PipelineError: llmrouter.PipelineError{
			Message: "query generation logs",
			Cause:   err,
		}}
	}
	return rows, nil
}
