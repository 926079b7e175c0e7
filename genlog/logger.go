package genlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lessonforge/coursegen/genpipe"
	"github.com/lessonforge/coursegen/objschema"
)

// RequestContext carries the identity and prompt of one generation attempt.
// Optional references are empty strings.
type RequestContext struct {
	GenerationType string
	SchemaName     string
	ModelID        string
	UserID         string
	CourseID       string
	LessonID       string
	Language       string
	Difficulty     string
	PromptText     string
}

// Logger accumulates the audit record for a single generation attempt and
// persists it exactly once on Finalize. It implements genpipe.Recorder, so
// it can be handed straight to Pipeline.Run. Owned by one request; the
// mutex only guards against a misbehaving caller.
type Logger struct {
	store *Store
	zlog  *zap.Logger

	mu        sync.Mutex
	rec       GenerationLog
	started   time.Time
	finalized bool
}

// NewLogger opens the record for a generation attempt. The prompt is hashed
// immediately and its expiry computed now, not at finalize time, so the
// retention clock starts when the sensitive text enters the system.
func NewLogger(store *Store, zlog *zap.Logger, retention time.Duration, rc RequestContext) *Logger {
	now := time.Now()
	hash := sha256.Sum256([]byte(rc.PromptText))
	prompt := rc.PromptText

	rec := GenerationLog{
		ID:                     uuid.NewString(),
		GenerationType:         rc.GenerationType,
		SchemaName:             rc.SchemaName,
		ModelID:                rc.ModelID,
		Outcome:                string(genpipe.OutcomeFailed),
		Layer0Result:           string(genpipe.RepairNotRun),
		WrapperType:            string(genpipe.WrapperNone),
		PromptHash:             hex.EncodeToString(hash[:]),
		PromptText:             &prompt,
		SensitiveTextExpiresAt: now.Add(retention),
		Language:               rc.Language,
		Difficulty:             rc.Difficulty,
		CreatedAt:              now,
	}
	if rc.UserID != "" {
		rec.UserID = &rc.UserID
	}
	if rc.CourseID != "" {
		rec.CourseID = &rc.CourseID
	}
	if rc.LessonID != "" {
		rec.LessonID = &rc.LessonID
	}

	return &Logger{store: store, zlog: zlog, rec: rec, started: now}
}

func (l *Logger) RecordLayer0(tracker genpipe.RepairTracker) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.Layer0Called = tracker.Attempted
	l.rec.Layer0Result = string(tracker.Result)
}

func (l *Logger) RecordLayer1(report genpipe.Layer1Report) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.Layer1Called = true
	l.rec.Layer1Success = report.Success
	l.rec.Layer1HadWrapper = report.HadWrapper
	l.rec.WrapperType = string(report.Wrapper)
	l.setRawOutput(report.RawText)
	l.rec.ZodErrors = marshalIssues(report.Issues)
}

func (l *Logger) RecordLayer2(report genpipe.Layer2Report) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.Layer2Called = true
	l.rec.Layer2Success = report.Success
	l.rec.Layer2ModelID = report.ModelID
}

func (l *Logger) RecordFailure(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.Outcome = string(genpipe.OutcomeFailed)
	l.rec.ErrorMessage = &message
}

// RecordResult captures the terminal outcome of a successful run: the
// outcome tag, the provider that answered, and the raw text the object came
// from.
func (l *Logger) RecordResult(result *genpipe.Result, provider string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.Outcome = string(result.Outcome)
	l.rec.Provider = provider
	l.setRawOutput(result.RawText)
}

func (l *Logger) setRawOutput(text string) {
	if text == "" || l.rec.RawOutputText != nil {
		return
	}
	raw := text
	l.rec.RawOutputText = &raw
	l.rec.RawOutputLen = len(raw)
}

// Finalize persists the record. Calling it a second time is a no-op logged
// as a bug. A persistence failure is logged for operators and swallowed;
// the generation result must not depend on the audit write.
func (l *Logger) Finalize(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.finalized {
		l.zlog.Error("generation log finalized twice",
			zap.String("log_id", l.rec.ID),
			zap.String("model_id", l.rec.ModelID))
		return
	}
	l.finalized = true
	l.rec.DurationMs = time.Since(l.started).Milliseconds()

	if err := l.store.Create(ctx, &l.rec); err != nil {
		l.zlog.Error("generation log write failed",
			zap.String("log_id", l.rec.ID),
			zap.String("outcome", l.rec.Outcome),
			zap.Error(err))
	}
}

func marshalIssues(issues []objschema.Issue) string {
	if len(issues) == 0 {
		return "[]"
	}
	b, err := json.Marshal(issues)
	if err != nil {
		return "[]"
	}
	return string(b)
}
