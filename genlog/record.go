package genlog

import (
	"time"
)

// GenerationLog is the persisted audit record for one generation attempt.
// rawOutputText and promptText are sensitive: they are non-null only until
// SensitiveTextExpiresAt, after which the sweeper redacts them. Everything
// else is kept indefinitely.
type GenerationLog struct {
	ID string `gorm:"primaryKey;size:36"`

	GenerationType string `gorm:"size:64;index"`
	SchemaName     string `gorm:"size:128"`
	ModelID        string `gorm:"size:64;index"`
	Provider       string `gorm:"size:32"`

	UserID   *string `gorm:"size:36"`
	CourseID *string `gorm:"size:36;index"`
	LessonID *string `gorm:"size:36"`

	Outcome    string `gorm:"size:32;index"`
	DurationMs int64

	Layer0Called bool
	Layer0Result string `gorm:"size:16"`

	Layer1Called     bool
	Layer1Success    bool
	Layer1HadWrapper bool
	WrapperType      string `gorm:"size:16"`

	Layer2Called  bool
	Layer2Success bool
	Layer2ModelID string `gorm:"size:64"`

	RawOutputLen      int
	RawOutputText     *string
	RawOutputRedacted bool

	// ZodErrors is a serialized JSON array of {path, message} objects
	// collected during validation and coercion.
	ZodErrors    string
	ErrorMessage *string

	PromptHash     string `gorm:"size:64;index"`
	PromptText     *string
	PromptRedacted bool

	SensitiveTextExpiresAt  time.Time `gorm:"index"`
	SensitiveTextRedactedAt *time.Time

	Language   string `gorm:"size:16"`
	Difficulty string `gorm:"size:32"`

	CreatedAt time.Time `gorm:"index"`
}

func (GenerationLog) TableName() string {
	return "generation_logs"
}
