// Package coursegen generates schema-conforming course content from LLM
// providers and survives the ways their output goes wrong. It ties the
// model resolver, the layered recovery pipeline, and the audit logger into
// one operation: Generate.
package coursegen

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lessonforge/coursegen/config"
	"github.com/lessonforge/coursegen/genlog"
	"github.com/lessonforge/coursegen/genpipe"
	"github.com/lessonforge/coursegen/llmrouter"
	"github.com/lessonforge/coursegen/objschema"
)

// GenerateRequest describes one structured-generation call.
type GenerateRequest struct {
	Model          string
	GenerationType string
	Prompt         string
	Schema         *objschema.Schema

	// Optional requester identity, recorded for audit.
	UserID   string
	CourseID string
	LessonID string

	Language   string
	Difficulty string
}

// Generator is the top-level entry point. One Generator serves many
// concurrent requests; per-request state lives in the logger each request
// creates for itself.
type Generator struct {
	resolver  *llmrouter.Resolver
	pipeline  *genpipe.Pipeline
	store     *genlog.Store
	zlog      *zap.Logger
	retention time.Duration
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithPipeline replaces the default pipeline. Tests use it to inject fake
// provider adapters.
func WithPipeline(p *genpipe.Pipeline) GeneratorOption {
	return func(g *Generator) { g.pipeline = p }
}

// New assembles a Generator from configuration and an open database handle.
// It migrates the audit table.
func New(cfg *config.Config, db *gorm.DB, zlog *zap.Logger, opts ...GeneratorOption) (*Generator, error) {
	store := genlog.NewStore(db)
	if err := store.Migrate(); err != nil {
		return nil, err
	}

	resolver := llmrouter.NewResolver(cfg.Credentials())
	g := &Generator{
		resolver: resolver,
		pipeline: genpipe.NewPipeline(resolver,
			genpipe.WithInvoker(genpipe.NewInvoker(genpipe.InvokerOptions{Deadline: cfg.Deadline}))),
		store:     store,
		zlog:      zlog,
		retention: cfg.RetentionWindow,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate runs one structured-generation request end to end and persists
// its audit record. The returned object is schema-valid; the error, when
// set, is one of the terminal pipeline errors. Audit persistence never
// affects the returned result.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*genpipe.Result, error) {
	logger := genlog.NewLogger(g.store, g.zlog, g.retention, genlog.RequestContext{
		GenerationType: req.GenerationType,
		SchemaName:     req.Schema.Name,
		ModelID:        req.Model,
		UserID:         req.UserID,
		CourseID:       req.CourseID,
		LessonID:       req.LessonID,
		Language:       req.Language,
		Difficulty:     req.Difficulty,
		PromptText:     req.Prompt,
	})

	result, err := g.pipeline.Run(ctx, req.Model, req.Prompt, req.Schema, logger)
	if err == nil {
		logger.RecordResult(result, providerOf(result.ModelID))
	}
	logger.Finalize(ctx)
	return result, err
}

// CleanupExpired redacts audit rows past their retention window. Exposed as
// a maintenance operation for schedulers; admin reads also run it
// opportunistically.
func (g *Generator) CleanupExpired(ctx context.Context) (int64, error) {
	return g.store.CleanupExpired(ctx)
}

// Logs reads audit records for admin inspection.
func (g *Generator) Logs(ctx context.Context, f genlog.Filter) ([]genlog.GenerationLog, error) {
	return g.store.Query(ctx, f)
}

// Close releases provider resources.
func (g *Generator) Close() error {
	return g.resolver.Close()
}

func providerOf(modelID string) string {
	if modelID == llmrouter.MockModelID {
		return "mock"
	}
	if info := llmrouter.GetModelInfo(modelID); info != nil {
		return info.Provider
	}
	return ""
}
