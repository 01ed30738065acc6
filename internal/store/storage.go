package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// RunHistory records pipeline executions.
type RunHistory interface {
	EnsureSchema(ctx context.Context) error
	InsertRun(ctx context.Context, run *PipelineRun) error
	FinishRun(ctx context.Context, run *PipelineRun) error
	GetLatest(ctx context.Context, limit int) ([]PipelineRun, error)
}

type Storage struct {
	PipelineRuns RunHistory
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		PipelineRuns: &PipelineRunStore{db: db},
	}
}
