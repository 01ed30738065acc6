package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PipelineRunStore struct {
	db *sqlx.DB
}

var (
	TriggerTypeManual = "manual"
	TriggerTypeAPI    = "api"
)

var (
	StatusInProgress = "in_progress"
	StatusSuccess    = "success"
	StatusFailure    = "failure"
	StatusPartial    = "partial"
)

func (s *PipelineRunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, pipelineRunsSchema); err != nil {
		return fmt.Errorf("creating pipeline_runs: %w", err)
	}
	return nil
}

func (s *PipelineRunStore) InsertRun(ctx context.Context, run *PipelineRun) error {
	if run.FailedFiles == nil {
		run.FailedFiles = pq.StringArray{}
	}
	query := `INSERT INTO pipeline_runs (
		run_id,
		status,
		trigger_type,
		files_discovered,
		files_failed,
		failed_files,
		message
	) VALUES (
		:run_id,
		:status,
		:trigger_type,
		:files_discovered,
		:files_failed,
		:failed_files,
		:message
	) RETURNING id, started_at`

	rows, err := s.db.NamedQueryContext(ctx, query, run)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&run.ID, &run.StartedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

// FinishRun stores the final status and counters of run and stamps finished_at.
func (s *PipelineRunStore) FinishRun(ctx context.Context, run *PipelineRun) error {
	if run.FailedFiles == nil {
		run.FailedFiles = pq.StringArray{}
	}
	query := `UPDATE pipeline_runs SET
		status = :status,
		files_discovered = :files_discovered,
		files_failed = :files_failed,
		failed_files = :failed_files,
		message = :message,
		finished_at = NOW()
	WHERE run_id = :run_id`

	res, err := s.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("pipeline run %s not found", run.RunID)
	}
	return nil
}

func (s *PipelineRunStore) GetLatest(ctx context.Context, limit int) ([]PipelineRun, error) {
	query := `SELECT id, run_id, started_at, finished_at, status, trigger_type,
		files_discovered, files_failed, failed_files, message
	FROM pipeline_runs
	ORDER BY started_at DESC, id DESC
	LIMIT $1`

	var runs []PipelineRun
	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, err
	}
	return runs, nil
}
