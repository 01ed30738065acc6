package store

import (
	"time"

	"github.com/lib/pq"
)

// PipelineRun represents the 'pipeline_runs' table.
type PipelineRun struct {
	ID              int64          `db:"id" json:"id"`
	RunID           string         `db:"run_id" json:"run_id"`
	StartedAt       time.Time      `db:"started_at" json:"started_at"`
	FinishedAt      *time.Time     `db:"finished_at" json:"finished_at"`
	Status          string         `db:"status" json:"status"`
	TriggerType     string         `db:"trigger_type" json:"trigger_type"`
	FilesDiscovered int            `db:"files_discovered" json:"files_discovered"`
	FilesFailed     int            `db:"files_failed" json:"files_failed"`
	FailedFiles     pq.StringArray `db:"failed_files" json:"failed_files"`
	Message         string         `db:"message" json:"message"`
}
