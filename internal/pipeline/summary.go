package pipeline

import (
	"fmt"
	"time"

	"github.com/farxc/ecommerce_medallion/internal/gold"
	"github.com/farxc/ecommerce_medallion/internal/silver"
	"github.com/farxc/ecommerce_medallion/internal/store"
)

type FileFailure struct {
	Stage string
	Path  string
	Err   error
}

// StageReport counts the outcome of one per-file stage.
type StageReport struct {
	Stage     string
	Files     int
	Succeeded int
	Skipped   int
	Failures  []FileFailure
}

type RunSummary struct {
	RunID      string
	Trigger    string
	StartedAt  time.Time
	FinishedAt time.Time

	Bronze      StageReport
	Silver      StageReport
	Diagnostics []silver.Diagnostics
	Gold        *gold.Result
	Err         error
}

// Failures returns the per-file failures of every stage.
func (s RunSummary) Failures() []FileFailure {
	out := make([]FileFailure, 0, len(s.Bronze.Failures)+len(s.Silver.Failures))
	out = append(out, s.Bronze.Failures...)
	return append(out, s.Silver.Failures...)
}

// Status maps the summary to a run history status.
func (s RunSummary) Status() string {
	switch {
	case s.Err != nil || s.Gold == nil:
		return store.StatusFailure
	case len(s.Failures()) > 0:
		return store.StatusPartial
	default:
		return store.StatusSuccess
	}
}

func (s RunSummary) Message() string {
	if s.Err != nil {
		return s.Err.Error()
	}
	failures := s.Failures()
	if len(failures) > 0 {
		return fmt.Sprintf("%d file(s) failed", len(failures))
	}
	return "completed"
}

func (s RunSummary) record() *store.PipelineRun {
	failed := make([]string, 0)
	for _, f := range s.Failures() {
		failed = append(failed, f.Path)
	}
	return &store.PipelineRun{
		RunID:           s.RunID,
		Status:          s.Status(),
		TriggerType:     s.Trigger,
		FilesDiscovered: s.Bronze.Files,
		FilesFailed:     len(failed),
		FailedFiles:     failed,
		Message:         s.Message(),
	}
}
