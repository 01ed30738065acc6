// Package pipeline sequences the bronze, silver and gold stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/farxc/ecommerce_medallion/internal/bronze"
	"github.com/farxc/ecommerce_medallion/internal/files"
	"github.com/farxc/ecommerce_medallion/internal/gold"
	"github.com/farxc/ecommerce_medallion/internal/logger"
	"github.com/farxc/ecommerce_medallion/internal/silver"
	"github.com/farxc/ecommerce_medallion/internal/store"
	"github.com/farxc/ecommerce_medallion/internal/table"
	"github.com/google/uuid"
)

var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// errSkipped marks files never started because a fail-fast run aborted.
var errSkipped = errors.New("skipped")

type Options struct {
	InputDir   string
	OutputDir  string
	StageDelay time.Duration
	Workers    int
	FailFast   bool
}

type Orchestrator struct {
	opts      Options
	bronze    *bronze.Stage
	silver    *silver.Stage
	gold      *gold.Stage
	runs      store.RunHistory
	appLogger *logger.Logger

	sleep   func(ctx context.Context, d time.Duration) error
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewOrchestrator builds the three stages over opts. reader only applies to
// raw input; bronze, silver and gold files are always read as UTF-8. runs may
// be nil, in which case no run history is kept.
func NewOrchestrator(opts Options, reader table.Reader, runs store.RunHistory, appLogger *logger.Logger) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Orchestrator{
		opts:      opts,
		bronze:    bronze.NewStage(opts.OutputDir, reader, appLogger),
		silver:    silver.NewStage(opts.OutputDir, table.Reader{}, appLogger),
		gold:      gold.NewStage(opts.OutputDir, table.Reader{}, appLogger),
		runs:      runs,
		appLogger: appLogger,
		sleep:     sleepContext,
	}
}

// GoldStage exposes the gold stage for reading written tables.
func (o *Orchestrator) GoldStage() *gold.Stage {
	return o.gold
}

// Running reports whether a run is executing.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Run executes a full pipeline run and blocks until it finishes.
func (o *Orchestrator) Run(ctx context.Context, trigger string) (RunSummary, error) {
	if !o.running.CompareAndSwap(false, true) {
		return RunSummary{}, ErrRunInProgress
	}
	defer o.running.Store(false)

	summary := o.execute(ctx, uuid.NewString(), trigger)
	return summary, summary.Err
}

// Start launches a full run in the background and returns its id.
func (o *Orchestrator) Start(ctx context.Context, trigger string) (string, error) {
	if !o.running.CompareAndSwap(false, true) {
		return "", ErrRunInProgress
	}

	runID := uuid.NewString()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.running.Store(false)
		o.execute(ctx, runID, trigger)
	}()
	return runID, nil
}

// Wait blocks until every background run started with Start has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) execute(ctx context.Context, runID, trigger string) RunSummary {
	const component = "Orchestrator"
	summary := RunSummary{RunID: runID, Trigger: trigger, StartedAt: time.Now().UTC()}
	o.appLogger.Info(component, "Starting pipeline run: run_id=%s trigger=%s input=%s output=%s workers=%d",
		runID, trigger, o.opts.InputDir, o.opts.OutputDir, o.opts.Workers)

	o.recordStart(ctx, summary)

	summary.Err = o.runStages(ctx, &summary)
	summary.FinishedAt = time.Now().UTC()
	o.recordFinish(ctx, summary)
	if summary.Err != nil {
		o.appLogger.Error(component, "Pipeline run failed: run_id=%s err=%v", runID, summary.Err)
	} else {
		o.appLogger.Info(component, "Pipeline run finished: run_id=%s status=%s bronze=%d/%d silver=%d/%d",
			runID, summary.Status(), summary.Bronze.Succeeded, summary.Bronze.Files, summary.Silver.Succeeded, summary.Silver.Files)
	}
	return summary
}

func (o *Orchestrator) runStages(ctx context.Context, summary *RunSummary) error {
	if err := files.CleanDirectory(o.opts.OutputDir, o.opts.OutputDir); err != nil {
		return fmt.Errorf("clearing output: %w", err)
	}
	if err := o.sleep(ctx, o.opts.StageDelay); err != nil {
		return err
	}

	report, err := o.Bronze(ctx)
	summary.Bronze = report
	if err != nil {
		return err
	}
	if err := o.sleep(ctx, o.opts.StageDelay); err != nil {
		return err
	}

	report, diagnostics, err := o.Silver(ctx)
	summary.Silver = report
	summary.Diagnostics = diagnostics
	if err != nil {
		return err
	}

	result, err := o.Gold(ctx)
	if err != nil {
		return err
	}
	summary.Gold = &result
	return nil
}

// Bronze ingests every input file.
func (o *Orchestrator) Bronze(ctx context.Context) (StageReport, error) {
	inputs, err := files.ListFiles(o.opts.InputDir, files.FormatCSV)
	if err != nil {
		return StageReport{Stage: files.LayerBronze}, fmt.Errorf("discovering input files: %w", err)
	}

	return o.processFiles(ctx, files.LayerBronze, inputs, func(path string) error {
		_, err := o.bronze.Process(path)
		return err
	})
}

// Silver cleans every bronze file currently in the output area.
func (o *Orchestrator) Silver(ctx context.Context) (StageReport, []silver.Diagnostics, error) {
	inputs, err := o.layerFiles(files.LayerBronze)
	if err != nil {
		return StageReport{Stage: files.LayerSilver}, nil, err
	}

	diagnostics := make([]silver.Diagnostics, len(inputs))
	cleaned := make([]bool, len(inputs))
	index := make(map[string]int, len(inputs))
	for i, path := range inputs {
		index[path] = i
	}

	report, err := o.processFiles(ctx, files.LayerSilver, inputs, func(path string) error {
		result, err := o.silver.Process(path)
		if err != nil {
			return err
		}
		diagnostics[index[path]] = result.Diagnostics
		cleaned[index[path]] = true
		return nil
	})

	kept := make([]silver.Diagnostics, 0, len(inputs))
	for i := range inputs {
		if cleaned[i] {
			kept = append(kept, diagnostics[i])
		}
	}
	return report, kept, err
}

// Gold rebuilds the gold tables from every silver file in the output area.
func (o *Orchestrator) Gold(ctx context.Context) (gold.Result, error) {
	if err := ctx.Err(); err != nil {
		return gold.Result{}, err
	}
	inputs, err := o.layerFiles(files.LayerSilver)
	if err != nil {
		return gold.Result{}, err
	}
	return o.gold.Run(inputs)
}

// layerFiles lists the csv files of a layer; a missing layer directory is empty.
func (o *Orchestrator) layerFiles(layer string) ([]string, error) {
	dir := filepath.Join(o.opts.OutputDir, layer)
	paths, err := files.ListFiles(dir, files.FormatCSV)
	if errors.Is(err, files.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("discovering %s files: %w", layer, err)
	}
	return paths, nil
}

// processFiles runs fn over paths on at most Workers goroutines. Failures are
// collected per file; with FailFast the first failure stops new files from
// starting and is returned.
func (o *Orchestrator) processFiles(ctx context.Context, stage string, paths []string, fn func(string) error) (StageReport, error) {
	const component = "Worker"
	report := StageReport{Stage: stage, Files: len(paths)}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make([]error, len(paths))
	sem := make(chan struct{}, o.opts.Workers)
	var wg sync.WaitGroup

	for i, path := range paths {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			errs[i] = errSkipped
			continue
		}
		if ctx.Err() != nil {
			<-sem
			errs[i] = errSkipped
			continue
		}

		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			o.appLogger.Debug(component, "Processing file: stage=%s path=%s", stage, path)
			if err := fn(path); err != nil {
				errs[i] = err
				o.appLogger.Error(component, "File failed: stage=%s path=%s err=%v", stage, path, err)
				if o.opts.FailFast {
					cancel()
				}
			}
		}(i, path)
	}
	wg.Wait()

	var first error
	for i, err := range errs {
		switch {
		case err == nil:
			report.Succeeded++
		case errors.Is(err, errSkipped):
			report.Skipped++
		default:
			report.Failures = append(report.Failures, FileFailure{Stage: stage, Path: paths[i], Err: err})
			if first == nil {
				first = err
			}
		}
	}

	if o.opts.FailFast && first != nil {
		return report, fmt.Errorf("%s stage aborted: %w", stage, first)
	}
	if report.Skipped > 0 {
		return report, ctx.Err()
	}
	return report, nil
}

func (o *Orchestrator) recordStart(ctx context.Context, summary RunSummary) {
	const component = "Orchestrator-History"
	if o.runs == nil {
		return
	}
	run := summary.record()
	run.Status = store.StatusInProgress
	run.Message = ""
	if err := o.runs.InsertRun(ctx, run); err != nil {
		o.appLogger.Error(component, "Failed to create in_progress record: run_id=%s err=%v", summary.RunID, err)
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, summary RunSummary) {
	const component = "Orchestrator-History"
	if o.runs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	run := summary.record()
	if err := o.runs.FinishRun(ctx, run); err != nil {
		o.appLogger.Error(component, "Failed to update final status: run_id=%s status=%s err=%v", summary.RunID, run.Status, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
